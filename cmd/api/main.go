package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"gotur/pkg/catalog"
	"gotur/pkg/config"
	"gotur/pkg/logger"
	"gotur/pkg/order"
	"gotur/pkg/order/memory"
	pg "gotur/pkg/order/postgres"
	"gotur/pkg/otel"
	"gotur/pkg/promo"
	"gotur/pkg/session"
	"gotur/pkg/shop"
)

const serviceName = "gotur"

// @title Götür API
// @version 1.0
// @description Store browsing, cart pricing and order history for Götür
// @host localhost:8443
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in cookie
// @name session_id
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log := logger.New(os.Stdout, logger.ParseLevel(cfg.LogLevel), serviceName, otel.GetTraceID)
	defer log.Sync()

	if err := run(log, cfg); err != nil {
		log.Error(context.Background(), "startup", "error", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *logger.Logger, cfg config.Config) error {
	ctx := context.Background()

	tp, shutdownTracing, err := otel.InitTracing(log, otel.Config{
		ServiceName: serviceName,
		Host:        cfg.OTELHost,
		Probability: cfg.TraceProbability,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer shutdownTracing(ctx)

	orders, closeOrders, err := openOrders(ctx, log, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer closeOrders()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}

	a := &app{
		log:        log,
		tracer:     tp.Tracer(serviceName),
		sessions:   session.NewRedisStore(redisClient, cfg.SessionTTL),
		shop:       shop.New(log, catalog.Sample(), promo.Default(), order.NewBuilder(), orders, shop.WithCartTTL(cfg.SessionTTL)),
		sessionTTL: cfg.SessionTTL,
	}

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}
	grpcServer := serveHealth(log, lis)
	defer grpcServer.GracefulStop()

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           a.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	serverErrors := make(chan error, 1)
	go func() {
		log.Info(ctx, "listening", "addr", cfg.HTTPAddr, "tls", cfg.TLSCert != "")
		if cfg.TLSCert != "" {
			serverErrors <- srv.ListenAndServeTLS(cfg.TLSCert, cfg.TLSKey)
			return
		}
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case sig := <-shutdown:
		log.Info(ctx, "shutdown started", "signal", sig.String())
		sctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			srv.Close()
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		log.Info(ctx, "shutdown complete")
		return nil
	}
}

// openOrders picks Postgres when a database URL is configured and the
// in-memory repository otherwise.
func openOrders(ctx context.Context, log *logger.Logger, dsn string) (order.Repository, func(), error) {
	if dsn == "" {
		log.Warn(ctx, "DATABASE_URL not set, order history is kept in memory")
		return memory.New(), func() {}, nil
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("db connect: %w", err)
	}
	repo := pg.New(db)
	if err := repo.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	return repo, func() { db.Close() }, nil
}

// serveHealth exposes the standard gRPC health service on lis.
func serveHealth(log *logger.Logger, lis net.Listener) *grpc.Server {
	s := grpc.NewServer()
	hs := health.NewServer()
	hs.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	hs.SetServingStatus(serviceName, grpc_health_v1.HealthCheckResponse_SERVING)
	grpc_health_v1.RegisterHealthServer(s, hs)
	go func() {
		if err := s.Serve(lis); err != nil {
			log.Error(context.Background(), "grpc server", "error", err)
		}
	}()
	log.Info(context.Background(), "grpc health listening", "addr", lis.Addr().String())
	return s
}
