// Package config reads service settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the service settings.
type Config struct {
	HTTPAddr         string
	GRPCAddr         string
	DatabaseURL      string
	RedisAddr        string
	OTELHost         string
	TraceProbability float64
	SessionTTL       time.Duration
	TLSCert          string
	TLSKey           string
	LogLevel         string
}

// Load reads the environment through getenv, usually os.Getenv.
func Load(getenv func(string) string) (Config, error) {
	cfg := Config{
		HTTPAddr:    withDefault(getenv("HTTP_ADDR"), ":8443"),
		GRPCAddr:    withDefault(getenv("GRPC_ADDR"), ":50051"),
		DatabaseURL: getenv("DATABASE_URL"),
		RedisAddr:   withDefault(getenv("REDIS_ADDR"), "localhost:6379"),
		OTELHost:    getenv("OTEL_HOST"),
		TLSCert:     getenv("TLS_CERT"),
		TLSKey:      getenv("TLS_KEY"),
		LogLevel:    withDefault(getenv("LOG_LEVEL"), "info"),
	}

	var err error
	cfg.TraceProbability, err = parseFloat(getenv("TRACE_PROBABILITY"), 1.0)
	if err != nil {
		return Config{}, fmt.Errorf("TRACE_PROBABILITY: %w", err)
	}
	if cfg.TraceProbability < 0 || cfg.TraceProbability > 1 {
		return Config{}, fmt.Errorf("TRACE_PROBABILITY: %v out of range [0,1]", cfg.TraceProbability)
	}
	cfg.SessionTTL, err = parseDuration(getenv("SESSION_TTL"), time.Hour)
	if err != nil {
		return Config{}, fmt.Errorf("SESSION_TTL: %w", err)
	}
	if (cfg.TLSCert == "") != (cfg.TLSKey == "") {
		return Config{}, fmt.Errorf("TLS_CERT and TLS_KEY must be set together")
	}
	return cfg, nil
}

// FromEnv loads the process environment.
func FromEnv() (Config, error) {
	return Load(os.Getenv)
}

func withDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func parseFloat(v string, def float64) (float64, error) {
	if v == "" {
		return def, nil
	}
	return strconv.ParseFloat(v, 64)
}

func parseDuration(v string, def time.Duration) (time.Duration, error) {
	if v == "" {
		return def, nil
	}
	return time.ParseDuration(v)
}
