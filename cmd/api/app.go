package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.opentelemetry.io/otel/trace"

	_ "gotur/docs"
	"gotur/pkg/catalog"
	"gotur/pkg/logger"
	"gotur/pkg/order"
	"gotur/pkg/otel"
	"gotur/pkg/session"
	"gotur/pkg/shop"
)

const sessionCookie = "session_id"

type ctxKey int

const (
	profileKey ctxKey = iota
	sessionKey
)

// app carries the dependencies shared by the HTTP handlers.
type app struct {
	log        *logger.Logger
	tracer     trace.Tracer
	sessions   session.Store
	shop       *shop.Service
	sessionTTL time.Duration
}

func (a *app) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(a.traceMiddleware)
	r.HandleFunc("/login", a.loginHandler).Methods(http.MethodPost)
	r.HandleFunc("/stores", a.listStoresHandler).Methods(http.MethodGet)
	r.HandleFunc("/stores/{id}", a.getStoreHandler).Methods(http.MethodGet)
	r.HandleFunc("/stores/{id}/products", a.listProductsHandler).Methods(http.MethodGet)
	r.HandleFunc("/stores/{id}/categories", a.listCategoriesHandler).Methods(http.MethodGet)
	r.HandleFunc("/order-statuses", a.listStatusesHandler).Methods(http.MethodGet)

	api := r.NewRoute().Subrouter()
	api.Use(a.authMiddleware)
	api.HandleFunc("/logout", a.logoutHandler).Methods(http.MethodPost)
	api.HandleFunc("/cart", a.getCartHandler).Methods(http.MethodGet)
	api.HandleFunc("/cart", a.clearCartHandler).Methods(http.MethodDelete)
	api.HandleFunc("/cart/items", a.addItemHandler).Methods(http.MethodPost)
	api.HandleFunc("/cart/items/{productID}", a.setQuantityHandler).Methods(http.MethodPut)
	api.HandleFunc("/cart/items/{productID}", a.removeItemHandler).Methods(http.MethodDelete)
	api.HandleFunc("/cart/promotion", a.applyPromotionHandler).Methods(http.MethodPut)
	api.HandleFunc("/cart/promotion", a.removePromotionHandler).Methods(http.MethodDelete)
	api.HandleFunc("/cart/note", a.setNoteHandler).Methods(http.MethodPut)
	api.HandleFunc("/checkout", a.checkoutHandler).Methods(http.MethodPost)
	api.HandleFunc("/orders", a.listOrdersHandler).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id}", a.getOrderHandler).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id}/status", a.updateStatusHandler).Methods(http.MethodPut)

	r.PathPrefix("/swagger/").Handler(httpSwagger.WrapHandler)
	return r
}

// authMiddleware ensures a valid session exists.
func (a *app) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(sessionCookie)
		if err != nil {
			writeErr(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		p, err := a.sessions.Get(r.Context(), c.Value)
		if err != nil {
			if !errors.Is(err, session.ErrNotFound) {
				a.log.Error(r.Context(), "load session", "error", err)
			}
			writeErr(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		ctx := context.WithValue(r.Context(), profileKey, p)
		ctx = context.WithValue(ctx, sessionKey, c.Value)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *app) traceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.InjectTracing(r.Context(), a.tracer)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func profileFrom(ctx context.Context) session.Profile {
	p, _ := ctx.Value(profileKey).(session.Profile)
	return p
}

func sessionFrom(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey).(string)
	return id
}

// fail maps domain errors onto HTTP status codes.
func (a *app) fail(ctx context.Context, w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, catalog.ErrStoreNotFound),
		errors.Is(err, shop.ErrProductNotFound),
		errors.Is(err, order.ErrNotFound):
		writeErr(w, http.StatusNotFound, err.Error())
	case errors.Is(err, shop.ErrPromotionRejected),
		errors.Is(err, order.ErrEmptyCart),
		errors.Is(err, order.ErrNoStore):
		writeErr(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, order.ErrInvalidStatus):
		writeErr(w, http.StatusBadRequest, err.Error())
	default:
		a.log.Error(ctx, op, "error", err)
		writeErr(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg})
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
