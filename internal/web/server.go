package web

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/hpungsan/sieve/internal/assist"
	"github.com/hpungsan/sieve/internal/config"
	"github.com/hpungsan/sieve/internal/store"
)

// RequestIDHeader carries the per-request id on responses.
const RequestIDHeader = "X-Request-ID"

// maxBodyBytes bounds every request body.
const maxBodyBytes = 1 << 20

// NewServer creates the HTTP server for the Sieve JSON API.
func NewServer(st *store.Store, cfg *config.Config, svc assist.Assistant, logger *slog.Logger) *http.Server {
	if logger == nil {
		logger = slog.Default()
	}
	h := NewHandlers(st, cfg, svc)

	return &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           requestID(logRequests(logger, securityHeaders(h.Routes()))),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Routes registers every API route on a new mux.
func (h *Handlers) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	// Routes using Go 1.22+ pattern syntax
	mux.HandleFunc("GET /items", h.HandleList)
	mux.HandleFunc("POST /items", h.HandleCreate)
	mux.HandleFunc("GET /items/{id}", h.HandleGet)
	mux.HandleFunc("PUT /items/{id}", h.HandleReplace)
	mux.HandleFunc("PATCH /items/{id}", h.HandleEdit)
	mux.HandleFunc("DELETE /items/{id}", h.HandleDelete)
	mux.HandleFunc("POST /items/{id}/{action}", h.HandleTransition)
	mux.HandleFunc("POST /items/{id}/assist/{kind}", h.HandleAssist)
	mux.HandleFunc("GET /views/{name}", h.HandleView)
	mux.HandleFunc("GET /board", h.HandleBoard)
	mux.HandleFunc("GET /calendar", h.HandleCalendar)
	mux.HandleFunc("GET /next", h.HandleNext)
	mux.HandleFunc("GET /search", h.HandleSearch)
	mux.HandleFunc("POST /score", h.HandleScore)
	mux.HandleFunc("POST /classify", h.HandleClassify)
	mux.HandleFunc("POST /bulk", h.HandleBulk)
	mux.HandleFunc("POST /bulk/delete", h.HandleBulkDelete)
	mux.HandleFunc("POST /purge", h.HandlePurge)

	return mux
}

// securityHeaders adds security-related HTTP headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'none'")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

type ctxKey struct{}

// requestID tags each request with a fresh UUID, or the caller's own id.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

// RequestIDFrom returns the request id stored by the middleware.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// logRequests writes one log line per request.
func logRequests(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		level := slog.LevelInfo
		if rec.status >= 500 {
			level = slog.LevelError
		}
		logger.LogAttrs(r.Context(), level, "http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("duration", time.Since(start)),
			slog.String("request_id", RequestIDFrom(r.Context())),
		)
	})
}

// Run starts the HTTP server and handles graceful shutdown on SIGINT/SIGTERM.
func Run(srv *http.Server, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logger.Info("sieve API listening", "addr", fmt.Sprintf("http://%s", srv.Addr))

	if strings.HasPrefix(srv.Addr, "0.0.0.0") || strings.HasPrefix(srv.Addr, "[::]") {
		logger.Warn("server is binding to all interfaces and may be accessible from the network")
	}

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		logger.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}
