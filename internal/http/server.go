// Package http exposes the ledger over a JSON API.
package http

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/text/language"

	"kanakku/internal/log"
	"kanakku/internal/services"
	"kanakku/internal/store"
)

const (
	defaultRateLimit = 60
	readyTimeout     = 2 * time.Second
	maxBodyBytes     = 64 << 10
)

// Options configures a Server. The zero value serves English Gregorian labels
// in UTC.
type Options struct {
	Language language.Tag
	Calendar string
	Location *time.Location

	// Ready is pinged by /readyz. Nil means always ready.
	Ready store.Pinger
	// Metrics serves /metrics. Nil means the default Prometheus gatherer.
	Metrics http.Handler
	// RateLimit caps mutating requests per client per minute.
	RateLimit int
	Logger    *log.Logger
}

type Server struct {
	http.Server
	svc         *services.LedgerService
	lang        language.Tag
	calendar    string
	loc         *time.Location
	ready       store.Pinger
	logger      *log.Logger
	rateLimiter *rateLimiter

	shutdownOnce sync.Once
}

func NewServer(addr string, svc *services.LedgerService, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Discard()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Language == language.Und {
		opts.Language = language.English
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = defaultRateLimit
	}
	if opts.Metrics == nil {
		opts.Metrics = promhttp.Handler()
	}

	mux := http.NewServeMux()
	s := &Server{
		svc:         svc,
		lang:        opts.Language,
		calendar:    opts.Calendar,
		loc:         opts.Location,
		ready:       opts.Ready,
		logger:      opts.Logger.WithComponent(log.ComponentHTTP),
		rateLimiter: newRateLimiter(opts.RateLimit, time.Minute),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", opts.Metrics)

	mux.HandleFunc("GET /api/ledger", s.handleLedger)
	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("DELETE /api/transactions", s.handleClearTransactions)
	mux.HandleFunc("PUT /api/transactions/{id}", s.handleEditTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           log.Middleware(opts.Logger, requestID)(s.withSecurityHeaders(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Shutdown stops the rate limiter and drains the HTTP server. It is safe to
// call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withSecurityHeaders sets the response hardening headers and rate limits
// every request that mutates the ledger.
func (s *Server) withSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		w.Header().Set("Referrer-Policy", "no-referrer")

		if isMutating(r.Method) {
			clientIP := extractClientIP(r)
			if !s.rateLimiter.allow(clientIP) {
				log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
					log.FieldClientIP, clientIP,
					log.FieldMethod, r.Method,
					log.FieldPath, r.URL.Path)
				w.Header().Set("Retry-After", strconv.Itoa(int(s.rateLimiter.window.Seconds())))
				writeError(w, r, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if err := s.ready.Ping(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed",
				log.FieldError, err,
				log.FieldErrorType, log.ErrorTypeDatabase)
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
