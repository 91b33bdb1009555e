// Package api exposes the traffic light store and pattern engine over HTTP.
//
// Routes under /api are guarded by the OIDC middleware and rate limited per
// client IP. Every matched route is instrumented with prometheus counters.
// Responses are JSON; errors carry a single {"error": "..."} field.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/greenwave-dev/greenwave/pkg/auth"
	"github.com/greenwave-dev/greenwave/pkg/cache"
	"github.com/greenwave-dev/greenwave/pkg/store"
)

// requestsPerMinute bounds per-IP traffic on /api routes.
const requestsPerMinute = 60

type rateLimiter struct {
	requests map[string][]time.Time
	mu       sync.Mutex
}

func newRateLimiter() *rateLimiter {
	return &rateLimiter{
		requests: make(map[string][]time.Time),
	}
}

// allow keeps a sliding one-minute window of request times per IP.
func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-time.Minute)

	var valid []time.Time
	for _, t := range rl.requests[ip] {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}

	if len(valid) >= requestsPerMinute {
		rl.requests[ip] = valid
		return false
	}

	rl.requests[ip] = append(valid, now)
	return true
}

// Server holds the handler dependencies. The cache may be nil, in which case
// pattern analyses are computed on every request.
type Server struct {
	store    *store.Store
	cache    *cache.Cache
	verifier *auth.Verifier
	limiter  *rateLimiter
	logger   *slog.Logger
	version  string
}

// New assembles a Server around its collaborators.
func New(st *store.Store, ca *cache.Cache, verifier *auth.Verifier, logger *slog.Logger, version string) *Server {
	return &Server{
		store:    st,
		cache:    ca,
		verifier: verifier,
		limiter:  newRateLimiter(),
		logger:   logger,
		version:  version,
	}
}

// Handler builds the full middleware stack: security wrapper outermost, then
// CORS and access logging, then the router with metrics, rate limiting and
// auth on the /api subrouter.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.instrument)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		s.writeError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.Path("/metrics").Handler(promhttp.Handler())

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.rateLimit, s.verifier.Middleware)

	api.HandleFunc("/traffic-lights", s.handleListLights).Methods(http.MethodGet)
	api.HandleFunc("/traffic-lights", s.handleCreateLight).Methods(http.MethodPost)
	api.HandleFunc("/traffic-lights", s.handleDeleteAllLights).Methods(http.MethodDelete)
	api.HandleFunc("/traffic-lights/{id}", s.handleGetLight).Methods(http.MethodGet)
	api.HandleFunc("/traffic-lights/{id}", s.handleUpdateLight).Methods(http.MethodPut)
	api.HandleFunc("/traffic-lights/{id}", s.handleDeleteLight).Methods(http.MethodDelete)
	api.HandleFunc("/traffic-lights/{id}/captures", s.handleListCaptures).Methods(http.MethodGet)
	api.HandleFunc("/traffic-lights/{id}/captures", s.handleCreateCapture).Methods(http.MethodPost)
	api.HandleFunc("/captures/{id}", s.handleDeleteCapture).Methods(http.MethodDelete)
	api.HandleFunc("/traffic-lights/{id}/pattern", s.handlePattern).Methods(http.MethodGet)
	api.HandleFunc("/traffic-lights/{id}/timeline", s.handleTimeline).Methods(http.MethodGet)
	api.HandleFunc("/traffic-lights/{id}/validation", s.handleValidation).Methods(http.MethodGet)

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions,
		}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
	)

	return s.wrap(cors(handlers.LoggingHandler(os.Stdout, r)))
}

// wrap tags every request with an ID and recovers panics with a stack
// trace. It also sets the security and cache-control headers.
func (s *Server) wrap(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := fmt.Sprintf("%d-%d", time.Now().Unix(), time.Now().Nanosecond())
		w.Header().Set("X-Request-ID", requestID)

		defer func() {
			if err := recover(); err != nil {
				const size = 64 << 10
				buf := make([]byte, size)
				buf = buf[:runtime.Stack(buf, false)]

				s.logger.Error("PANIC: Request handler crashed",
					"error", err,
					"path", r.URL.Path,
					"method", r.Method,
					"request_id", requestID,
					"client_ip", clientIP(r),
					"user_agent", r.Header.Get("User-Agent"),
					"stack", string(buf))
				http.Error(w, "Internal server error", http.StatusInternalServerError)
			}
		}()

		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		w.Header().Set("Content-Security-Policy", "default-src 'none'")

		if strings.HasPrefix(r.URL.Path, "/api/") {
			w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
			w.Header().Set("Pragma", "no-cache")
			w.Header().Set("Expires", "0")
		}

		handler.ServeHTTP(w, r)
	})
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !s.limiter.allow(ip) {
			s.logger.Error("Rate limit exceeded",
				"request_id", w.Header().Get("X-Request-ID"),
				"client_ip", ip,
				"path", r.URL.Path)
			s.writeError(w, http.StatusTooManyRequests, "Rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, detail string) {
	s.writeJSON(w, status, errorResponse{Error: detail})
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"message": "Greenwave Traffic Light API",
		"version": s.version,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
