// Package server provides the HTTP REST API for the verification service.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/employment-verifier/internal/identity"
	"github.com/jonathan/employment-verifier/internal/orchestrator"
	"github.com/jonathan/employment-verifier/internal/server/middleware"
	"github.com/jonathan/employment-verifier/internal/server/ratelimit"
	"github.com/jonathan/employment-verifier/internal/store"
	"github.com/jonathan/employment-verifier/internal/workflow"
)

// Server represents the HTTP server.
type Server struct {
	httpServer    *http.Server
	candidates    store.CandidateStore
	attempts      store.AttemptStore
	workflows     store.WorkflowStore
	matcher       *identity.Matcher
	runner        *orchestrator.Runner
	engine        *workflow.Engine
	rateLimiter   *ratelimit.Limiter
	jwtService    *JWTService
	metrics       *Metrics
	validate      *validator.Validate
	webhookSecret string
}

// Config holds server configuration.
type Config struct {
	ListenAddr    string
	WebhookSecret string
}

// Deps holds the server's wired dependencies. JWT may be nil, which disables
// authentication on the API routes (local development only).
type Deps struct {
	Candidates store.CandidateStore
	Attempts   store.AttemptStore
	Workflows  store.WorkflowStore
	Matcher    *identity.Matcher
	Runner     *orchestrator.Runner
	Engine     *workflow.Engine
	JWT        *JWTService
}

// New creates a new server instance.
func New(cfg Config, deps Deps) (*Server, error) {
	if deps.Candidates == nil || deps.Attempts == nil || deps.Workflows == nil {
		return nil, fmt.Errorf("server requires candidate, attempt and workflow stores")
	}
	if deps.Matcher == nil || deps.Runner == nil || deps.Engine == nil {
		return nil, fmt.Errorf("server requires matcher, runner and workflow engine")
	}

	s := &Server{
		candidates:    deps.Candidates,
		attempts:      deps.Attempts,
		workflows:     deps.Workflows,
		matcher:       deps.Matcher,
		runner:        deps.Runner,
		engine:        deps.Engine,
		jwtService:    deps.JWT,
		rateLimiter:   ratelimit.NewLimiter(ratelimit.LoadConfig()),
		metrics:       NewMetrics(),
		validate:      validator.New(),
		webhookSecret: cfg.WebhookSecret,
	}

	mux := http.NewServeMux()

	// Unauthenticated surface.
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", s.metrics.Handler())

	// Webhooks carry a shared secret instead of a JWT; the checks live in
	// the handlers.
	mux.HandleFunc("POST /webhooks/call-result", s.handleCallResultWebhook)
	mux.HandleFunc("POST /webhooks/email-reply", s.handleEmailReplyWebhook)

	// API routes.
	mux.Handle("POST /verify", s.authenticated(s.handleVerify))
	mux.Handle("POST /verifications", s.authenticated(s.handleCreateVerification))
	mux.Handle("GET /verifications/{id}", s.authenticated(s.handleGetVerification))
	mux.Handle("POST /verifications/{id}/timeout", s.authenticated(s.handleEmailTimeout))
	mux.Handle("GET /candidates/{id}", s.authenticated(s.handleGetCandidate))
	mux.Handle("GET /candidates/{id}/attempts", s.authenticated(s.handleListAttempts))

	s.httpServer = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      s.withRateLimit(s.withLogging(s.withMetrics(mux))),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // Verification runs fan out to slow external services
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler returns the fully wrapped root handler (for tests).
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins listening for requests and blocks until shutdown.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}

	log.Println("Server stopped")
	return nil
}

// authenticated wraps a handler with JWT validation when a JWT service is
// configured.
func (s *Server) authenticated(h http.HandlerFunc) http.Handler {
	if s.jwtService == nil {
		return h
	}
	return middleware.AuthMiddleware(s.jwtService.AsTokenValidator())(h)
}

// withMetrics records request latency and response counts per route pattern.
func (s *Server) withMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		s.metrics.ObserveRequest(route, r.Method, strconv.Itoa(rec.status), time.Since(start))
	})
}

// statusRecorder captures the response status for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withRateLimit adds rate limiting middleware.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := s.extractClientID(r)

		allowed, info := s.rateLimiter.Allow(clientID, r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, info)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("[%s] %s %s", r.Method, r.URL.Path, r.RemoteAddr)
		next.ServeHTTP(w, r)
		log.Printf("[%s] %s completed in %v", r.Method, r.URL.Path, time.Since(start))
	})
}

// handleHealth returns server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response.
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// errorResponse writes an error JSON response.
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// extractClientID extracts the client identifier from the request.
// This uses the IP address from RemoteAddr; X-Forwarded-For handling belongs
// behind a trusted proxy setup.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit
// information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	response := map[string]interface{}{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}

	if info.RetryAfter > 0 {
		response["retry_after"] = int(info.RetryAfter.Seconds())
		w.Header().Set("Retry-After", fmt.Sprintf("%d", int(info.RetryAfter.Seconds())))
	}

	log.Printf("[rate-limit] Rate limit exceeded: Limit=%d Remaining=%d Reset=%s",
		info.Limit, info.Remaining, info.ResetTime.Format(time.RFC3339))

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
