// Command showads-stub is a local stand-in for the ShowAds API so the
// connector can be exercised without the real service. It issues bearer
// tokens, accepts single and bulk banner submissions, and can inject
// 500s and 429s to exercise the connector's retry handling.
//
// Environment:
//
//	PORT                  listen port (default 8080)
//	STUB_TOKEN_TTL        token lifetime in seconds (default 86400)
//	STUB_FAIL_RATE        percent of banner requests answered 500 (default 0)
//	STUB_RATE_LIMIT_EVERY every Nth banner request answered 429 (default 0, off)
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/meiro/showads-connector/internal/config"
	"github.com/meiro/showads-connector/internal/customer"
	"github.com/meiro/showads-connector/internal/pkg/httputil"
	"github.com/meiro/showads-connector/internal/showads"
)

type stubServer struct {
	tokenTTL       time.Duration
	failRate       int   // percent of banner requests answered 500
	rateLimitEvery int64 // every Nth banner request answered 429, 0 = off

	mu     sync.Mutex
	tokens map[string]time.Time // token -> expiry

	requests int64 // banner requests seen, drives rate limiting
	accepted int64 // customers accepted so far

	now func() time.Time
}

func newStubServer(ttl time.Duration, failRate, rateLimitEvery int) *stubServer {
	return &stubServer{
		tokenTTL:       ttl,
		failRate:       failRate,
		rateLimitEvery: int64(rateLimitEvery),
		tokens:         make(map[string]time.Time),
		now:            time.Now,
	}
}

func (s *stubServer) routes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Post("/auth", s.handleAuth)

	r.Group(func(r chi.Router) {
		r.Use(s.requireToken)
		r.Use(s.injectFailures)
		r.Post("/banners/show", s.handleShow)
		r.Post("/banners/show/bulk", s.handleShowBulk)
	})

	return r
}

func (s *stubServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]any{
		"status":   "healthy",
		"service":  "showads-stub",
		"accepted": atomic.LoadInt64(&s.accepted),
	})
}

func (s *stubServer) handleAuth(w http.ResponseWriter, r *http.Request) {
	var req showads.AuthRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.ProjectKey) == "" {
		httputil.Forbidden(w, "unknown project key")
		return
	}

	token := uuid.NewString()
	s.mu.Lock()
	s.tokens[token] = s.now().Add(s.tokenTTL)
	s.mu.Unlock()

	log.Printf("[stub] issued token for project %q (ttl %s)", req.ProjectKey, s.tokenTTL)
	httputil.OK(w, showads.AuthResponse{
		AccessToken: token,
		ExpiresIn:   int(s.tokenTTL.Seconds()),
	})
}

// requireToken rejects requests without a known, unexpired bearer token.
func (s *stubServer) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		const prefix = "Bearer "
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, prefix) {
			httputil.Unauthorized(w, "missing bearer token")
			return
		}
		token := strings.TrimPrefix(auth, prefix)

		s.mu.Lock()
		expiry, known := s.tokens[token]
		s.mu.Unlock()

		if !known || s.now().After(expiry) {
			httputil.Unauthorized(w, "invalid or expired token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// injectFailures answers the configured share of banner requests with
// 500 or 429 so clients have something to retry against.
func (s *stubServer) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt64(&s.requests, 1)
		if s.rateLimitEvery > 0 && n%s.rateLimitEvery == 0 {
			httputil.Error(w, http.StatusTooManyRequests, "injected rate limit")
			return
		}
		if s.failRate > 0 && rand.Intn(100) < s.failRate {
			httputil.InternalError(w, errors.New("injected failure"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *stubServer) handleShow(w http.ResponseWriter, r *http.Request) {
	var req showads.ShowBannerRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if msg := checkBanner(req); msg != "" {
		httputil.BadRequest(w, msg)
		return
	}
	atomic.AddInt64(&s.accepted, 1)
	httputil.OK(w, acceptedResponse{Accepted: 1})
}

func (s *stubServer) handleShowBulk(w http.ResponseWriter, r *http.Request) {
	var req showads.BulkShowBannerRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if len(req.Data) == 0 {
		httputil.BadRequest(w, "Data must not be empty")
		return
	}
	if len(req.Data) > config.MaxBatchSize {
		httputil.BadRequest(w, fmt.Sprintf("Data exceeds the maximum of %d entries", config.MaxBatchSize))
		return
	}
	for i, b := range req.Data {
		if msg := checkBanner(b); msg != "" {
			httputil.BadRequest(w, fmt.Sprintf("entry %d: %s", i, msg))
			return
		}
	}
	atomic.AddInt64(&s.accepted, int64(len(req.Data)))
	httputil.OK(w, acceptedResponse{Accepted: len(req.Data)})
}

type acceptedResponse struct {
	Accepted int `json:"Accepted"`
}

// checkBanner applies the structural checks the real service performs.
// Age limits are a connector concern, so the stub does not enforce them.
func checkBanner(b showads.ShowBannerRequest) string {
	if strings.TrimSpace(b.Name) == "" {
		return "Name must not be empty"
	}
	if _, err := uuid.Parse(b.VisitorCookie); err != nil {
		return "VisitorCookie must be a UUID"
	}
	if b.BannerID < customer.MinBannerID || b.BannerID > customer.MaxBannerID {
		return fmt.Sprintf("BannerId must be between %d and %d", customer.MinBannerID, customer.MaxBannerID)
	}
	return ""
}

func main() {
	log.Println("Starting ShowAds stub API (local testing only)...")

	ttl := time.Duration(envInt("STUB_TOKEN_TTL", 86400)) * time.Second
	failRate := envInt("STUB_FAIL_RATE", 0)
	rateLimitEvery := envInt("STUB_RATE_LIMIT_EVERY", 0)
	s := newStubServer(ttl, failRate, rateLimitEvery)

	if failRate > 0 {
		log.Printf("Failure injection: %d%% of banner requests answered 500", failRate)
	}
	if rateLimitEvery > 0 {
		log.Printf("Rate limiting: every %dth banner request answered 429", rateLimitEvery)
	}

	port := envOrDefault("PORT", "8080")
	server := &http.Server{
		Addr:         "0.0.0.0:" + port,
		Handler:      s.routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Stub listening on :%s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down stub...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Stub stopped")
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Ignoring %s=%q: %v", key, v, err)
		return def
	}
	return n
}
