// Package web exposes the ingestion pipeline and dashboard queries over a
// thin JSON API.
package web

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/JonMunkholm/TxDash/internal/config"
	"github.com/JonMunkholm/TxDash/internal/ingest"
	"github.com/JonMunkholm/TxDash/internal/store"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	mw "github.com/JonMunkholm/TxDash/internal/web/middleware"
)

// Ingestor runs the full pipeline for one uploaded file.
// Implemented by *ingest.Coordinator; substituted with a fake in tests.
type Ingestor interface {
	Ingest(ctx context.Context, fileName string, data []byte) *ingest.Result
}

// DataStore is the read side consumed by the dashboard handlers.
// Implemented by *store.Store.
type DataStore interface {
	Ping(ctx context.Context) error
	ListTransactions(ctx context.Context, p store.ListParams) (*store.TransactionPage, error)
	AgeGroups(ctx context.Context) ([]store.AgeBucket, error)
	GenderCounts(ctx context.Context) ([]store.GenderCount, error)
	MonthlyTrend(ctx context.Context) ([]store.MonthlyFlow, error)
	TopSpenders(ctx context.Context, n int) ([]store.Spender, error)
	WeekdayActivity(ctx context.Context) ([]store.WeekdayCount, error)
	ListIngestions(ctx context.Context, limit int) ([]store.Ingestion, error)
}

// Server is the HTTP server for the transaction dashboard API.
type Server struct {
	ingestor Ingestor
	data     DataStore
	cfg      *config.Config
	router   *chi.Mux
	server   *http.Server
}

// NewServer creates a Server wired to the given pipeline and read store.
func NewServer(ingestor Ingestor, data DataStore, cfg *config.Config) *Server {
	s := &Server{
		ingestor: ingestor,
		data:     data,
		cfg:      cfg,
		router:   chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(chimw.RealIP)
	s.router.Use(mw.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(chimw.Compress(5))
	s.router.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))

	s.router.Use(securityHeaders)

	if s.cfg.Rate.Enabled {
		limiter := newRateLimiter(s.cfg.Rate.RequestsPerMinute, time.Minute)
		s.router.Use(limiter.middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		// Upload gets its own tighter rate bucket; a batch insert is far
		// more expensive than a read.
		r.Group(func(r chi.Router) {
			if s.cfg.Rate.Enabled {
				limiter := newRateLimiter(s.cfg.Rate.UploadLimit, time.Minute)
				r.Use(limiter.middleware)
			}
			r.Post("/upload", s.handleUpload)
		})

		r.Get("/transactions", s.handleListTransactions)
		r.Get("/ingestions", s.handleListIngestions)

		r.Route("/analytics", func(r chi.Router) {
			r.Get("/age-groups", s.handleAgeGroups)
			r.Get("/gender", s.handleGenderCounts)
			r.Get("/monthly-trend", s.handleMonthlyTrend)
			r.Get("/top-spenders", s.handleTopSpenders)
			r.Get("/heatmap", s.handleWeekdayActivity)
		})
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// rateLimiter implements a simple token bucket rate limiter per IP.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     int           // requests per window
	window   time.Duration // time window
}

type visitor struct {
	tokens    int
	lastReset time.Time
}

// newRateLimiter creates a rate limiter with the specified rate per window.
func newRateLimiter(rate int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		window:   window,
	}
	go rl.cleanup()
	return rl
}

// cleanup removes stale visitor entries every minute.
func (rl *rateLimiter) cleanup() {
	for {
		time.Sleep(time.Minute)
		rl.mu.Lock()
		for ip, v := range rl.visitors {
			if time.Since(v.lastReset) > rl.window*2 {
				delete(rl.visitors, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// allow checks if the request should be allowed and consumes a token if so.
func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[ip]
	if !exists {
		rl.visitors[ip] = &visitor{
			tokens:    rl.rate - 1,
			lastReset: time.Now(),
		}
		return true
	}

	if time.Since(v.lastReset) > rl.window {
		v.tokens = rl.rate - 1
		v.lastReset = time.Now()
		return true
	}

	if v.tokens <= 0 {
		return false
	}

	v.tokens--
	return true
}

// middleware returns an HTTP middleware that rate limits by IP.
func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(r.RemoteAddr) {
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}
