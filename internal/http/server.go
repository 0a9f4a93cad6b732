// Package http exposes the ledger as a JSON API: phrase submission,
// transaction listing, balance management, summaries and chart images.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/youserz/finance-tracker/internal/cache"
	"github.com/youserz/finance-tracker/internal/core"
)

// LedgerAPI is what the handlers need from the service layer.
type LedgerAPI interface {
	SubmitText(ctx context.Context, input string) (*core.Transaction, error)
	RecentTransactions(ctx context.Context, limit int) ([]core.Transaction, error)
	Balance(ctx context.Context) (float64, error)
	SetBalance(ctx context.Context, balance float64) error
	Recalculate(ctx context.Context) (float64, error)
	Delete(ctx context.Context, id string) error
	ExpensesByCategory(ctx context.Context) ([]core.CategoryTotal, error)
	MonthlyFlows(ctx context.Context) ([]core.MonthlyFlow, error)
	Categories(ctx context.Context) ([]core.Category, error)
}

// ChartRenderer renders summary aggregates as PNG images.
type ChartRenderer interface {
	CategoryPie([]core.CategoryTotal) ([]byte, error)
	MonthlyFlows([]core.MonthlyFlow) ([]byte, error)
}

// Options tune server behavior; zero values fall back to defaults.
type Options struct {
	RecentLimit        int
	RateLimitPerMinute int
	CacheTTL           time.Duration
}

// Server is the HTTP front of the tracker.
type Server struct {
	http.Server
	ledger      LedgerAPI
	charts      ChartRenderer
	recentLimit int
	rateLimiter *rateLimiter

	// Summary queries are cached between writes.
	categoryCache *cache.LRU[[]core.CategoryTotal]
	monthlyCache  *cache.LRU[[]core.MonthlyFlow]
	chartCache    *cache.LRU[[]byte]

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server.
func NewServer(addr string, ledger LedgerAPI, charts ChartRenderer, opts Options) *Server {
	if opts.RecentLimit <= 0 {
		opts.RecentLimit = 50
	}
	if opts.RateLimitPerMinute <= 0 {
		opts.RateLimitPerMinute = 60
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}

	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		ledger:           ledger,
		charts:           charts,
		recentLimit:      opts.RecentLimit,
		rateLimiter:      newRateLimiter(opts.RateLimitPerMinute),
		categoryCache:    cache.NewLRU[[]core.CategoryTotal](8, opts.CacheTTL),
		monthlyCache:     cache.NewLRU[[]core.MonthlyFlow](8, opts.CacheTTL),
		chartCache:       cache.NewLRU[[]byte](8, opts.CacheTTL),
		stopCacheCleanup: make(chan struct{}),
	}

	go s.startCacheCleanup()

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /transactions", s.withMiddleware(s.handleSubmit))
	mux.HandleFunc("GET /transactions", s.withMiddleware(s.handleListTransactions))
	mux.HandleFunc("DELETE /transactions/{id}", s.withMiddleware(s.handleDeleteTransaction))

	mux.HandleFunc("GET /balance", s.withMiddleware(s.handleGetBalance))
	mux.HandleFunc("PUT /balance", s.withMiddleware(s.handleSetBalance))
	mux.HandleFunc("POST /balance/recalculate", s.withMiddleware(s.handleRecalculate))

	mux.HandleFunc("GET /summary/categories", s.withMiddleware(s.handleCategorySummary))
	mux.HandleFunc("GET /summary/monthly", s.withMiddleware(s.handleMonthlySummary))
	mux.HandleFunc("GET /charts/categories.png", s.withMiddleware(s.handleCategoryChart))
	mux.HandleFunc("GET /charts/monthly.png", s.withMiddleware(s.handleMonthlyChart))

	mux.HandleFunc("GET /categories", s.withMiddleware(s.handleListCategories))

	return s
}

// startCacheCleanup periodically drops expired summary cache entries.
func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cleaned := s.categoryCache.CleanExpired() +
				s.monthlyCache.CleanExpired() +
				s.chartCache.CleanExpired()
			if cleaned > 0 {
				slog.Debug("Cache cleanup completed", "entries_removed", cleaned)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// invalidateSummaries drops every cached aggregate after a write.
func (s *Server) invalidateSummaries() {
	s.categoryCache.Purge()
	s.monthlyCache.Purge()
	s.chartCache.Purge()
}

// Shutdown stops the cleanup goroutines and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		close(s.stopCacheCleanup)
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// withMiddleware adds security headers, rate limiting on mutating methods
// and request logging.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := r.Context()

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"client_ip", clientIP)

		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodDelete:
			if !s.rateLimiter.allow(clientIP) {
				slog.WarnContext(ctx, "Rate limit exceeded",
					"request_id", requestID, "client_ip", clientIP, "path", r.URL.Path)
				w.Header().Set("Retry-After", "60")
				respondError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status_code", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", clientIP)
	}
}

// responseWriter captures the status code for request logging.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

// rateLimiter is a simple fixed-window per-client limiter.
type rateLimiter struct {
	mu           sync.Mutex
	limit        int
	clients      map[string]*clientInfo
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type clientInfo struct {
	lastRequest time.Time
	requests    int
}

func newRateLimiter(limit int) *rateLimiter {
	rl := &rateLimiter{
		limit:       limit,
		clients:     make(map[string]*clientInfo),
		stopCleanup: make(chan struct{}),
	}
	go rl.startCleanup()
	return rl
}

func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	client, exists := rl.clients[clientIP]

	if !exists {
		rl.clients[clientIP] = &clientInfo{lastRequest: now, requests: 1}
		return true
	}

	if now.Sub(client.lastRequest) > time.Minute {
		client.requests = 1
		client.lastRequest = now
		return true
	}

	client.requests++
	client.lastRequest = now

	return client.requests <= rl.limit
}

func (rl *rateLimiter) startCleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.stopCleanup:
			return
		}
	}
}

// cleanupStaleEntries drops clients idle for more than ten minutes.
func (rl *rateLimiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, client := range rl.clients {
		if client.lastRequest.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.shutdownOnce.Do(func() {
		close(rl.stopCleanup)
	})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
