package api

import (
	"io"
	"net/http"
	"time"

	"wave-arena/internal/game"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// EngineInterface defines the engine methods used by the HTTP API.
// This interface enables mocking for tests without spinning up the tick loop.
// Keep this minimal - only include methods the API layer actually calls.
type EngineInterface interface {
	// GetSnapshot returns the latest lock-free immutable snapshot
	GetSnapshot() *game.GameSnapshot
	// Leaderboard returns the top n players by score
	Leaderboard(n int) []game.LeaderboardEntry
	// PlayerRank returns one player's leaderboard entry
	PlayerRank(playerID string) (game.LeaderboardEntry, bool)
	// TotalKills returns enemies destroyed since start
	TotalKills() uint64
	// GetEventLogStats returns event log counters
	GetEventLogStats() map[string]interface{}
}

// ArenaRenderer draws a snapshot as a PNG image
type ArenaRenderer interface {
	RenderPNG(w io.Writer, snap *game.GameSnapshot) error
}

// ConnectionStats reports live WebSocket connections and their input handling
type ConnectionStats interface {
	ClientCount() int
	InputStats() InputStats
}

// RouterConfig contains all dependencies needed to construct the HTTP router.
// This struct is designed for dependency injection and testability.
//
// Example usage in tests:
//
//	cfg := api.RouterConfig{
//	    Engine: mockEngine,
//	    RateLimitConfig: &api.RateLimitConfig{
//	        RequestsPerSecond: 1000, // High limit for tests
//	        Burst:             1000,
//	    },
//	}
//	router := api.NewRouter(cfg)
//	ts := httptest.NewServer(router)
type RouterConfig struct {
	// Engine is the simulation (required)
	Engine EngineInterface

	// Renderer serves /api/arena.png. The route is omitted when nil.
	Renderer ArenaRenderer

	// Connections is optional; used for the stats endpoint
	Connections ConnectionStats

	// RateLimiter is an optional pre-configured rate limiter.
	// If nil, a new one will be created using RateLimitConfig.
	RateLimiter *IPRateLimiter

	// RateLimitConfig is optional configuration for the rate limiter.
	// Only used if RateLimiter is nil. If both are nil, uses DefaultRateLimitConfig.
	RateLimitConfig *RateLimitConfig

	// CORSOrigins is an optional list of allowed CORS origins.
	// If nil, uses AllowedOrigins plus localhost.
	CORSOrigins []string

	// DisableLogging disables the request logger middleware (useful for benchmarks).
	DisableLogging bool
}

// routerHandlers holds the handler functions for the router.
type routerHandlers struct {
	engine      EngineInterface
	renderer    ArenaRenderer
	connections ConnectionStats
}

// NewRouter constructs the HTTP router with all middleware and routes.
//
// IMPORTANT: This function is PURE - it has no side effects:
//   - No goroutines are started except the rate limiter cleanup
//   - No network listeners are opened
//
// This makes it safe to use in tests with httptest.NewServer.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware - Order matters!
	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(metricsMiddleware)

	// Rate limiting (BEFORE CORS to reject early and save CPU)
	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimitCfg := DefaultRateLimitConfig
		if cfg.RateLimitConfig != nil {
			rateLimitCfg = *cfg.RateLimitConfig
		}
		rateLimiter = NewIPRateLimiter(rateLimitCfg)
	}

	corsOrigins := cfg.CORSOrigins
	if corsOrigins == nil {
		corsOrigins = append([]string{"http://localhost:*", "http://127.0.0.1:*"}, AllowedOrigins...)
	}

	h := &routerHandlers{
		engine:      cfg.Engine,
		renderer:    cfg.Renderer,
		connections: cfg.Connections,
	}

	r.Get("/health", h.handleHealth)

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Use(rateLimiter.Middleware)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsOrigins,
			AllowedMethods: []string{"GET", "OPTIONS"},
			AllowedHeaders: []string{"*"},
		}))

		r.Get("/state", h.handleGetState)
		r.Get("/stats", h.handleGetStats)
		r.Get("/leaderboard", h.handleGetLeaderboard)
		r.Get("/leaderboard/{playerID}", h.handleGetPlayerRank)
		if h.renderer != nil {
			r.Get("/arena.png", h.handleArenaPNG)
		}
	})

	return r
}

// metricsMiddleware records latency per route pattern, never per raw URL
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		endpoint := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				endpoint = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		RecordRequest(r.Method, endpoint, status, time.Since(start))
	})
}
