package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"wave-arena/internal/game"

	"github.com/go-chi/chi/v5"
)

// ServerConfig holds the optional parts of the API server
type ServerConfig struct {
	Hub         HubConfig
	Renderer    ArenaRenderer
	CORSOrigins []string
}

// Server is the HTTP API server with WebSocket support.
// It combines the HTTP router with the WebSocket hub that carries player traffic.
type Server struct {
	engine      *game.Engine
	router      *chi.Mux
	wsHub       *WebSocketHub
	rateLimiter *IPRateLimiter
	httpServer  *http.Server
}

// NewServer creates the API server and registers its hub as the engine's broadcaster.
//
// IMPORTANT: No listener is opened until Start() is called.
// For testing HTTP endpoints without WebSocket support, use NewRouter() directly.
func NewServer(engine *game.Engine, cfg ServerConfig) *Server {
	s := &Server{
		engine:      engine,
		wsHub:       NewWebSocketHub(engine, cfg.Hub),
	}
	rlCfg := DefaultRateLimitConfig
	rlCfg.TrustProxy = cfg.Hub.TrustProxy
	s.rateLimiter = NewIPRateLimiter(rlCfg)

	s.router = NewRouter(RouterConfig{
		Engine:      engine,
		Renderer:    cfg.Renderer,
		Connections: s.wsHub,
		RateLimiter: s.rateLimiter,
		CORSOrigins: cfg.CORSOrigins,
	})
	s.setupWebSocketRoutes()

	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	engine.SetBroadcaster(s.wsHub)
	return s
}

// setupWebSocketRoutes adds WebSocket-specific routes to the router.
// These routes need access to the wsHub instance, so they can't be
// part of the generic NewRouter factory.
func (s *Server) setupWebSocketRoutes() {
	s.router.Get("/ws", s.wsHub.HandleWebSocket)
	// Browser clients connect to the root path
	s.router.Get("/", s.wsHub.HandleWebSocket)
}

// Listen binds addr. A bind failure is returned immediately so the caller can treat it as fatal.
func (s *Server) Listen(addr string) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	return ln, nil
}

// Serve handles requests on ln until Shutdown. Returns nil after a clean shutdown.
func (s *Server) Serve(ln net.Listener) error {
	log.Printf("🌐 API server listening on %s", ln.Addr())
	log.Printf("🔌 WebSocket: ws://%s/ws", ln.Addr())

	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// Start binds addr and serves until Shutdown
func (s *Server) Start(addr string) error {
	ln, err := s.Listen(addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Router returns the HTTP handler for use with httptest.
func (s *Server) Router() http.Handler {
	return s.router
}

// Hub returns the WebSocket hub
func (s *Server) Hub() *WebSocketHub {
	return s.wsHub
}

// Shutdown stops accepting requests, disconnects all players and stops background workers.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	s.wsHub.Close()
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
	return err
}
