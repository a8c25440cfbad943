package http

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/agentllm/agentllm-core/internal/core/ports/driven"
	"github.com/agentllm/agentllm-core/internal/core/ports/driving"
)

// Pinger is a simple health check interface
type Pinger interface {
	Ping(ctx context.Context) error
}

// AgentResolver resolves an agent name to its per-turn configurator.
type AgentResolver interface {
	Configurator(name string) (driving.ConfiguratorService, error)
	Names() []string
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	version    string

	// Services
	agents       AgentResolver
	tokenAdmin   driving.TokenAdminService
	oauthConfigs map[string]driven.OAuthToolkitConfig

	// Infrastructure
	authenticator driven.TokenAuthenticator
	db            Pinger // PostgreSQL health check
	redisClient   Pinger // Redis health check (optional)
}

// Config holds server configuration
type Config struct {
	Host    string
	Port    int
	Version string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:    "0.0.0.0",
		Port:    8080,
		Version: "dev",
	}
}

// NewServer creates a new HTTP server
func NewServer(
	cfg Config,
	agents AgentResolver,
	tokenAdmin driving.TokenAdminService,
	oauthConfigs map[string]driven.OAuthToolkitConfig,
	authenticator driven.TokenAuthenticator,
	db Pinger,
	redisClient Pinger, // can be nil
) *Server {
	s := &Server{
		router:        http.NewServeMux(),
		version:       cfg.Version,
		agents:        agents,
		tokenAdmin:    tokenAdmin,
		oauthConfigs:  oauthConfigs,
		authenticator: authenticator,
		db:            db,
		redisClient:   redisClient,
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	authMiddleware := NewAuthMiddleware(s.authenticator)

	// Health endpoints (no auth)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)

	// Agent endpoints (authenticated)
	s.router.Handle("GET /api/v1/agents",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleListAgents)))
	s.router.Handle("POST /api/v1/agents/{agent}/turns",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleTurn)))

	// OAuth callback is public - receives redirects from providers
	s.router.HandleFunc("GET /api/v1/oauth/callback", s.handleOAuthCallback)

	// Token administration (authenticated; metadata only, never secrets)
	s.router.Handle("GET /api/v1/tokens/{service}",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleListTokens)))
	s.router.Handle("GET /api/v1/users/{user_id}/tokens",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleUserTokens)))
	s.router.Handle("DELETE /api/v1/users/{user_id}/tokens",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleDeleteUserTokens)))
}

// Start starts the HTTP server with graceful shutdown
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Starting server on %s", s.httpServer.Addr)
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

	log.Println("Server stopped")
	return nil
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}
