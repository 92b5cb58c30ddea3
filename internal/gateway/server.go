// Package gateway provides the HTTP gateway server.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"brainbox/internal/config"
	"brainbox/internal/gateway/handlers"
	"brainbox/internal/gateway/middleware"
	"brainbox/internal/gateway/websocket"
	"brainbox/internal/runner"
	"brainbox/internal/tools"
	"brainbox/pkg/logger"
)

// Deps are the services the gateway exposes. Nil members disable their routes,
// except States, whose endpoints report the backend as unavailable.
type Deps struct {
	Runner   handlers.Responder
	Store    handlers.TaskStore
	Tools    *tools.Registry
	States   handlers.StateReporter
	Gatherer prometheus.Gatherer
	Version  string
}

// Server represents the HTTP gateway server.
type Server struct {
	httpServer *http.Server
	router     *mux.Router
	hub        *websocket.Hub
	cfg        config.GatewayConfig
}

// NewServer creates a gateway server with all routes mounted.
func NewServer(cfg config.GatewayConfig, deps Deps) *Server {
	router := mux.NewRouter()
	hub := websocket.NewHub()

	// Recovery -> Logging -> CORS
	handler := middleware.Recovery(middleware.Logging(middleware.CORS(cfg.AllowedOrigins)(router)))

	s := &Server{
		httpServer: &http.Server{
			Addr:        fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:     handler,
			ReadTimeout: 60 * time.Second,
			// Turns may run for several minutes; the request context bounds them.
			WriteTimeout: 0,
			IdleTimeout:  120 * time.Second,
		},
		router: router,
		hub:    hub,
		cfg:    cfg,
	}
	s.setupRoutes(deps)
	return s
}

func (s *Server) setupRoutes(deps Deps) {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/health", handlers.HealthHandler(deps.Version, deps.States)).Methods(http.MethodGet)
	api.HandleFunc("/backend/status", handlers.BackendStatusHandler(deps.States)).Methods(http.MethodGet)

	if deps.Runner != nil {
		api.HandleFunc("/chat", handlers.ChatHandler(deps.Runner)).Methods(http.MethodPost)
		s.hub.SetChatHandler(func(ctx context.Context, history []runner.ChatMessage) runner.TurnResult {
			return deps.Runner.Respond(ctx, history)
		})
	}
	if deps.Store != nil {
		handlers.NewTaskHandler(deps.Store, s.notifyTasksChanged).Register(api)
	}
	if deps.Tools != nil {
		api.HandleFunc("/tools", handlers.ToolsHandler(deps.Tools)).Methods(http.MethodGet)
	}
	if deps.Gatherer != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	s.router.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		websocket.ServeWs(s.hub, w, r)
	})
}

func (s *Server) notifyTasksChanged() {
	if err := s.hub.BroadcastTyped(websocket.TypeTasksChanged, nil); err != nil {
		logger.Warn().Err(err).Msg("Failed to broadcast task change")
	}
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	handlers.InitStartTime()

	hubCtx, stopHub := context.WithCancel(context.Background())
	hubDone := make(chan struct{})
	go func() {
		s.hub.Run(hubCtx)
		close(hubDone)
	}()
	defer func() {
		stopHub()
		<-hubDone
	}()

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", s.httpServer.Addr).Msg("Starting gateway server")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server error: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down gateway server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	return <-errCh
}

// Handler returns the root handler including middleware.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Router returns the underlying router for testing.
func (s *Server) Router() *mux.Router {
	return s.router
}

// Hub returns the WebSocket hub.
func (s *Server) Hub() *websocket.Hub {
	return s.hub
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}
