package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"nvr-orchestrator-go/internal/api/handlers"
	"nvr-orchestrator-go/internal/config"
	"nvr-orchestrator-go/internal/services"
)

type Server struct {
	config *config.Config
	router *gin.Engine
	server *http.Server

	healthHandler  *handlers.HealthHandler
	webhookHandler *handlers.WebhookHandler
	eventsHandler  *handlers.EventsHandler
	systemHandler  *handlers.SystemHandler
}

func NewServer(cfg *config.Config, container *services.ServiceContainer) *Server {
	gin.SetMode(gin.ReleaseMode)

	return &Server{
		config:         cfg,
		router:         gin.New(),
		healthHandler:  handlers.NewHealthHandler(cfg.OrchestratorID, cfg.Version),
		webhookHandler: handlers.NewWebhookHandler(container.Recorder),
		eventsHandler:  handlers.NewEventsHandler(container.Store, cfg.RecordingsRoot),
		systemHandler:  handlers.NewSystemHandler(container.Registry, container.Recorder, container.Store, cfg.RecordingsRoot),
	}
}

func (s *Server) Setup() {
	s.setupMiddleware()
	s.setupRoutes()
	s.setupSwagger()

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.config.Port),
		Handler: s.router,
	}
}

func (s *Server) Start() error {
	log.Info().Int("port", s.config.Port).Msg("Starting orchestrator API")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Stopping orchestrator API")
	return s.server.Shutdown(ctx)
}
