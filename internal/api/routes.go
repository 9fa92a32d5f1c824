package api

import "nvr-orchestrator-go/internal/api/middleware"

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recovery())
	s.router.Use(middleware.Logger())
	s.router.Use(middleware.CORS())
	s.router.Use(middleware.RequestID())
	s.router.Use(middleware.RequestContext())
}

func (s *Server) setupRoutes() {
	s.router.GET("/", s.healthHandler.Info)
	s.router.GET("/health", s.healthHandler.HealthCheck)

	// Recording webhooks, invoked by the motion-analysis subprocesses
	s.router.POST("/start_record/:camera_id", s.webhookHandler.StartRecord)
	s.router.POST("/stop_record/:camera_id", s.webhookHandler.StopRecord)

	s.router.GET("/events", s.eventsHandler.ListEvents)

	cameras := s.router.Group("/cameras")
	{
		cameras.GET("/:id/recordings", s.eventsHandler.ListCameraRecordings)
	}

	system := s.router.Group("/system")
	{
		system.GET("/health", s.systemHandler.SystemHealth)
	}
}
