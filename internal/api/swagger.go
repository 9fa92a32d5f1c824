package api

import (
	"net/http"

	_ "nvr-orchestrator-go/docs"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (s *Server) setupSwagger() {
	s.router.GET("/api/info", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"title":       "NVR Recording Orchestrator API",
			"version":     s.config.Version,
			"description": "Recording orchestrator for IP camera fleets: motion-triggered clips, continuous segments and disk capacity management",
			"swagger_ui":  "/docs/index.html",
			"endpoints": gin.H{
				"health":       "/health",
				"info":         "/",
				"start_record": "/start_record/{camera_id}",
				"stop_record":  "/stop_record/{camera_id}",
				"events":       "/events",
				"recordings":   "/cameras/{id}/recordings",
				"system":       "/system",
			},
			"orchestrator_id": s.config.OrchestratorID,
			"port":            s.config.Port,
		})
	})

	s.router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	s.router.GET("/docs", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/docs/index.html")
	})
}
