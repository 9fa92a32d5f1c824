package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	OrchestratorID string
	Version        string
}

func NewHealthHandler(orchestratorID, version string) *HealthHandler {
	return &HealthHandler{OrchestratorID: orchestratorID, Version: version}
}

type HealthResponse struct {
	Status         string `json:"status" example:"healthy"`
	OrchestratorID string `json:"orchestrator_id" example:"orchestrator-1"`
}

type OrchestratorInfoResponse struct {
	OrchestratorID string   `json:"orchestrator_id" example:"orchestrator-1"`
	Status         string   `json:"status" example:"running"`
	Version        string   `json:"version" example:"1.0.0"`
	Capabilities   []string `json:"capabilities"`
}

// @Summary Health check
// @Description Check if the orchestrator is healthy and responsive
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:         "healthy",
		OrchestratorID: h.OrchestratorID,
	})
}

// @Summary Orchestrator information
// @Description Get basic orchestrator information and capabilities
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} OrchestratorInfoResponse
// @Router / [get]
func (h *HealthHandler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, OrchestratorInfoResponse{
		OrchestratorID: h.OrchestratorID,
		Status:         "running",
		Version:        h.Version,
		Capabilities: []string{
			"motion_detection_supervision",
			"event_recording",
			"continuous_recording",
			"disk_eviction",
		},
	})
}
