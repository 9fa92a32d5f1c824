package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"nvr-orchestrator-go/internal/procs"
	"nvr-orchestrator-go/internal/services/diskmgr"
)

// SessionCounter reports live recording sessions.
type SessionCounter interface {
	ActiveCount() int
}

// Pinger verifies the backing store connection.
type Pinger interface {
	Ping() error
}

type SystemHandler struct {
	registry       *procs.Registry
	sessions       SessionCounter
	db             Pinger
	recordingsRoot string
}

func NewSystemHandler(registry *procs.Registry, sessions SessionCounter, db Pinger, recordingsRoot string) *SystemHandler {
	return &SystemHandler{registry: registry, sessions: sessions, db: db, recordingsRoot: recordingsRoot}
}

type SystemHealthResponse struct {
	DetectionProcesses  int    `json:"detection_processes"`
	ContinuousProcesses int    `json:"continuous_processes"`
	ActiveSessions      int    `json:"active_sessions"`
	Database            string `json:"database" example:"ok"`
	DiskFreeBytes       uint64 `json:"disk_free_bytes"`
}

// @Summary System health
// @Description Supervised process counts, active sessions and database status
// @Tags system
// @Produce json
// @Success 200 {object} SystemHealthResponse
// @Router /system/health [get]
func (h *SystemHandler) SystemHealth(c *gin.Context) {
	dbStatus := "ok"
	if err := h.db.Ping(); err != nil {
		dbStatus = "unreachable"
	}

	// Free space is informational, a stat failure just reports zero
	free, _ := diskmgr.FreeBytes(h.recordingsRoot)

	c.JSON(http.StatusOK, SystemHealthResponse{
		DetectionProcesses:  len(h.registry.Snapshot(procs.KindDetection)),
		ContinuousProcesses: len(h.registry.Snapshot(procs.KindContinuous)),
		ActiveSessions:      h.sessions.ActiveCount(),
		Database:            dbStatus,
		DiskFreeBytes:       free,
	})
}
