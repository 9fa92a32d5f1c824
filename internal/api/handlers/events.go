package handlers

import (
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"nvr-orchestrator-go/internal/models"
	"nvr-orchestrator-go/internal/services/continuous"
)

// EventLister is the store surface the events handlers need.
type EventLister interface {
	Events(cameraID int64, limit int) ([]models.RecordingEvent, error)
}

type EventsHandler struct {
	store          EventLister
	recordingsRoot string
}

func NewEventsHandler(store EventLister, recordingsRoot string) *EventsHandler {
	return &EventsHandler{store: store, recordingsRoot: recordingsRoot}
}

type EventListResponse struct {
	Events []models.RecordingEvent `json:"events"`
	Count  int                     `json:"count"`
}

// @Summary List recording events
// @Description List event recordings, newest first
// @Tags events
// @Produce json
// @Param camera_id query int false "Filter by camera ID"
// @Param limit query int false "Maximum number of events" default(100)
// @Success 200 {object} EventListResponse
// @Failure 500 {object} ErrorResponse
// @Router /events [get]
func (h *EventsHandler) ListEvents(c *gin.Context) {
	cameraID, _ := strconv.ParseInt(c.Query("camera_id"), 10, 64)
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit < 0 {
		limit = 100
	}

	events, err := h.store.Events(cameraID, limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list events")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to list events"})
		return
	}
	c.JSON(http.StatusOK, EventListResponse{Events: events, Count: len(events)})
}

type SegmentInfo struct {
	Name string `json:"name" example:"20260820-120000.mp4"`
	Size int64  `json:"size" example:"104857600"`
}

type RecordingListResponse struct {
	CameraID int64         `json:"camera_id"`
	Segments []SegmentInfo `json:"segments"`
}

// @Summary List continuous segments for a camera
// @Description List continuous-recording segment files, optionally filtered by date
// @Tags events
// @Produce json
// @Param id path int true "Camera ID"
// @Param date query string false "Filter by capture date (YYYYMMDD)"
// @Success 200 {object} RecordingListResponse
// @Failure 400 {object} ErrorResponse
// @Router /cameras/{id}/recordings [get]
func (h *EventsHandler) ListCameraRecordings(c *gin.Context) {
	cameraID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid camera id"})
		return
	}
	date := c.Query("date")

	entries, err := os.ReadDir(continuous.SegmentDir(h.recordingsRoot, cameraID))
	if err != nil {
		// No directory yet means no recordings
		c.JSON(http.StatusOK, RecordingListResponse{CameraID: cameraID, Segments: []SegmentInfo{}})
		return
	}

	segments := make([]SegmentInfo, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".mp4") {
			continue
		}
		if date != "" && !strings.HasPrefix(name, date) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		segments = append(segments, SegmentInfo{Name: name, Size: info.Size()})
	}
	sort.Slice(segments, func(i, j int) bool { return segments[i].Name < segments[j].Name })

	c.JSON(http.StatusOK, RecordingListResponse{CameraID: cameraID, Segments: segments})
}
