package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"nvr-orchestrator-go/internal/services/recorder"
)

// SessionManager is the recording session surface the webhook handlers need.
type SessionManager interface {
	Begin(cameraID int64) (int64, error)
	End(cameraID int64) error
}

type WebhookHandler struct {
	sessions SessionManager
}

func NewWebhookHandler(sessions SessionManager) *WebhookHandler {
	return &WebhookHandler{sessions: sessions}
}

type StartRecordResponse struct {
	Message string `json:"message" example:"recording started"`
	EventID int64  `json:"event_id,omitempty" example:"42"`
}

type StopRecordResponse struct {
	Message string `json:"message" example:"recording stopped"`
}

type ErrorResponse struct {
	Error string `json:"error" example:"camera not found"`
}

// @Summary Start a recording session
// @Description Begins an event recording for the camera. Duplicate starts are idempotent.
// @Tags recording
// @Produce json
// @Param camera_id path int true "Camera ID"
// @Success 200 {object} StartRecordResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /start_record/{camera_id} [post]
func (h *WebhookHandler) StartRecord(c *gin.Context) {
	cameraID, err := strconv.ParseInt(c.Param("camera_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid camera id"})
		return
	}

	eventID, err := h.sessions.Begin(cameraID)
	switch {
	case errors.Is(err, recorder.ErrAlreadyRecording):
		c.JSON(http.StatusOK, StartRecordResponse{Message: "already recording", EventID: eventID})
	case errors.Is(err, recorder.ErrCameraNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "camera not found"})
	case err != nil:
		log.Error().Err(err).Int64("camera_id", cameraID).Msg("Failed to start recording")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to start recording"})
	default:
		c.JSON(http.StatusOK, StartRecordResponse{Message: "recording started", EventID: eventID})
	}
}

// @Summary Stop a recording session
// @Description Ends the camera's event recording if one is active.
// @Tags recording
// @Produce json
// @Param camera_id path int true "Camera ID"
// @Success 200 {object} StopRecordResponse
// @Failure 400 {object} ErrorResponse
// @Router /stop_record/{camera_id} [post]
func (h *WebhookHandler) StopRecord(c *gin.Context) {
	cameraID, err := strconv.ParseInt(c.Param("camera_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid camera id"})
		return
	}

	err = h.sessions.End(cameraID)
	if errors.Is(err, recorder.ErrNothingToStop) {
		c.JSON(http.StatusOK, StopRecordResponse{Message: "nothing to stop"})
		return
	}
	if err != nil {
		log.Error().Err(err).Int64("camera_id", cameraID).Msg("Failed to stop recording")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to stop recording"})
		return
	}
	c.JSON(http.StatusOK, StopRecordResponse{Message: "recording stopped"})
}
