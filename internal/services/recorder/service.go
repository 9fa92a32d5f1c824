// Package recorder owns the active recording sessions created by motion
// webhooks.
package recorder

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"nvr-orchestrator-go/internal/config"
	"nvr-orchestrator-go/internal/logging"
	"nvr-orchestrator-go/internal/models"
	"nvr-orchestrator-go/internal/procs"
	"nvr-orchestrator-go/internal/services/messaging"
	"nvr-orchestrator-go/internal/store"
)

var (
	// ErrAlreadyRecording signals an idempotent duplicate start.
	ErrAlreadyRecording = errors.New("recorder: already recording")
	// ErrNothingToStop signals a stop with no active session.
	ErrNothingToStop = errors.New("recorder: nothing to stop")
	// ErrCameraNotFound signals a start for an unknown camera.
	ErrCameraNotFound = errors.New("recorder: camera not found")
)

// EventStore is the slice of the database the recorder needs.
type EventStore interface {
	Camera(id int64) (models.Camera, error)
	CreateEvent(e models.RecordingEvent) (int64, error)
	CloseEvent(id int64, endTime time.Time) error
	SetEventThumbnail(id int64, path string) error
	DeleteEvent(id int64) error
}

// Publisher is the slice of the messaging service the recorder needs.
type Publisher interface {
	Publish(subject string, data interface{}) error
}

type session struct {
	proc      procs.Process
	eventID   int64
	videoPath string
	startTime time.Time
}

// SessionNotice is the payload published on recording start and stop.
type SessionNotice struct {
	CameraID  int64     `json:"camera_id"`
	EventID   int64     `json:"event_id"`
	Action    string    `json:"action"`
	VideoPath string    `json:"video_path"`
	Time      time.Time `json:"time"`
}

// Service enforces at most one recording session per camera. Begin and End
// are serialized by a single lock; the bounded subprocess wait during End
// happens outside it.
type Service struct {
	cfg    *config.Config
	store  EventStore
	runner procs.Runner
	bus    Publisher
	logger zerolog.Logger
	now    func() time.Time

	mu       sync.Mutex
	sessions map[int64]*session
}

func NewService(cfg *config.Config, st EventStore, runner procs.Runner, bus Publisher) *Service {
	return &Service{
		cfg:      cfg,
		store:    st,
		runner:   runner,
		bus:      bus,
		logger:   logging.NewServiceLogger(cfg, "recorder"),
		now:      time.Now,
		sessions: make(map[int64]*session),
	}
}

// Begin starts a recording session for the camera and returns the new event
// id. Duplicate starts return the existing event id with ErrAlreadyRecording.
func (s *Service) Begin(cameraID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.sessions[cameraID]; ok {
		return existing.eventID, ErrAlreadyRecording
	}

	cam, err := s.store.Camera(cameraID)
	if errors.Is(err, store.ErrNotFound) {
		return 0, ErrCameraNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("look up camera %d: %w", cameraID, err)
	}

	now := s.now()
	videoPath := filepath.Join(s.cfg.RecordingsRoot,
		fmt.Sprintf("event_%d_%s.mp4", cameraID, now.Format("20060102-150405")))

	eventID, err := s.store.CreateEvent(models.RecordingEvent{
		CameraID:  cameraID,
		OwnerID:   cam.OwnerID,
		StartTime: now,
		Reason:    "motion",
		VideoPath: videoPath,
	})
	if err != nil {
		return 0, fmt.Errorf("create event for camera %d: %w", cameraID, err)
	}

	// Fragmented mp4 keeps the file playable even if the stop is unclean
	proc, err := s.runner.Start(procs.Spec{
		Name: s.cfg.FFmpegBinary,
		Args: []string{
			"-rtsp_transport", s.cfg.RTSPTransport,
			"-i", cam.RTSPURL,
			"-c:v", "copy",
			"-c:a", "copy",
			"-f", "mp4",
			"-movflags", "frag_keyframe+empty_moov",
			videoPath,
		},
		LogName: fmt.Sprintf("event_%d.log", eventID),
	})
	if err != nil {
		// Roll back so no open event row dangles without a process
		if delErr := s.store.DeleteEvent(eventID); delErr != nil {
			s.logger.Error().Err(delErr).Int64("event_id", eventID).Msg("Failed to roll back orphaned event")
		}
		return 0, fmt.Errorf("launch clip recorder for camera %d: %w", cameraID, err)
	}

	s.sessions[cameraID] = &session{
		proc:      proc,
		eventID:   eventID,
		videoPath: videoPath,
		startTime: now,
	}

	s.logger.Info().Int64("camera_id", cameraID).Int64("event_id", eventID).
		Str("video", videoPath).Msg("Recording session started")

	if err := s.bus.Publish(messaging.SubjectEventsPrefix+fmt.Sprint(cameraID), SessionNotice{
		CameraID: cameraID, EventID: eventID, Action: "started", VideoPath: videoPath, Time: now,
	}); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to publish session start")
	}
	return eventID, nil
}

// End stops the camera's recording session. The event row always gets an end
// time, even when the subprocess had to be killed.
func (s *Service) End(cameraID int64) error {
	s.mu.Lock()
	sess, ok := s.sessions[cameraID]
	if !ok {
		s.mu.Unlock()
		return ErrNothingToStop
	}
	delete(s.sessions, cameraID)
	s.mu.Unlock()

	if err := sess.proc.Stop(s.cfg.ClipStopGrace); err != nil {
		s.logger.Error().Err(err).Int64("camera_id", cameraID).Int64("event_id", sess.eventID).
			Msg("Recording stop failed, closing event anyway")
	}

	end := s.now()
	if err := s.store.CloseEvent(sess.eventID, end); err != nil {
		s.logger.Error().Err(err).Int64("event_id", sess.eventID).Msg("Failed to close event")
	}

	s.logger.Info().Int64("camera_id", cameraID).Int64("event_id", sess.eventID).
		Dur("duration", end.Sub(sess.startTime)).Msg("Recording session stopped")

	go s.generateThumbnail(sess.eventID, sess.videoPath)

	if err := s.bus.Publish(messaging.SubjectEventsPrefix+fmt.Sprint(cameraID), SessionNotice{
		CameraID: cameraID, EventID: sess.eventID, Action: "stopped", VideoPath: sess.videoPath, Time: end,
	}); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to publish session stop")
	}
	return nil
}

// Active reports whether a recording session exists for the camera.
func (s *Service) Active(cameraID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[cameraID]
	return ok
}

// ActiveCount returns the number of live recording sessions.
func (s *Service) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// StopAll ends every active session, used during shutdown.
func (s *Service) StopAll() {
	s.mu.Lock()
	ids := make([]int64, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	for _, id := range ids {
		if err := s.End(id); err != nil && !errors.Is(err, ErrNothingToStop) {
			s.logger.Warn().Err(err).Int64("camera_id", id).Msg("Failed to end session during shutdown")
		}
	}
}

// ReapDead removes sessions whose subprocess exited without a stop signal
// and closes their events so no open event row dangles. Returns the number of
// sessions reaped.
func (s *Service) ReapDead() int {
	s.mu.Lock()
	var dead []*session
	var ids []int64
	for id, sess := range s.sessions {
		if !sess.proc.Alive() {
			delete(s.sessions, id)
			dead = append(dead, sess)
			ids = append(ids, id)
		}
	}
	s.mu.Unlock()

	for i, sess := range dead {
		s.logger.Warn().Int64("camera_id", ids[i]).Int64("event_id", sess.eventID).
			Msg("Recording process died, closing event")
		if err := s.store.CloseEvent(sess.eventID, s.now()); err != nil {
			s.logger.Error().Err(err).Int64("event_id", sess.eventID).Msg("Failed to close event")
		}
		go s.generateThumbnail(sess.eventID, sess.videoPath)
	}
	return len(dead)
}

// generateThumbnail grabs one frame near the start of the finished clip.
// Failures leave the thumbnail unset.
func (s *Service) generateThumbnail(eventID int64, videoPath string) {
	// Give the container trailer a moment to land on disk
	time.Sleep(500 * time.Millisecond)

	thumbPath := strings.TrimSuffix(videoPath, ".mp4") + ".jpg"
	err := s.runner.Run(procs.Spec{
		Name: s.cfg.FFmpegBinary,
		Args: []string{"-i", videoPath, "-ss", "00:00:01", "-vframes", "1", "-q:v", "2", thumbPath},
	})
	if err != nil {
		s.logger.Warn().Err(err).Int64("event_id", eventID).Msg("Thumbnail generation failed")
		return
	}
	if err := s.store.SetEventThumbnail(eventID, thumbPath); err != nil {
		s.logger.Warn().Err(err).Int64("event_id", eventID).Msg("Failed to record thumbnail path")
	}
}
