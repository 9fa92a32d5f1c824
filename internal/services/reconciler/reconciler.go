// Package reconciler drives the running subprocess set toward the desired
// state derived from camera configuration.
package reconciler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"nvr-orchestrator-go/internal/config"
	"nvr-orchestrator-go/internal/logging"
	"nvr-orchestrator-go/internal/models"
	"nvr-orchestrator-go/internal/procs"
	"nvr-orchestrator-go/internal/services/continuous"
	"nvr-orchestrator-go/internal/services/detection"
)

// CameraProvider yields the full camera configuration set each cycle.
type CameraProvider interface {
	Cameras() ([]models.Camera, error)
}

// Desired is the computed process set for one cycle.
type Desired struct {
	Detection  map[int64]models.Camera
	Continuous map[int64]models.Camera
}

// DesiredState computes which cameras need a detection process and which need
// a continuous recorder.
func DesiredState(cams []models.Camera) Desired {
	d := Desired{
		Detection:  make(map[int64]models.Camera),
		Continuous: make(map[int64]models.Camera),
	}
	for _, cam := range cams {
		if cam.DetectionMode.WantsDetection() {
			d.Detection[cam.ID] = cam
		}
		if cam.ContinuousRecording {
			d.Continuous[cam.ID] = cam
		}
	}
	return d
}

// Service runs the periodic reconciliation loop.
type Service struct {
	cfg        *config.Config
	provider   CameraProvider
	detection  *detection.Supervisor
	continuous *continuous.Supervisor
	registry   *procs.Registry
	logger     zerolog.Logger
}

func NewService(cfg *config.Config, provider CameraProvider, det *detection.Supervisor,
	cont *continuous.Supervisor, registry *procs.Registry) *Service {
	return &Service{
		cfg:        cfg,
		provider:   provider,
		detection:  det,
		continuous: cont,
		registry:   registry,
		logger:     logging.NewServiceLogger(cfg, "reconciler"),
	}
}

// Reconcile performs one convergence pass. A configuration fetch failure is
// returned so the loop can skip the cycle; per-camera supervisor failures are
// logged and retried next cycle.
func (s *Service) Reconcile() error {
	cams, err := s.provider.Cameras()
	if err != nil {
		return err
	}

	desired := DesiredState(cams)

	for _, cam := range desired.Detection {
		if err := s.detection.Ensure(cam); err != nil {
			s.logger.Error().Err(err).Int64("camera_id", cam.ID).Msg("Failed to ensure detection process")
		}
	}
	for id := range s.registry.Snapshot(procs.KindDetection) {
		if _, ok := desired.Detection[id]; !ok {
			if err := s.detection.Stop(id); err != nil {
				s.logger.Warn().Err(err).Int64("camera_id", id).Msg("Detection process required forced kill")
			}
		}
	}

	for _, cam := range desired.Continuous {
		if err := s.continuous.Ensure(cam); err != nil {
			s.logger.Error().Err(err).Int64("camera_id", cam.ID).Msg("Failed to ensure continuous recorder")
		}
	}
	for id := range s.registry.Snapshot(procs.KindContinuous) {
		if _, ok := desired.Continuous[id]; !ok {
			if err := s.continuous.Stop(id); err != nil {
				s.logger.Warn().Err(err).Int64("camera_id", id).Msg("Continuous recorder required forced kill")
			}
		}
	}

	return nil
}

// Run loops Reconcile on the configured interval until ctx is cancelled. The
// loop never exits on error.
func (s *Service) Run(ctx context.Context) {
	s.logger.Info().Dur("interval", s.cfg.ReconcileInterval).Msg("Reconciliation loop started")

	ticker := time.NewTicker(s.cfg.ReconcileInterval)
	defer ticker.Stop()

	if err := s.Reconcile(); err != nil {
		s.logger.Error().Err(err).Msg("Reconcile cycle skipped, configuration fetch failed")
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Reconciliation loop stopped")
			return
		case <-ticker.C:
			if err := s.Reconcile(); err != nil {
				s.logger.Error().Err(err).Msg("Reconcile cycle skipped, configuration fetch failed")
			}
		}
	}
}

// StopAll terminates every supervised process, used during shutdown.
func (s *Service) StopAll() {
	for id := range s.registry.Snapshot(procs.KindDetection) {
		if err := s.detection.Stop(id); err != nil {
			s.logger.Warn().Err(err).Int64("camera_id", id).Msg("Detection process required forced kill")
		}
	}
	for id := range s.registry.Snapshot(procs.KindContinuous) {
		if err := s.continuous.Stop(id); err != nil {
			s.logger.Warn().Err(err).Int64("camera_id", id).Msg("Continuous recorder required forced kill")
		}
	}
}
