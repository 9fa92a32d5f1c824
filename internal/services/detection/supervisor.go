// Package detection supervises the per-camera motion-analysis subprocesses
// and generates their configuration artifacts.
package detection

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"nvr-orchestrator-go/internal/config"
	"nvr-orchestrator-go/internal/logging"
	"nvr-orchestrator-go/internal/models"
	"nvr-orchestrator-go/internal/procs"
)

// Supervisor keeps one motion-analysis process alive per camera that wants
// detection, regenerating artifacts and restarting on parameter change.
type Supervisor struct {
	cfg      *config.Config
	runner   procs.Runner
	registry *procs.Registry
	logger   zerolog.Logger
}

func NewSupervisor(cfg *config.Config, runner procs.Runner, registry *procs.Registry) *Supervisor {
	return &Supervisor{
		cfg:      cfg,
		runner:   runner,
		registry: registry,
		logger:   logging.NewServiceLogger(cfg, "detection"),
	}
}

// Fingerprint captures the parameters whose change requires a detection
// restart. The continuous process is unaffected by these.
func Fingerprint(cam models.Camera) string {
	return fmt.Sprintf("%s|%d|%s", cam.MotionROI, cam.MotionSensitivity, cam.DetectionSource())
}

// Ensure brings the camera's detection process in line with its current
// configuration: launches it if missing or dead, restarts it if the
// fingerprint changed, leaves it alone otherwise.
func (s *Supervisor) Ensure(cam models.Camera) error {
	fp := Fingerprint(cam)

	if h, ok := s.registry.Get(cam.ID, procs.KindDetection); ok {
		if h.Proc.Alive() && h.Fingerprint == fp {
			return nil
		}
		if h.Proc.Alive() {
			s.logger.Info().Int64("camera_id", cam.ID).Msg("Detection parameters changed, restarting process")
		} else {
			s.logger.Warn().Int64("camera_id", cam.ID).Msg("Detection process exited, relaunching")
		}
		if err := s.Stop(cam.ID); err != nil {
			s.logger.Warn().Err(err).Int64("camera_id", cam.ID).Msg("Detection process required forced kill")
		}
	}

	confPath, err := s.writeArtifacts(cam)
	if err != nil {
		return err
	}

	proc, err := s.runner.Start(procs.Spec{
		Name:    s.cfg.MotionBinary,
		Args:    []string{"-n", "-c", confPath},
		LogName: fmt.Sprintf("detection_%d.log", cam.ID),
	})
	if err != nil {
		return fmt.Errorf("launch detection for camera %d: %w", cam.ID, err)
	}

	s.registry.Put(&procs.Handle{
		CameraID:    cam.ID,
		Kind:        procs.KindDetection,
		Proc:        proc,
		Fingerprint: fp,
	})
	s.logger.Info().Int64("camera_id", cam.ID).Str("source", cam.DetectionSource()).Msg("Detection process started")
	return nil
}

// Stop terminates the camera's detection process if one is registered.
func (s *Supervisor) Stop(cameraID int64) error {
	h, ok := s.registry.Remove(cameraID, procs.KindDetection)
	if !ok {
		return nil
	}
	s.logger.Info().Int64("camera_id", cameraID).Msg("Stopping detection process")
	return h.Proc.Stop(s.cfg.ProcStopGrace)
}

// writeArtifacts regenerates the mask and config files for a camera and
// returns the config path.
func (s *Supervisor) writeArtifacts(cam models.Camera) (string, error) {
	if err := os.MkdirAll(s.cfg.DetectionConfigDir, 0755); err != nil {
		return "", fmt.Errorf("create detection config dir: %w", err)
	}

	cells := ParseROI(cam.MotionROI)
	if cam.MotionROI != "" && len(cells) == 0 {
		s.logger.Warn().Int64("camera_id", cam.ID).Str("roi", cam.MotionROI).
			Msg("Malformed ROI, writing all-zero mask, motion will never trigger")
	}

	maskPath := filepath.Join(s.cfg.DetectionConfigDir, fmt.Sprintf("mask_%d.pgm", cam.ID))
	if err := WriteMask(maskPath, cells); err != nil {
		return "", err
	}

	confPath := filepath.Join(s.cfg.DetectionConfigDir, fmt.Sprintf("camera_%d.conf", cam.ID))
	conf := BuildConfig(cam, Threshold(cam.MotionSensitivity), maskPath, s.cfg.WebhookBaseURL)
	if err := os.WriteFile(confPath, []byte(conf), 0644); err != nil {
		return "", fmt.Errorf("write detection config: %w", err)
	}
	return confPath, nil
}
