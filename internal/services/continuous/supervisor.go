// Package continuous supervises the per-camera always-on segmented ffmpeg
// recorders.
package continuous

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rs/zerolog"

	"nvr-orchestrator-go/internal/config"
	"nvr-orchestrator-go/internal/logging"
	"nvr-orchestrator-go/internal/models"
	"nvr-orchestrator-go/internal/procs"
)

// Supervisor keeps one segmenting ffmpeg process alive per camera with
// continuous recording enabled.
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
		logger:   logging.NewServiceLogger(cfg, "continuous"),
	}
}

// SegmentDir returns the directory holding a camera's continuous segments.
func SegmentDir(root string, cameraID int64) string {
	return filepath.Join(root, "continuous", strconv.FormatInt(cameraID, 10))
}

// Fingerprint captures the parameters whose change requires a recorder
// restart.
func Fingerprint(cam models.Camera) string {
	return cam.RTSPURL
}

// Ensure brings the camera's continuous recorder in line with its current
// configuration.
func (s *Supervisor) Ensure(cam models.Camera) error {
	fp := Fingerprint(cam)

	if h, ok := s.registry.Get(cam.ID, procs.KindContinuous); ok {
		if h.Proc.Alive() && h.Fingerprint == fp {
			return nil
		}
		if h.Proc.Alive() {
			s.logger.Info().Int64("camera_id", cam.ID).Msg("Stream source changed, restarting recorder")
		} else {
			s.logger.Warn().Int64("camera_id", cam.ID).Msg("Continuous recorder exited, relaunching")
		}
		if err := s.Stop(cam.ID); err != nil {
			s.logger.Warn().Err(err).Int64("camera_id", cam.ID).Msg("Continuous recorder required forced kill")
		}
	}

	outDir := SegmentDir(s.cfg.RecordingsRoot, cam.ID)
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("create segment dir for camera %d: %w", cam.ID, err)
	}

	// Stream copy into strftime-named segments, no re-encode
	proc, err := s.runner.Start(procs.Spec{
		Name: s.cfg.FFmpegBinary,
		Args: []string{
			"-rtsp_transport", s.cfg.RTSPTransport,
			"-i", cam.RTSPURL,
			"-c:v", "copy",
			"-c:a", "copy",
			"-f", "segment",
			"-segment_time", strconv.Itoa(s.cfg.SegmentSeconds),
			"-strftime", "1",
			"-reset_timestamps", "1",
			filepath.Join(outDir, "%Y%m%d-%H%M%S.mp4"),
		},
		LogName: fmt.Sprintf("continuous_%d.log", cam.ID),
	})
	if err != nil {
		return fmt.Errorf("launch continuous recorder for camera %d: %w", cam.ID, err)
	}

	s.registry.Put(&procs.Handle{
		CameraID:    cam.ID,
		Kind:        procs.KindContinuous,
		Proc:        proc,
		Fingerprint: fp,
	})
	s.logger.Info().Int64("camera_id", cam.ID).Str("dir", outDir).Msg("Continuous recording started")
	return nil
}

// Stop terminates the camera's continuous recorder if one is registered.
func (s *Supervisor) Stop(cameraID int64) error {
	h, ok := s.registry.Remove(cameraID, procs.KindContinuous)
	if !ok {
		return nil
	}
	s.logger.Info().Int64("camera_id", cameraID).Msg("Stopping continuous recorder")
	return h.Proc.Stop(s.cfg.ProcStopGrace)
}
