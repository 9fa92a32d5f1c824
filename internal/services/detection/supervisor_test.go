package detection

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nvr-orchestrator-go/internal/config"
	"nvr-orchestrator-go/internal/models"
	"nvr-orchestrator-go/internal/procs"
	"nvr-orchestrator-go/internal/procs/procstest"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DetectionConfigDir: t.TempDir(),
		MotionBinary:       "motion",
		WebhookBaseURL:     "http://localhost:8000",
		ProcStopGrace:      time.Second,
	}
}

func testCamera() models.Camera {
	return models.Camera{
		ID:                7,
		Name:              "yard",
		RTSPURL:           "rtsp://10.0.0.7/main",
		RTSPSubstreamURL:  "rtsp://10.0.0.7/sub",
		DetectionMode:     models.DetectionEvent,
		MotionROI:         "0,11,22",
		MotionSensitivity: 50,
	}
}

func TestEnsureLaunchesAndWritesArtifacts(t *testing.T) {
	cfg := testConfig(t)
	runner := procstest.NewFakeRunner()
	registry := procs.NewRegistry()
	sup := NewSupervisor(cfg, runner, registry)

	cam := testCamera()
	require.NoError(t, sup.Ensure(cam))

	started := runner.Started()
	require.Len(t, started, 1)
	confPath := filepath.Join(cfg.DetectionConfigDir, "camera_7.conf")
	assert.Equal(t, []string{"-n", "-c", confPath}, started[0].Spec.Args)

	conf, err := os.ReadFile(confPath)
	require.NoError(t, err)
	assert.Contains(t, string(conf), "netcam_url rtsp://10.0.0.7/sub")
	assert.Contains(t, string(conf), "threshold 2650")
	assert.Contains(t, string(conf), "mask_file "+filepath.Join(cfg.DetectionConfigDir, "mask_7.pgm"))
	assert.Contains(t, string(conf), "on_event_start curl -s -X POST http://localhost:8000/start_record/7")
	assert.Contains(t, string(conf), "on_event_end curl -s -X POST http://localhost:8000/stop_record/7")

	_, err = os.Stat(filepath.Join(cfg.DetectionConfigDir, "mask_7.pgm"))
	assert.NoError(t, err)

	h, ok := registry.Get(7, procs.KindDetection)
	require.True(t, ok)
	assert.Equal(t, Fingerprint(cam), h.Fingerprint)
}

func TestEnsureIsIdempotentWhileAlive(t *testing.T) {
	cfg := testConfig(t)
	runner := procstest.NewFakeRunner()
	sup := NewSupervisor(cfg, runner, procs.NewRegistry())

	cam := testCamera()
	require.NoError(t, sup.Ensure(cam))
	require.NoError(t, sup.Ensure(cam))

	assert.Len(t, runner.Started(), 1)
}

func TestEnsureRestartsOnParameterChange(t *testing.T) {
	cfg := testConfig(t)
	runner := procstest.NewFakeRunner()
	registry := procs.NewRegistry()
	sup := NewSupervisor(cfg, runner, registry)

	cam := testCamera()
	require.NoError(t, sup.Ensure(cam))

	cam.MotionSensitivity = 80
	require.NoError(t, sup.Ensure(cam))

	started := runner.Started()
	require.Len(t, started, 2)
	assert.True(t, started[0].Stopped(), "old process must be terminated")

	conf, err := os.ReadFile(filepath.Join(cfg.DetectionConfigDir, "camera_7.conf"))
	require.NoError(t, err)
	assert.Contains(t, string(conf), "threshold 1240")
}

func TestEnsureRelaunchesAfterCrash(t *testing.T) {
	cfg := testConfig(t)
	runner := procstest.NewFakeRunner()
	sup := NewSupervisor(cfg, runner, procs.NewRegistry())

	cam := testCamera()
	require.NoError(t, sup.Ensure(cam))

	runner.Started()[0].Exit()
	require.NoError(t, sup.Ensure(cam))

	assert.Len(t, runner.Started(), 2)
}

func TestStopRemovesHandle(t *testing.T) {
	cfg := testConfig(t)
	runner := procstest.NewFakeRunner()
	registry := procs.NewRegistry()
	sup := NewSupervisor(cfg, runner, registry)

	cam := testCamera()
	require.NoError(t, sup.Ensure(cam))
	require.NoError(t, sup.Stop(cam.ID))

	_, ok := registry.Get(cam.ID, procs.KindDetection)
	assert.False(t, ok)
	assert.True(t, runner.Started()[0].Stopped())

	// Stopping an unknown camera is a no-op
	assert.NoError(t, sup.Stop(999))
}

func TestMalformedROIWritesAllZeroMask(t *testing.T) {
	cfg := testConfig(t)
	runner := procstest.NewFakeRunner()
	sup := NewSupervisor(cfg, runner, procs.NewRegistry())

	cam := testCamera()
	cam.MotionROI = "not,a,roi"
	require.NoError(t, sup.Ensure(cam))

	data, err := os.ReadFile(filepath.Join(cfg.DetectionConfigDir, "mask_7.pgm"))
	require.NoError(t, err)
	raster := data[len("P5\n10 10\n255\n"):]
	for _, b := range raster {
		assert.Zero(t, b)
	}
}
