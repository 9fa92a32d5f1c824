package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	// Application
	Version        string
	Environment    string
	OrchestratorID string
	Port           int
	LogLevel       string

	// Logdy (lightweight web log viewer)
	LogdyEnabled bool
	LogdyHost    string
	LogdyPort    int

	// Storage
	DatabasePath   string
	RecordingsRoot string
	// Directory for generated detection config + mask artifacts
	DetectionConfigDir string
	// Directory for supervised subprocess stderr logs
	ProcessLogDir string

	// External binaries
	FFmpegBinary string
	MotionBinary string

	// Base URL the detection subprocess uses to call the recording webhooks
	WebhookBaseURL string

	// Stream transport for ffmpeg RTSP inputs
	RTSPTransport string

	// Reconciliation
	ReconcileInterval time.Duration

	// Continuous recording
	SegmentSeconds int

	// Session termination
	// Clip recordings get a long grace so the fragmented mp4 trailer lands
	ClipStopGrace time.Duration
	ProcStopGrace time.Duration

	// Disk capacity management
	DiskCheckInterval  time.Duration
	LowWatermarkBytes  uint64
	HighWatermarkBytes uint64
	// Segments modified within this window are never eviction candidates
	EvictionRecencyWindow time.Duration

	// Retention of event recordings
	RetentionDays int

	// NATS (lifecycle notifications)
	NatsEnabled        bool
	NatsURL            string
	NatsConnectTimeout time.Duration
	NatsReconnectWait  time.Duration
	NatsMaxReconnects  int

	// Graceful Shutdown
	ShutdownTimeout time.Duration
}

func Load() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("No .env file found, using environment variables and defaults")
	} else {
		log.Info().Msg("Loaded configuration from .env file")
	}

	return &Config{
		// Application
		Version:        getEnv("VERSION", "1.0.0"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		OrchestratorID: getEnv("ORCHESTRATOR_ID", "orchestrator-1"),
		Port:           getEnvInt("PORT", 8000),
		LogLevel:       getEnv("LOG_LEVEL", "info"),

		// Logdy (lightweight web log viewer)
		LogdyEnabled: getEnvBool("LOGDY_ENABLED", false),
		LogdyHost:    getEnv("LOGDY_HOST", "localhost"),
		LogdyPort:    getEnvInt("LOGDY_PORT", 8080),

		// Storage
		DatabasePath:       getEnv("DATABASE_PATH", "data/nvr.db"),
		RecordingsRoot:     getEnv("RECORDINGS_ROOT", "/recordings"),
		DetectionConfigDir: getEnv("DETECTION_CONFIG_DIR", "/var/lib/nvr/detection"),
		ProcessLogDir:      getEnv("PROCESS_LOG_DIR", "/var/log/nvr"),

		// External binaries
		FFmpegBinary: getEnv("FFMPEG_BINARY", "ffmpeg"),
		MotionBinary: getEnv("MOTION_BINARY", "motion"),

		WebhookBaseURL: getEnv("WEBHOOK_BASE_URL", "http://localhost:8000"),
		RTSPTransport:  getEnv("RTSP_TRANSPORT", "tcp"),

		// Reconciliation
		ReconcileInterval: getEnvDuration("RECONCILE_INTERVAL", 30*time.Second),

		// Continuous recording
		SegmentSeconds: getEnvInt("SEGMENT_SECONDS", 900),

		// Session termination
		ClipStopGrace: getEnvDuration("CLIP_STOP_GRACE", 30*time.Second),
		ProcStopGrace: getEnvDuration("PROC_STOP_GRACE", 5*time.Second),

		// Disk capacity management
		DiskCheckInterval:     getEnvDuration("DISK_CHECK_INTERVAL", 60*time.Second),
		LowWatermarkBytes:     getEnvUint64("LOW_WATERMARK_BYTES", 10*1024*1024*1024),
		HighWatermarkBytes:    getEnvUint64("HIGH_WATERMARK_BYTES", 15*1024*1024*1024),
		EvictionRecencyWindow: getEnvDuration("EVICTION_RECENCY_WINDOW", 2*time.Minute),

		// Retention
		RetentionDays: getEnvInt("RETENTION_DAYS", 30),

		// NATS
		NatsEnabled:        getEnvBool("NATS_ENABLED", false),
		NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
		NatsConnectTimeout: getEnvDuration("NATS_CONNECT_TIMEOUT", 10*time.Second),
		NatsReconnectWait:  getEnvDuration("NATS_RECONNECT_WAIT", 2*time.Second),
		NatsMaxReconnects:  getEnvInt("NATS_MAX_RECONNECTS", -1), // -1 = unlimited

		// Graceful Shutdown
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvUint64(key string, defaultValue uint64) uint64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseUint(value, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
