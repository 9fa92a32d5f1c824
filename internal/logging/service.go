package logging

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"nvr-orchestrator-go/internal/config"
)

// NewServiceLogger returns a child of the global logger tagged with the
// orchestrator id and service name.
func NewServiceLogger(cfg *config.Config, service string) zerolog.Logger {
	return log.With().Str("orchestrator_id", cfg.OrchestratorID).Str("service", service).Logger()
}
