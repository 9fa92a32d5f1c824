package messaging

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"nvr-orchestrator-go/internal/config"
)

// Subjects published by the orchestrator.
const (
	SubjectEventsPrefix = "recordings.events."
	SubjectEvictions    = "recordings.evictions"
)

type Service struct {
	conn *nats.Conn
	cfg  *config.Config
}

// NewService connects to NATS. When NATS is disabled in the config the
// service is returned with a nil connection and every Publish is a no-op.
func NewService(cfg *config.Config) (*Service, error) {
	if !cfg.NatsEnabled {
		log.Info().Msg("NATS disabled, recording notifications will not be published")
		return &Service{cfg: cfg}, nil
	}

	opts := []nats.Option{
		nats.Name("nvr-orchestrator"),
		nats.Timeout(cfg.NatsConnectTimeout),
		nats.ReconnectWait(cfg.NatsReconnectWait),
		nats.MaxReconnects(cfg.NatsMaxReconnects),
	}

	conn, err := nats.Connect(cfg.NatsURL, opts...)
	if err != nil {
		return nil, err
	}

	log.Info().Str("url", cfg.NatsURL).Msg("NATS connection established")

	return &Service{
		conn: conn,
		cfg:  cfg,
	}, nil
}

func (s *Service) Publish(subject string, data interface{}) error {
	if s.conn == nil {
		return nil
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}

	return s.conn.Publish(subject, payload)
}

func (s *Service) Subscribe(subject string, handler func([]byte)) (*nats.Subscription, error) {
	if s.conn == nil {
		return nil, nats.ErrConnectionClosed
	}
	return s.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Data)
	})
}

func (s *Service) IsConnected() bool {
	return s.conn != nil && s.conn.IsConnected()
}

func (s *Service) Shutdown(ctx context.Context) error {
	if s.conn != nil {
		// Try graceful drain, fallback to immediate close
		if err := s.conn.Drain(); err != nil {
			log.Warn().Err(err).Msg("Failed to drain NATS connection gracefully, closing immediately")
			s.conn.Close()
		}
	}
	return nil
}
