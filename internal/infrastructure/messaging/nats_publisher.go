package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"token-transfer-indexer/internal/domain/entity"
	"token-transfer-indexer/internal/domain/service"
	"token-transfer-indexer/internal/infrastructure/config"
	"token-transfer-indexer/internal/infrastructure/logger"

	"go.uber.org/zap"
)

// publishConn is the part of *nats.Conn the publisher uses
type publishConn interface {
	Publish(subject string, data []byte) error
}

// TransferMessage is the body published for each processed stream payload
type TransferMessage struct {
	Source      string              `json:"source"`
	ReceivedAt  time.Time           `json:"received_at"`
	PublishedAt time.Time           `json:"published_at"`
	Outcome     string              `json:"outcome"`
	Result      entity.DecodeResult `json:"result"`
}

// NATSPublisher publishes decode results to `<prefix>.transfers`
type NATSPublisher struct {
	conn    func() publishConn
	subject string
	logger  *logger.Logger
}

// NewNATSPublisher creates a publisher sharing the consumer's connection
func NewNATSPublisher(cfg *config.NATSConfig, consumer *NATSConsumer, logger *logger.Logger) service.TransferPublisher {
	return newNATSPublisher(cfg, func() publishConn {
		if conn := consumer.Conn(); conn != nil {
			return conn
		}
		return nil
	}, logger)
}

func newNATSPublisher(cfg *config.NATSConfig, conn func() publishConn, logger *logger.Logger) *NATSPublisher {
	return &NATSPublisher{
		conn:    conn,
		subject: fmt.Sprintf("%s.transfers", cfg.SubjectPrefix),
		logger:  logger.WithComponent("nats-publisher"),
	}
}

// PublishTransfers publishes the result of one stream payload. NoEvents results are skipped.
func (p *NATSPublisher) PublishTransfers(ctx context.Context, msg *entity.StreamMessage, result entity.DecodeResult) error {
	if result.Outcome == entity.OutcomeNoEvents {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	conn := p.conn()
	if conn == nil {
		return ErrNotConnected
	}

	body, err := json.Marshal(TransferMessage{
		Source:      msg.Source,
		ReceivedAt:  msg.ReceivedAt,
		PublishedAt: time.Now().UTC(),
		Outcome:     result.Outcome.String(),
		Result:      result,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal transfer message: %w", err)
	}

	if err := conn.Publish(p.subject, body); err != nil {
		p.logger.Error("Failed to publish transfers",
			zap.String("subject", p.subject),
			zap.Error(err))
		return fmt.Errorf("failed to publish to %s: %w", p.subject, err)
	}

	p.logger.Debug("Published transfers",
		zap.String("subject", p.subject),
		zap.String("outcome", result.Outcome.String()),
		zap.Int("transfers", result.Count()))
	return nil
}
