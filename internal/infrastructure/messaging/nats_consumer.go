package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"token-transfer-indexer/internal/domain/entity"
	"token-transfer-indexer/internal/infrastructure/config"
	"token-transfer-indexer/internal/infrastructure/logger"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// ErrNotConnected is returned when an operation needs a live NATS connection
var ErrNotConnected = errors.New("nats: not connected")

const fetchBatchSize = 10

// NATSConsumer receives block stream payloads from NATS JetStream or core NATS
type NATSConsumer struct {
	conn    *nats.Conn
	js      nats.JetStreamContext
	sub     *nats.Subscription
	config  *config.NATSConfig
	logger  *logger.Logger
	msgChan chan *entity.StreamMessage
	running atomic.Bool
	closed  atomic.Bool
}

// NewNATSConsumer creates a new NATS consumer
func NewNATSConsumer(cfg *config.NATSConfig, logger *logger.Logger) *NATSConsumer {
	return &NATSConsumer{
		config:  cfg,
		logger:  logger.WithComponent("nats-consumer"),
		msgChan: make(chan *entity.StreamMessage, cfg.MaxPendingMessages),
	}
}

// Subject returns the subject block payloads are consumed from
func (n *NATSConsumer) Subject() string {
	return fmt.Sprintf("%s.blocks", n.config.SubjectPrefix)
}

// Connect connects to NATS server and sets up consumer
func (n *NATSConsumer) Connect(ctx context.Context) error {
	if !n.config.Enabled {
		n.logger.Info("NATS is disabled, skipping connection")
		return nil
	}

	n.logger.Info("Connecting to NATS server", zap.String("url", n.config.URL))

	opts := []nats.Option{
		nats.Name(n.config.ConsumerName),
		nats.Timeout(n.config.ConnectTimeout),
		nats.ReconnectWait(n.config.ReconnectDelay),
		nats.MaxReconnects(n.config.ReconnectAttempts),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			n.logger.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			n.logger.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			n.logger.Info("NATS connection closed")
		}),
	}

	conn, err := nats.Connect(n.config.URL, opts...)
	if err != nil {
		n.logger.Error("Failed to connect to NATS", zap.Error(err))
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}

	n.conn = conn

	// Try JetStream first, if not available fall back to core NATS
	js, err := conn.JetStream()
	if err != nil {
		n.logger.Warn("JetStream not available, using core NATS", zap.Error(err))
		return n.setupCoreNATSSubscription()
	}

	n.js = js
	return n.setupJetStreamSubscription()
}

// setupJetStreamSubscription binds a pull subscription to the configured durable consumer
func (n *NATSConsumer) setupJetStreamSubscription() error {
	subject := n.Subject()
	durable := n.config.ConsumerName

	n.logger.Info("Setting up JetStream subscription",
		zap.String("subject", subject),
		zap.String("stream", n.config.StreamName),
		zap.String("consumer", durable))

	sub, err := n.js.PullSubscribe(subject, durable, nats.BindStream(n.config.StreamName))
	if err != nil {
		n.logger.Warn("Failed to create pull subscription, falling back to core NATS", zap.Error(err))
		return n.setupCoreNATSSubscription()
	}

	n.sub = sub
	n.running.Store(true)

	go n.processJetStreamMessages()

	n.logger.Info("Successfully connected to NATS JetStream",
		zap.String("subject", subject),
		zap.String("consumer", durable))

	return nil
}

// processJetStreamMessages processes messages from JetStream pull subscription
func (n *NATSConsumer) processJetStreamMessages() {
	n.logger.Info("Starting JetStream message processing")

	for n.running.Load() {
		msgs, err := n.sub.Fetch(fetchBatchSize, nats.MaxWait(5*time.Second))
		if err != nil {
			if errors.Is(err, nats.ErrTimeout) {
				continue
			}
			if !n.running.Load() {
				break
			}
			n.logger.Error("Failed to fetch messages", zap.Error(err))
			continue
		}

		n.logger.Debug("Fetched messages from JetStream", zap.Int("count", len(msgs)))

		for _, msg := range msgs {
			n.handleMessage(msg)
		}
	}

	n.logger.Info("Stopped JetStream message processing")
}

// setupCoreNATSSubscription sets up core NATS queue subscription
func (n *NATSConsumer) setupCoreNATSSubscription() error {
	subject := n.Subject()
	queueGroup := n.config.ConsumerGroup

	n.logger.Info("Setting up core NATS subscription",
		zap.String("subject", subject),
		zap.String("queue_group", queueGroup))

	sub, err := n.conn.QueueSubscribe(subject, queueGroup, n.handleMessage)
	if err != nil {
		n.logger.Error("Failed to subscribe to subject", zap.Error(err))
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	n.sub = sub
	n.running.Store(true)

	n.logger.Info("Successfully connected to core NATS",
		zap.String("subject", subject),
		zap.String("queue_group", queueGroup))

	return nil
}

// handleMessage hands the raw payload to the processing channel. Payloads are
// not parsed here; shape problems surface as decode faults downstream.
func (n *NATSConsumer) handleMessage(msg *nats.Msg) {
	if n.closed.Load() {
		return
	}

	payload := make([]byte, len(msg.Data))
	copy(payload, msg.Data)

	streamMsg := &entity.StreamMessage{
		Payload:    payload,
		Source:     msg.Subject,
		ReceivedAt: time.Now().UTC(),
	}

	select {
	case n.msgChan <- streamMsg:
		n.logger.Debug("Queued stream payload",
			zap.String("subject", msg.Subject),
			zap.Int("size", len(payload)))
		if msg.Reply != "" {
			_ = msg.Ack()
		}
	default:
		n.logger.Warn("Message channel is full, dropping payload",
			zap.String("subject", msg.Subject),
			zap.Int("size", len(payload)))
		if msg.Reply != "" {
			_ = msg.Nak()
		}
	}
}

// Disconnect disconnects from NATS server
func (n *NATSConsumer) Disconnect() error {
	n.running.Store(false)

	if n.sub != nil {
		if err := n.sub.Unsubscribe(); err != nil {
			n.logger.Warn("Failed to unsubscribe", zap.Error(err))
		}
		n.sub = nil
	}
	if n.conn != nil {
		n.conn.Close()
		n.conn = nil
	}
	if n.closed.CompareAndSwap(false, true) {
		close(n.msgChan)
	}
	n.logger.Info("Disconnected from NATS")
	return nil
}

// IsConnected checks if connected to NATS
func (n *NATSConsumer) IsConnected() bool {
	return n.running.Load() && n.conn != nil && n.conn.IsConnected()
}

// Conn returns the underlying connection, or nil before Connect
func (n *NATSConsumer) Conn() *nats.Conn {
	return n.conn
}

// GetMessageChannel returns the message channel
func (n *NATSConsumer) GetMessageChannel() <-chan *entity.StreamMessage {
	return n.msgChan
}
