package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"token-transfer-indexer/internal/domain/entity"
	"token-transfer-indexer/internal/domain/repository"
	"token-transfer-indexer/internal/domain/service"
	"token-transfer-indexer/internal/infrastructure/logger"
	"token-transfer-indexer/internal/infrastructure/metrics"

	"go.uber.org/zap"
)

const defaultWalletLimit = 100

// IndexingApplicationService implements IndexingService interface
type IndexingApplicationService struct {
	decoder      service.TransferDecoderService
	transferRepo repository.TransferRepository
	publisher    service.TransferPublisher
	metrics      *metrics.Collector
	logger       *logger.Logger
}

// NewIndexingApplicationService creates a new indexing application service.
// publisher and collector may be nil.
func NewIndexingApplicationService(
	decoder service.TransferDecoderService,
	transferRepo repository.TransferRepository,
	publisher service.TransferPublisher,
	collector *metrics.Collector,
	logger *logger.Logger,
) service.IndexingService {
	return &IndexingApplicationService{
		decoder:      decoder,
		transferRepo: transferRepo,
		publisher:    publisher,
		metrics:      collector,
		logger:       logger.WithComponent("indexing-service"),
	}
}

// ProcessMessage decodes one stream payload, stores its transfers and publishes the result.
// The returned error only reports storage or publish failures; a Fault is part of the result.
func (s *IndexingApplicationService) ProcessMessage(ctx context.Context, msg *entity.StreamMessage) (entity.DecodeResult, error) {
	result := s.decode(msg)

	var errs []error
	if rels := result.Relationships(); len(rels) > 0 {
		if err := s.store(ctx, rels); err != nil {
			errs = append(errs, err)
		}
	}
	if err := s.publish(ctx, msg, result); err != nil {
		errs = append(errs, err)
	}

	return result, errors.Join(errs...)
}

// ProcessMessageBatch decodes every message and writes all their transfers in one repository call
func (s *IndexingApplicationService) ProcessMessageBatch(ctx context.Context, msgs []*entity.StreamMessage) error {
	if len(msgs) == 0 {
		return nil
	}

	s.logger.Debug("Processing stream batch", zap.Int("messages", len(msgs)))

	results := make([]entity.DecodeResult, len(msgs))
	var rels []*entity.TransferRelationship
	faults := 0
	for i, msg := range msgs {
		results[i] = s.decode(msg)
		if results[i].Outcome == entity.OutcomeFault {
			faults++
		}
		rels = append(rels, results[i].Relationships()...)
	}

	var errs []error
	if len(rels) > 0 {
		if err := s.store(ctx, rels); err != nil {
			errs = append(errs, err)
		}
	}
	for i, msg := range msgs {
		if err := s.publish(ctx, msg, results[i]); err != nil {
			errs = append(errs, err)
		}
	}

	s.logger.Info("Processed stream batch",
		zap.Int("messages", len(msgs)),
		zap.Int("transfers", len(rels)),
		zap.Int("faults", faults))

	return errors.Join(errs...)
}

// GetTransfersForWallet retrieves stored transfers sent or received by a wallet
func (s *IndexingApplicationService) GetTransfersForWallet(ctx context.Context, address string, limit int) ([]*entity.TransferRelationship, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, fmt.Errorf("wallet address is required")
	}
	if limit <= 0 {
		limit = defaultWalletLimit
	}

	transfers, err := s.transferRepo.GetTransfersForWallet(ctx, strings.ToLower(address), limit)
	if err != nil {
		s.metrics.StorageError("get_wallet_transfers")
		return nil, fmt.Errorf("failed to get transfers for wallet %s: %w", address, err)
	}
	return transfers, nil
}

func (s *IndexingApplicationService) decode(msg *entity.StreamMessage) entity.DecodeResult {
	start := time.Now()
	result := s.decoder.Decode(msg.Payload)
	s.metrics.ObserveDecode(sourceLabel(msg.Source), result, time.Since(start))

	msgLog := s.logger.WithFields(map[string]interface{}{
		"source":       msg.Source,
		"payload_size": len(msg.Payload),
	})
	switch result.Outcome {
	case entity.OutcomeFault:
		msgLog.Warn("Stream payload faulted", zap.String("fault", result.Fault))
	case entity.OutcomeEvents:
		msgLog.Debug("Decoded transfers",
			zap.Int("erc20", len(result.Transfers.ERC20)),
			zap.Int("erc721", len(result.Transfers.ERC721)),
			zap.Int("erc1155", len(result.Transfers.ERC1155)))
	}
	return result
}

func (s *IndexingApplicationService) store(ctx context.Context, rels []*entity.TransferRelationship) error {
	if err := s.transferRepo.BatchCreateTransferRelationships(ctx, rels); err != nil {
		s.metrics.StorageError("batch_create")
		s.logger.Error("Failed to store transfers", zap.Int("count", len(rels)), zap.Error(err))
		return fmt.Errorf("failed to store transfers: %w", err)
	}
	s.metrics.ObserveBatch(len(rels))
	return nil
}

func (s *IndexingApplicationService) publish(ctx context.Context, msg *entity.StreamMessage, result entity.DecodeResult) error {
	if s.publisher == nil {
		return nil
	}
	if err := s.publisher.PublishTransfers(ctx, msg, result); err != nil {
		s.metrics.PublishError()
		s.logger.Error("Failed to publish transfers", zap.String("source", msg.Source), zap.Error(err))
		return fmt.Errorf("failed to publish transfers: %w", err)
	}
	return nil
}

// sourceLabel keeps the metrics label set bounded
func sourceLabel(source string) string {
	switch {
	case source == "":
		return "unknown"
	case strings.HasPrefix(source, "http"):
		return "http"
	case strings.HasPrefix(source, "file"):
		return "file"
	default:
		return "nats"
	}
}
