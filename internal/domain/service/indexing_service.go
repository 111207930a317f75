package service

import (
	"context"

	"token-transfer-indexer/internal/domain/entity"
)

// IndexingService defines the interface for indexing operations
type IndexingService interface {
	// ProcessMessage decodes a stream message, persists and publishes its transfers
	ProcessMessage(ctx context.Context, msg *entity.StreamMessage) (entity.DecodeResult, error)

	// ProcessMessageBatch processes multiple stream messages with a single repository write
	ProcessMessageBatch(ctx context.Context, msgs []*entity.StreamMessage) error

	// GetTransfersForWallet retrieves stored transfers sent or received by a wallet
	GetTransfersForWallet(ctx context.Context, address string, limit int) ([]*entity.TransferRelationship, error)
}
