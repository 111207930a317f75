package repository

import (
	"context"

	"token-transfer-indexer/internal/domain/entity"
)

// TransferRepository defines the interface for token transfer persistence
type TransferRepository interface {
	// BatchCreateTransferRelationships stores multiple transfer relationships in one write
	BatchCreateTransferRelationships(ctx context.Context, transfers []*entity.TransferRelationship) error

	// GetTransfersForWallet retrieves transfers where the wallet is sender or receiver, newest first
	GetTransfersForWallet(ctx context.Context, address string, limit int) ([]*entity.TransferRelationship, error)
}
