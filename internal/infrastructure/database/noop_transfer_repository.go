package database

import (
	"context"

	"token-transfer-indexer/internal/domain/entity"
	"token-transfer-indexer/internal/domain/repository"
)

// NoopTransferRepository discards transfers; used when storage.driver is none
type NoopTransferRepository struct{}

// NewNoopTransferRepository creates a repository that stores nothing
func NewNoopTransferRepository() repository.TransferRepository {
	return NoopTransferRepository{}
}

func (NoopTransferRepository) BatchCreateTransferRelationships(context.Context, []*entity.TransferRelationship) error {
	return nil
}

func (NoopTransferRepository) GetTransfersForWallet(context.Context, string, int) ([]*entity.TransferRelationship, error) {
	return nil, nil
}
