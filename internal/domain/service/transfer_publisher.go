package service

import (
	"context"

	"token-transfer-indexer/internal/domain/entity"
)

// TransferPublisher forwards decode results to downstream consumers
type TransferPublisher interface {
	PublishTransfers(ctx context.Context, msg *entity.StreamMessage, result entity.DecodeResult) error
}
