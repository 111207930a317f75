package service

import (
	"token-transfer-indexer/internal/domain/entity"
)

// TransferDecoderService defines the interface for extracting token transfers from stream payloads
type TransferDecoderService interface {
	// Decode normalizes a raw JSON payload (bare bundle array or {"data": [...]}) and decodes it.
	// It never returns an error: pipeline faults are reported as an OutcomeFault result.
	Decode(payload []byte) entity.DecodeResult

	// DecodeBundles decodes already-parsed bundles
	DecodeBundles(bundles []*entity.RawBundle) entity.DecodeResult
}
