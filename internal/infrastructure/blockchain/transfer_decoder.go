package blockchain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"token-transfer-indexer/internal/domain/entity"
	"token-transfer-indexer/internal/domain/service"
	"token-transfer-indexer/internal/infrastructure/logger"

	"go.uber.org/zap"
)

var errNotBundleSequence = errors.New("stream payload is not a bundle sequence")

// TransferDecoderService implements the transfer decoder service
type TransferDecoderService struct {
	logger          *logger.Logger
	now             func() time.Time
	parallelBundles int
}

// DecoderOption configures a TransferDecoderService
type DecoderOption func(*TransferDecoderService)

// WithClock replaces the wall clock used when a block carries no timestamp
func WithClock(now func() time.Time) DecoderOption {
	return func(s *TransferDecoderService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithParallelBundles decodes up to n bundles concurrently. Output order is unaffected.
func WithParallelBundles(n int) DecoderOption {
	return func(s *TransferDecoderService) {
		s.parallelBundles = n
	}
}

// NewTransferDecoderService creates a new transfer decoder service
func NewTransferDecoderService(logger *logger.Logger, opts ...DecoderOption) service.TransferDecoderService {
	s := &TransferDecoderService{
		logger:          logger.WithComponent("transfer-decoder"),
		now:             time.Now,
		parallelBundles: 1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Decode normalizes the payload and decodes every bundle in it
func (s *TransferDecoderService) Decode(payload []byte) (result entity.DecodeResult) {
	defer s.recoverFault(&result)

	bundles, err := normalizeStream(payload)
	if err != nil {
		s.logger.Error("Failed to normalize stream payload",
			zap.Int("payload_size", len(payload)),
			zap.Error(err))
		return entity.Fault(err.Error())
	}

	return s.decode(bundles)
}

// DecodeBundles decodes already-parsed bundles
func (s *TransferDecoderService) DecodeBundles(bundles []*entity.RawBundle) (result entity.DecodeResult) {
	defer s.recoverFault(&result)
	return s.decode(bundles)
}

// recoverFault converts a panic escaping bundle processing into a Fault result
func (s *TransferDecoderService) recoverFault(result *entity.DecodeResult) {
	if r := recover(); r != nil {
		s.logger.Error("Transfer decoding faulted", zap.Any("panic", r))
		*result = entity.Fault(fmt.Sprint(r))
	}
}

func (s *TransferDecoderService) decode(bundles []*entity.RawBundle) entity.DecodeResult {
	var set *entity.TransferSet
	if s.parallelBundles > 1 && len(bundles) > 1 {
		var err error
		set, err = s.walkBundlesParallel(bundles)
		if err != nil {
			s.logger.Error("Parallel bundle decoding faulted", zap.Error(err))
			return entity.Fault(err.Error())
		}
	} else {
		set = entity.NewTransferSet()
		for _, bundle := range bundles {
			s.walkBundle(bundle, set)
		}
	}

	s.logger.Debug("Decoded stream payload",
		zap.Int("bundles", len(bundles)),
		zap.Int("erc20", len(set.ERC20)),
		zap.Int("erc721", len(set.ERC721)),
		zap.Int("erc1155", len(set.ERC1155)))

	return entity.Events(set)
}

// normalizeStream accepts either a bare bundle array or an object carrying it under "data".
// The wrapper is unwrapped once. Elements decode leniently, so only a payload that is
// not an array or wrapper fails here; element shapes are left to the bundle walker.
func normalizeStream(payload []byte) ([]*entity.RawBundle, error) {
	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 {
		return nil, errNotBundleSequence
	}

	switch payload[0] {
	case '[':
		var bundles []*entity.RawBundle
		if err := json.Unmarshal(payload, &bundles); err != nil {
			return nil, fmt.Errorf("failed to parse bundle array: %w", err)
		}
		return bundles, nil
	case '{':
		var wrapper map[string]json.RawMessage
		if err := json.Unmarshal(payload, &wrapper); err != nil {
			return nil, fmt.Errorf("failed to parse stream wrapper: %w", err)
		}
		data, ok := wrapper["data"]
		if !ok || bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
			return nil, errNotBundleSequence
		}
		var envelope entity.StreamEnvelope
		if err := json.Unmarshal(payload, &envelope); err != nil {
			return nil, fmt.Errorf("failed to parse stream data: %w", err)
		}
		return envelope.Data, nil
	default:
		return nil, errNotBundleSequence
	}
}

// walkBundlesParallel decodes each bundle into its own set and merges the sets in bundle order
func (s *TransferDecoderService) walkBundlesParallel(bundles []*entity.RawBundle) (*entity.TransferSet, error) {
	sets := make([]*entity.TransferSet, len(bundles))
	faults := make([]error, len(bundles))
	jobs := make(chan int)

	workers := s.parallelBundles
	if workers > len(bundles) {
		workers = len(bundles)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				sets[idx], faults[idx] = s.walkBundleSafe(bundles[idx])
			}
		}()
	}

	for idx := range bundles {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()

	merged := entity.NewTransferSet()
	for idx, set := range sets {
		if faults[idx] != nil {
			return nil, faults[idx]
		}
		merged.Append(set)
	}
	return merged, nil
}

func (s *TransferDecoderService) walkBundleSafe(bundle *entity.RawBundle) (set *entity.TransferSet, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	set = entity.NewTransferSet()
	s.walkBundle(bundle, set)
	return set, nil
}

// walkBundle visits receipts and logs in array order. Bundles, receipts and logs
// failing their presence checks are skipped.
func (s *TransferDecoderService) walkBundle(bundle *entity.RawBundle, set *entity.TransferSet) {
	if bundle == nil || bundle.Block == nil || bundle.Receipts == nil {
		s.logger.Debug("Skipping bundle without block or receipts")
		return
	}

	blockTimestamp := s.blockTimestamp(bundle.Block)

	for _, receipt := range bundle.Receipts {
		if receipt == nil || receipt.Logs == nil {
			continue
		}
		for _, log := range receipt.Logs {
			if log == nil || len(log.Topics) == 0 {
				continue
			}
			s.decodeLog(log, blockTimestamp, set)
		}
	}
}

// blockTimestamp returns the block time in milliseconds, falling back to the
// observation time when the block has no usable timestamp
func (s *TransferDecoderService) blockTimestamp(block *entity.RawBlock) int64 {
	if block.Timestamp != "" {
		seconds, err := strconv.ParseInt(trimHexPrefix(block.Timestamp), 16, 64)
		if err == nil && seconds >= 0 && seconds <= math.MaxInt64/1000 {
			return seconds * 1000
		}
		s.logger.Debug("Unparseable block timestamp, using wall clock",
			zap.String("timestamp", block.Timestamp))
	}
	return s.now().UnixMilli()
}

// decodeLog dispatches a log on its first topic and appends what it decodes
func (s *TransferDecoderService) decodeLog(log *entity.RawLog, blockTimestamp int64, set *entity.TransferSet) {
	switch classifyTopic(log.Topics[0]) {
	case eventTransfer:
		switch {
		case len(log.Topics) == 3 && hasData(log.Data):
			set.ERC20 = append(set.ERC20, &entity.ERC20Transfer{
				Type:           entity.TransferTypeERC20,
				Sender:         StripPadding(log.Topics[1]),
				Receiver:       StripPadding(log.Topics[2]),
				Value:          parseHexWord(hexSlice(log.Data, 2, len(log.Data))).String(),
				Contract:       log.Address,
				TxHash:         log.TransactionHash,
				TxIndex:        log.TransactionIndex,
				BlockTimestamp: blockTimestamp,
			})
		case len(log.Topics) == 4 && !hasData(log.Data):
			set.ERC721 = append(set.ERC721, &entity.ERC721Transfer{
				Type:           entity.TransferTypeERC721,
				Sender:         StripPadding(log.Topics[1]),
				Receiver:       StripPadding(log.Topics[2]),
				TokenID:        parseHexWord(trimHexPrefix(log.Topics[3])).String(),
				Contract:       log.Address,
				TxHash:         log.TransactionHash,
				TxIndex:        log.TransactionIndex,
				BlockTimestamp: blockTimestamp,
			})
		default:
			s.logger.Debug("Skipping Transfer log with unexpected shape",
				zap.String("tx_hash", log.TransactionHash),
				zap.Int("topics", len(log.Topics)),
				zap.Bool("has_data", hasData(log.Data)))
		}

	case eventTransferSingle:
		tokenID, value := ParseSingleData(log.Data)
		set.ERC1155 = append(set.ERC1155, &entity.ERC1155SingleTransfer{
			Type:           entity.TransferTypeERC1155Single,
			Operator:       StripPadding(topicAt(log, 1)),
			Sender:         StripPadding(topicAt(log, 2)),
			Receiver:       StripPadding(topicAt(log, 3)),
			TokenID:        tokenID.String(),
			Value:          value.String(),
			Contract:       log.Address,
			TxHash:         log.TransactionHash,
			TxIndex:        log.TransactionIndex,
			BlockTimestamp: blockTimestamp,
		})

	case eventTransferBatch:
		ids, values := ParseBatchData(log.Data)
		if len(ids) != len(values) {
			s.logger.Debug("Skipping TransferBatch log with mismatched arrays",
				zap.String("tx_hash", log.TransactionHash),
				zap.Int("ids", len(ids)),
				zap.Int("values", len(values)))
			return
		}
		operator := StripPadding(topicAt(log, 1))
		from := StripPadding(topicAt(log, 2))
		to := StripPadding(topicAt(log, 3))
		for i := range ids {
			set.ERC1155 = append(set.ERC1155, &entity.ERC1155BatchTransfer{
				Type:           entity.TransferTypeERC1155Batch,
				Operator:       operator,
				From:           from,
				To:             to,
				TokenID:        ids[i].String(),
				Value:          values[i].String(),
				Contract:       log.Address,
				TxHash:         log.TransactionHash,
				TxIndex:        log.TransactionIndex,
				BlockTimestamp: blockTimestamp,
			})
		}

	default:
		s.logger.Debug("Skipping log with unknown topic0",
			zap.String("tx_hash", log.TransactionHash),
			zap.String("topic0", log.Topics[0]))
	}
}

// topicAt returns the i-th topic or "" when the log has fewer topics
func topicAt(log *entity.RawLog, i int) string {
	if i < len(log.Topics) {
		return log.Topics[i]
	}
	return ""
}
