package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"token-transfer-indexer/internal/domain/entity"
	"token-transfer-indexer/internal/infrastructure/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingIndexer struct {
	mu      sync.Mutex
	batches [][]*entity.StreamMessage
	err     error
}

func (r *recordingIndexer) ProcessMessage(context.Context, *entity.StreamMessage) (entity.DecodeResult, error) {
	return entity.NoEvents(), nil
}

func (r *recordingIndexer) ProcessMessageBatch(_ context.Context, msgs []*entity.StreamMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, msgs)
	return r.err
}

func (r *recordingIndexer) GetTransfersForWallet(context.Context, string, int) ([]*entity.TransferRelationship, error) {
	return nil, nil
}

func (r *recordingIndexer) total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, b := range r.batches {
		n += len(b)
	}
	return n
}

func TestBatcherFlushesOnSizeAndClose(t *testing.T) {
	indexer := &recordingIndexer{}
	batcher := NewBatcher(indexer, 2, 1, time.Hour, logger.NewNopLogger())

	msgs := make(chan *entity.StreamMessage, 5)
	for i := 0; i < 5; i++ {
		msgs <- &entity.StreamMessage{Payload: []byte{byte(i)}}
	}
	close(msgs)

	batcher.Run(context.Background(), msgs)

	require.Len(t, indexer.batches, 3)
	assert.Len(t, indexer.batches[0], 2)
	assert.Len(t, indexer.batches[1], 2)
	assert.Len(t, indexer.batches[2], 1)
	assert.Equal(t, byte(4), indexer.batches[2][0].Payload[0])
}

func TestBatcherFlushesOnTicker(t *testing.T) {
	indexer := &recordingIndexer{}
	batcher := NewBatcher(indexer, 100, 2, 10*time.Millisecond, logger.NewNopLogger())

	msgs := make(chan *entity.StreamMessage)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		batcher.Run(ctx, msgs)
		close(done)
	}()

	msgs <- &entity.StreamMessage{}
	msgs <- &entity.StreamMessage{}

	assert.Eventually(t, func() bool { return indexer.total() == 2 }, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}

func TestBatcherDrainsOnCancel(t *testing.T) {
	indexer := &recordingIndexer{err: errors.New("storage down")}
	batcher := NewBatcher(indexer, 10, 1, time.Hour, logger.NewNopLogger())

	msgs := make(chan *entity.StreamMessage, 3)
	msgs <- &entity.StreamMessage{}
	msgs <- nil
	msgs <- &entity.StreamMessage{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		batcher.Run(ctx, msgs)
		close(done)
	}()

	assert.Eventually(t, func() bool { return len(msgs) == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	assert.Equal(t, 2, indexer.total())
}

func TestNewBatcherDefaults(t *testing.T) {
	b := NewBatcher(&recordingIndexer{}, 0, -1, 0, logger.NewNopLogger())
	assert.Equal(t, 1, b.batchSize)
	assert.Equal(t, 1, b.workers)
	assert.Equal(t, 5*time.Second, b.flushInterval)
}
