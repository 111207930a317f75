package pipeline

import (
	"context"
	"sync"
	"time"

	"token-transfer-indexer/internal/domain/entity"
	"token-transfer-indexer/internal/domain/service"
	"token-transfer-indexer/internal/infrastructure/logger"

	"go.uber.org/zap"
)

// Batcher groups incoming stream messages into batches and hands them to a worker pool.
// A batch is flushed when it reaches BatchSize or when FlushInterval elapses.
type Batcher struct {
	indexing      service.IndexingService
	batchSize     int
	workers       int
	flushInterval time.Duration
	logger        *logger.Logger
}

// NewBatcher creates a batcher. Non-positive sizes fall back to one.
func NewBatcher(indexing service.IndexingService, batchSize, workers int, flushInterval time.Duration, logger *logger.Logger) *Batcher {
	if batchSize <= 0 {
		batchSize = 1
	}
	if workers <= 0 {
		workers = 1
	}
	if flushInterval <= 0 {
		flushInterval = 5 * time.Second
	}
	return &Batcher{
		indexing:      indexing,
		batchSize:     batchSize,
		workers:       workers,
		flushInterval: flushInterval,
		logger:        logger.WithComponent("batcher"),
	}
}

// Run consumes msgs until ctx is done or msgs is closed. Pending messages are
// flushed and every dispatched batch is processed before Run returns.
func (b *Batcher) Run(ctx context.Context, msgs <-chan *entity.StreamMessage) {
	jobs := make(chan []*entity.StreamMessage, b.workers)

	var wg sync.WaitGroup
	for i := 0; i < b.workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			b.logger.Debug("Starting batch processing worker", zap.Int("worker_id", workerID))

			for batch := range jobs {
				// batches already taken are finished even after cancellation
				if err := b.indexing.ProcessMessageBatch(context.WithoutCancel(ctx), batch); err != nil {
					b.logger.Error("Failed to process stream batch",
						zap.Error(err),
						zap.Int("worker_id", workerID),
						zap.Int("batch_size", len(batch)))
				}
			}
		}(i)
	}

	ticker := time.NewTicker(b.flushInterval)
	defer ticker.Stop()

	batch := make([]*entity.StreamMessage, 0, b.batchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		out := make([]*entity.StreamMessage, len(batch))
		copy(out, batch)
		jobs <- out
		batch = batch[:0]
	}
	shutdown := func() {
		flush()
		close(jobs)
		wg.Wait()
	}

	for {
		select {
		case <-ctx.Done():
			shutdown()
			return

		case msg, ok := <-msgs:
			if !ok {
				shutdown()
				return
			}
			if msg == nil {
				continue
			}
			batch = append(batch, msg)
			if len(batch) >= b.batchSize {
				flush()
			}

		case <-ticker.C:
			flush()
		}
	}
}
