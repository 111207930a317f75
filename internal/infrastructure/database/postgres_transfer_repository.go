package database

import (
	"context"
	"fmt"
	"strings"

	"token-transfer-indexer/internal/domain/entity"
	"token-transfer-indexer/internal/infrastructure/config"
	"token-transfer-indexer/internal/infrastructure/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const transfersSchema = `
	CREATE TABLE IF NOT EXISTS token_transfers (
		tx_hash          TEXT        NOT NULL,
		contract_address TEXT        NOT NULL,
		standard         TEXT        NOT NULL,
		position         INTEGER     NOT NULL,
		tx_index         TEXT        NOT NULL DEFAULT '',
		from_address     TEXT        NOT NULL,
		to_address       TEXT        NOT NULL,
		operator         TEXT        NOT NULL DEFAULT '',
		token_id         TEXT        NOT NULL DEFAULT '',
		value            TEXT        NOT NULL,
		block_time       TIMESTAMPTZ NOT NULL,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (tx_hash, contract_address, standard, position)
	);
	CREATE INDEX IF NOT EXISTS token_transfers_from_idx ON token_transfers (from_address, block_time DESC);
	CREATE INDEX IF NOT EXISTS token_transfers_to_idx ON token_transfers (to_address, block_time DESC);
`

const insertTransferSQL = `
	INSERT INTO token_transfers (
		tx_hash, contract_address, standard, position, tx_index,
		from_address, to_address, operator, token_id, value, block_time
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (tx_hash, contract_address, standard, position) DO NOTHING
`

const selectWalletTransfersSQL = `
	SELECT standard, from_address, to_address, operator, contract_address,
		token_id, value, tx_hash, tx_index, position, block_time
	FROM token_transfers
	WHERE from_address = $1 OR to_address = $1
	ORDER BY block_time DESC, position ASC
	LIMIT $2
`

// PostgresTransferRepository stores transfers as rows of the token_transfers table
type PostgresTransferRepository struct {
	pool      *pgxpool.Pool
	batchSize int
	logger    *logger.Logger
}

// NewPostgresTransferRepository connects the pool and ensures the schema exists
func NewPostgresTransferRepository(ctx context.Context, cfg *config.PostgresConfig, logger *logger.Logger) (*PostgresTransferRepository, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	repo := &PostgresTransferRepository{
		pool:      pool,
		batchSize: cfg.BatchSize,
		logger:    logger.WithComponent("postgres-transfer-repository"),
	}
	if repo.batchSize <= 0 {
		repo.batchSize = 500
	}

	if _, err := pool.Exec(ctx, transfersSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ensure token_transfers schema: %w", err)
	}

	repo.logger.Info("Connected to PostgreSQL")
	return repo, nil
}

// Close releases the pool
func (r *PostgresTransferRepository) Close() {
	if r.pool != nil {
		r.pool.Close()
	}
}

// BatchCreateTransferRelationships inserts transfers in pgx batches of at most batchSize rows
func (r *PostgresTransferRepository) BatchCreateTransferRelationships(ctx context.Context, transfers []*entity.TransferRelationship) error {
	for _, chunk := range chunkTransfers(transfers, r.batchSize) {
		batch := &pgx.Batch{}
		for _, t := range chunk {
			batch.Queue(insertTransferSQL, transferRow(t)...)
		}

		if err := r.sendBatch(ctx, batch, len(chunk)); err != nil {
			r.logger.Error("Failed to insert transfers",
				zap.Int("count", len(chunk)),
				zap.Error(err))
			return fmt.Errorf("failed to insert transfers: %w", err)
		}
	}
	return nil
}

func (r *PostgresTransferRepository) sendBatch(ctx context.Context, batch *pgx.Batch, n int) error {
	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < n; i++ {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// GetTransfersForWallet retrieves transfers sent or received by a wallet, newest first
func (r *PostgresTransferRepository) GetTransfersForWallet(ctx context.Context, address string, limit int) ([]*entity.TransferRelationship, error) {
	rows, err := r.pool.Query(ctx, selectWalletTransfersSQL, strings.ToLower(address), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query wallet transfers: %w", err)
	}

	transfers, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*entity.TransferRelationship, error) {
		var (
			t        entity.TransferRelationship
			standard string
		)
		if err := row.Scan(&standard, &t.FromAddress, &t.ToAddress, &t.Operator, &t.ContractAddress,
			&t.TokenID, &t.Value, &t.TxHash, &t.TxIndex, &t.Position, &t.Timestamp); err != nil {
			return nil, err
		}
		t.Standard = entity.TransferType(standard)
		t.Timestamp = t.Timestamp.UTC()
		return &t, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan wallet transfers: %w", err)
	}
	return transfers, nil
}

func transferRow(t *entity.TransferRelationship) []any {
	return []any{
		t.TxHash,
		strings.ToLower(t.ContractAddress),
		string(t.Standard),
		t.Position,
		t.TxIndex,
		t.FromAddress,
		t.ToAddress,
		t.Operator,
		t.TokenID,
		t.Value,
		t.Timestamp.UTC(),
	}
}

func chunkTransfers(transfers []*entity.TransferRelationship, size int) [][]*entity.TransferRelationship {
	if size <= 0 {
		size = len(transfers)
	}
	var chunks [][]*entity.TransferRelationship
	for start := 0; start < len(transfers); start += size {
		end := start + size
		if end > len(transfers) {
			end = len(transfers)
		}
		chunks = append(chunks, transfers[start:end])
	}
	return chunks
}
