package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"token-transfer-indexer/internal/domain/entity"
	"token-transfer-indexer/internal/domain/repository"
	"token-transfer-indexer/internal/infrastructure/logger"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

const neo4jTimeLayout = "2006-01-02T15:04:05.000Z"

// Neo4JTransferRepository stores transfers as TOKEN_TRANSFER relationships between Wallet nodes
type Neo4JTransferRepository struct {
	client *Neo4JClient
	logger *logger.Logger
}

// NewNeo4JTransferRepository creates a new Neo4J transfer repository
func NewNeo4JTransferRepository(client *Neo4JClient, logger *logger.Logger) repository.TransferRepository {
	return &Neo4JTransferRepository{
		client: client,
		logger: logger.WithComponent("neo4j-transfer-repository"),
	}
}

// BatchCreateTransferRelationships merges wallets and contracts and creates one relationship
// per transfer. Relationships are keyed by (tx_hash, contract, standard, position), so replays
// of the same payload do not duplicate edges. Transfers missing a from or to address have no
// wallet to attach to and are skipped.
func (r *Neo4JTransferRepository) BatchCreateTransferRelationships(ctx context.Context, transfers []*entity.TransferRelationship) error {
	params := relationshipParams(transfers)
	if skipped := len(transfers) - len(params); skipped > 0 {
		r.logger.Debug("Skipping transfers without wallet addresses", zap.Int("count", skipped))
	}
	if len(params) == 0 {
		return nil
	}

	session, err := r.client.NewSession(ctx, neo4j.AccessModeWrite)
	if err != nil {
		return err
	}
	defer session.Close(ctx)

	query := `
		UNWIND $relationships AS rel
		MERGE (from:Wallet {address: rel.from_address})
		MERGE (to:Wallet {address: rel.to_address})
		MERGE (contract:TokenContract {address: rel.contract_address})
		ON CREATE SET contract.standard = rel.standard
		MERGE (from)-[r:TOKEN_TRANSFER {
			tx_hash: rel.tx_hash,
			contract_address: rel.contract_address,
			standard: rel.standard,
			position: rel.position
		}]->(to)
		ON CREATE SET
			r.operator = rel.operator,
			r.token_id = rel.token_id,
			r.value = rel.value,
			r.tx_index = rel.tx_index,
			r.timestamp = datetime(rel.timestamp)
		MERGE (from)-[:INTERACTED_WITH]->(contract)
		MERGE (to)-[:INTERACTED_WITH]->(contract)
	`

	_, err = session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, query, map[string]interface{}{
			"relationships": params,
		})
	})
	if err != nil {
		r.logger.Error("Failed to batch create transfer relationships",
			zap.Int("count", len(params)),
			zap.Error(err))
		return fmt.Errorf("failed to batch create transfer relationships: %w", err)
	}

	r.logger.Debug("Created transfer relationships", zap.Int("count", len(params)))
	return nil
}

// GetTransfersForWallet retrieves transfers sent or received by a wallet, newest first
func (r *Neo4JTransferRepository) GetTransfersForWallet(ctx context.Context, address string, limit int) ([]*entity.TransferRelationship, error) {
	session, err := r.client.NewSession(ctx, neo4j.AccessModeRead)
	if err != nil {
		return nil, err
	}
	defer session.Close(ctx)

	query := `
		MATCH (from:Wallet)-[r:TOKEN_TRANSFER]->(to:Wallet)
		WHERE from.address = $address OR to.address = $address
		RETURN from.address AS from_address, to.address AS to_address,
			r.standard AS standard, r.operator AS operator, r.contract_address AS contract_address,
			r.token_id AS token_id, r.value AS value, r.tx_hash AS tx_hash, r.tx_index AS tx_index,
			r.position AS position, r.timestamp AS timestamp
		ORDER BY r.timestamp DESC, r.position ASC
		LIMIT $limit
	`

	records, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, query, map[string]interface{}{
			"address": strings.ToLower(address),
			"limit":   limit,
		})
		if err != nil {
			return nil, err
		}
		return result.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get transfers for wallet: %w", err)
	}

	var transfers []*entity.TransferRelationship
	for _, record := range records.([]*neo4j.Record) {
		transfers = append(transfers, relationshipFromRecord(record.AsMap()))
	}
	return transfers, nil
}

func relationshipParams(transfers []*entity.TransferRelationship) []map[string]interface{} {
	params := make([]map[string]interface{}, 0, len(transfers))
	for _, t := range transfers {
		if t.FromAddress == "" || t.ToAddress == "" {
			continue
		}
		params = append(params, map[string]interface{}{
			"standard":         string(t.Standard),
			"from_address":     t.FromAddress,
			"to_address":       t.ToAddress,
			"operator":         t.Operator,
			"contract_address": strings.ToLower(t.ContractAddress),
			"token_id":         t.TokenID,
			"value":            t.Value,
			"tx_hash":          t.TxHash,
			"tx_index":         t.TxIndex,
			"position":         t.Position,
			"timestamp":        t.Timestamp.UTC().Format(neo4jTimeLayout),
		})
	}
	return params
}

func relationshipFromRecord(values map[string]any) *entity.TransferRelationship {
	rel := &entity.TransferRelationship{
		Standard:        entity.TransferType(stringValue(values, "standard")),
		FromAddress:     stringValue(values, "from_address"),
		ToAddress:       stringValue(values, "to_address"),
		Operator:        stringValue(values, "operator"),
		ContractAddress: stringValue(values, "contract_address"),
		TokenID:         stringValue(values, "token_id"),
		Value:           stringValue(values, "value"),
		TxHash:          stringValue(values, "tx_hash"),
		TxIndex:         stringValue(values, "tx_index"),
	}
	if position, ok := values["position"].(int64); ok {
		rel.Position = int(position)
	}
	if ts, ok := values["timestamp"].(time.Time); ok {
		rel.Timestamp = ts.UTC()
	}
	return rel
}

func stringValue(values map[string]any, key string) string {
	s, _ := values[key].(string)
	return s
}
