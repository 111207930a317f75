package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"token-transfer-indexer/internal/domain/entity"
	"token-transfer-indexer/internal/infrastructure/blockchain"
	"token-transfer-indexer/internal/infrastructure/config"
	"token-transfer-indexer/internal/infrastructure/logger"
	"token-transfer-indexer/internal/infrastructure/storage"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func runDecode(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadDecode(cmd.Flags())
	if err != nil {
		return err
	}

	log, err := logger.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	var in io.Reader = cmd.InOrStdin()
	if cfg.In != "-" {
		file, err := os.Open(cfg.In)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer file.Close()
		in = file
	}

	result, err := decodePayload(in, cmd.OutOrStdout(), cfg, log)
	if err != nil {
		return err
	}

	log.Info("Decoded payload",
		zap.String("in", cfg.In),
		zap.String("outcome", result.Outcome.String()),
		zap.Int("transfers", result.Count()))
	return nil
}

// decodePayload decodes one payload, prints the result JSON to stdout and
// appends the transfers to cfg.Out when set
func decodePayload(in io.Reader, stdout io.Writer, cfg config.DecodeConfig, log *logger.Logger) (entity.DecodeResult, error) {
	payload, err := io.ReadAll(in)
	if err != nil {
		return entity.DecodeResult{}, fmt.Errorf("read input: %w", err)
	}

	decoder := blockchain.NewTransferDecoderService(log, blockchain.WithParallelBundles(cfg.ParallelBundles))
	result := decoder.Decode(payload)

	encoded, err := json.Marshal(result)
	if err != nil {
		return result, fmt.Errorf("marshal result: %w", err)
	}
	if _, err := fmt.Fprintln(stdout, string(encoded)); err != nil {
		return result, fmt.Errorf("write result: %w", err)
	}

	if cfg.Out != "" {
		if _, err := storage.NewJSONLWriter(cfg.Out).WriteResult(result); err != nil {
			return result, err
		}
	}
	return result, nil
}
