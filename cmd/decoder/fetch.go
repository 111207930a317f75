package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"token-transfer-indexer/internal/infrastructure/blockchain"
	"token-transfer-indexer/internal/infrastructure/config"
	"token-transfer-indexer/internal/infrastructure/logger"
	"token-transfer-indexer/internal/infrastructure/storage"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func runFetch(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadFetch(cmd.Flags())
	if err != nil {
		return err
	}

	log, err := logger.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := blockchain.NewEthereumClient(ctx, cfg.RPCURL)
	if err != nil {
		return err
	}
	defer client.Close()

	to := cfg.To
	if to == 0 {
		to = cfg.From
	}

	bundles, err := client.FetchBundles(ctx, cfg.From, to)
	if err != nil {
		return err
	}

	decoder := blockchain.NewTransferDecoderService(log, blockchain.WithParallelBundles(cfg.ParallelBundles))
	result := decoder.DecodeBundles(bundles)

	encoded, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(encoded))

	if cfg.Out != "" {
		if _, err := storage.NewJSONLWriter(cfg.Out).WriteResult(result); err != nil {
			return err
		}
	}

	log.Info("Fetched and decoded blocks",
		zap.Uint64("from", cfg.From),
		zap.Uint64("to", to),
		zap.String("outcome", result.Outcome.String()),
		zap.Int("transfers", result.Count()))
	return nil
}
