package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	app_service "token-transfer-indexer/internal/application/service"
	"token-transfer-indexer/internal/application/pipeline"
	"token-transfer-indexer/internal/domain/repository"
	domain_service "token-transfer-indexer/internal/domain/service"
	"token-transfer-indexer/internal/infrastructure/blockchain"
	"token-transfer-indexer/internal/infrastructure/config"
	"token-transfer-indexer/internal/infrastructure/database"
	"token-transfer-indexer/internal/infrastructure/httpserver"
	"token-transfer-indexer/internal/infrastructure/logger"
	"token-transfer-indexer/internal/infrastructure/messaging"
	"token-transfer-indexer/internal/infrastructure/metrics"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Create logger
	log, err := logger.NewLogger(cfg.App.LogLevel)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}

	app := fx.New(
		fx.Supply(cfg),
		fx.Supply(log),
		fx.Supply(&cfg.NATS),
		fx.Supply(&cfg.Neo4J),

		// Infrastructure providers
		fx.Provide(
			database.NewNeo4JClient,
			newTransferRepository,
			newMetricsCollector,
			func(cfg *config.Config, log *logger.Logger) domain_service.TransferDecoderService {
				return blockchain.NewTransferDecoderService(log, blockchain.WithParallelBundles(cfg.Decoder.ParallelBundles))
			},
			messaging.NewNATSConsumer,
			newTransferPublisher,
		),

		// Application providers
		fx.Provide(
			app_service.NewIndexingApplicationService,
		),

		// Lifecycle hooks
		fx.Invoke(startIndexer),
		fx.Invoke(startHTTPServer),
		fx.Invoke(startMetricsServer),

		fx.WithLogger(func() fxevent.Logger {
			return fxevent.NopLogger
		}),
	)

	ctx := context.Background()
	if err := app.Start(ctx); err != nil {
		log.Error("Failed to start application", zap.Error(err))
		os.Exit(1)
	}

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down application...")

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.Stop(stopCtx); err != nil {
		log.Error("Failed to stop application gracefully", zap.Error(err))
		os.Exit(1)
	}

	log.Info("Application stopped successfully")
}

// newTransferRepository selects the storage backend and ties its connection to the lifecycle
func newTransferRepository(
	lifecycle fx.Lifecycle,
	cfg *config.Config,
	neo4jClient *database.Neo4JClient,
	log *logger.Logger,
) (repository.TransferRepository, error) {
	switch cfg.Storage.Driver {
	case config.StorageNeo4J:
		lifecycle.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				if err := neo4jClient.Connect(ctx); err != nil {
					return fmt.Errorf("failed to connect to Neo4J: %w", err)
				}
				return nil
			},
			OnStop: func(ctx context.Context) error {
				return neo4jClient.Close(ctx)
			},
		})
		return database.NewNeo4JTransferRepository(neo4jClient, log), nil

	case config.StoragePostgres:
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		repo, err := database.NewPostgresTransferRepository(ctx, &cfg.Postgres, log)
		if err != nil {
			return nil, err
		}
		lifecycle.Append(fx.Hook{
			OnStop: func(context.Context) error {
				repo.Close()
				return nil
			},
		})
		return repo, nil

	default:
		log.Warn("Storage disabled, decoded transfers will not be persisted")
		return database.NewNoopTransferRepository(), nil
	}
}

func newMetricsCollector(cfg *config.Config) *metrics.Collector {
	if !cfg.Metrics.Enabled {
		return nil
	}
	return metrics.NewCollector()
}

func newTransferPublisher(cfg *config.Config, consumer *messaging.NATSConsumer, log *logger.Logger) domain_service.TransferPublisher {
	if !cfg.NATS.Enabled || !cfg.NATS.PublishResults {
		return nil
	}
	return messaging.NewNATSPublisher(&cfg.NATS, consumer, log)
}

// startIndexer connects the consumer and runs the batch pipeline until shutdown
func startIndexer(
	lifecycle fx.Lifecycle,
	consumer *messaging.NATSConsumer,
	indexingService domain_service.IndexingService,
	log *logger.Logger,
	cfg *config.Config,
) {
	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting indexing service...",
				zap.String("nats_url", cfg.NATS.URL),
				zap.String("stream_name", cfg.NATS.StreamName),
				zap.String("subject", consumer.Subject()),
				zap.Bool("nats_enabled", cfg.NATS.Enabled),
				zap.String("storage", cfg.Storage.Driver))

			if err := consumer.Connect(ctx); err != nil {
				return fmt.Errorf("failed to connect to NATS: %w", err)
			}

			batcher := pipeline.NewBatcher(indexingService, cfg.App.BatchSize, cfg.App.WorkerPoolSize, cfg.App.FlushInterval, log)
			go func() {
				defer close(done)
				batcher.Run(runCtx, consumer.GetMessageChannel())
			}()

			log.Info("Indexing service started successfully")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Stopping indexing service...")
			err := consumer.Disconnect()
			cancel()

			select {
			case <-done:
			case <-ctx.Done():
				return errors.Join(err, ctx.Err())
			}
			return err
		},
	})
}

// startHTTPServer serves health, stream ingestion and wallet queries on app.http_port
func startHTTPServer(
	lifecycle fx.Lifecycle,
	cfg *config.Config,
	indexingService domain_service.IndexingService,
	collector *metrics.Collector,
	log *logger.Logger,
) {
	var metricsHandler http.Handler
	if collector != nil {
		metricsHandler = collector.Handler()
	}
	server := httpserver.NewServer(cfg.App.HTTPPort, cfg.App.MaxBodyBytes, indexingService, metricsHandler, log)

	lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			server.Start()
			return nil
		},
		OnStop: server.Stop,
	})
}

// startMetricsServer exposes /metrics on its own port when metrics are enabled
func startMetricsServer(
	lifecycle fx.Lifecycle,
	cfg *config.Config,
	collector *metrics.Collector,
	log *logger.Logger,
) {
	if collector == nil || cfg.Metrics.Port == cfg.App.HTTPPort {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			log.Info("Starting metrics server", zap.Int("port", cfg.Metrics.Port))
			go func() {
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("Metrics server error", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: server.Shutdown,
	})
}
