package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFileDefaults(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, "app:\n  env: test\n"))
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.App.Env)
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, 2*time.Second, cfg.App.FlushInterval)
	assert.Equal(t, 1, cfg.Decoder.ParallelBundles)
	assert.Equal(t, StorageNeo4J, cfg.Storage.Driver)
	assert.Equal(t, 10*time.Second, cfg.NATS.ConnectTimeout)
	assert.False(t, cfg.NATS.PublishResults)
	assert.Equal(t, 9090, cfg.Metrics.Port)
}

func TestLoadFileOverrides(t *testing.T) {
	path := writeConfig(t, `
app:
  batch_size: 10
  flush_interval: 500ms
decoder:
  parallel_bundles: 8
storage:
  driver: postgres
postgres:
  dsn: postgres://indexer@localhost/transfers
nats:
  subject_prefix: mainnet
  publish_results: true
`)
	t.Setenv("APP_LOG_LEVEL", "debug")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.Equal(t, 10, cfg.App.BatchSize)
	assert.Equal(t, 500*time.Millisecond, cfg.App.FlushInterval)
	assert.Equal(t, 8, cfg.Decoder.ParallelBundles)
	assert.Equal(t, StoragePostgres, cfg.Storage.Driver)
	assert.Equal(t, "postgres://indexer@localhost/transfers", cfg.Postgres.DSN)
	assert.Equal(t, "mainnet", cfg.NATS.SubjectPrefix)
	assert.True(t, cfg.NATS.PublishResults)
}

func TestLoadFileRejectsInvalidStorage(t *testing.T) {
	_, err := LoadFile(writeConfig(t, "storage:\n  driver: mongo\n"))
	assert.ErrorContains(t, err, "unknown storage driver")

	t.Setenv("DATABASE_URL", "")
	_, err = LoadFile(writeConfig(t, "storage:\n  driver: postgres\n"))
	assert.ErrorContains(t, err, "postgres.dsn")
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidateClampsParallelBundles(t *testing.T) {
	cfg := &Config{
		App:     AppConfig{WorkerPoolSize: 1, BatchSize: 1},
		Storage: StorageConfig{Driver: StorageNone},
	}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 1, cfg.Decoder.ParallelBundles)
}

func TestLoadDecode(t *testing.T) {
	flags := pflag.NewFlagSet("decode", pflag.ContinueOnError)
	flags.String("in", "", "")
	flags.String("out", "", "")
	flags.String("log-level", "warn", "")
	flags.Int("parallel-bundles", 1, "")

	_, err := LoadDecode(flags)
	assert.ErrorContains(t, err, "input path is required")

	require.NoError(t, flags.Parse([]string{"--in", "payload.json", "--out", "events.jsonl", "--parallel-bundles", "0"}))
	cfg, err := LoadDecode(flags)
	require.NoError(t, err)
	assert.Equal(t, "payload.json", cfg.In)
	assert.Equal(t, "events.jsonl", cfg.Out)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 1, cfg.ParallelBundles)
}

func TestLoadFetch(t *testing.T) {
	flags := pflag.NewFlagSet("fetch", pflag.ContinueOnError)
	flags.String("rpc", "", "")
	flags.Uint64("from", 0, "")
	flags.Uint64("to", 0, "")
	flags.String("out", "", "")

	_, err := LoadFetch(flags)
	assert.ErrorContains(t, err, "rpc url is required")

	require.NoError(t, flags.Parse([]string{"--rpc", "http://localhost:8545", "--from", "10", "--to", "5"}))
	_, err = LoadFetch(flags)
	assert.ErrorContains(t, err, "before --from")

	require.NoError(t, flags.Set("to", "12"))
	cfg, err := LoadFetch(flags)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), cfg.From)
	assert.Equal(t, uint64(12), cfg.To)
	assert.Equal(t, "warn", cfg.LogLevel)
}
