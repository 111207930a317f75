package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage drivers
const (
	StorageNeo4J    = "neo4j"
	StoragePostgres = "postgres"
	StorageNone     = "none"
)

// Config represents the application configuration
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Decoder  DecoderConfig  `mapstructure:"decoder"`
	NATS     NATSConfig     `mapstructure:"nats"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Neo4J    Neo4JConfig    `mapstructure:"neo4j"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Health   HealthConfig   `mapstructure:"health"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// AppConfig represents application-specific configuration
type AppConfig struct {
	Env            string        `mapstructure:"env"`
	LogLevel       string        `mapstructure:"log_level"`
	HTTPPort       int           `mapstructure:"http_port"`
	WorkerPoolSize int           `mapstructure:"worker_pool_size"`
	BatchSize      int           `mapstructure:"batch_size"`
	FlushInterval  time.Duration `mapstructure:"flush_interval"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
}

// DecoderConfig controls the transfer decoder
type DecoderConfig struct {
	ParallelBundles int `mapstructure:"parallel_bundles"`
}

// NATSConfig represents NATS configuration
type NATSConfig struct {
	URL                string        `mapstructure:"url"`
	StreamName         string        `mapstructure:"stream_name"`
	SubjectPrefix      string        `mapstructure:"subject_prefix"`
	ConsumerGroup      string        `mapstructure:"consumer_group"`
	ConsumerName       string        `mapstructure:"consumer_name"`
	ConnectTimeout     time.Duration `mapstructure:"connect_timeout"`
	ReconnectAttempts  int           `mapstructure:"reconnect_attempts"`
	ReconnectDelay     time.Duration `mapstructure:"reconnect_delay"`
	MaxPendingMessages int           `mapstructure:"max_pending_messages"`
	Enabled            bool          `mapstructure:"enabled"`
	PublishResults     bool          `mapstructure:"publish_results"`
}

// StorageConfig selects the transfer repository backend
type StorageConfig struct {
	Driver string `mapstructure:"driver"`
}

// Neo4JConfig represents Neo4J configuration
type Neo4JConfig struct {
	URI                          string        `mapstructure:"uri"`
	Username                     string        `mapstructure:"username"`
	Password                     string        `mapstructure:"password"`
	Database                     string        `mapstructure:"database"`
	ConnectTimeout               time.Duration `mapstructure:"connect_timeout"`
	MaxConnectionPoolSize        int           `mapstructure:"max_connection_pool_size"`
	ConnectionAcquisitionTimeout time.Duration `mapstructure:"connection_acquisition_timeout"`
}

// PostgresConfig represents PostgreSQL configuration
type PostgresConfig struct {
	DSN       string `mapstructure:"dsn"`
	BatchSize int    `mapstructure:"batch_size"`
	MaxConns  int32  `mapstructure:"max_conns"`
}

// HealthConfig represents health check configuration
type HealthConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// MetricsConfig represents metrics configuration
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// Load loads configuration from environment variables and the default config file locations
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile loads configuration from path, or searches the default locations when path is empty
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/token-transfer-indexer")
	}

	// Environment variables
	v.AutomaticEnv()

	// Map environment variables to nested config keys
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks the values that cannot be defaulted away
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case StorageNeo4J, StoragePostgres, StorageNone:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.Driver == StoragePostgres && c.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required when storage.driver is postgres")
	}
	if c.App.WorkerPoolSize <= 0 {
		return fmt.Errorf("app.worker_pool_size must be positive, got %d", c.App.WorkerPoolSize)
	}
	if c.App.BatchSize <= 0 {
		return fmt.Errorf("app.batch_size must be positive, got %d", c.App.BatchSize)
	}
	if c.Decoder.ParallelBundles < 1 {
		c.Decoder.ParallelBundles = 1
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.env", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.http_port", 8080)
	v.SetDefault("app.worker_pool_size", 4)
	v.SetDefault("app.batch_size", 50)
	v.SetDefault("app.flush_interval", "2s")
	v.SetDefault("app.max_body_bytes", 32<<20)

	// Decoder defaults
	v.SetDefault("decoder.parallel_bundles", 1)

	// NATS defaults
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.stream_name", "BLOCKS")
	v.SetDefault("nats.subject_prefix", "blocks")
	v.SetDefault("nats.consumer_group", "token-transfer-indexer")
	v.SetDefault("nats.consumer_name", "token-transfer-indexer")
	v.SetDefault("nats.connect_timeout", "10s")
	v.SetDefault("nats.reconnect_attempts", 5)
	v.SetDefault("nats.reconnect_delay", "2s")
	v.SetDefault("nats.max_pending_messages", 10000)
	v.SetDefault("nats.enabled", true)
	v.SetDefault("nats.publish_results", false)

	// Storage defaults
	v.SetDefault("storage.driver", StorageNeo4J)

	// Neo4J defaults
	v.SetDefault("neo4j.uri", "neo4j://localhost:7687")
	v.SetDefault("neo4j.username", "neo4j")
	v.SetDefault("neo4j.password", "password")
	v.SetDefault("neo4j.database", "neo4j")
	v.SetDefault("neo4j.connect_timeout", "10s")
	v.SetDefault("neo4j.max_connection_pool_size", 50)
	v.SetDefault("neo4j.connection_acquisition_timeout", "60s")

	// Postgres defaults
	v.SetDefault("postgres.dsn", "")
	v.SetDefault("postgres.batch_size", 500)
	v.SetDefault("postgres.max_conns", 10)

	// Health defaults
	v.SetDefault("health.interval", "30s")
	v.SetDefault("health.timeout", "5s")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)

	_ = v.BindEnv("nats.url", "NATS_URL")
	_ = v.BindEnv("postgres.dsn", "DATABASE_URL")
}
