package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// DecodeConfig holds configuration for the one-shot decode command
type DecodeConfig struct {
	In              string
	Out             string
	LogLevel        string
	ParallelBundles int
}

// LoadDecode merges environment variables and flags into DecodeConfig
func LoadDecode(flags *pflag.FlagSet) (DecodeConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("DECODER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("out", "")
	v.SetDefault("log-level", "warn")
	v.SetDefault("parallel-bundles", 1)

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return DecodeConfig{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	cfg := DecodeConfig{
		In:              v.GetString("in"),
		Out:             v.GetString("out"),
		LogLevel:        v.GetString("log-level"),
		ParallelBundles: v.GetInt("parallel-bundles"),
	}
	if cfg.In == "" {
		return DecodeConfig{}, fmt.Errorf("input path is required (use - for stdin)")
	}
	if cfg.ParallelBundles < 1 {
		cfg.ParallelBundles = 1
	}
	return cfg, nil
}

// FetchConfig holds configuration for the RPC backfill command
type FetchConfig struct {
	RPCURL          string
	From            uint64
	To              uint64
	Out             string
	LogLevel        string
	ParallelBundles int
}

// LoadFetch merges environment variables and flags into FetchConfig
func LoadFetch(flags *pflag.FlagSet) (FetchConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("DECODER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("log-level", "warn")
	v.SetDefault("parallel-bundles", 1)

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return FetchConfig{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	cfg := FetchConfig{
		RPCURL:          v.GetString("rpc"),
		From:            v.GetUint64("from"),
		To:              v.GetUint64("to"),
		Out:             v.GetString("out"),
		LogLevel:        v.GetString("log-level"),
		ParallelBundles: v.GetInt("parallel-bundles"),
	}
	if cfg.RPCURL == "" {
		return FetchConfig{}, fmt.Errorf("rpc url is required")
	}
	if cfg.To != 0 && cfg.To < cfg.From {
		return FetchConfig{}, fmt.Errorf("--to %d is before --from %d", cfg.To, cfg.From)
	}
	if cfg.ParallelBundles < 1 {
		cfg.ParallelBundles = 1
	}
	return cfg, nil
}
