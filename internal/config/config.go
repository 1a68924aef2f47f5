// Package config loads runtime settings for the econ CLI.
// It supports an optional YAML file with FUNDECON_ environment overrides.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"fund-economics-lab/internal/domain"
)

// EnvPrefix is prepended to every environment override,
// e.g. FUNDECON_ENGINE_DISCOUNT_RATE.
const EnvPrefix = "FUNDECON"

// Store kinds.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config represents the complete application configuration.
type Config struct {
	Engine       EngineConfig       `mapstructure:"engine"       yaml:"engine"`
	Orchestrator OrchestratorConfig `mapstructure:"orchestrator" yaml:"orchestrator"`
	Storage      StorageConfig      `mapstructure:"storage"      yaml:"storage"`
	Logging      LoggingConfig      `mapstructure:"logging"      yaml:"logging"`
	Metrics      MetricsConfig      `mapstructure:"metrics"      yaml:"metrics"`
}

// EngineConfig holds the policies engines receive explicitly.
type EngineConfig struct {
	DiscountRate      float64 `mapstructure:"discount_rate"       yaml:"discount_rate"`
	BenchmarkBand     float64 `mapstructure:"benchmark_band"      yaml:"benchmark_band"`
	CatchUpEfficiency float64 `mapstructure:"catch_up_efficiency" yaml:"catch_up_efficiency"` // used when a fund file omits it
}

// OrchestratorConfig bounds scenario fan-out.
type OrchestratorConfig struct {
	Workers int `mapstructure:"workers" yaml:"workers"`
}

// StorageConfig selects where runs are persisted.
type StorageConfig struct {
	Kind          string `mapstructure:"kind"           yaml:"kind"` // "memory" or "postgres"
	PostgresDSN   string `mapstructure:"postgres_dsn"   yaml:"postgres_dsn"`
	ClickhouseDSN string `mapstructure:"clickhouse_dsn" yaml:"clickhouse_dsn"` // optional; fee and step rows
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"` // "json" or "console"
}

// MetricsConfig holds Prometheus settings.
type MetricsConfig struct {
	Namespace string `mapstructure:"namespace" yaml:"namespace"`
}

// Load reads defaults, then path when non-empty, then FUNDECON_* variables.
// A missing path is an error; an empty path means defaults plus environment.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("engine.discount_rate", domain.DefaultDiscountPolicy().AnnualDiscountRate)
	v.SetDefault("engine.benchmark_band", domain.DefaultBenchmarkPolicy().Band)
	v.SetDefault("engine.catch_up_efficiency", domain.DefaultCatchUpEfficiency)

	v.SetDefault("orchestrator.workers", 4)

	v.SetDefault("storage.kind", StoreMemory)
	v.SetDefault("storage.postgres_dsn", "")
	v.SetDefault("storage.clickhouse_dsn", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("metrics.namespace", "fund_economics")
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if err := domain.ValidateDiscountPolicy(c.DiscountPolicy()).Err(); err != nil {
		errs = append(errs, fmt.Errorf("engine.discount_rate: %w", err))
	}
	if err := domain.ValidateBenchmarkPolicy(c.BenchmarkPolicy()).Err(); err != nil {
		errs = append(errs, fmt.Errorf("engine.benchmark_band: %w", err))
	}
	if e := c.Engine.CatchUpEfficiency; e < 0 || e > 1 {
		errs = append(errs, fmt.Errorf("engine.catch_up_efficiency: must be in [0,1], got %v", e))
	}
	if c.Orchestrator.Workers < 1 {
		errs = append(errs, fmt.Errorf("orchestrator.workers: must be >= 1, got %d", c.Orchestrator.Workers))
	}

	switch c.Storage.Kind {
	case StoreMemory:
	case StorePostgres:
		if c.Storage.PostgresDSN == "" {
			errs = append(errs, errors.New("storage.postgres_dsn: required when storage.kind is postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.kind: unknown %q", c.Storage.Kind))
	}

	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		errs = append(errs, fmt.Errorf("logging.format: unknown %q", c.Logging.Format))
	}
	if c.Metrics.Namespace == "" {
		errs = append(errs, errors.New("metrics.namespace: required"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// DiscountPolicy returns the conversion discount policy.
func (c *Config) DiscountPolicy() *domain.DiscountPolicy {
	return &domain.DiscountPolicy{AnnualDiscountRate: c.Engine.DiscountRate}
}

// BenchmarkPolicy returns the peer benchmark band.
func (c *Config) BenchmarkPolicy() *domain.BenchmarkPolicy {
	return &domain.BenchmarkPolicy{Band: c.Engine.BenchmarkBand}
}

// NewLogger builds a zap logger from the logging section.
func (c *Config) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	zc := zap.NewProductionConfig()
	if c.Logging.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}
