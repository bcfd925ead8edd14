package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Judge  JudgeConfig  `yaml:"judge" mapstructure:"judge"`
	Match  MatchConfig  `yaml:"match" mapstructure:"match"`
	Ingest IngestConfig `yaml:"ingest" mapstructure:"ingest"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the Postgres backend holding the raw, staged and
// unified company tables.
type StoreConfig struct {
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
}

// JudgeConfig configures the semantic judge that reviews ambiguous pairs.
type JudgeConfig struct {
	Key           string  `yaml:"key" mapstructure:"key"`
	Model         string  `yaml:"model" mapstructure:"model"`
	MaxTokens     int64   `yaml:"max_tokens" mapstructure:"max_tokens"`
	MaxReviews    int     `yaml:"max_reviews" mapstructure:"max_reviews"`
	MaxAttempts   int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	RatePerSecond float64 `yaml:"rate_per_second" mapstructure:"rate_per_second"`
	AuditLog      string  `yaml:"audit_log" mapstructure:"audit_log"`

	// ConfidenceScores maps the judge's confidence enum to the numeric
	// match_confidence written for llm_disambiguation matches.
	ConfidenceScores map[string]int `yaml:"confidence_scores" mapstructure:"confidence_scores"`
}

// MatchConfig configures decision tiering and sampling for a matching run.
type MatchConfig struct {
	HighThreshold   int   `yaml:"high_threshold" mapstructure:"high_threshold"`
	LowThreshold    int   `yaml:"low_threshold" mapstructure:"low_threshold"`
	RegistryModulus int64 `yaml:"registry_modulus" mapstructure:"registry_modulus"`
	CrawlModulus    int64 `yaml:"crawl_modulus" mapstructure:"crawl_modulus"`
	FullVolume      bool  `yaml:"full_volume" mapstructure:"full_volume"`
}

// IngestConfig configures bulk file ingestion.
type IngestConfig struct {
	BatchSize     int    `yaml:"batch_size" mapstructure:"batch_size"`
	MaxCDXRecords int    `yaml:"max_cdx_records" mapstructure:"max_cdx_records"`
	CrawlBatchID  string `yaml:"crawl_batch_id" mapstructure:"crawl_batch_id"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("UNIFY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("store.max_conns", 4)
	v.SetDefault("judge.model", "claude-haiku-4-5-20251001")
	v.SetDefault("judge.max_tokens", 1024)
	v.SetDefault("judge.max_reviews", 10)
	v.SetDefault("judge.max_attempts", 1)
	v.SetDefault("judge.rate_per_second", 2.0)
	v.SetDefault("judge.audit_log", "data/judge_audit.jsonl")
	v.SetDefault("judge.confidence_scores", map[string]int{"medium": 75, "high": 95})
	v.SetDefault("match.high_threshold", 95)
	v.SetDefault("match.low_threshold", 0)
	v.SetDefault("match.registry_modulus", 5000)
	v.SetDefault("match.crawl_modulus", 20)
	v.SetDefault("ingest.batch_size", 5000)
	v.SetDefault("ingest.max_cdx_records", 100000)
	v.SetDefault("ingest.crawl_batch_id", "CC-MAIN-2025-13")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
