package config

import "time"

// Default values for configuration fields.
const (
	// Extraction defaults
	DefaultExtractionPreference = "heuristic-first"
	DefaultOracleModel          = "gpt-5-mini"
	DefaultOracleMaxTokens      = 4096
	DefaultOracleTimeout        = 60 * time.Second

	// Parser defaults
	DefaultParserMaxDepth = 10

	// Policy defaults
	DefaultPolicyDebounce = 500 * time.Millisecond

	// Resolver defaults
	DefaultResolverBackend  = "none"
	DefaultResolverTable    = "transactions"
	DefaultResolverSchedule = "@every 15m"

	// Store defaults
	DefaultStoreBackend    = "memory"
	DefaultStoreSQLitePath = "data/rulesets.db"

	// Telemetry defaults
	DefaultLoggingLevel     = "info"
	DefaultLoggingFormat    = "json"
	DefaultMetricsEnabled   = true
	DefaultMetricsNamespace = "vega"
	DefaultMetricsSubsystem = "policy"
	DefaultMetricsPath      = "/metrics"
)

// ApplyDefaults fills zero-valued fields with defaults. It is idempotent
// and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	if cfg.Extraction.Preference == "" {
		cfg.Extraction.Preference = DefaultExtractionPreference
	}
	if cfg.Extraction.Oracle.Model == "" {
		cfg.Extraction.Oracle.Model = DefaultOracleModel
	}
	if cfg.Extraction.Oracle.MaxCompletionTokens == 0 {
		cfg.Extraction.Oracle.MaxCompletionTokens = DefaultOracleMaxTokens
	}
	if cfg.Extraction.Oracle.Timeout == 0 {
		cfg.Extraction.Oracle.Timeout = DefaultOracleTimeout
	}

	if cfg.Parser.MaxDepth == 0 {
		cfg.Parser.MaxDepth = DefaultParserMaxDepth
	}

	if cfg.Policy.DebounceDelay == 0 {
		cfg.Policy.DebounceDelay = DefaultPolicyDebounce
	}

	if cfg.Resolver.Backend == "" {
		cfg.Resolver.Backend = DefaultResolverBackend
	}
	if cfg.Resolver.Table == "" {
		cfg.Resolver.Table = DefaultResolverTable
	}
	if cfg.Resolver.RefreshSchedule == "" {
		cfg.Resolver.RefreshSchedule = DefaultResolverSchedule
	}

	if cfg.Store.Backend == "" {
		cfg.Store.Backend = DefaultStoreBackend
	}
	if cfg.Store.Backend == "sqlite" && cfg.Store.SQLitePath == "" {
		cfg.Store.SQLitePath = DefaultStoreSQLitePath
	}

	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
}

// DefaultConfig returns a configuration with every default applied,
// suitable for running without a config file.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
	ApplyDefaults(cfg)
	return cfg
}
