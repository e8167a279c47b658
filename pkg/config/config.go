// Package config defines the configuration model for the vega rule
// engine, loaded from YAML with defaults and validation applied in a
// fixed sequence (parse, defaults, env overrides, validate).
package config

import "time"

// Config is the root configuration.
type Config struct {
	// Extraction controls how policy text becomes candidate rules.
	Extraction ExtractionConfig `yaml:"extraction"`

	// Parser controls the restricted condition parser.
	Parser ParserConfig `yaml:"parser"`

	// Policy controls where rule sets come from.
	Policy PolicyConfig `yaml:"policy"`

	// Resolver controls entity value resolution for literal validation.
	Resolver ResolverConfig `yaml:"resolver"`

	// Store controls rule set persistence.
	Store StoreConfig `yaml:"store"`

	// Telemetry controls logging and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ExtractionConfig configures rule extraction.
type ExtractionConfig struct {
	// Preference selects extractor ordering: "heuristic-first" runs the
	// local patterns and only consults the oracle when they find nothing;
	// "oracle-first" inverts that.
	Preference string `yaml:"preference"`

	// Oracle configures the external extraction service.
	Oracle OracleConfig `yaml:"oracle"`
}

// OracleConfig configures the LLM extraction oracle.
type OracleConfig struct {
	Enabled             bool          `yaml:"enabled"`
	APIKey              string        `yaml:"api_key"`
	Model               string        `yaml:"model"`
	MaxCompletionTokens int           `yaml:"max_completion_tokens"`
	Timeout             time.Duration `yaml:"timeout"`
}

// ParserConfig configures the condition parser.
type ParserConfig struct {
	// MaxDepth bounds expression nesting.
	MaxDepth int `yaml:"max_depth"`
}

// PolicyConfig configures the policy source.
type PolicyConfig struct {
	// FilePath points at a policy text or rule set JSON file.
	FilePath string `yaml:"file_path"`

	// Watch enables recompilation when the file changes.
	Watch bool `yaml:"watch"`

	// DebounceDelay coalesces rapid file change events.
	DebounceDelay time.Duration `yaml:"debounce_delay"`
}

// ResolverConfig configures entity resolution.
type ResolverConfig struct {
	// Backend is "sqlite" or "none". With "none" every entity literal
	// check fails closed.
	Backend string `yaml:"backend"`

	// SQLitePath is the transactions database for the sqlite backend.
	SQLitePath string `yaml:"sqlite_path"`

	// Table is the transactions table name.
	Table string `yaml:"table"`

	// RefreshSchedule is a cron expression for cache refresh.
	RefreshSchedule string `yaml:"refresh_schedule"`
}

// StoreConfig configures rule set persistence.
type StoreConfig struct {
	// Backend is "memory" or "sqlite".
	Backend string `yaml:"backend"`

	// SQLitePath is the database file for the sqlite backend.
	SQLitePath string `yaml:"sqlite_path"`
}

// TelemetryConfig configures logging and metrics.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	// Level is one of "debug", "info", "warn", "error".
	Level string `yaml:"level"`

	// Format is "json" or "text".
	Format string `yaml:"format"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
	Subsystem string `yaml:"subsystem"`

	// ListenAddress exposes the metrics endpoint when set (run mode only).
	ListenAddress string `yaml:"listen_address"`

	// Path is the metrics endpoint path.
	Path string `yaml:"path"`
}
