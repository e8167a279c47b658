package config

import "fmt"

var (
	validPreferences = map[string]bool{"heuristic-first": true, "oracle-first": true}
	validResolvers   = map[string]bool{"none": true, "sqlite": true}
	validStores      = map[string]bool{"memory": true, "sqlite": true}
	validLogLevels   = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	validLogFormats  = map[string]bool{"json": true, "text": true}
)

// Validate checks a configuration for internal consistency. It assumes
// defaults have already been applied.
func Validate(cfg *Config) error {
	if !validPreferences[cfg.Extraction.Preference] {
		return fmt.Errorf("extraction.preference must be \"heuristic-first\" or \"oracle-first\", got %q", cfg.Extraction.Preference)
	}
	if cfg.Extraction.Oracle.Enabled && cfg.Extraction.Oracle.APIKey == "" {
		return fmt.Errorf("extraction.oracle.api_key is required when the oracle is enabled")
	}
	if cfg.Extraction.Oracle.MaxCompletionTokens < 0 {
		return fmt.Errorf("extraction.oracle.max_completion_tokens must not be negative")
	}

	if cfg.Parser.MaxDepth < 1 {
		return fmt.Errorf("parser.max_depth must be at least 1, got %d", cfg.Parser.MaxDepth)
	}

	if cfg.Policy.Watch && cfg.Policy.FilePath == "" {
		return fmt.Errorf("policy.file_path is required when policy.watch is enabled")
	}
	if cfg.Policy.DebounceDelay < 0 {
		return fmt.Errorf("policy.debounce_delay must not be negative")
	}

	if !validResolvers[cfg.Resolver.Backend] {
		return fmt.Errorf("resolver.backend must be \"none\" or \"sqlite\", got %q", cfg.Resolver.Backend)
	}
	if cfg.Resolver.Backend == "sqlite" && cfg.Resolver.SQLitePath == "" {
		return fmt.Errorf("resolver.sqlite_path is required for the sqlite resolver backend")
	}

	if !validStores[cfg.Store.Backend] {
		return fmt.Errorf("store.backend must be \"memory\" or \"sqlite\", got %q", cfg.Store.Backend)
	}
	if cfg.Store.Backend == "sqlite" && cfg.Store.SQLitePath == "" {
		return fmt.Errorf("store.sqlite_path is required for the sqlite store backend")
	}

	if !validLogLevels[cfg.Telemetry.Logging.Level] {
		return fmt.Errorf("telemetry.logging.level must be one of debug, info, warn, error; got %q", cfg.Telemetry.Logging.Level)
	}
	if !validLogFormats[cfg.Telemetry.Logging.Format] {
		return fmt.Errorf("telemetry.logging.format must be \"json\" or \"text\", got %q", cfg.Telemetry.Logging.Format)
	}

	return nil
}
