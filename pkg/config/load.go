package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file, applies defaults,
// and validates the result. Environment variables are not consulted;
// use LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads a YAML file and applies environment
// variable overrides on top. Variables follow the naming convention
// VEGA_SECTION_FIELD (e.g. VEGA_POLICY_FILE_PATH) and always take
// precedence over file values.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	// Extraction overrides
	if val := os.Getenv("VEGA_EXTRACTION_PREFERENCE"); val != "" {
		cfg.Extraction.Preference = val
	}
	if val := os.Getenv("VEGA_ORACLE_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Extraction.Oracle.Enabled = b
		}
	}
	if val := os.Getenv("VEGA_ORACLE_API_KEY"); val != "" {
		cfg.Extraction.Oracle.APIKey = val
	}
	if val := os.Getenv("OPENAI_API_KEY"); val != "" && cfg.Extraction.Oracle.APIKey == "" {
		cfg.Extraction.Oracle.APIKey = val
	}
	if val := os.Getenv("VEGA_ORACLE_MODEL"); val != "" {
		cfg.Extraction.Oracle.Model = val
	}
	if val := os.Getenv("VEGA_ORACLE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Extraction.Oracle.Timeout = d
		}
	}

	// Parser overrides
	if val := os.Getenv("VEGA_PARSER_MAX_DEPTH"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Parser.MaxDepth = i
		}
	}

	// Policy overrides
	if val := os.Getenv("VEGA_POLICY_FILE_PATH"); val != "" {
		cfg.Policy.FilePath = val
	}
	if val := os.Getenv("VEGA_POLICY_WATCH"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Policy.Watch = b
		}
	}

	// Resolver overrides
	if val := os.Getenv("VEGA_RESOLVER_BACKEND"); val != "" {
		cfg.Resolver.Backend = val
	}
	if val := os.Getenv("VEGA_RESOLVER_SQLITE_PATH"); val != "" {
		cfg.Resolver.SQLitePath = val
	}
	if val := os.Getenv("VEGA_RESOLVER_REFRESH_SCHEDULE"); val != "" {
		cfg.Resolver.RefreshSchedule = val
	}

	// Store overrides
	if val := os.Getenv("VEGA_STORE_BACKEND"); val != "" {
		cfg.Store.Backend = val
	}
	if val := os.Getenv("VEGA_STORE_SQLITE_PATH"); val != "" {
		cfg.Store.SQLitePath = val
	}

	// Telemetry overrides
	if val := os.Getenv("VEGA_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("VEGA_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("VEGA_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
}
