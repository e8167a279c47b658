package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"expensehq/vega/pkg/config"
	"expensehq/vega/pkg/extract"
	"expensehq/vega/pkg/extract/oracle"
	"expensehq/vega/pkg/policy/compiler"
	"expensehq/vega/pkg/resolver"
	"expensehq/vega/pkg/telemetry/logging"
	"expensehq/vega/pkg/telemetry/metrics"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "vega",
	Short: "Vega - expense policy rule compilation and evaluation engine",
	Long: `Vega turns free-form expense-policy text into a validated set of
machine-checkable rules, compiles each rule into an in-process evaluator
form and an equivalent SQL filter fragment, and evaluates transaction
records against compiled rule sets to produce violation verdicts.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig reads the configured file, or defaults when no file was
// given. The --verbose flag lowers the log level regardless of config.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	if cfgFile == "" {
		cfg = config.DefaultConfig()
	} else {
		loaded, err := config.LoadConfigWithEnvOverrides(cfgFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}
	return cfg, nil
}

// runtimeParts holds everything a command needs to compile policies.
type runtimeParts struct {
	cfg      *config.Config
	logger   *slog.Logger
	metrics  *metrics.RuleMetrics
	registry *prometheus.Registry
	resolver resolver.EntityResolver
	pipeline *compiler.Pipeline

	cleanup []func() error
}

// newRuntime assembles logger, metrics, resolver and pipeline from
// configuration.
func newRuntime() (*runtimeParts, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Telemetry.Logging, os.Stderr)
	if err != nil {
		return nil, err
	}

	rt := &runtimeParts{cfg: cfg, logger: logger}

	if cfg.Telemetry.Metrics.Enabled {
		rt.registry = prometheus.NewRegistry()
		rt.metrics = metrics.NewRuleMetrics(&cfg.Telemetry.Metrics, rt.registry)
	}

	if cfg.Resolver.Backend == "sqlite" {
		backend, err := resolver.NewSQLite(cfg.Resolver.SQLitePath, cfg.Resolver.Table, logger)
		if err != nil {
			return nil, err
		}
		rt.cleanup = append(rt.cleanup, backend.Close)

		cached := resolver.NewCached(backend, cfg.Resolver.RefreshSchedule, logger)
		refreshCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		cached.Refresh(refreshCtx)
		cancel()
		rt.resolver = cached
	}

	var orc oracle.Oracle
	if cfg.Extraction.Oracle.Enabled {
		client, err := oracle.NewClient(&oracle.ClientConfig{
			APIKey:              cfg.Extraction.Oracle.APIKey,
			Model:               cfg.Extraction.Oracle.Model,
			MaxCompletionTokens: cfg.Extraction.Oracle.MaxCompletionTokens,
		}, logger)
		if err != nil {
			return nil, err
		}
		orc = client
	}

	comp := compiler.New(rt.resolver, rt.metrics, logger).WithMaxDepth(cfg.Parser.MaxDepth)
	rt.pipeline = compiler.NewPipeline(comp, extract.NewHeuristic(logger), orc, cfg.Extraction.Preference, rt.metrics, logger)
	return rt, nil
}

// close runs deferred cleanups in reverse order.
func (rt *runtimeParts) close() {
	for i := len(rt.cleanup) - 1; i >= 0; i-- {
		if err := rt.cleanup[i](); err != nil {
			rt.logger.Warn("cleanup failed", "error", err)
		}
	}
}
