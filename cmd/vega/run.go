package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"expensehq/vega/pkg/policy/source"
	"expensehq/vega/pkg/policy/store"
	"expensehq/vega/pkg/resolver"
	"expensehq/vega/pkg/rules"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the policy service",
	Long: `Run compiles the configured policy file, stores the resulting rule
set, and keeps recompiling and storing on file changes until interrupted.
When a metrics listen address is configured, a Prometheus endpoint is
served alongside.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		defer rt.close()

		if rt.cfg.Policy.FilePath == "" {
			return fmt.Errorf("policy.file_path must be configured for run mode")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if cached, ok := rt.resolver.(*resolver.Cached); ok {
			if err := cached.Start(ctx); err != nil {
				return err
			}
			defer cached.Stop()
		}

		st, err := newStore(rt)
		if err != nil {
			return err
		}

		src := source.NewFile(rt.cfg.Policy.FilePath, rt.pipeline, rt.logger)
		rs, err := src.Load(ctx)
		if err != nil {
			return err
		}
		id, err := st.Create(ctx, rs)
		if err != nil {
			return err
		}
		rt.logger.Info("rule set stored",
			"id", id,
			"rule_count", len(rs.Rules),
			"enforceable", rs.EnforceableCount(),
		)

		if rt.registry != nil && rt.cfg.Telemetry.Metrics.ListenAddress != "" {
			go serveMetrics(rt)
		}

		if !rt.cfg.Policy.Watch {
			rt.logger.Info("watch disabled, waiting for shutdown signal")
			<-ctx.Done()
			return nil
		}

		watcher, err := source.NewWatcher(src, rt.cfg.Policy.DebounceDelay, rt.logger)
		if err != nil {
			return err
		}
		return watcher.Watch(ctx, func(rs *rules.RuleSet) {
			storeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			id, err := st.Create(storeCtx, rs)
			if err != nil {
				rt.logger.Error("failed to store recompiled rule set", "error", err)
				return
			}
			rt.logger.Info("recompiled rule set stored", "id", id)
		})
	},
}

func newStore(rt *runtimeParts) (store.Store, error) {
	if rt.cfg.Store.Backend == "sqlite" {
		s, err := store.NewSQLite(rt.cfg.Store.SQLitePath, rt.logger)
		if err != nil {
			return nil, err
		}
		rt.cleanup = append(rt.cleanup, s.Close)
		return s, nil
	}
	return store.NewMemory(), nil
}

func serveMetrics(rt *runtimeParts) {
	mux := http.NewServeMux()
	mux.Handle(rt.cfg.Telemetry.Metrics.Path, promhttp.HandlerFor(rt.registry, promhttp.HandlerOpts{}))

	rt.logger.Info("metrics endpoint listening",
		"address", rt.cfg.Telemetry.Metrics.ListenAddress,
		"path", rt.cfg.Telemetry.Metrics.Path,
	)
	server := &http.Server{
		Addr:              rt.cfg.Telemetry.Metrics.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		rt.logger.Error("metrics endpoint failed", "error", err)
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
}
