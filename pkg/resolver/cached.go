package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"expensehq/vega/pkg/rules"
)

// Cached wraps a resolver with an in-memory snapshot of entity values,
// refreshed on a cron schedule. Compilation then validates literals
// against the snapshot instead of hitting the backing store per rule.
//
// Fail-closed behavior is preserved: a field whose refresh failed has no
// snapshot entry, and lookups for it return an error until a refresh
// succeeds.
type Cached struct {
	backend  EntityResolver
	logger   *slog.Logger
	cron     *cron.Cron
	interval string

	mu       sync.RWMutex
	snapshot map[string][]string
}

// NewCached creates a caching resolver. The schedule is a cron
// expression; when empty, "@every 15m" is used. Start must be called to
// begin refreshing.
func NewCached(backend EntityResolver, schedule string, logger *slog.Logger) *Cached {
	if schedule == "" {
		schedule = "@every 15m"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cached{
		backend:  backend,
		logger:   logger.With("component", "resolver.cached"),
		cron:     cron.New(),
		interval: schedule,
		snapshot: make(map[string][]string),
	}
}

// Start performs an initial refresh and schedules periodic ones. A
// partial initial refresh is not fatal; unresolved fields stay absent
// from the snapshot and fail closed.
func (c *Cached) Start(ctx context.Context) error {
	c.Refresh(ctx)

	_, err := c.cron.AddFunc(c.interval, func() {
		refreshCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		c.Refresh(refreshCtx)
	})
	if err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", c.interval, err)
	}

	c.cron.Start()
	c.logger.Info("entity cache refresh scheduled", "schedule", c.interval)
	return nil
}

// Stop halts the refresh schedule.
func (c *Cached) Stop() {
	ctx := c.cron.Stop()
	<-ctx.Done()
}

// Refresh reloads every entity field from the backend. Fields that fail
// keep their previous snapshot entry if any.
func (c *Cached) Refresh(ctx context.Context) {
	for field := range rules.EntityFields {
		values, err := c.backend.DistinctValues(ctx, field, "", 0)
		if err != nil {
			c.logger.Warn("entity refresh failed", "field", field, "error", err)
			continue
		}
		c.mu.Lock()
		c.snapshot[field] = values
		c.mu.Unlock()
	}
}

// DistinctValues implements EntityResolver from the snapshot.
func (c *Cached) DistinctValues(_ context.Context, field, query string, limit int) ([]string, error) {
	c.mu.RLock()
	values, ok := c.snapshot[field]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no snapshot for field %q", field)
	}
	return filterValues(values, query, limit), nil
}
