package resolver

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	_ "modernc.org/sqlite"

	"expensehq/vega/pkg/rules"
)

// SQLite resolves entity values from a transactions table in a SQLite
// database. It uses the pure-Go driver so the binary stays cgo-free for
// deployments that only need resolution, not the rule set store.
type SQLite struct {
	db     *sql.DB
	table  string
	logger *slog.Logger
}

// NewSQLite opens the database at path and verifies connectivity. The
// table must hold one row per transaction with entity fields as columns.
func NewSQLite(path, table string, logger *slog.Logger) (*SQLite, error) {
	if table == "" {
		table = "transactions"
	}
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open resolver database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping resolver database: %w", err)
	}

	return &SQLite{
		db:     db,
		table:  table,
		logger: logger.With("component", "resolver.sqlite"),
	}, nil
}

// DistinctValues implements EntityResolver. Only known entity fields
// are queryable; the field name is never interpolated from user input
// beyond that allowlist.
func (s *SQLite) DistinctValues(ctx context.Context, field, query string, limit int) ([]string, error) {
	if _, ok := rules.EntityFields[field]; !ok {
		return nil, fmt.Errorf("field %q is not an entity field", field)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT DISTINCT %s FROM %s WHERE %s IS NOT NULL", field, s.table, field)
	var args []any
	if query != "" {
		fmt.Fprintf(&sb, " AND %s LIKE ?", field)
		args = append(args, "%"+query+"%")
	}
	sb.WriteString(" ORDER BY 1")
	if limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("distinct query for %s failed: %w", field, err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan %s value: %w", field, err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("distinct query for %s failed: %w", field, err)
	}

	s.logger.Debug("resolved entity values", "field", field, "count", len(values))
	return values, nil
}

// Close releases the underlying database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}
