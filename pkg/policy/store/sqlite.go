package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"expensehq/vega/pkg/rules"
)

const schema = `
CREATE TABLE IF NOT EXISTS rulesets (
	id                TEXT PRIMARY KEY,
	created_at        TIMESTAMP NOT NULL,
	version           TEXT NOT NULL,
	source            TEXT NOT NULL,
	parser            TEXT NOT NULL,
	rule_count        INTEGER NOT NULL,
	enforceable_count INTEGER NOT NULL,
	payload           TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_rulesets_created_at ON rulesets(created_at);
`

// SQLite persists rule sets in a SQLite database. Each rule set is
// stored as its canonical JSON wire shape alongside the summary columns
// used for listings.
type SQLite struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLite opens (or creates) the database at path and ensures the
// schema exists. WAL mode and a busy timeout keep concurrent readers
// from blocking the writer.
func NewSQLite(path string, logger *slog.Logger) (*SQLite, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open store database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping store database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create store schema: %w", err)
	}

	return &SQLite{db: db, logger: logger.With("component", "policy.store")}, nil
}

// Create implements Store.
func (s *SQLite) Create(ctx context.Context, rs *rules.RuleSet) (string, error) {
	payload, err := json.Marshal(rs)
	if err != nil {
		return "", fmt.Errorf("failed to marshal rule set: %w", err)
	}

	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO rulesets (id, created_at, version, source, parser, rule_count, enforceable_count, payload)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, time.Now().UTC(), rs.Version, string(rs.Source), rs.Parser,
		len(rs.Rules), rs.EnforceableCount(), string(payload),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert rule set: %w", err)
	}

	s.logger.Debug("stored rule set", "id", id, "rule_count", len(rs.Rules))
	return id, nil
}

// Get implements Store.
func (s *SQLite) Get(ctx context.Context, id string) (*rules.RuleSet, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		"SELECT payload FROM rulesets WHERE id = ?", id,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load rule set %s: %w", id, err)
	}

	var rs rules.RuleSet
	if err := json.Unmarshal([]byte(payload), &rs); err != nil {
		return nil, fmt.Errorf("failed to decode rule set %s: %w", id, err)
	}
	return &rs, nil
}

// List implements Store.
func (s *SQLite) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, version, source, rule_count, enforceable_count
		 FROM rulesets ORDER BY created_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list rule sets: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var source string
		if err := rows.Scan(&e.ID, &e.CreatedAt, &e.Version, &source, &e.RuleCount, &e.EnforceableCount); err != nil {
			return nil, fmt.Errorf("failed to scan rule set entry: %w", err)
		}
		e.Source = rules.Source(source)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list rule sets: %w", err)
	}
	return entries, nil
}

// Delete implements Store.
func (s *SQLite) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM rulesets WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete rule set %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete rule set %s: %w", id, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}
