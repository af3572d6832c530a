package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	// Postgres driver registered as "pgx".
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

// Store holds the database handle and provides access to repositories.
type Store struct {
	db  *sqlx.DB
	seq *sequenceCounter
}

// Open connects to the database at dsn using driver, applies SQLite
// pragmas where relevant and creates the schema.
func Open(driver, dsn string) (*Store, error) {
	switch driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if driver == DriverSQLite {
		if err := applyPragmas(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply pragmas: %w", err)
		}
	}

	if err := migrate(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &Store{db: db, seq: &sequenceCounter{db: db}}, nil
}

// DB returns the underlying database handle for raw queries.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// TemplateRepo returns a TemplateRepo backed by this store.
func (s *Store) TemplateRepo() TemplateRepo {
	return &templateRepo{db: s.db}
}

// EventRepo returns an EventRepo backed by this store.
func (s *Store) EventRepo() EventRepo {
	return &eventRepo{db: s.db, seq: s.seq}
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS templates (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL,
		version BIGINT NOT NULL DEFAULT 1,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS template_revisions (
		template_id TEXT NOT NULL,
		version BIGINT NOT NULL,
		content TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		PRIMARY KEY (template_id, version)
	)`,
	`CREATE TABLE IF NOT EXISTS render_events (
		id TEXT PRIMARY KEY,
		sequence BIGINT NOT NULL,
		template_id TEXT NOT NULL DEFAULT '',
		seed BIGINT NOT NULL,
		success BOOLEAN NOT NULL,
		attempts INTEGER NOT NULL,
		duration_ms BIGINT NOT NULL,
		error_kinds TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_render_events_sequence ON render_events (sequence)`,
	`CREATE TABLE IF NOT EXISTS llm_request_events (
		id TEXT PRIMARY KEY,
		sequence BIGINT NOT NULL,
		provider TEXT NOT NULL,
		model TEXT NOT NULL,
		purpose TEXT NOT NULL DEFAULT '',
		input_tokens INTEGER NOT NULL DEFAULT 0,
		output_tokens INTEGER NOT NULL DEFAULT 0,
		latency_ms BIGINT NOT NULL DEFAULT 0,
		success BOOLEAN NOT NULL,
		error_message TEXT NOT NULL DEFAULT '',
		request_body TEXT NOT NULL DEFAULT '',
		response_body TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL
	)`,
}

// migrate creates every table. Statements run one at a time because not
// every driver accepts several per Exec.
func migrate(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range append(schema, sequenceSchema...) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// applyPragmas configures SQLite for optimal single-user performance.
func applyPragmas(db *sqlx.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// DefaultDBPath resolves the database file path in priority order:
// 1. QFORGE_DB environment variable
// 2. $XDG_DATA_HOME/qforge/qforge.db
// 3. ~/.local/share/qforge/qforge.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("QFORGE_DB"); p != "" {
		return p, ensureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "qforge", "qforge.db")
	return p, ensureDir(p)
}

// ensureDir creates the parent directory of path if it doesn't exist.
func ensureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}
