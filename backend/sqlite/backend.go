package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mwantia/uvfs/backend"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

const Kind = "sqlite"

func init() {
	backend.Register(Kind, func(cfg backend.Config) (backend.Driver, error) {
		config := SQLiteConfig{
			Path: ":memory:",
		}
		if err := cfg.Decode(&config); err != nil {
			return nil, err
		}

		return NewSQLiteBackend(config.Path)
	})
}

type SQLiteConfig struct {
	// Database file, or ":memory:" for a private in-memory database
	Path string `mapstructure:"path"`
}

// SQLiteBackend stores objects as rows of a single key table. Keys are the
// primary key, so conditional creates are atomic.
type SQLiteBackend struct {
	db   *sql.DB
	path string
}

// NewSQLiteBackend creates a new SQLite-backed driver.
// The dbPath can be ":memory:" for an in-memory database or a file path.
func NewSQLiteBackend(dbPath string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	if dbPath == ":memory:" {
		// Every connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}

	return &SQLiteBackend{
		db:   db,
		path: dbPath,
	}, nil
}

// initSchema creates the database schema.
func (sb *SQLiteBackend) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS uvfs_objects (
		key TEXT PRIMARY KEY,
		content BLOB NOT NULL,
		size INTEGER NOT NULL CHECK(size >= 0),
		modify_time INTEGER NOT NULL,
		content_type TEXT,
		etag TEXT
	);
	`

	_, err := sb.db.ExecContext(ctx, schema)
	return err
}

// Returns the identifier name defined for this backend
func (*SQLiteBackend) Name() string {
	return Kind
}

// Open is part of the lifecycle behaviour and gets called when opening this backend.
func (sb *SQLiteBackend) Open(ctx context.Context) error {
	// Verify database connection
	if err := sb.db.PingContext(ctx); err != nil {
		return err
	}

	if sb.path != ":memory:" {
		// Enable WAL mode for better concurrency
		if _, err := sb.db.ExecContext(ctx, "PRAGMA journal_mode = WAL"); err != nil {
			return fmt.Errorf("failed to enable wal: %w", err)
		}
	}

	if err := sb.initSchema(ctx); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	return nil
}

// Close is part of the lifecycle behaviour and gets called when closing this backend.
func (sb *SQLiteBackend) Close(ctx context.Context) error {
	return sb.db.Close()
}

// Capabilities returns a list of capabilities supported by this backend.
func (sb *SQLiteBackend) Capabilities() *backend.Capabilities {
	return &backend.Capabilities{
		Capabilities: []backend.Capability{
			backend.CapabilityConditionalWrite,
			backend.CapabilityModifyTime,
		},
	}
}
