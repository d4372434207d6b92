// Package sqlstore persists store snapshots to a single SQL table of JSON
// payloads, one row per entity bucket. SQLite (modernc.org/sqlite) and
// Postgres (pgx stdlib) share the same schema and differ only in dialect.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	_ "modernc.org/sqlite"             // pure go sqlite driver

	"github.com/MrSnakeDoc/itour/internal/store"
)

var _ store.Backend = (*Backend)(nil)

const (
	bucketDestinations = "destinations"
	bucketSights       = "sights"
)

type dialect struct {
	name        string
	driver      string
	payloadType string
	upsert      string
}

var (
	sqliteDialect = dialect{
		name:        "sqlite",
		driver:      "sqlite",
		payloadType: "BLOB",
		upsert:      `INSERT INTO state(bucket, payload) VALUES(?, ?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`,
	}
	postgresDialect = dialect{
		name:        "postgres",
		driver:      "pgx",
		payloadType: "JSONB",
		upsert:      `INSERT INTO state(bucket, payload) VALUES($1, $2) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`,
	}
)

// Backend is a SQL-backed store.Backend.
type Backend struct {
	db      *sql.DB
	dialect dialect
}

// NewSQLite opens (creating if needed) the SQLite database at path.
func NewSQLite(ctx context.Context, path string) (*Backend, error) {
	if path == "" {
		path = "itour.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open(sqliteDialect.driver, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// sqlite allows a single writer; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	return open(ctx, db, sqliteDialect)
}

// NewPostgres connects to Postgres with the given DSN.
func NewPostgres(ctx context.Context, dsn string) (*Backend, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn required")
	}
	db, err := sql.Open(postgresDialect.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return open(ctx, db, postgresDialect)
}

func open(ctx context.Context, db *sql.DB, d dialect) (*Backend, error) {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload %s NOT NULL
	)`, d.payloadType)
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create state table: %w", err)
	}
	return &Backend{db: db, dialect: d}, nil
}

func (b *Backend) Name() string { return b.dialect.name }

// DB exposes the underlying handle for tests.
func (b *Backend) DB() *sql.DB { return b.db }

func (b *Backend) Load(ctx context.Context) (store.Snapshot, error) {
	var snap store.Snapshot

	rows, err := b.db.QueryContext(ctx, `SELECT bucket, payload FROM state`)
	if err != nil {
		return snap, fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			bucket  string
			payload []byte
		)
		if err := rows.Scan(&bucket, &payload); err != nil {
			return snap, fmt.Errorf("scan: %w", err)
		}
		switch bucket {
		case bucketDestinations:
			if err := json.Unmarshal(payload, &snap.Destinations); err != nil {
				return snap, fmt.Errorf("decode destinations: %w", err)
			}
		case bucketSights:
			if err := json.Unmarshal(payload, &snap.Sights); err != nil {
				return snap, fmt.Errorf("decode sights: %w", err)
			}
		}
	}
	if err := rows.Err(); err != nil {
		return snap, fmt.Errorf("iterate state: %w", err)
	}
	return snap, nil
}

// Save upserts both buckets in one transaction.
func (b *Backend) Save(ctx context.Context, snap store.Snapshot) (retErr error) {
	destinations, err := json.Marshal(nonNil(snap.Destinations))
	if err != nil {
		return fmt.Errorf("encode destinations: %w", err)
	}
	sights, err := json.Marshal(nonNil(snap.Sights))
	if err != nil {
		return fmt.Errorf("encode sights: %w", err)
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	for _, row := range []struct {
		bucket  string
		payload []byte
	}{
		{bucketDestinations, destinations},
		{bucketSights, sights},
	} {
		if _, err := tx.ExecContext(ctx, b.dialect.upsert, row.bucket, row.payload); err != nil {
			return fmt.Errorf("upsert %s: %w", row.bucket, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (b *Backend) Ping(ctx context.Context) error { return b.db.PingContext(ctx) }

func (b *Backend) Close() error { return b.db.Close() }

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
