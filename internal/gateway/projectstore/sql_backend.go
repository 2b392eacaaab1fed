package projectstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

type Driver string

const (
	DriverPostgres Driver = "pgx"
	DriverSQLite   Driver = "sqlite"
)

const recordKey = "projects"

// SQLBackend keeps the record as one row of a key/value table.
type SQLBackend struct {
	db     *sql.DB
	driver Driver
	owned  bool
}

// OpenSQL opens dsn with driver, pings it and creates the table if needed.
func OpenSQL(ctx context.Context, driver Driver, dsn string) (*SQLBackend, error) {
	db, err := sql.Open(string(driver), strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	b, err := NewSQLBackend(ctx, db, driver)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	b.owned = true
	return b, nil
}

// NewSQLBackend uses an existing handle. The caller keeps ownership of db.
func NewSQLBackend(ctx context.Context, db *sql.DB, driver Driver) (*SQLBackend, error) {
	b := &SQLBackend{db: db, driver: driver}
	if err := b.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *SQLBackend) ensureSchema(ctx context.Context) error {
	_, err := b.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS project_store (
  store_key TEXT PRIMARY KEY,
  payload TEXT NOT NULL
)`)
	if err != nil {
		return fmt.Errorf("failed to create project_store table: %w", err)
	}
	return nil
}

func (b *SQLBackend) Read(ctx context.Context) ([]byte, error) {
	var payload string
	err := b.db.QueryRowContext(ctx, b.rebind(`SELECT payload FROM project_store WHERE store_key = ?`), recordKey).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(payload), nil
}

func (b *SQLBackend) Write(ctx context.Context, data []byte) error {
	_, err := b.db.ExecContext(ctx, b.rebind(`
INSERT INTO project_store (store_key, payload)
VALUES (?, ?)
ON CONFLICT (store_key)
DO UPDATE SET payload = excluded.payload`), recordKey, string(data))
	return err
}

func (b *SQLBackend) Close() error {
	if !b.owned {
		return nil
	}
	return b.db.Close()
}

// rebind rewrites ? placeholders to $n for postgres.
func (b *SQLBackend) rebind(query string) string {
	if b.driver != DriverPostgres {
		return query
	}
	var out strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&out, "$%d", n)
			continue
		}
		out.WriteRune(r)
	}
	return out.String()
}
