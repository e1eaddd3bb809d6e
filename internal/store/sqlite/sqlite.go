package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Gateway persists state slices in a single sqlite table, one row per
// slice key. It is the durable analog of the browser's local storage:
// reads fail soft, writes report errors to the caller.
type Gateway struct {
	db *sql.DB
}

func New(path string) (*Gateway, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS slices (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)
	`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Gateway{db: db}, nil
}

func (g *Gateway) Close() error {
	return g.db.Close()
}

func (g *Gateway) Load(ctx context.Context, key string) ([]byte, bool) {
	var value string
	err := g.db.QueryRowContext(ctx, `SELECT value FROM slices WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Printf("[sqlite-gateway] WARN: load %s: %v", key, err)
		}
		return nil, false
	}
	return []byte(value), true
}

func (g *Gateway) Save(ctx context.Context, key string, value []byte) error {
	_, err := g.db.ExecContext(ctx, `
		INSERT INTO slices (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, string(value), time.Now().UTC().Format(time.RFC3339))
	return err
}
