package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"musicstream/internal/curator"
)

// SQLiteStore keeps the feed in a single-table SQLite database. Save
// rewrites the table inside one transaction, which gives the same
// all-or-nothing guarantee as the JSON store's rename.
type SQLiteStore struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating store dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening store db: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS items (
			id          TEXT PRIMARY KEY,
			artist      TEXT NOT NULL,
			title       TEXT NOT NULL,
			summary     TEXT NOT NULL DEFAULT '',
			url         TEXT NOT NULL,
			image_url   TEXT NOT NULL DEFAULT '',
			source      TEXT NOT NULL DEFAULT '',
			date        TEXT NOT NULL DEFAULT '',
			category    TEXT NOT NULL DEFAULT 'Other',
			importance  INTEGER NOT NULL DEFAULT 3,
			fetched_at  DATETIME NOT NULL,
			position    INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_items_url ON items(url);
	`)
	if err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

// Load returns items in stored feed order.
func (s *SQLiteStore) Load(ctx context.Context) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, artist, title, summary, url, image_url, source, date, category, importance, fetched_at
		FROM items ORDER BY position ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		var cat string
		var fetched string
		if err := rows.Scan(&it.ID, &it.Artist, &it.Title, &it.Summary, &it.URL,
			&it.ImageURL, &it.Source, &it.Date, &cat, &it.Importance, &fetched); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		it.Category = curator.Category(cat)
		if t, err := time.Parse(time.RFC3339, fetched); err == nil {
			it.FetchedAt = t
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Save replaces the whole feed, preserving the given order.
func (s *SQLiteStore) Save(ctx context.Context, items []Item) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM items"); err != nil {
		return fmt.Errorf("clearing items: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO items (id, artist, title, summary, url, image_url, source, date, category, importance, fetched_at, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, it := range items {
		_, err := stmt.ExecContext(ctx, it.ID, it.Artist, it.Title, it.Summary, it.URL,
			it.ImageURL, it.Source, it.Date, string(it.Category), it.Importance,
			it.FetchedAt.UTC().Format(time.RFC3339), i)
		if err != nil {
			return fmt.Errorf("inserting item %s: %w", it.ID, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
