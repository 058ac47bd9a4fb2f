package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/eduai/lkpd/internal/model"

	_ "modernc.org/sqlite"
)

// OpenSQLite opens (and migrates) the SQLite database used by the sqlite backend.
func OpenSQLite(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func migrate(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		collection TEXT NOT NULL,
		key TEXT NOT NULL,
		body TEXT NOT NULL,
		updated_at DATETIME NOT NULL,
		PRIMARY KEY (collection, key)
	);
	`
	_, err := db.Exec(schema)
	return err
}

// SQLiteDocuments stores one row per document in the documents table.
// A write is a single UPSERT, so it is atomic like FileDocuments.Write.
type SQLiteDocuments struct {
	db         *sql.DB
	collection string
}

// NewSQLiteDocuments returns the named collection inside db.
func NewSQLiteDocuments(db *sql.DB, collection string) *SQLiteDocuments {
	return &SQLiteDocuments{db: db, collection: collection}
}

// Write encodes doc and upserts it under key.
func (d *SQLiteDocuments) Write(key string, doc any) error {
	if !validKey(key) {
		return invalidKey(key)
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return persistErr("encode", key, err)
	}
	_, err = d.db.Exec(
		`INSERT INTO documents (collection, key, body, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(collection, key) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		d.collection, key, string(body), time.Now().UTC(),
	)
	if err != nil {
		return persistErr("upsert", key, err)
	}
	return nil
}

// Load decodes the document stored under key into v.
func (d *SQLiteDocuments) Load(key string, v any) error {
	var body string
	err := d.db.QueryRow(
		`SELECT body FROM documents WHERE collection = ? AND key = ?`, d.collection, key,
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("document %q: %w", key, model.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("read document %q: %w", key, err)
	}
	if err := json.Unmarshal([]byte(body), v); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrCorruptDocument, key, err)
	}
	return nil
}

// Keys lists the document keys of the collection in lexical order.
func (d *SQLiteDocuments) Keys() ([]string, error) {
	rows, err := d.db.Query(`SELECT key FROM documents WHERE collection = ? ORDER BY key`, d.collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
