// Package journal keeps the working batch in a SQLite file so entries parsed
// by separate itfmaker invocations accumulate until they are saved.
//
// The journal is append-only: every parsed citation is kept, repeats
// included. Each row carries the BLAKE3 hash of its normalized citation text
// so repeats can be reported, and optionally the file it was read from so a
// re-read file can replace its own rows.
package journal

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/blake3"
	_ "modernc.org/sqlite" // pure Go SQLite driver

	"github.com/olgyan/IrbisTextFileMaker/pkg/isbd"
	"github.com/olgyan/IrbisTextFileMaker/pkg/record"
)

// Memory opens a journal that lives only as long as the Journal value.
const Memory = ":memory:"

const driverName = "sqlite"

const schema = `
CREATE TABLE IF NOT EXISTS entries (
	seq      INTEGER PRIMARY KEY AUTOINCREMENT,
	id       TEXT NOT NULL UNIQUE,
	key      TEXT NOT NULL,
	source   TEXT NOT NULL DEFAULT '',
	citation TEXT NOT NULL,
	record   TEXT NOT NULL,
	created  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS entries_key ON entries(key);
CREATE INDEX IF NOT EXISTS entries_source ON entries(source);`

// Journal is a persistent, ordered batch of entries.
type Journal struct {
	db *sql.DB
}

// Open opens or creates the journal at path.
func Open(path string) (*Journal, error) {
	if path != Memory {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
	}
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	// One connection: an in-memory database is private to its connection,
	// and a single writer needs no more.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize journal: %w", err)
	}
	return &Journal{db: db}, nil
}

// Close releases the database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Key returns the journal key of a citation.
func Key(citation string) string {
	sum := blake3.Sum256([]byte(isbd.Normalize(citation)))
	return hex.EncodeToString(sum[:])
}

// Append adds e at the end of the batch.
func (j *Journal) Append(ctx context.Context, e *record.Entry) error {
	return j.AppendFrom(ctx, "", e)
}

// AppendFrom adds e, read from the file source, at the end of the batch.
func (j *Journal) AppendFrom(ctx context.Context, source string, e *record.Entry) error {
	data, err := json.Marshal(e.Record)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	_, err = j.db.ExecContext(ctx, `
		INSERT INTO entries (id, key, source, citation, record, created)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, Key(e.Text), source, e.Text, string(data), e.Created.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to store entry %s: %w", e.ID, err)
	}
	return nil
}

// RemoveSource deletes the entries read from the file source and returns how
// many were removed.
func (j *Journal) RemoveSource(ctx context.Context, source string) (int, error) {
	res, err := j.db.ExecContext(ctx, `DELETE FROM entries WHERE source = ?`, source)
	if err != nil {
		return 0, fmt.Errorf("failed to remove entries of %s: %w", source, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to remove entries of %s: %w", source, err)
	}
	return int(n), nil
}

// Repeats returns the number of entries whose citation was already parsed
// earlier in the batch.
func (j *Journal) Repeats(ctx context.Context) (int, error) {
	var n int
	err := j.db.QueryRowContext(ctx,
		`SELECT COUNT(*) - COUNT(DISTINCT key) FROM entries`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count repeated entries: %w", err)
	}
	return n, nil
}

// Entries returns the stored entries in the order they were added.
func (j *Journal) Entries(ctx context.Context) ([]*record.Entry, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, citation, record, created FROM entries ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []*record.Entry
	for rows.Next() {
		var id, citation, data, created string
		if err := rows.Scan(&id, &citation, &data, &created); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		rec := record.New()
		if err := json.Unmarshal([]byte(data), rec); err != nil {
			return nil, fmt.Errorf("entry %s: %w", id, err)
		}
		ts, err := time.Parse(time.RFC3339Nano, created)
		if err != nil {
			return nil, fmt.Errorf("entry %s: invalid timestamp: %w", id, err)
		}
		entries = append(entries, &record.Entry{ID: id, Text: citation, Record: rec, Created: ts})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read entries: %w", err)
	}
	return entries, nil
}

// Batch loads the stored entries into a batch.
func (j *Journal) Batch(ctx context.Context) (*record.Batch, error) {
	entries, err := j.Entries(ctx)
	if err != nil {
		return nil, err
	}
	var b record.Batch
	for _, e := range entries {
		b.Append(e)
	}
	return &b, nil
}

// Count returns the number of stored entries.
func (j *Journal) Count(ctx context.Context) (int, error) {
	var n int
	if err := j.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return n, nil
}

// Clear removes every entry.
func (j *Journal) Clear(ctx context.Context) error {
	if _, err := j.db.ExecContext(ctx, `DELETE FROM entries`); err != nil {
		return fmt.Errorf("failed to clear journal: %w", err)
	}
	return nil
}
