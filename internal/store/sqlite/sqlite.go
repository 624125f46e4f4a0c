// Package sqlite stores postings and alert history in an SQLite database
// through the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/spigell/hh-indexer/internal/posting"
	"github.com/spigell/hh-indexer/internal/store"
)

// seenChunk caps the ids bound in one alert_seen lookup.
const seenChunk = 500

const schema = `
CREATE TABLE IF NOT EXISTS postings (
	id          TEXT PRIMARY KEY,
	fingerprint TEXT NOT NULL,
	payload     TEXT NOT NULL,
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS postings_fingerprint ON postings (fingerprint);
CREATE TABLE IF NOT EXISTS alert_seen (
	search_id  TEXT NOT NULL,
	posting_id TEXT NOT NULL,
	seen_at    TEXT NOT NULL,
	PRIMARY KEY (search_id, posting_id)
);`

// Store implements store.JobStore and the alert seen-tracking on SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating when needed) the database at path and applies the
// schema. Use ":memory:" for a throwaway database.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("sqlite store path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// a single connection keeps ":memory:" databases shared and serializes writers
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// List returns all postings ordered by id.
func (s *Store) List(ctx context.Context) ([]posting.Posting, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM postings ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query postings: %w", err)
	}
	defer rows.Close()

	var out []posting.Posting
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan posting: %w", err)
		}
		var p posting.Posting
		if err := json.Unmarshal([]byte(payload), &p); err != nil {
			return nil, fmt.Errorf("decode posting: %w", err)
		}
		out = append(out, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate postings: %w", err)
	}
	return out, nil
}

func (s *Store) GetByID(ctx context.Context, id string) (*posting.Posting, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM postings WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query posting %s: %w", id, err)
	}

	var p posting.Posting
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return nil, fmt.Errorf("decode posting %s: %w", id, err)
	}
	return &p, nil
}

// Save upserts postings in one transaction. The first CreatedAt of a posting
// is kept across updates.
func (s *Store) Save(ctx context.Context, postings []posting.Posting) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, p := range postings {
		var created string
		err := tx.QueryRowContext(ctx, `SELECT created_at FROM postings WHERE id = ?`, p.ID).Scan(&created)
		switch {
		case err == nil:
			if t, perr := time.Parse(time.RFC3339Nano, created); perr == nil {
				p.CreatedAt = t
			}
		case !errors.Is(err, sql.ErrNoRows):
			return fmt.Errorf("query posting %s: %w", p.ID, err)
		}

		payload, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("encode posting %s: %w", p.ID, err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO postings (id, fingerprint, payload, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				fingerprint = excluded.fingerprint,
				payload = excluded.payload,
				updated_at = excluded.updated_at`,
			p.ID, p.Fingerprint, string(payload), formatTime(p.CreatedAt), formatTime(p.UpdatedAt),
		)
		if err != nil {
			return fmt.Errorf("upsert posting %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Unseen returns the ids not yet reported for searchID, keeping their order.
// Lookups run in chunks of seenChunk ids to stay under the bound parameter
// limit.
func (s *Store) Unseen(ctx context.Context, searchID string, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return []string{}, nil
	}

	seen := make(map[string]struct{})
	for start := 0; start < len(ids); start += seenChunk {
		chunk := ids[start:min(start+seenChunk, len(ids))]
		if err := s.collectSeen(ctx, searchID, chunk, seen); err != nil {
			return nil, err
		}
	}

	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; !ok {
			out = append(out, id)
		}
	}
	return out, nil
}

func (s *Store) collectSeen(ctx context.Context, searchID string, ids []string, seen map[string]struct{}) error {
	args := make([]any, 0, len(ids)+1)
	args = append(args, searchID)
	for _, id := range ids {
		args = append(args, id)
	}

	query := `SELECT posting_id FROM alert_seen WHERE search_id = ? AND posting_id IN (?` +
		strings.Repeat(", ?", len(ids)-1) + `)`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query seen postings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("scan seen posting: %w", err)
		}
		seen[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate seen postings: %w", err)
	}
	return nil
}

// MarkSeen records ids as reported for searchID.
func (s *Store) MarkSeen(ctx context.Context, searchID string, ids []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	now := formatTime(s.now())
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO alert_seen (search_id, posting_id, seen_at) VALUES (?, ?, ?) ON CONFLICT DO NOTHING`,
			searchID, id, now,
		); err != nil {
			return fmt.Errorf("mark %s seen for %s: %w", id, searchID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
