// Package inbox journals verified webhook deliveries in SQLite.
package inbox

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ManuGH/flowcatalyst/internal/metrics"
)

const schemaVersion = 1

// Entry is one stored delivery.
type Entry struct {
	ID         string
	ReceivedAt time.Time
	Signature  string
	Timestamp  time.Time // signing time from the delivery headers
	Body       []byte
}

// Store is the delivery journal.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the journal at path.
func Open(ctx context.Context, path string) (*Store, error) {
	return OpenWithConfig(ctx, path, DefaultConfig())
}

// OpenWithConfig is Open with explicit pool settings.
func OpenWithConfig(ctx context.Context, path string, cfg Config) (*Store, error) {
	if path == "" {
		return nil, errors.New("inbox: path is required")
	}
	db, err := openDB(ctx, path, cfg)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("inbox: migration failed: %w", err)
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	var current int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&current); err != nil {
		return err
	}
	if current >= schemaVersion {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	schema := `
	CREATE TABLE IF NOT EXISTS deliveries (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		received_at_ms INTEGER NOT NULL,
		signature TEXT NOT NULL,
		signed_at INTEGER NOT NULL,
		body BLOB NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_deliveries_received ON deliveries(received_at_ms);
	`
	if _, err := tx.ExecContext(ctx, schema); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return err
	}
	return tx.Commit()
}

// Record stores one delivery and returns it with its assigned id. A zero
// ReceivedAt is set to the current time.
func (s *Store) Record(ctx context.Context, e Entry) (Entry, error) {
	e.ID = uuid.NewString()
	if e.ReceivedAt.IsZero() {
		e.ReceivedAt = s.now()
	}
	if e.Body == nil {
		e.Body = []byte{}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO deliveries (id, received_at_ms, signature, signed_at, body) VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.ReceivedAt.UnixMilli(), e.Signature, e.Timestamp.Unix(), e.Body,
	)
	if err != nil {
		metrics.RecordInboxWrite("error")
		return Entry{}, fmt.Errorf("inbox: insert delivery: %w", err)
	}
	metrics.RecordInboxWrite("ok")
	return e, nil
}

// Recent returns up to limit deliveries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, received_at_ms, signature, signed_at, body FROM deliveries ORDER BY seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("inbox: query deliveries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Entry
	for rows.Next() {
		var (
			e          Entry
			receivedMS int64
			signedAt   int64
		)
		if err := rows.Scan(&e.ID, &receivedMS, &e.Signature, &signedAt, &e.Body); err != nil {
			return nil, fmt.Errorf("inbox: scan delivery: %w", err)
		}
		e.ReceivedAt = time.UnixMilli(receivedMS).UTC()
		e.Timestamp = time.Unix(signedAt, 0).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

// Count returns the number of stored deliveries.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM deliveries").Scan(&n); err != nil {
		return 0, fmt.Errorf("inbox: count deliveries: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
