// Package postgres backs the document store with a Postgres table of
// JSONB rows, one row per (collection, id).
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/MOHD-MOMIN-TRADER/bodyrevivalBR/internal/store"
)

// Store implements store.Store on a *sql.DB.
type Store struct {
	db *sql.DB
}

// Open connects, migrates, and returns a Postgres-backed store.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err := migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	slog.Info("Database connected and migrated")
	return &Store{db: db}, nil
}

// New wraps an existing database handle without migrating.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close releases the underlying connection pool.
func (s *Store) Close() error { return s.db.Close() }

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS documents (
			collection TEXT NOT NULL,
			id TEXT NOT NULL,
			fields JSONB NOT NULL DEFAULT '{}',
			rev BIGINT NOT NULL DEFAULT 1,
			updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
			PRIMARY KEY (collection, id)
		);
	`)
	return err
}

func (s *Store) Get(ctx context.Context, collection, id string) (store.Document, error) {
	var (
		raw []byte
		rev int64
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT fields, rev FROM documents WHERE collection = $1 AND id = $2",
		collection, id,
	).Scan(&raw, &rev)
	if err == sql.ErrNoRows {
		return store.Document{}, store.ErrNotFound
	}
	if err != nil {
		return store.Document{}, fmt.Errorf("failed to query document %s/%s: %w", collection, id, err)
	}

	var fields store.Fields
	if err := json.Unmarshal(raw, &fields); err != nil {
		return store.Document{}, fmt.Errorf("failed to decode document %s/%s: %w", collection, id, err)
	}
	return store.Document{ID: id, Fields: fields, Rev: rev}, nil
}

func (s *Store) Set(ctx context.Context, collection, id string, fields store.Fields, opts store.SetOptions) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var (
		raw        []byte
		currentRev int64
		exists     = true
	)
	err = tx.QueryRowContext(ctx,
		"SELECT fields, rev FROM documents WHERE collection = $1 AND id = $2 FOR UPDATE",
		collection, id,
	).Scan(&raw, &currentRev)
	if err == sql.ErrNoRows {
		exists = false
	} else if err != nil {
		return 0, fmt.Errorf("failed to lock document %s/%s: %w", collection, id, err)
	}

	if opts.ExpectedRev != 0 && (!exists || currentRev != opts.ExpectedRev) {
		return 0, store.ErrRevisionConflict
	}

	next := fields
	if opts.Merge && exists {
		var existing store.Fields
		if err := json.Unmarshal(raw, &existing); err != nil {
			return 0, fmt.Errorf("failed to decode document %s/%s: %w", collection, id, err)
		}
		next = store.Merge(existing, fields)
	}

	payload, err := json.Marshal(next)
	if err != nil {
		return 0, fmt.Errorf("failed to encode document %s/%s: %w", collection, id, err)
	}

	newRev := currentRev + 1
	if exists {
		_, err = tx.ExecContext(ctx,
			"UPDATE documents SET fields = $1, rev = $2, updated_at = NOW() WHERE collection = $3 AND id = $4",
			payload, newRev, collection, id,
		)
	} else {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO documents (collection, id, fields, rev) VALUES ($1, $2, $3, $4)",
			collection, id, payload, newRev,
		)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to write document %s/%s: %w", collection, id, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return newRev, nil
}

func (s *Store) Add(ctx context.Context, collection string, fields store.Fields) (string, error) {
	payload, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("failed to encode document: %w", err)
	}

	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO documents (collection, id, fields, rev) VALUES ($1, $2, $3, 1)",
		collection, id, payload,
	)
	if err != nil {
		return "", fmt.Errorf("failed to add document to %s: %w", collection, err)
	}
	return id, nil
}
