// Package history keeps the local, append-only order list in a SQLite
// file. It is a cache and offline fallback, not the source of truth:
// orders are written here on every change so the list survives restarts
// even when the backing store is unreachable.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"

	"github.com/MOHD-MOMIN-TRADER/bodyrevivalBR/internal/entity"
)

// Store is the local order history.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history db: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate history db: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS orders (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			customer_name TEXT NOT NULL DEFAULT '',
			total INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'pending',
			date TEXT NOT NULL DEFAULT '',
			items TEXT NOT NULL DEFAULT '[]'
		);
	`)
	return err
}

// Append stores one order at the head of the history.
func (s *Store) Append(ctx context.Context, order entity.Order) error {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to encode order items: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO orders (id, customer_name, total, status, date, items) VALUES (?, ?, ?, ?, ?, ?)",
		order.ID, order.CustomerName, order.Total, string(order.Status), order.Date, items,
	)
	if err != nil {
		return fmt.Errorf("failed to append order %s: %w", order.ID, err)
	}
	return nil
}

// Load returns all orders, newest first.
func (s *Store) Load(ctx context.Context) ([]entity.Order, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, customer_name, total, status, date, items FROM orders ORDER BY seq DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query order history: %w", err)
	}
	defer rows.Close()

	var orders []entity.Order
	for rows.Next() {
		var (
			o     entity.Order
			items []byte
		)
		if err := rows.Scan(&o.ID, &o.CustomerName, &o.Total, (*string)(&o.Status), &o.Date, &items); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		if err := json.Unmarshal(items, &o.Items); err != nil {
			return nil, fmt.Errorf("failed to decode items of order %s: %w", o.ID, err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order rows: %w", err)
	}
	return orders, nil
}

// Seed inserts demo orders when the history is empty.
func (s *Store) Seed(ctx context.Context, orders []entity.Order) error {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM orders").Scan(&count); err != nil {
		return fmt.Errorf("failed to count orders: %w", err)
	}
	if count > 0 {
		return nil
	}

	// Oldest first so Load returns them newest first.
	for i := len(orders) - 1; i >= 0; i-- {
		if err := s.Append(ctx, orders[i]); err != nil {
			return err
		}
	}
	slog.Info("Seeded order history", "count", len(orders))
	return nil
}
