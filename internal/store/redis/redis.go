// Package redis backs the document store with Redis hashes, one key per
// document carrying its JSON fields and revision counter.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/MOHD-MOMIN-TRADER/bodyrevivalBR/internal/store"
)

// Store implements store.Store on a Redis client.
type Store struct {
	rdb *redis.Client
}

// Open connects to Redis and verifies the connection.
func Open(ctx context.Context, addr string) (*Store, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return &Store{rdb: rdb}, nil
}

// New wraps an existing Redis client.
func New(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// Close releases the client.
func (s *Store) Close() error { return s.rdb.Close() }

func docKey(collection, id string) string {
	return "doc:" + collection + ":" + id
}

func (s *Store) Get(ctx context.Context, collection, id string) (store.Document, error) {
	vals, err := s.rdb.HGetAll(ctx, docKey(collection, id)).Result()
	if err != nil {
		return store.Document{}, fmt.Errorf("failed to read document %s/%s: %w", collection, id, err)
	}
	if len(vals) == 0 {
		return store.Document{}, store.ErrNotFound
	}
	return parseDoc(id, vals)
}

func (s *Store) Set(ctx context.Context, collection, id string, fields store.Fields, opts store.SetOptions) (int64, error) {
	key := docKey(collection, id)
	var newRev int64

	txf := func(tx *redis.Tx) error {
		vals, err := tx.HGetAll(ctx, key).Result()
		if err != nil {
			return err
		}

		var (
			currentRev int64
			exists     = len(vals) > 0
		)
		next := fields
		if exists {
			doc, err := parseDoc(id, vals)
			if err != nil {
				return err
			}
			currentRev = doc.Rev
			if opts.Merge {
				next = store.Merge(doc.Fields, fields)
			}
		}

		if opts.ExpectedRev != 0 && (!exists || currentRev != opts.ExpectedRev) {
			return store.ErrRevisionConflict
		}

		payload, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("failed to encode document %s/%s: %w", collection, id, err)
		}

		newRev = currentRev + 1
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, "fields", payload, "rev", newRev)
			return nil
		})
		return err
	}

	err := s.rdb.Watch(ctx, txf, key)
	if errors.Is(err, redis.TxFailedErr) {
		// Another writer touched the key mid-transaction.
		return 0, store.ErrRevisionConflict
	}
	if err != nil {
		return 0, fmt.Errorf("failed to write document %s/%s: %w", collection, id, err)
	}
	return newRev, nil
}

func (s *Store) Add(ctx context.Context, collection string, fields store.Fields) (string, error) {
	payload, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("failed to encode document: %w", err)
	}

	id := uuid.NewString()
	if err := s.rdb.HSet(ctx, docKey(collection, id), "fields", payload, "rev", 1).Err(); err != nil {
		return "", fmt.Errorf("failed to add document to %s: %w", collection, err)
	}
	return id, nil
}

func parseDoc(id string, vals map[string]string) (store.Document, error) {
	var fields store.Fields
	if raw, ok := vals["fields"]; ok {
		if err := json.Unmarshal([]byte(raw), &fields); err != nil {
			return store.Document{}, fmt.Errorf("failed to decode document %s: %w", id, err)
		}
	}
	rev, err := strconv.ParseInt(vals["rev"], 10, 64)
	if err != nil {
		return store.Document{}, fmt.Errorf("document %s has malformed revision %q: %w", id, vals["rev"], err)
	}
	return store.Document{ID: id, Fields: fields, Rev: rev}, nil
}
