// Package store defines the narrow document-store contract the
// storefront persists through: keyed documents in named collections,
// partial merge writes, and server-generated refs for appends.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("document not found")

	// ErrRevisionConflict is returned when a conditional write loses
	// against a newer revision of the document.
	ErrRevisionConflict = errors.New("document revision conflict")
)

// Fields is the JSON-compatible field map of a document.
type Fields map[string]any

// Document is a stored document together with its monotonic revision.
type Document struct {
	ID     string
	Fields Fields
	Rev    int64
}

// SetOptions controls how Set writes a document.
type SetOptions struct {
	// Merge overlays the given fields onto the existing document
	// instead of replacing it, leaving unspecified fields untouched.
	Merge bool

	// ExpectedRev, when non-zero, makes the write conditional: it
	// fails with ErrRevisionConflict unless the stored revision
	// matches.
	ExpectedRev int64
}

// Store is the persistence collaborator contract.
type Store interface {
	// Get fetches a document, or ErrNotFound.
	Get(ctx context.Context, collection, id string) (Document, error)

	// Set writes a document and returns its new revision.
	Set(ctx context.Context, collection, id string, fields Fields, opts SetOptions) (int64, error)

	// Add appends a document under a generated ref and returns it.
	Add(ctx context.Context, collection string, fields Fields) (string, error)
}

// Encode converts a struct into a field map via its JSON form.
func Encode(v any) (Fields, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode fields: %w", err)
	}
	var f Fields
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("failed to decode fields: %w", err)
	}
	return f, nil
}

// Decode converts a field map back into a struct via its JSON form.
func Decode(f Fields, v any) error {
	raw, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to encode fields: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to decode fields: %w", err)
	}
	return nil
}

// Merge overlays src onto dst field by field and returns dst.
func Merge(dst, src Fields) Fields {
	if dst == nil {
		dst = make(Fields, len(src))
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
