package store

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Memory is an in-memory Store used in tests and as a dev fallback.
type Memory struct {
	mu   sync.Mutex
	cols map[string]map[string]Document
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{cols: make(map[string]map[string]Document)}
}

func (m *Memory) Get(ctx context.Context, collection, id string) (Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.cols[collection][id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return copyDoc(doc), nil
}

func (m *Memory) Set(ctx context.Context, collection, id string, fields Fields, opts SetOptions) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	col, ok := m.cols[collection]
	if !ok {
		col = make(map[string]Document)
		m.cols[collection] = col
	}

	existing, exists := col[id]
	if opts.ExpectedRev != 0 && (!exists || existing.Rev != opts.ExpectedRev) {
		return 0, ErrRevisionConflict
	}

	next := Document{ID: id, Rev: existing.Rev + 1}
	if opts.Merge && exists {
		next.Fields = Merge(copyFields(existing.Fields), fields)
	} else {
		next.Fields = copyFields(fields)
	}
	col[id] = next
	return next.Rev, nil
}

func (m *Memory) Add(ctx context.Context, collection string, fields Fields) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	col, ok := m.cols[collection]
	if !ok {
		col = make(map[string]Document)
		m.cols[collection] = col
	}

	id := uuid.NewString()
	col[id] = Document{ID: id, Fields: copyFields(fields), Rev: 1}
	return id, nil
}

// Len reports the number of documents in a collection.
func (m *Memory) Len(collection string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.cols[collection])
}

// All returns a snapshot of every document in a collection.
func (m *Memory) All(collection string) []Document {
	m.mu.Lock()
	defer m.mu.Unlock()

	docs := make([]Document, 0, len(m.cols[collection]))
	for _, d := range m.cols[collection] {
		docs = append(docs, copyDoc(d))
	}
	return docs
}

func copyDoc(d Document) Document {
	return Document{ID: d.ID, Fields: copyFields(d.Fields), Rev: d.Rev}
}

func copyFields(f Fields) Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}
