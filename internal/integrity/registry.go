package integrity

import (
	"context"
	"sync"
)

// Registry is the append-only store of integrity records.
type Registry interface {
	// Store registers a completed record under its trace id. Writing the
	// same trace id twice must never silently succeed.
	Store(ctx context.Context, rec Record) error
	// Lookup returns the record for a trace id or ErrNotFound.
	Lookup(ctx context.Context, traceID string) (Record, error)
}

// InMemory implements Registry with in-process concurrency safety.
type InMemory struct {
	mu   sync.RWMutex
	recs map[string]Record
}

// NewInMemory creates an empty registry.
func NewInMemory() *InMemory {
	return &InMemory{recs: make(map[string]Record)}
}

// Store registers the record. A duplicate trace id is a programming-invariant
// violation: trace ids are generated collision-resistant and assigned exactly
// once, so this panics rather than overwriting or dropping a record.
func (s *InMemory) Store(ctx context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.recs[rec.TraceID]; exists {
		panic("integrity: duplicate trace id " + rec.TraceID)
	}
	s.recs[rec.TraceID] = copyRecord(rec)
	return nil
}

// Lookup returns a copy of the stored record.
func (s *InMemory) Lookup(ctx context.Context, traceID string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.recs[traceID]
	if !ok {
		return Record{}, ErrNotFound
	}
	return copyRecord(rec), nil
}

// Len reports the number of registered records.
func (s *InMemory) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.recs)
}

func copyRecord(rec Record) Record {
	out := rec
	out.Artifacts = make(map[Format]Artifact, len(rec.Artifacts))
	for k, v := range rec.Artifacts {
		out.Artifacts[k] = v
	}
	return out
}
