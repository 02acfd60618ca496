package vectorindex

import (
	"context"
	"sync"
)

// Memory is a brute-force in-process index.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]Entry)}
}

func (m *Memory) Upsert(_ context.Context, entries []Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entries {
		m.entries[e.ID] = e
	}
	return nil
}

func (m *Memory) Query(_ context.Context, vec []float32, k int) ([]Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cands := make([]Match, 0, len(m.entries))
	for _, e := range m.entries {
		if len(e.Vector) != len(vec) {
			continue
		}
		cands = append(cands, Match{ID: e.ID, Text: e.Text, Metadata: e.Metadata, Distance: distance(vec, e.Vector)})
	}
	return topK(cands, k), nil
}

func (m *Memory) DeleteDocument(_ context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, e := range m.entries {
		if e.Metadata.DocumentID == documentID {
			delete(m.entries, id)
		}
	}
	return nil
}

func (m *Memory) Count(context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries), nil
}
