package store

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/vmtlabs/tinsel/internal/domain/model"
)

// Memory is a mutex-guarded in-memory Store. It exists for tests and for an
// offline deployment mode; its Upsert has the same converge-to-one-row
// semantics as the REST driver's on_conflict merge.
type Memory struct {
	mu    sync.RWMutex
	rows  map[memoryKey]model.ScoreRecord
	calls atomic.Int64
}

type memoryKey struct {
	eventID       string
	participantID string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{rows: make(map[memoryKey]model.ScoreRecord)}
}

// Calls returns the number of store operations performed, for tests that
// assert a code path never touched the store.
func (m *Memory) Calls() int64 {
	return m.calls.Load()
}

// BestScore implements Store.
func (m *Memory) BestScore(_ context.Context, eventID, participantID string) (int, bool, error) {
	m.calls.Add(1)
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.rows[memoryKey{eventID, participantID}]
	if !ok {
		return 0, false, nil
	}
	return rec.BestScore, true, nil
}

// Top implements Store: best_score descending, ties by updated_at ascending.
func (m *Memory) Top(_ context.Context, eventID string, limit int) ([]model.ScoreRecord, error) {
	m.calls.Add(1)
	m.mu.RLock()
	out := make([]model.ScoreRecord, 0)
	for k, rec := range m.rows {
		if k.eventID == eventID {
			out = append(out, rec)
		}
	}
	m.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].BestScore != out[j].BestScore {
			return out[i].BestScore > out[j].BestScore
		}
		return out[i].UpdatedAt.Before(out[j].UpdatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Patch implements Store. Missing rows are a silent no-op, matching the REST
// driver where a PATCH with no matching row affects zero rows.
func (m *Memory) Patch(_ context.Context, eventID, participantID string, p model.Patch) error {
	m.calls.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	key := memoryKey{eventID, participantID}
	rec, ok := m.rows[key]
	if !ok {
		return nil
	}
	rec.Name = p.Name
	rec.UpdatedAt = p.UpdatedAt
	if p.MemeURL.Set {
		rec.MemeURL = p.MemeURL.Pointer()
	}
	if p.MemeTinyURL.Set {
		rec.MemeTinyURL = p.MemeTinyURL.Pointer()
	}
	m.rows[key] = rec
	return nil
}

// Upsert implements Store.
func (m *Memory) Upsert(_ context.Context, rec model.ScoreRecord) error {
	m.calls.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[memoryKey{rec.EventID, rec.ParticipantID}] = rec
	return nil
}
