package store

import (
	"context"
	"sync"
	"time"

	"github.com/deisterstuff/investment/internal/optimizer"
)

// Memory keeps the most recent runs in process (used without DATABASE_URL)
type Memory struct {
	mu    sync.RWMutex
	runs  map[string]*optimizer.Run
	order []string // oldest first
	max   int
}

// NewMemory creates a memory store holding at most max runs (<= 0 = 100)
func NewMemory(max int) *Memory {
	if max <= 0 {
		max = 100
	}
	return &Memory{
		runs: make(map[string]*optimizer.Run),
		max:  max,
	}
}

// Save implements Repository
func (m *Memory) Save(_ context.Context, run *optimizer.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.runs[run.ID]; !ok {
		m.order = append(m.order, run.ID)
	}
	m.runs[run.ID] = run

	for len(m.order) > m.max {
		delete(m.runs, m.order[0])
		m.order = m.order[1:]
	}
	return nil
}

// Get implements Repository
func (m *Memory) Get(_ context.Context, id string) (*optimizer.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	run, ok := m.runs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return run, nil
}

// ListRecent implements Repository
func (m *Memory) ListRecent(_ context.Context, limit int) ([]optimizer.Summary, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]optimizer.Summary, 0, limit)
	for i := len(m.order) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.runs[m.order[i]].Summarize())
	}
	return out, nil
}

// Prune drops runs created before cutoff
func (m *Memory) Prune(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.order[:0]
	var removed int64
	for _, id := range m.order {
		if m.runs[id].CreatedAt.Before(cutoff) {
			delete(m.runs, id)
			removed++
			continue
		}
		kept = append(kept, id)
	}
	m.order = kept
	return removed, nil
}
