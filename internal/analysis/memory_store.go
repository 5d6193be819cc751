package analysis

import (
	"context"
	"sort"
	"sync"

	"github.com/helioslend/helios/internal/pagination"
)

// MemoryStore is an in-memory analysis store for demo/development mode.
type MemoryStore struct {
	records map[string]*Record
	mu      sync.RWMutex
}

// NewMemoryStore creates a new in-memory analysis store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*Record),
	}
}

func (m *MemoryStore) Create(ctx context.Context, rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records[rec.ID] = rec
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[id]
	if !ok {
		return nil, ErrAnalysisNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *MemoryStore) ListByAccount(ctx context.Context, accountID string, limit int, opts ...ListOption) ([]*Record, error) {
	o := applyListOpts(opts)

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Record
	for _, rec := range m.records {
		if rec.AccountID != accountID {
			continue
		}
		if o.cursor != nil && !beforeCursor(rec, o.cursor) {
			continue
		}
		cp := *rec
		out = append(out, &cp)
	}
	// Newest first, matching the Postgres ordering.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// beforeCursor reports whether rec sits strictly after the cursor position
// in the newest-first ordering.
func beforeCursor(rec *Record, c *pagination.Cursor) bool {
	if rec.CreatedAt.Before(c.CreatedAt) {
		return true
	}
	return rec.CreatedAt.Equal(c.CreatedAt) && rec.ID < c.ID
}
