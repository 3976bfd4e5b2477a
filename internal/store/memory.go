package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	models "io.winapps.memorialboard/internal/models/board"
)

// Memory is an in-process EntryStore. It backs the local demo deployment and
// tests.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]models.Entry
	now     func() time.Time
	newID   func() string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]models.Entry),
		now:     time.Now,
		newID:   func() string { return uuid.New().String() },
	}
}

// WithClock overrides the server clock used for postedAt.
func (m *Memory) WithClock(now func() time.Time) *Memory {
	m.now = now
	return m
}

func (m *Memory) Create(ctx context.Context, entry models.Entry) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.newID()
	for {
		if _, taken := m.entries[id]; !taken {
			break
		}
		id = m.newID()
	}
	postedAt := m.now().UTC()
	entry.ID = id
	entry.PostedAt = &postedAt
	m.entries[id] = entry
	return id, nil
}

func (m *Memory) Get(ctx context.Context, id string) (*models.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &e, nil
}

func (m *Memory) Query(ctx context.Context, q Query) ([]models.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	out := make([]models.Entry, 0, len(m.entries))
	for _, e := range m.entries {
		if q.Matches(e) {
			out = append(out, e)
		}
	}
	m.mu.RUnlock()

	if q.OrderBy == FieldPostedAt {
		slices.SortStableFunc(out, func(a, b models.Entry) int {
			c := comparePostedAt(a, b)
			if q.Descending {
				c = -c
			}
			if c == 0 {
				return compareStrings(a.ID, b.ID)
			}
			return c
		})
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (m *Memory) Update(ctx context.Context, id string, update models.EntryUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[id]
	if !ok {
		return ErrNotFound
	}
	update.Apply(&e)
	m.entries[id] = e
	return nil
}

func (m *Memory) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[id]; !ok {
		return ErrNotFound
	}
	delete(m.entries, id)
	return nil
}

func comparePostedAt(a, b models.Entry) int {
	switch {
	case a.PostedAt == nil && b.PostedAt == nil:
		return 0
	case a.PostedAt == nil:
		return -1
	case b.PostedAt == nil:
		return 1
	}
	return a.PostedAt.Compare(*b.PostedAt)
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
