package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"seleniumrobot/infoserver/pkg/store"
	"seleniumrobot/infoserver/pkg/variables"
)

// MemoryStorage implements variables.Store using an in-memory map.
// This implementation is intended for testing and demos.
type MemoryStorage struct {
	records map[int64]*variables.Variable
	nextID  int64
	opts    options
	mu      sync.RWMutex
}

// NewMemoryStorage creates a new in-memory variable store.
func NewMemoryStorage(opts ...Option) *MemoryStorage {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &MemoryStorage{
		records: make(map[int64]*variables.Variable),
		opts:    o,
	}
}

// List returns every variable ordered by id.
func (s *MemoryStorage) List(ctx context.Context) ([]variables.Variable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]variables.Variable, 0, len(s.records))
	for _, v := range s.records {
		results = append(results, v.Clone())
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results, nil
}

// Get returns the variable with the given id.
func (s *MemoryStorage) Get(ctx context.Context, id int64) (*variables.Variable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.records[id]
	if !ok {
		return nil, store.NewNotFoundError("variable", id)
	}
	c := v.Clone()
	return &c, nil
}

// Create stores v, assigning its id and creation date.
func (s *MemoryStorage) Create(ctx context.Context, v *variables.Variable) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	v.ID = s.nextID
	v.CreationDate = s.opts.now().UTC().Truncate(time.Microsecond)

	c := v.Clone()
	s.records[v.ID] = &c
	return nil
}

// Update overwrites a stored variable, keeping its creation date.
func (s *MemoryStorage) Update(ctx context.Context, v *variables.Variable) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.records[v.ID]
	if !ok {
		return store.NewNotFoundError("variable", v.ID)
	}
	v.CreationDate = existing.CreationDate

	c := v.Clone()
	s.records[v.ID] = &c
	return nil
}

// Delete removes a variable. Unknown ids are ignored.
func (s *MemoryStorage) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	return nil
}

// ReleaseExpired clears reservations ending at or before now.
func (s *MemoryStorage) ReleaseExpired(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, v := range s.records {
		if v.ReleaseDate != nil && !v.ReleaseDate.After(now) {
			v.ReleaseDate = nil
			n++
		}
	}
	return n, nil
}

// DeleteExpired removes variables whose time to live elapsed.
func (s *MemoryStorage) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, v := range s.records {
		if v.Expired(now) {
			delete(s.records, id)
			n++
		}
	}
	return n, nil
}

// Reserve sets the release date of every id, or of none when some are
// already reserved.
func (s *MemoryStorage) Reserve(ctx context.Context, ids []int64, until time.Time) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var conflicts []int64
	for _, id := range ids {
		v, ok := s.records[id]
		if !ok || v.ReleaseDate != nil {
			conflicts = append(conflicts, id)
		}
	}
	if len(conflicts) > 0 {
		return conflicts, nil
	}

	for _, id := range ids {
		t := until
		s.records[id].ReleaseDate = &t
	}
	return nil, nil
}

var _ variables.Store = (*MemoryStorage)(nil)
