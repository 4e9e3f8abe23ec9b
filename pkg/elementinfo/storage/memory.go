package storage

import (
	"context"
	"sort"
	"sync"

	"seleniumrobot/infoserver/pkg/elementinfo"
	"seleniumrobot/infoserver/pkg/store"
)

// MemoryStorage implements elementinfo.Store using an in-memory map.
// This implementation is intended for testing and demos.
type MemoryStorage struct {
	records map[int64]*elementinfo.Element
	nextID  int64
	opts    options
	mu      sync.RWMutex
}

// NewMemoryStorage creates a new in-memory element store.
func NewMemoryStorage(opts ...Option) *MemoryStorage {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &MemoryStorage{
		records: make(map[int64]*elementinfo.Element),
		opts:    o,
	}
}

func copyElement(e *elementinfo.Element) elementinfo.Element {
	c := *e
	if e.Application != nil {
		id := *e.Application
		c.Application = &id
	}
	if e.Version != nil {
		id := *e.Version
		c.Version = &id
	}
	if e.B64Image != nil {
		img := *e.B64Image
		c.B64Image = &img
	}
	return c
}

// List returns matching elements ordered by id.
func (s *MemoryStorage) List(ctx context.Context, query elementinfo.Query) ([]elementinfo.Element, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]elementinfo.Element, 0, len(s.records))
	for _, record := range s.records {
		if query.Matches(record) {
			results = append(results, copyElement(record))
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results, nil
}

// Get returns the element with the given id.
func (s *MemoryStorage) Get(ctx context.Context, id int64) (*elementinfo.Element, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[id]
	if !ok {
		return nil, store.NewNotFoundError("element info", id)
	}
	c := copyElement(record)
	return &c, nil
}

// Create stores e, assigning its id and LastUpdate.
func (s *MemoryStorage) Create(ctx context.Context, e *elementinfo.Element) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	e.ID = s.nextID
	e.LastUpdate = s.opts.now().UTC()

	c := copyElement(e)
	s.records[e.ID] = &c
	return nil
}

// Update overwrites the stored element and bumps LastUpdate.
func (s *MemoryStorage) Update(ctx context.Context, e *elementinfo.Element) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[e.ID]; !ok {
		return store.NewNotFoundError("element info", e.ID)
	}
	e.LastUpdate = s.opts.now().UTC()

	c := copyElement(e)
	s.records[e.ID] = &c
	return nil
}

// Delete removes an element. Unknown ids are ignored.
func (s *MemoryStorage) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, id)
	return nil
}

// Count returns the number of stored elements.
func (s *MemoryStorage) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.records)), nil
}

var _ elementinfo.Store = (*MemoryStorage)(nil)
