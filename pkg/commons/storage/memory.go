package storage

import (
	"context"
	"sort"
	"sync"

	"seleniumrobot/infoserver/pkg/commons"
	"seleniumrobot/infoserver/pkg/store"
)

// MemoryStorage implements commons.Store using in-memory maps.
// Deleting an application also deletes its versions and test cases.
type MemoryStorage struct {
	mu           sync.RWMutex
	nextID       int64
	applications map[int64]commons.Application
	versions     map[int64]commons.Version
	environments map[int64]commons.Environment
	testCases    map[int64]commons.TestCase
}

// NewMemoryStorage creates an empty in-memory commons store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		applications: make(map[int64]commons.Application),
		versions:     make(map[int64]commons.Version),
		environments: make(map[int64]commons.Environment),
		testCases:    make(map[int64]commons.TestCase),
	}
}

func (s *MemoryStorage) id() int64 {
	s.nextID++
	return s.nextID
}

func copyApplication(a commons.Application) commons.Application {
	a.LinkedApplications = append([]int64(nil), a.LinkedApplications...)
	return a
}

func copyEnvironment(e commons.Environment) commons.Environment {
	if e.GenericEnvironment != nil {
		id := *e.GenericEnvironment
		e.GenericEnvironment = &id
	}
	return e
}

// ListApplications returns applications ordered by id, optionally filtered by name.
func (s *MemoryStorage) ListApplications(ctx context.Context, name string) ([]commons.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]commons.Application, 0, len(s.applications))
	for _, a := range s.applications {
		if name != "" && a.Name != name {
			continue
		}
		results = append(results, copyApplication(a))
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results, nil
}

// GetApplication returns the application with the given id.
func (s *MemoryStorage) GetApplication(ctx context.Context, id int64) (*commons.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.applications[id]
	if !ok {
		return nil, store.NewNotFoundError("application", id)
	}
	a = copyApplication(a)
	return &a, nil
}

// CreateApplication stores app and assigns its id.
func (s *MemoryStorage) CreateApplication(ctx context.Context, app *commons.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.applications {
		if existing.Name == app.Name {
			return &store.ConflictError{Kind: "application", Message: "name already exists"}
		}
	}
	for _, linked := range app.LinkedApplications {
		if _, ok := s.applications[linked]; !ok {
			return store.NewNotFoundError("application", linked)
		}
	}

	app.ID = s.id()
	s.applications[app.ID] = copyApplication(*app)
	return nil
}

// DeleteApplication removes an application with its versions, test cases and links.
func (s *MemoryStorage) DeleteApplication(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.applications, id)
	for vid, v := range s.versions {
		if v.Application == id {
			delete(s.versions, vid)
		}
	}
	for tid, tc := range s.testCases {
		if tc.Application == id {
			delete(s.testCases, tid)
		}
	}
	for aid, a := range s.applications {
		kept := a.LinkedApplications[:0]
		for _, linked := range a.LinkedApplications {
			if linked != id {
				kept = append(kept, linked)
			}
		}
		a.LinkedApplications = kept
		s.applications[aid] = a
	}
	return nil
}

// ListVersions returns versions ordered by id.
func (s *MemoryStorage) ListVersions(ctx context.Context, filter commons.VersionFilter) ([]commons.Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]commons.Version, 0, len(s.versions))
	for _, v := range s.versions {
		if filter.Application != 0 && v.Application != filter.Application {
			continue
		}
		if filter.Name != "" && v.Name != filter.Name {
			continue
		}
		results = append(results, v)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results, nil
}

// GetVersion returns the version with the given id.
func (s *MemoryStorage) GetVersion(ctx context.Context, id int64) (*commons.Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.versions[id]
	if !ok {
		return nil, store.NewNotFoundError("version", id)
	}
	return &v, nil
}

// CreateVersion stores v and assigns its id.
func (s *MemoryStorage) CreateVersion(ctx context.Context, v *commons.Version) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.applications[v.Application]; !ok {
		return store.NewNotFoundError("application", v.Application)
	}
	for _, existing := range s.versions {
		if existing.Application == v.Application && existing.Name == v.Name {
			return &store.ConflictError{Kind: "version", Message: "name already exists for this application"}
		}
	}

	v.ID = s.id()
	s.versions[v.ID] = *v
	return nil
}

// DeleteVersion removes a version.
func (s *MemoryStorage) DeleteVersion(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.versions, id)
	return nil
}

// ListEnvironments returns environments ordered by id, optionally filtered by name.
func (s *MemoryStorage) ListEnvironments(ctx context.Context, name string) ([]commons.Environment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]commons.Environment, 0, len(s.environments))
	for _, e := range s.environments {
		if name != "" && e.Name != name {
			continue
		}
		results = append(results, copyEnvironment(e))
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results, nil
}

// GetEnvironment returns the environment with the given id.
func (s *MemoryStorage) GetEnvironment(ctx context.Context, id int64) (*commons.Environment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.environments[id]
	if !ok {
		return nil, store.NewNotFoundError("environment", id)
	}
	e = copyEnvironment(e)
	return &e, nil
}

// CreateEnvironment stores env and assigns its id.
func (s *MemoryStorage) CreateEnvironment(ctx context.Context, env *commons.Environment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.environments {
		if existing.Name == env.Name {
			return &store.ConflictError{Kind: "environment", Message: "name already exists"}
		}
	}
	if env.GenericEnvironment != nil {
		if _, ok := s.environments[*env.GenericEnvironment]; !ok {
			return store.NewNotFoundError("environment", *env.GenericEnvironment)
		}
	}

	env.ID = s.id()
	s.environments[env.ID] = copyEnvironment(*env)
	return nil
}

// DeleteEnvironment removes an environment. Environments inheriting from it
// lose their generic environment.
func (s *MemoryStorage) DeleteEnvironment(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.environments, id)
	for eid, e := range s.environments {
		if e.GenericEnvironment != nil && *e.GenericEnvironment == id {
			e.GenericEnvironment = nil
			s.environments[eid] = e
		}
	}
	return nil
}

// ListTestCases returns test cases ordered by id.
func (s *MemoryStorage) ListTestCases(ctx context.Context, filter commons.TestCaseFilter) ([]commons.TestCase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]commons.TestCase, 0, len(s.testCases))
	for _, tc := range s.testCases {
		if filter.Application != 0 && tc.Application != filter.Application {
			continue
		}
		if filter.Name != "" && tc.Name != filter.Name {
			continue
		}
		results = append(results, tc)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results, nil
}

// GetTestCase returns the test case with the given id.
func (s *MemoryStorage) GetTestCase(ctx context.Context, id int64) (*commons.TestCase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tc, ok := s.testCases[id]
	if !ok {
		return nil, store.NewNotFoundError("test case", id)
	}
	return &tc, nil
}

// CreateTestCase stores tc and assigns its id.
func (s *MemoryStorage) CreateTestCase(ctx context.Context, tc *commons.TestCase) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.applications[tc.Application]; !ok {
		return store.NewNotFoundError("application", tc.Application)
	}
	for _, existing := range s.testCases {
		if existing.Application == tc.Application && existing.Name == tc.Name {
			return &store.ConflictError{Kind: "test case", Message: "name already exists for this application"}
		}
	}

	tc.ID = s.id()
	s.testCases[tc.ID] = *tc
	return nil
}

// DeleteTestCase removes a test case.
func (s *MemoryStorage) DeleteTestCase(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.testCases, id)
	return nil
}

var _ commons.Store = (*MemoryStorage)(nil)
