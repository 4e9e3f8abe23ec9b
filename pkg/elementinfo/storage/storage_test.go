package storage

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"seleniumrobot/infoserver/pkg/config"
	"seleniumrobot/infoserver/pkg/elementinfo"
	"seleniumrobot/infoserver/pkg/store"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func int64p(n int64) *int64 { return &n }

// backends returns one store per implementation, all sharing clock. The SQL
// databases hold applications 1 and 2 and version 1.
func backends(t *testing.T, clock *fakeClock) map[string]elementinfo.Store {
	t.Helper()

	result := map[string]elementinfo.Store{"memory": NewMemoryStorage(WithClock(clock.Now))}
	for _, driver := range []string{store.BackendSQLite3, store.BackendSQLite} {
		cfg := config.NewDefaultConfig().Storage
		cfg.Driver = driver
		cfg.Path = filepath.Join(t.TempDir(), driver+".db")

		ctx := context.Background()
		db, err := store.Open(ctx, cfg)
		if err != nil {
			t.Fatalf("failed to open %s: %v", driver, err)
		}
		t.Cleanup(func() { db.Close() })

		for _, stmt := range []string{
			`INSERT INTO applications (id, name) VALUES (1, 'app1')`,
			`INSERT INTO applications (id, name) VALUES (2, 'app2')`,
			`INSERT INTO versions (id, application_id, name) VALUES (1, 1, '1.0')`,
		} {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				t.Fatalf("seed %s: %v", driver, err)
			}
		}
		result[driver] = NewSQLStorage(db, WithClock(clock.Now))
	}
	return result
}

func newElement(app int64, name string) *elementinfo.Element {
	e := &elementinfo.Element{
		Application: int64p(app),
		UUID:        name + "-uuid",
		Name:        name,
		Locator:     "By.id: " + name,
		TagName:     "button",
		Width:       10,
		Height:      20,
		TotalSearch: 3,
	}
	e.Normalize()
	return e
}

func TestStore_CreateGetUpdate(t *testing.T) {
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: start}

	for name, s := range backends(t, clock) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			clock.Set(start)

			e := newElement(1, "login")
			e.Version = int64p(1)
			image := "iVBORw0KGgo="
			e.B64Image = &image
			e.LastUpdate = time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)

			if err := s.Create(ctx, e); err != nil {
				t.Fatalf("Create() error = %v", err)
			}
			if e.ID == 0 {
				t.Fatal("expected generated id")
			}
			if !e.LastUpdate.Equal(start) {
				t.Errorf("expected LastUpdate stamped %v, got %v", start, e.LastUpdate)
			}

			got, err := s.Get(ctx, e.ID)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if got.Name != "login" || got.Width != 10 || got.TotalSearch != 3 {
				t.Errorf("unexpected element %+v", got)
			}
			if got.B64Image == nil || *got.B64Image != image {
				t.Errorf("expected image to round-trip, got %v", got.B64Image)
			}
			if got.Version == nil || *got.Version != 1 {
				t.Errorf("expected version 1, got %v", got.Version)
			}
			if !got.LastUpdate.Equal(start) {
				t.Errorf("stored LastUpdate = %v, want %v", got.LastUpdate, start)
			}

			later := start.Add(48 * time.Hour)
			clock.Set(later)
			got.Text = "Log in"
			got.TextStability = 2
			if err := s.Update(ctx, got); err != nil {
				t.Fatalf("Update() error = %v", err)
			}

			updated, _ := s.Get(ctx, e.ID)
			if updated.Text != "Log in" || updated.TextStability != 2 {
				t.Errorf("update not persisted: %+v", updated)
			}
			if !updated.LastUpdate.Equal(later) {
				t.Errorf("expected LastUpdate bumped to %v, got %v", later, updated.LastUpdate)
			}
		})
	}
}

func TestStore_ListFilters(t *testing.T) {
	clock := &fakeClock{now: time.Now()}

	for name, s := range backends(t, clock) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			a := newElement(1, "a")
			b := newElement(1, "b")
			c := newElement(2, "c")
			for _, e := range []*elementinfo.Element{a, b, c} {
				if err := s.Create(ctx, e); err != nil {
					t.Fatalf("Create() error = %v", err)
				}
			}

			all, err := s.List(ctx, elementinfo.Query{})
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(all) != 3 {
				t.Errorf("expected 3 elements without filter, got %d", len(all))
			}

			app1, _ := s.List(ctx, elementinfo.Query{Application: int64p(1)})
			if len(app1) != 2 || app1[0].ID != a.ID || app1[1].ID != b.ID {
				t.Errorf("expected a and b for application 1, got %+v", app1)
			}

			byID, _ := s.List(ctx, elementinfo.Query{Application: int64p(1), IDs: []int64{a.ID, c.ID}})
			if len(byID) != 1 || byID[0].ID != a.ID {
				t.Errorf("expected only a, got %+v", byID)
			}
		})
	}
}

func TestStore_DeleteIsIdempotent(t *testing.T) {
	clock := &fakeClock{now: time.Now()}

	for name, s := range backends(t, clock) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			e := newElement(1, "gone")
			if err := s.Create(ctx, e); err != nil {
				t.Fatalf("Create() error = %v", err)
			}

			if err := s.Delete(ctx, e.ID); err != nil {
				t.Fatalf("Delete() error = %v", err)
			}
			if err := s.Delete(ctx, e.ID); err != nil {
				t.Errorf("second Delete() should be a no-op, got %v", err)
			}

			if _, err := s.Get(ctx, e.ID); !errors.Is(err, store.ErrNotFound) {
				t.Errorf("expected not found after delete, got %v", err)
			}
			if err := s.Update(ctx, e); !errors.Is(err, store.ErrNotFound) {
				t.Errorf("expected not found updating deleted element, got %v", err)
			}

			n, err := s.Count(ctx)
			if err != nil || n != 0 {
				t.Errorf("Count() = %d, %v; want 0", n, err)
			}
		})
	}
}
