package storage

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"seleniumrobot/infoserver/pkg/config"
	"seleniumrobot/infoserver/pkg/store"
	"seleniumrobot/infoserver/pkg/variables"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func int64p(n int64) *int64 { return &n }

// backends returns one store per implementation. The SQL databases hold
// application 1, version 1, environment 1 and test cases 1 and 2.
func backends(t *testing.T, c *clock) map[string]variables.Store {
	t.Helper()

	result := map[string]variables.Store{"memory": NewMemoryStorage(WithClock(c.Now))}
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
			`INSERT INTO versions (id, application_id, name) VALUES (1, 1, '1.0')`,
			`INSERT INTO environments (id, name) VALUES (1, 'DEV')`,
			`INSERT INTO test_cases (id, application_id, name) VALUES (1, 1, 'test1')`,
			`INSERT INTO test_cases (id, application_id, name) VALUES (2, 1, 'test2')`,
		} {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				t.Fatalf("seed %s: %v", driver, err)
			}
		}
		result[driver] = NewSQLStorage(db, WithClock(c.Now))
	}
	return result
}

func TestStorage_CRUD(t *testing.T) {
	c := &clock{now: epoch}
	for name, s := range backends(t, c) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			v := &variables.Variable{
				Name:        "login",
				Value:       "user",
				Application: int64p(1),
				Version:     int64p(1),
				Environment: int64p(1),
				Tests:       []int64{2, 1},
				Protected:   true,
				Description: "account",
				TimeToLive:  -1,
			}
			if err := s.Create(ctx, v); err != nil {
				t.Fatalf("Create() error: %v", err)
			}
			if v.ID == 0 {
				t.Fatal("Create() did not assign an id")
			}
			if !v.CreationDate.Equal(epoch) {
				t.Errorf("CreationDate = %v, want %v", v.CreationDate, epoch)
			}

			got, err := s.Get(ctx, v.ID)
			if err != nil {
				t.Fatalf("Get() error: %v", err)
			}
			sort.Slice(got.Tests, func(i, j int) bool { return got.Tests[i] < got.Tests[j] })
			if len(got.Tests) != 2 || got.Tests[0] != 1 || got.Tests[1] != 2 {
				t.Errorf("Tests = %v, want [1 2]", got.Tests)
			}
			if !got.Protected || got.Value != "user" || *got.Environment != 1 {
				t.Errorf("Get() = %+v", got)
			}

			c.now = epoch.Add(time.Hour)
			release := epoch.Add(2 * time.Hour)
			got.Value = "other"
			got.Tests = []int64{1}
			got.ReleaseDate = &release
			if err := s.Update(ctx, got); err != nil {
				t.Fatalf("Update() error: %v", err)
			}
			if !got.CreationDate.Equal(epoch) {
				t.Errorf("Update() changed CreationDate to %v", got.CreationDate)
			}

			all, err := s.List(ctx)
			if err != nil {
				t.Fatalf("List() error: %v", err)
			}
			if len(all) != 1 {
				t.Fatalf("List() returned %d variables, want 1", len(all))
			}
			if all[0].Value != "other" || len(all[0].Tests) != 1 || !all[0].ReleaseDate.Equal(release) {
				t.Errorf("List()[0] = %+v", all[0])
			}

			if err := s.Delete(ctx, v.ID); err != nil {
				t.Fatalf("Delete() error: %v", err)
			}
			if err := s.Delete(ctx, v.ID); err != nil {
				t.Errorf("second Delete() error: %v", err)
			}
			if _, err := s.Get(ctx, v.ID); !errors.Is(err, store.ErrNotFound) {
				t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
			}
			missing := &variables.Variable{ID: 999, Name: "x"}
			if err := s.Update(ctx, missing); !errors.Is(err, store.ErrNotFound) {
				t.Errorf("Update() of missing error = %v, want ErrNotFound", err)
			}
			c.now = epoch
		})
	}
}

func TestStorage_ReleaseAndDeleteExpired(t *testing.T) {
	c := &clock{now: epoch}
	for name, s := range backends(t, c) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			c.now = epoch.Add(-10 * 24 * time.Hour)
			old := &variables.Variable{Name: "old", TimeToLive: 5}
			keep := &variables.Variable{Name: "keep", TimeToLive: 30}
			forever := &variables.Variable{Name: "forever", TimeToLive: 0}
			for _, v := range []*variables.Variable{old, keep, forever} {
				if err := s.Create(ctx, v); err != nil {
					t.Fatalf("Create() error: %v", err)
				}
			}
			c.now = epoch

			past := epoch.Add(-time.Minute)
			future := epoch.Add(time.Minute)
			keep.ReleaseDate = &past
			forever.ReleaseDate = &future
			for _, v := range []*variables.Variable{keep, forever} {
				if err := s.Update(ctx, v); err != nil {
					t.Fatalf("Update() error: %v", err)
				}
			}

			released, err := s.ReleaseExpired(ctx, epoch)
			if err != nil {
				t.Fatalf("ReleaseExpired() error: %v", err)
			}
			if released != 1 {
				t.Errorf("ReleaseExpired() = %d, want 1", released)
			}

			deleted, err := s.DeleteExpired(ctx, epoch)
			if err != nil {
				t.Fatalf("DeleteExpired() error: %v", err)
			}
			if deleted != 1 {
				t.Errorf("DeleteExpired() = %d, want 1", deleted)
			}

			all, err := s.List(ctx)
			if err != nil {
				t.Fatalf("List() error: %v", err)
			}
			if len(all) != 2 {
				t.Fatalf("List() returned %d variables, want 2", len(all))
			}
			for _, v := range all {
				switch v.Name {
				case "keep":
					if v.ReleaseDate != nil {
						t.Error("past reservation not released")
					}
				case "forever":
					if v.ReleaseDate == nil {
						t.Error("future reservation released")
					}
				default:
					t.Errorf("unexpected variable %q", v.Name)
				}
			}
		})
	}
}

func TestStorage_Reserve(t *testing.T) {
	c := &clock{now: epoch}
	for name, s := range backends(t, c) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			a := &variables.Variable{Name: "a", Reservable: true}
			b := &variables.Variable{Name: "b", Reservable: true}
			for _, v := range []*variables.Variable{a, b} {
				if err := s.Create(ctx, v); err != nil {
					t.Fatalf("Create() error: %v", err)
				}
			}

			until := epoch.Add(15 * time.Minute)
			conflicts, err := s.Reserve(ctx, []int64{a.ID}, until)
			if err != nil || len(conflicts) != 0 {
				t.Fatalf("Reserve(a) = %v, %v", conflicts, err)
			}

			conflicts, err = s.Reserve(ctx, []int64{b.ID, a.ID}, until)
			if err != nil {
				t.Fatalf("Reserve(b, a) error: %v", err)
			}
			if len(conflicts) != 1 || conflicts[0] != a.ID {
				t.Fatalf("Reserve(b, a) conflicts = %v, want [%d]", conflicts, a.ID)
			}

			got, err := s.Get(ctx, b.ID)
			if err != nil {
				t.Fatalf("Get() error: %v", err)
			}
			if got.ReleaseDate != nil {
				t.Error("partial reservation was written")
			}
		})
	}
}
