package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"seleniumrobot/infoserver/pkg/commons"
	"seleniumrobot/infoserver/pkg/config"
	"seleniumrobot/infoserver/pkg/store"
)

// backends returns one fresh store per implementation.
func backends(t *testing.T) map[string]commons.Store {
	t.Helper()

	result := map[string]commons.Store{"memory": NewMemoryStorage()}
	for _, driver := range []string{store.BackendSQLite3, store.BackendSQLite} {
		cfg := config.NewDefaultConfig().Storage
		cfg.Driver = driver
		cfg.Path = filepath.Join(t.TempDir(), driver+".db")

		db, err := store.Open(context.Background(), cfg)
		if err != nil {
			t.Fatalf("failed to open %s: %v", driver, err)
		}
		t.Cleanup(func() { db.Close() })
		result[driver] = NewSQLStorage(db)
	}
	return result
}

func TestStore_Applications(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			core := &commons.Application{Name: "core"}
			if err := s.CreateApplication(ctx, core); err != nil {
				t.Fatalf("CreateApplication() error = %v", err)
			}
			app := &commons.Application{Name: "myapp", LinkedApplications: []int64{core.ID}}
			if err := s.CreateApplication(ctx, app); err != nil {
				t.Fatalf("CreateApplication() error = %v", err)
			}
			if app.ID == 0 || app.ID == core.ID {
				t.Fatalf("expected distinct generated ids, got %d and %d", core.ID, app.ID)
			}

			got, err := s.GetApplication(ctx, app.ID)
			if err != nil {
				t.Fatalf("GetApplication() error = %v", err)
			}
			if got.Name != "myapp" || len(got.LinkedApplications) != 1 || got.LinkedApplications[0] != core.ID {
				t.Errorf("unexpected application %+v", got)
			}

			filtered, err := s.ListApplications(ctx, "core")
			if err != nil {
				t.Fatalf("ListApplications() error = %v", err)
			}
			if len(filtered) != 1 || filtered[0].ID != core.ID {
				t.Errorf("expected only core, got %+v", filtered)
			}

			all, _ := s.ListApplications(ctx, "")
			if len(all) != 2 {
				t.Errorf("expected 2 applications, got %d", len(all))
			}

			var conflict *store.ConflictError
			if err := s.CreateApplication(ctx, &commons.Application{Name: "core"}); !errors.As(err, &conflict) {
				t.Errorf("expected ConflictError for duplicate name, got %v", err)
			}
		})
	}
}

func TestStore_DeleteApplicationCascades(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			app := &commons.Application{Name: "myapp"}
			mustCreate(t, s.CreateApplication(ctx, app))
			v := &commons.Version{Application: app.ID, Name: "1.0"}
			mustCreate(t, s.CreateVersion(ctx, v))
			tc := &commons.TestCase{Application: app.ID, Name: "login"}
			mustCreate(t, s.CreateTestCase(ctx, tc))

			if err := s.DeleteApplication(ctx, app.ID); err != nil {
				t.Fatalf("DeleteApplication() error = %v", err)
			}

			if _, err := s.GetVersion(ctx, v.ID); !errors.Is(err, store.ErrNotFound) {
				t.Errorf("expected version to be deleted, got %v", err)
			}
			if _, err := s.GetTestCase(ctx, tc.ID); !errors.Is(err, store.ErrNotFound) {
				t.Errorf("expected test case to be deleted, got %v", err)
			}

			// Deleting again is a no-op.
			if err := s.DeleteApplication(ctx, app.ID); err != nil {
				t.Errorf("second DeleteApplication() error = %v", err)
			}
		})
	}
}

func TestStore_VersionsAndTestCases(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			app1 := &commons.Application{Name: "app1"}
			app2 := &commons.Application{Name: "app2"}
			mustCreate(t, s.CreateApplication(ctx, app1))
			mustCreate(t, s.CreateApplication(ctx, app2))

			mustCreate(t, s.CreateVersion(ctx, &commons.Version{Application: app1.ID, Name: "1.0"}))
			mustCreate(t, s.CreateVersion(ctx, &commons.Version{Application: app1.ID, Name: "2.0"}))
			mustCreate(t, s.CreateVersion(ctx, &commons.Version{Application: app2.ID, Name: "1.0"}))

			versions, err := s.ListVersions(ctx, commons.VersionFilter{Application: app1.ID})
			if err != nil {
				t.Fatalf("ListVersions() error = %v", err)
			}
			if len(versions) != 2 {
				t.Errorf("expected 2 versions for app1, got %d", len(versions))
			}

			versions, _ = s.ListVersions(ctx, commons.VersionFilter{Name: "1.0"})
			if len(versions) != 2 {
				t.Errorf("expected 2 versions named 1.0, got %d", len(versions))
			}

			if err := s.CreateVersion(ctx, &commons.Version{Application: 999, Name: "x"}); err == nil {
				t.Error("expected error creating a version of an unknown application")
			}

			mustCreate(t, s.CreateTestCase(ctx, &commons.TestCase{Application: app1.ID, Name: "login"}))
			tcs, err := s.ListTestCases(ctx, commons.TestCaseFilter{Name: "login"})
			if err != nil {
				t.Fatalf("ListTestCases() error = %v", err)
			}
			if len(tcs) != 1 || tcs[0].Application != app1.ID {
				t.Errorf("unexpected test cases %+v", tcs)
			}
		})
	}
}

func TestStore_Environments(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			dev := &commons.Environment{Name: "DEV"}
			mustCreate(t, s.CreateEnvironment(ctx, dev))
			dev1 := &commons.Environment{Name: "DEV1", GenericEnvironment: &dev.ID}
			mustCreate(t, s.CreateEnvironment(ctx, dev1))

			got, err := s.GetEnvironment(ctx, dev1.ID)
			if err != nil {
				t.Fatalf("GetEnvironment() error = %v", err)
			}
			if got.GenericEnvironment == nil || *got.GenericEnvironment != dev.ID {
				t.Errorf("expected generic environment %d, got %v", dev.ID, got.GenericEnvironment)
			}

			if err := s.DeleteEnvironment(ctx, dev.ID); err != nil {
				t.Fatalf("DeleteEnvironment() error = %v", err)
			}
			got, err = s.GetEnvironment(ctx, dev1.ID)
			if err != nil {
				t.Fatalf("GetEnvironment() after parent delete error = %v", err)
			}
			if got.GenericEnvironment != nil {
				t.Errorf("expected generic environment cleared, got %d", *got.GenericEnvironment)
			}

			if _, err := s.GetEnvironment(ctx, 12345); !errors.Is(err, store.ErrNotFound) {
				t.Errorf("expected not found, got %v", err)
			}
		})
	}
}

func mustCreate(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
}
