package commons

import (
	"context"
	"errors"
	"strconv"

	"seleniumrobot/infoserver/pkg/store"
)

// GetOrCreateApplication returns the existing application with the same name
// or stores app. created reports which happened; app is updated in place.
func GetOrCreateApplication(ctx context.Context, s Store, app *Application) (created bool, err error) {
	if err := app.Validate(); err != nil {
		return false, err
	}
	existing, err := s.ListApplications(ctx, app.Name)
	if err != nil {
		return false, err
	}
	if len(existing) > 0 {
		*app = existing[0]
		return false, nil
	}
	return true, s.CreateApplication(ctx, app)
}

// GetOrCreateVersion returns the existing version with the same application
// and name or stores v.
func GetOrCreateVersion(ctx context.Context, s Store, v *Version) (created bool, err error) {
	if err := v.Validate(); err != nil {
		return false, err
	}
	existing, err := s.ListVersions(ctx, VersionFilter{Application: v.Application, Name: v.Name})
	if err != nil {
		return false, err
	}
	if len(existing) > 0 {
		*v = existing[0]
		return false, nil
	}
	return true, s.CreateVersion(ctx, v)
}

// GetOrCreateEnvironment returns the existing environment with the same name
// or stores env.
func GetOrCreateEnvironment(ctx context.Context, s Store, env *Environment) (created bool, err error) {
	if err := env.Validate(); err != nil {
		return false, err
	}
	existing, err := s.ListEnvironments(ctx, env.Name)
	if err != nil {
		return false, err
	}
	if len(existing) > 0 {
		*env = existing[0]
		return false, nil
	}
	return true, s.CreateEnvironment(ctx, env)
}

// GetOrCreateTestCase returns the existing test case with the same
// application and name or stores tc.
func GetOrCreateTestCase(ctx context.Context, s Store, tc *TestCase) (created bool, err error) {
	if err := tc.Validate(); err != nil {
		return false, err
	}
	existing, err := s.ListTestCases(ctx, TestCaseFilter{Application: tc.Application, Name: tc.Name})
	if err != nil {
		return false, err
	}
	if len(existing) > 0 {
		*tc = existing[0]
		return false, nil
	}
	return true, s.CreateTestCase(ctx, tc)
}

// FindVersion resolves ref as a version id, or, when it is not numeric, as a
// version name within the application named appName.
func FindVersion(ctx context.Context, s Store, ref, appName string) (*Version, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return s.GetVersion(ctx, id)
	}
	if appName == "" {
		return nil, &ValidationError{
			Field:   "application",
			Message: "application parameter is mandatory when version is given as its name",
		}
	}
	apps, err := s.ListApplications(ctx, appName)
	if err != nil {
		return nil, err
	}
	if len(apps) == 0 {
		return nil, store.NotFoundByName("application", appName)
	}
	versions, err := s.ListVersions(ctx, VersionFilter{Application: apps[0].ID, Name: ref})
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, store.NotFoundByName("version", ref)
	}
	return &versions[0], nil
}

// FindEnvironment resolves ref as an environment id or name.
func FindEnvironment(ctx context.Context, s Store, ref string) (*Environment, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return s.GetEnvironment(ctx, id)
	}
	envs, err := s.ListEnvironments(ctx, ref)
	if err != nil {
		return nil, err
	}
	if len(envs) == 0 {
		return nil, store.NotFoundByName("environment", ref)
	}
	return &envs[0], nil
}

// FindTestCase resolves ref as a test case id or name.
func FindTestCase(ctx context.Context, s Store, ref string) (*TestCase, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return s.GetTestCase(ctx, id)
	}
	tcs, err := s.ListTestCases(ctx, TestCaseFilter{Name: ref})
	if err != nil {
		return nil, err
	}
	if len(tcs) == 0 {
		return nil, store.NotFoundByName("test case", ref)
	}
	return &tcs[0], nil
}

// EnvironmentTree returns env and its generic ancestors, most generic first
// and env last. A loop in the generic chain ends the walk.
func EnvironmentTree(ctx context.Context, s Store, env Environment) ([]Environment, error) {
	tree := []Environment{env}
	seen := map[int64]bool{env.ID: true}

	current := env
	for current.GenericEnvironment != nil && !seen[*current.GenericEnvironment] {
		parent, err := s.GetEnvironment(ctx, *current.GenericEnvironment)
		if errors.Is(err, store.ErrNotFound) {
			break
		}
		if err != nil {
			return nil, err
		}
		seen[parent.ID] = true
		tree = append(tree, *parent)
		current = *parent
	}

	for i, j := 0, len(tree)-1; i < j; i, j = i+1, j-1 {
		tree[i], tree[j] = tree[j], tree[i]
	}
	return tree, nil
}

// LinkedApplications returns the applications directly linked to app,
// skipping app itself and links to deleted applications.
func LinkedApplications(ctx context.Context, s Store, app Application) ([]Application, error) {
	linked := make([]Application, 0, len(app.LinkedApplications))
	for _, id := range app.LinkedApplications {
		if id == app.ID {
			continue
		}
		other, err := s.GetApplication(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		linked = append(linked, *other)
	}
	return linked, nil
}
