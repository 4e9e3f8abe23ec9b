package commons

import (
	"context"
	"fmt"
	"strings"
)

// Application is a product under test. Its name also names the
// application.view.<name> capability used by application-restricted mode.
type Application struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`

	// LinkedApplications lists applications whose variables are exposed,
	// prefixed with the application name, to this one.
	LinkedApplications []int64 `json:"linkedApplication"`
}

// Version is one release of an application.
type Version struct {
	ID          int64  `json:"id"`
	Application int64  `json:"application"`
	Name        string `json:"name"`
}

// Environment is a test environment. An environment inherits the variables
// of its generic environment, transitively.
type Environment struct {
	ID                 int64  `json:"id"`
	Name               string `json:"name"`
	GenericEnvironment *int64 `json:"genericEnvironment"`
}

// TestCase is a named test belonging to an application.
type TestCase struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Application int64  `json:"application"`
}

// VersionFilter selects versions. Zero fields do not filter.
type VersionFilter struct {
	Application int64
	Name        string
}

// TestCaseFilter selects test cases. Zero fields do not filter.
type TestCaseFilter struct {
	Application int64
	Name        string
}

// Store persists commons entities. Get methods return a store.NotFoundError
// for unknown ids; deletes of unknown ids return nil.
type Store interface {
	ListApplications(ctx context.Context, name string) ([]Application, error)
	GetApplication(ctx context.Context, id int64) (*Application, error)
	CreateApplication(ctx context.Context, app *Application) error
	DeleteApplication(ctx context.Context, id int64) error

	ListVersions(ctx context.Context, filter VersionFilter) ([]Version, error)
	GetVersion(ctx context.Context, id int64) (*Version, error)
	CreateVersion(ctx context.Context, v *Version) error
	DeleteVersion(ctx context.Context, id int64) error

	ListEnvironments(ctx context.Context, name string) ([]Environment, error)
	GetEnvironment(ctx context.Context, id int64) (*Environment, error)
	CreateEnvironment(ctx context.Context, env *Environment) error
	DeleteEnvironment(ctx context.Context, id int64) error

	ListTestCases(ctx context.Context, filter TestCaseFilter) ([]TestCase, error)
	GetTestCase(ctx context.Context, id int64) (*TestCase, error)
	CreateTestCase(ctx context.Context, tc *TestCase) error
	DeleteTestCase(ctx context.Context, id int64) error
}

// ValidationError reports an entity rejected before reaching the store.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the fields required to store an application.
func (a *Application) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return &ValidationError{Field: "name", Message: "this field is required"}
	}
	return nil
}

// Validate checks the fields required to store a version.
func (v *Version) Validate() error {
	if strings.TrimSpace(v.Name) == "" {
		return &ValidationError{Field: "name", Message: "this field is required"}
	}
	if v.Application == 0 {
		return &ValidationError{Field: "application", Message: "this field is required"}
	}
	return nil
}

// Validate checks the fields required to store an environment.
func (e *Environment) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return &ValidationError{Field: "name", Message: "this field is required"}
	}
	return nil
}

// Validate checks the fields required to store a test case.
func (tc *TestCase) Validate() error {
	if strings.TrimSpace(tc.Name) == "" {
		return &ValidationError{Field: "name", Message: "this field is required"}
	}
	if tc.Application == 0 {
		return &ValidationError{Field: "application", Message: "this field is required"}
	}
	return nil
}
