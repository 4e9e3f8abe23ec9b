package variables

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Mask replaces the value of a protected variable for callers that may not
// see it.
const Mask = "****"

// Field length limits.
const (
	MaxNameLength        = 100
	MaxValueLength       = 300
	MaxDescriptionLength = 500
)

// Variable is a named value scoped to any combination of application,
// version, environment and test cases. Unset scope fields make the variable
// apply more broadly.
type Variable struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Value       string  `json:"value"`
	Application *int64  `json:"application"`
	Version     *int64  `json:"version"`
	Environment *int64  `json:"environment"`
	Tests       []int64 `json:"test"`

	// ReleaseDate is set while the variable is reserved.
	ReleaseDate *time.Time `json:"releaseDate"`

	Internal    bool   `json:"internal"`
	Protected   bool   `json:"protected"`
	Description string `json:"description"`
	Reservable  bool   `json:"reservable"`

	// TimeToLive is the lifetime in days. Zero or negative lives forever.
	TimeToLive   int       `json:"timeToLive"`
	CreationDate time.Time `json:"creationDate"`
}

// Reserved reports whether the variable is currently reserved.
func (v *Variable) Reserved() bool {
	return v.ReleaseDate != nil
}

// Expired reports whether the time to live has elapsed at now.
func (v *Variable) Expired(now time.Time) bool {
	if v.TimeToLive <= 0 {
		return false
	}
	return v.CreationDate.Before(now.Add(-days(v.TimeToLive)))
}

// HasTest reports whether the variable is attached to the test case.
func (v *Variable) HasTest(id int64) bool {
	for _, t := range v.Tests {
		if t == id {
			return true
		}
	}
	return false
}

// Clone returns a deep copy.
func (v Variable) Clone() Variable {
	c := v
	c.Application = clonePtr(v.Application)
	c.Version = clonePtr(v.Version)
	c.Environment = clonePtr(v.Environment)
	if v.Tests != nil {
		c.Tests = append([]int64(nil), v.Tests...)
	}
	if v.ReleaseDate != nil {
		t := *v.ReleaseDate
		c.ReleaseDate = &t
	}
	return c
}

func clonePtr(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func days(n int) time.Duration {
	return time.Duration(n) * 24 * time.Hour
}

// ValidationError reports a variable rejected before reaching the store.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks required fields and lengths.
func (v *Variable) Validate() error {
	if strings.TrimSpace(v.Name) == "" {
		return &ValidationError{Field: "name", Message: "this field is required"}
	}
	if len(v.Name) > MaxNameLength {
		return &ValidationError{Field: "name", Message: fmt.Sprintf("ensure this field has no more than %d characters", MaxNameLength)}
	}
	if len(v.Value) > MaxValueLength {
		return &ValidationError{Field: "value", Message: fmt.Sprintf("ensure this field has no more than %d characters", MaxValueLength)}
	}
	if len(v.Description) > MaxDescriptionLength {
		return &ValidationError{Field: "description", Message: fmt.Sprintf("ensure this field has no more than %d characters", MaxDescriptionLength)}
	}
	return nil
}

// Store persists variables. Get returns a store.NotFoundError for unknown
// ids and Delete ignores them.
type Store interface {
	// List returns every variable ordered by id.
	List(ctx context.Context) ([]Variable, error)
	Get(ctx context.Context, id int64) (*Variable, error)

	// Create stores v, assigning its id and creation date.
	Create(ctx context.Context, v *Variable) error

	// Update overwrites every field of v except its creation date.
	Update(ctx context.Context, v *Variable) error
	Delete(ctx context.Context, id int64) error

	// ReleaseExpired clears reservations whose release date is not after now.
	ReleaseExpired(ctx context.Context, now time.Time) (int64, error)

	// DeleteExpired removes variables whose time to live elapsed at now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)

	// Reserve sets the release date of every id to until, all or nothing.
	// When some ids are already reserved nothing is written and their ids
	// are returned.
	Reserve(ctx context.Context, ids []int64, until time.Time) (conflicts []int64, err error)
}
