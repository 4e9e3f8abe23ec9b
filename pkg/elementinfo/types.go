package elementinfo

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Element is the fingerprint of one UI element observed by a test run.
// Stability counters are computed by the client and stored as sent.
type Element struct {
	ID          int64  `json:"id"`
	Application *int64 `json:"application"`
	Version     *int64 `json:"version"`

	UUID    string `json:"uuid"`
	Name    string `json:"name"`
	Locator string `json:"locator"`
	TagName string `json:"tagName"`
	Text    string `json:"text"`

	Width  int `json:"width"`
	Height int `json:"height"`
	CoordX int `json:"coordX"`
	CoordY int `json:"coordY"`

	// LastUpdate is set by the store on every create and update.
	LastUpdate time.Time `json:"lastUpdate"`

	B64Image   *string `json:"b64Image"`
	Attributes string  `json:"attributes"`

	TotalSearch         int    `json:"totalSearch"`
	TagStability        int    `json:"tagStability"`
	TextStability       int    `json:"textStability"`
	RectangleStability  int    `json:"rectangleStability"`
	B64ImageStability   int    `json:"b64ImageStability"`
	AttributesStability string `json:"attributesStability"`
}

// Field length limits.
const (
	MaxUUIDLength       = 200
	MaxNameLength       = 100
	MaxLocatorLength    = 200
	MaxTagNameLength    = 50
	MaxTextLength       = 500
	MaxAttributesLength = 1000
)

// Query selects elements. A nil Application does not filter by application;
// an empty IDs does not filter by id.
type Query struct {
	Application *int64
	IDs         []int64
}

// Matches reports whether e satisfies the query.
func (q Query) Matches(e *Element) bool {
	if q.Application != nil && (e.Application == nil || *e.Application != *q.Application) {
		return false
	}
	if len(q.IDs) == 0 {
		return true
	}
	for _, id := range q.IDs {
		if e.ID == id {
			return true
		}
	}
	return false
}

// Store persists elements.
//
// Create and Update stamp LastUpdate with the store clock. Delete of an id
// that does not exist returns nil so concurrent sweeps can race safely.
type Store interface {
	List(ctx context.Context, query Query) ([]Element, error)
	Get(ctx context.Context, id int64) (*Element, error)
	Create(ctx context.Context, e *Element) error
	Update(ctx context.Context, e *Element) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
}

// ValidationError reports an element rejected before reaching the store.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Normalize fills the JSON text defaults.
func (e *Element) Normalize() {
	if strings.TrimSpace(e.Attributes) == "" {
		e.Attributes = "{}"
	}
	if strings.TrimSpace(e.AttributesStability) == "" {
		e.AttributesStability = "{}"
	}
}

// Validate checks required fields, lengths and that both attribute maps hold JSON.
func (e *Element) Validate() error {
	required := []struct {
		field string
		value string
		max   int
	}{
		{"uuid", e.UUID, MaxUUIDLength},
		{"name", e.Name, MaxNameLength},
		{"locator", e.Locator, MaxLocatorLength},
		{"tagName", e.TagName, MaxTagNameLength},
	}
	for _, r := range required {
		if r.value == "" {
			return &ValidationError{Field: r.field, Message: "this field is required"}
		}
		if len(r.value) > r.max {
			return &ValidationError{Field: r.field, Message: fmt.Sprintf("ensure this field has no more than %d characters", r.max)}
		}
	}
	if len(e.Text) > MaxTextLength {
		return &ValidationError{Field: "text", Message: fmt.Sprintf("ensure this field has no more than %d characters", MaxTextLength)}
	}

	for field, value := range map[string]string{"attributes": e.Attributes, "attributesStability": e.AttributesStability} {
		if len(value) > MaxAttributesLength {
			return &ValidationError{Field: field, Message: fmt.Sprintf("ensure this field has no more than %d characters", MaxAttributesLength)}
		}
		if !json.Valid([]byte(value)) {
			return &ValidationError{Field: field, Message: "must be a JSON document"}
		}
	}
	return nil
}
