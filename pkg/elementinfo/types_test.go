package elementinfo

import (
	"strings"
	"testing"
)

func int64p(n int64) *int64 { return &n }

func validElement() Element {
	e := Element{UUID: "u-1", Name: "login button", Locator: "By.id: login", TagName: "button"}
	e.Normalize()
	return e
}

func TestQuery_Matches(t *testing.T) {
	app1 := Element{ID: 1, Application: int64p(1)}
	app2 := Element{ID: 2, Application: int64p(2)}
	noApp := Element{ID: 3}

	tests := []struct {
		name  string
		query Query
		el    Element
		want  bool
	}{
		{"empty query matches everything", Query{}, noApp, true},
		{"application match", Query{Application: int64p(1)}, app1, true},
		{"application mismatch", Query{Application: int64p(1)}, app2, false},
		{"application filter skips elements without application", Query{Application: int64p(1)}, noApp, false},
		{"id and application match", Query{Application: int64p(1), IDs: []int64{1}}, app1, true},
		{"id matches but application does not", Query{Application: int64p(1), IDs: []int64{2}}, app2, false},
		{"application matches but id does not", Query{Application: int64p(1), IDs: []int64{5}}, app1, false},
		{"ids without application", Query{IDs: []int64{2, 3}}, app2, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.query.Matches(&tt.el); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestElement_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Element)
		field  string
	}{
		{"valid", func(e *Element) {}, ""},
		{"missing uuid", func(e *Element) { e.UUID = "" }, "uuid"},
		{"missing tag", func(e *Element) { e.TagName = "" }, "tagName"},
		{"long name", func(e *Element) { e.Name = strings.Repeat("n", MaxNameLength+1) }, "name"},
		{"long text", func(e *Element) { e.Text = strings.Repeat("t", MaxTextLength+1) }, "text"},
		{"attributes not json", func(e *Element) { e.Attributes = "{broken" }, "attributes"},
		{"stability not json", func(e *Element) { e.AttributesStability = "nope" }, "attributesStability"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := validElement()
			tt.mutate(&e)
			err := e.Validate()
			if tt.field == "" {
				if err != nil {
					t.Fatalf("expected valid element, got %v", err)
				}
				return
			}
			verr, ok := err.(*ValidationError)
			if !ok {
				t.Fatalf("expected ValidationError, got %T: %v", err, err)
			}
			if verr.Field != tt.field {
				t.Errorf("error field = %q, want %q", verr.Field, tt.field)
			}
		})
	}
}

func TestElement_Normalize(t *testing.T) {
	var e Element
	e.Normalize()
	if e.Attributes != "{}" || e.AttributesStability != "{}" {
		t.Errorf("expected JSON defaults, got %q and %q", e.Attributes, e.AttributesStability)
	}
}
