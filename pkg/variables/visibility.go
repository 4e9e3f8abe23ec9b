package variables

import (
	"context"
	"errors"

	"seleniumrobot/infoserver/pkg/commons"
	"seleniumrobot/infoserver/pkg/security/auth"
	"seleniumrobot/infoserver/pkg/store"
)

// Visibility applies application-restricted mode: a principal without the
// global variable.view capability only sees variables of applications it
// holds application.view.<name> for. Variables without an application are
// hidden from such principals.
type Visibility struct {
	restricted func() bool
	check      CapabilityChecker
	apps       commons.Store
}

// NewVisibility creates the filter. restricted is read on every call.
func NewVisibility(restricted func() bool, check CapabilityChecker, apps commons.Store) *Visibility {
	if restricted == nil {
		restricted = func() bool { return false }
	}
	if check == nil {
		check = auth.HasCapability
	}
	return &Visibility{restricted: restricted, check: check, apps: apps}
}

// Bypassed reports whether p sees every variable.
func (f *Visibility) Bypassed(p *auth.Principal) bool {
	return !f.restricted() || f.check(p, auth.ViewVariable)
}

// Filter returns the variables p may see.
func (f *Visibility) Filter(ctx context.Context, p *auth.Principal, vars []Variable) ([]Variable, error) {
	if f.Bypassed(p) {
		return vars, nil
	}

	names := make(map[int64]string)
	out := make([]Variable, 0, len(vars))
	for _, v := range vars {
		if v.Application == nil {
			continue
		}
		name, ok := names[*v.Application]
		if !ok {
			app, err := f.apps.GetApplication(ctx, *v.Application)
			if errors.Is(err, store.ErrNotFound) {
				names[*v.Application] = ""
				continue
			}
			if err != nil {
				return nil, err
			}
			name = app.Name
			names[*v.Application] = name
		}
		if name != "" && f.check(p, auth.ApplicationView(name)) {
			out = append(out, v)
		}
	}
	return out, nil
}

// Visible reports whether p may see a single variable.
func (f *Visibility) Visible(ctx context.Context, p *auth.Principal, v Variable) (bool, error) {
	kept, err := f.Filter(ctx, p, []Variable{v})
	if err != nil {
		return false, err
	}
	return len(kept) == 1, nil
}
