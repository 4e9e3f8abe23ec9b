package variables

import "seleniumrobot/infoserver/pkg/security/auth"

// CapabilityChecker decides whether a principal holds a capability.
type CapabilityChecker func(p *auth.Principal, c auth.Capability) bool

// MaskObserver is notified of how many values a call masked.
type MaskObserver interface {
	ObserveMasked(count int)
}

// RedactorOption configures a Redactor.
type RedactorOption func(*Redactor)

// WithMaskObserver reports masked values, typically to metrics.
func WithMaskObserver(o MaskObserver) RedactorOption {
	return func(r *Redactor) {
		r.observer = o
	}
}

// Redactor masks protected values in outbound copies of variables.
type Redactor struct {
	enabled  func() bool
	check    CapabilityChecker
	observer MaskObserver
}

// NewRedactor creates a redactor. enabled reports the current security
// setting and is read on every call; nil means always enabled. A nil check
// uses auth.HasCapability.
func NewRedactor(enabled func() bool, check CapabilityChecker, opts ...RedactorOption) *Redactor {
	if enabled == nil {
		enabled = func() bool { return true }
	}
	if check == nil {
		check = auth.HasCapability
	}
	r := &Redactor{enabled: enabled, check: check}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Apply returns copies of vars in which protected values are replaced by
// Mask unless security is disabled or p may see protected values. The input
// slice and its elements are left untouched.
func (r *Redactor) Apply(p *auth.Principal, vars []Variable) []Variable {
	out := make([]Variable, len(vars))
	if !r.enabled() || r.check(p, auth.SeeProtected) {
		for i, v := range vars {
			out[i] = v.Clone()
		}
		return out
	}

	masked := 0
	for i, v := range vars {
		out[i] = v.Clone()
		if v.Protected {
			out[i].Value = Mask
			masked++
		}
	}
	if r.observer != nil && masked > 0 {
		r.observer.ObserveMasked(masked)
	}
	return out
}

// ApplyOne redacts a single variable.
func (r *Redactor) ApplyOne(p *auth.Principal, v Variable) Variable {
	return r.Apply(p, []Variable{v})[0]
}
