package auth

import "strings"

// Capability names a permission a principal may hold, written as
// "<area>.<action>" (e.g. "variable.view") or "application.view.<name>".
type Capability string

// Capabilities checked by the API.
const (
	SeeProtected Capability = "variable.see_protected"
	ViewVariable Capability = "variable.view"
)

// ApplicationView is the capability required to see variables of the named
// application when application-restricted mode is on.
func ApplicationView(name string) Capability {
	return Capability("application.view." + name)
}

// AreaCapability builds the capability for an action on an API area, for
// example AreaCapability("elementinfo", "delete").
func AreaCapability(area, action string) Capability {
	return Capability(area + "." + action)
}

// Principal is an authenticated caller.
type Principal struct {
	Name         string
	Superuser    bool
	Capabilities map[Capability]bool
}

// NewPrincipal builds a principal from a list of capability strings.
// Blank entries are ignored.
func NewPrincipal(name string, superuser bool, capabilities []string) *Principal {
	caps := make(map[Capability]bool, len(capabilities))
	for _, c := range capabilities {
		c = strings.TrimSpace(c)
		if c != "" {
			caps[Capability(c)] = true
		}
	}
	return &Principal{
		Name:         name,
		Superuser:    superuser,
		Capabilities: caps,
	}
}

// Has reports whether the principal holds the capability. A nil principal
// holds nothing; a superuser holds everything.
func (p *Principal) Has(c Capability) bool {
	if p == nil {
		return false
	}
	if p.Superuser {
		return true
	}
	return p.Capabilities[c]
}

// HasCapability is the default capability check.
func HasCapability(p *Principal, c Capability) bool {
	return p.Has(c)
}

// Authenticator resolves a credential to a principal.
type Authenticator interface {
	Authenticate(credential string) (*Principal, error)
}
