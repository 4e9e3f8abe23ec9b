// Package variables resolves, reserves and redacts test variables.
//
// A Variable applies to a scope made of an optional application, version,
// environment and set of test cases. Resolver.Resolve merges scope tiers
// from global to application+version+environment+test so that the most
// specific variable of each name wins, picks one variable at random when
// several remain for a name, and reserves the reservable ones. Environments
// inherit from their generic environment.
//
// The Redactor replaces protected values by Mask on outbound copies for
// callers lacking the variable.see_protected capability. It never touches
// stored records.
package variables
