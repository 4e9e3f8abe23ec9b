package variables

import (
	"fmt"
	"strings"
)

// ReservedError reports variable names for which every candidate is
// reserved by another caller.
type ReservedError struct {
	Names []string
}

// Error implements the error interface.
func (e *ReservedError) Error() string {
	return fmt.Sprintf("all variables with name %s are already reserved", strings.Join(e.Names, ", "))
}
