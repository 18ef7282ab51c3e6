package edit

import (
	"errors"
	"fmt"
)

// Sentinel errors for traversal and installation failures.
var (
	// ErrDepthExceeded indicates the traversal ran out of depth budget before
	// the object graph was exhausted. This usually means a cyclic structure
	// that evades the identity guard, or a pathologically deep graph.
	ErrDepthExceeded = errors.New("edit: maximum traversal depth exceeded")

	// ErrNotTraversable indicates the root object exposes neither child
	// slots nor element iteration, so it cannot be walked.
	ErrNotTraversable = errors.New("edit: object exposes neither slots nor elements")

	// ErrUnderflow indicates Install was supplied fewer tensors than the
	// traversal found slots for.
	ErrUnderflow = errors.New("edit: not enough tensors supplied")

	// ErrNoProber indicates Verify was called on an Editor without a
	// configured gradient prober.
	ErrNoProber = errors.New("edit: no gradient prober configured")
)

// ContractError reports a violation of the Module parameter contract:
// get/set count mismatches, identity mismatches after a round trip, excess
// or foreign declared parameters, or non-floating-point declarations.
type ContractError struct {
	Class  string // concrete type name of the offending module
	Method string // named operation under inspection
	Msg    string // human-readable description
}

// Error implements the error interface.
func (e *ContractError) Error() string {
	if e.Class == "" && e.Method == "" {
		return "edit: " + e.Msg
	}
	return fmt.Sprintf("edit: %s.%s: %s", e.Class, e.Method, e.Msg)
}
