package edit

import "github.com/editgrad/editgrad/internal/tensor"

// Module is the contract every participating object must implement.
//
// A named operation is the string name of one of the object's exported
// methods. For each such operation the object reports the ordered list of
// tensors the operation depends on, and accepts an ordered list of
// replacements for them.
type Module interface {
	// GetParams returns exactly the tensors the named operation depends on,
	// no more, no less, in a stable order across calls. The list may contain
	// the same tensor (by identity) at multiple positions.
	GetParams(method string) []*tensor.Tensor

	// SetParams writes each of the leading params into the corresponding
	// internal slot for the named operation and returns how many it
	// consumed. The count must equal len(GetParams(method)), and a
	// subsequent GetParams must return the installed tensors at the same
	// positions (identity-stable round trip). params may be longer than
	// needed; the excess is ignored.
	SetParams(method string, params ...*tensor.Tensor) (int, error)
}
