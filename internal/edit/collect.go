package edit

import (
	"fmt"

	"github.com/editgrad/editgrad/internal/tensor"
)

// Collect gathers every floating-point tensor reachable from root, in
// deterministic traversal order, together with a synthetic path name per
// tensor (e.g. "self.layers[0].weight"). Names are diagnostic only.
//
// Aliased tensors (the same *tensor.Tensor reachable through several slots)
// are reported once, at their first encounter. The object graph is not
// modified.
func Collect(root any) ([]*tensor.Tensor, []string, error) {
	return collectDepth(root, DefaultMaxDepth)
}

// Install walks root with the same traversal as Collect and replaces each
// matched tensor slot with the next tensor from params, front first, mutating
// the object graph in place.
//
// Supplying fewer tensors than the traversal finds slots for fails with
// ErrUnderflow. Supplying more is not an error: the excess is never consumed.
func Install(root any, params []*tensor.Tensor) error {
	return installDepth(root, params, DefaultMaxDepth)
}

func collectDepth(root any, maxDepth int) ([]*tensor.Tensor, []string, error) {
	var (
		tensors []*tensor.Tensor
		names   []string
	)
	visit := func(v any, name string, set func(any)) error {
		tensors = append(tensors, v.(*tensor.Tensor))
		names = append(names, name)
		return nil
	}
	if err := walk(root, "self", isFloatTensor, visit, maxDepth, make(map[ident]struct{})); err != nil {
		return nil, nil, err
	}
	return tensors, names, nil
}

func installDepth(root any, params []*tensor.Tensor, maxDepth int) error {
	next := 0
	visit := func(v any, name string, set func(any)) error {
		if next >= len(params) {
			return fmt.Errorf("%w: all %d tensors consumed before reaching %s", ErrUnderflow, len(params), name)
		}
		set(params[next])
		next++
		return nil
	}
	return walk(root, "self", isFloatTensor, visit, maxDepth, make(map[ident]struct{}))
}
