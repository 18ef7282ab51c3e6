package autodiff

import (
	"fmt"

	"github.com/editgrad/editgrad/internal/tensor"
)

// Prober adapts an AutodiffBackend into a gradient-probing capability: it
// runs a closure with the tape recording, reduces the closure's output to a
// scalar with Sum, and differentiates that scalar with respect to each leaf.
//
// Leaves the output does not depend on get a nil gradient rather than an
// error, which is exactly the contract the edit verifier needs to tell
// "unused" apart from "used".
//
// The tape is cleared before probing; any previously recorded operations are
// discarded.
func Prober[B tensor.Backend](b *AutodiffBackend[B]) func(leaves []*tensor.Tensor, run func() (*tensor.Tensor, error)) ([]*tensor.Tensor, error) {
	return func(leaves []*tensor.Tensor, run func() (*tensor.Tensor, error)) ([]*tensor.Tensor, error) {
		tape := b.Tape()
		tape.Clear()
		tape.StartRecording()
		defer tape.StopRecording()

		out, err := run()
		if err != nil {
			return nil, fmt.Errorf("autodiff: probe run failed: %w", err)
		}
		if out == nil {
			return nil, fmt.Errorf("autodiff: probe run produced no output tensor")
		}
		if !out.DType().IsFloat() {
			return nil, fmt.Errorf("autodiff: probe output has non-float dtype %s", out.DType())
		}

		scalar := b.Sum(out)
		tape.StopRecording()

		seed := tensor.Ones(tensor.Shape{}, scalar.DType())
		grads := tape.Backward(scalar, seed, b)

		result := make([]*tensor.Tensor, len(leaves))
		for i, leaf := range leaves {
			result[i] = grads[leaf] // nil when the output does not reach leaf
		}
		return result, nil
	}
}
