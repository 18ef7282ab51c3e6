package autodiff

import (
	"github.com/editgrad/editgrad/internal/autodiff/ops"
	"github.com/editgrad/editgrad/internal/tensor"
)

// Tape records operations during the forward pass and computes gradients
// during the backward pass using reverse-mode automatic differentiation.
//
// Usage:
//
//	tape.StartRecording()
//	// ... perform operations ...
//	grads := tape.Backward(output, seed, backend)
type Tape struct {
	operations []ops.Operation // recorded operations, in execution order
	recording  bool
}

// NewTape creates a new gradient tape.
func NewTape() *Tape {
	return &Tape{
		operations: make([]ops.Operation, 0, 64),
	}
}

// StartRecording enables operation recording.
func (t *Tape) StartRecording() {
	t.recording = true
}

// StopRecording disables operation recording.
func (t *Tape) StopRecording() {
	t.recording = false
}

// IsRecording returns true if the tape is currently recording operations.
func (t *Tape) IsRecording() bool {
	return t.recording
}

// Record adds an operation to the tape.
// Only records if the tape is currently recording.
func (t *Tape) Record(op ops.Operation) {
	if t.recording {
		t.operations = append(t.operations, op)
	}
}

// Clear resets the tape, removing all recorded operations.
// Recording state is preserved.
func (t *Tape) Clear() {
	t.operations = t.operations[:0]
}

// NumOps returns the number of recorded operations.
func (t *Tape) NumOps() int {
	return len(t.operations)
}

// Backward computes gradients of output with respect to every tensor the
// recorded graph reaches, by walking the tape in reverse.
//
// seed is the gradient of output with respect to itself (typically ones).
// Tensors the output does not depend on are simply absent from the returned
// map; callers treat a missing entry as "no gradient flows".
func (t *Tape) Backward(output, seed *tensor.Tensor, backend tensor.Backend) map[*tensor.Tensor]*tensor.Tensor {
	grads := make(map[*tensor.Tensor]*tensor.Tensor)
	if len(t.operations) == 0 {
		return grads
	}

	// Stop recording during backward so gradient arithmetic is not taped.
	wasRecording := t.recording
	t.recording = false
	defer func() { t.recording = wasRecording }()

	grads[output] = seed

	for i := len(t.operations) - 1; i >= 0; i-- {
		op := t.operations[i]
		outGrad, ok := grads[op.Output()]
		if !ok {
			continue
		}
		inputGrads := op.Backward(outGrad, backend)
		inputs := op.Inputs()
		for j, input := range inputs {
			if j >= len(inputGrads) || inputGrads[j] == nil {
				continue
			}
			if existing, ok := grads[input]; ok {
				grads[input] = backend.Add(existing, inputGrads[j])
			} else {
				grads[input] = inputGrads[j]
			}
		}
	}

	return grads
}
