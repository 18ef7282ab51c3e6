package edit_test

import (
	"fmt"
	"testing"

	"github.com/editgrad/editgrad/autodiff"
	"github.com/editgrad/editgrad/backend/cpu"
	"github.com/editgrad/editgrad/edit"
	"github.com/editgrad/editgrad/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scaler computes Forward(x) = g*x with a single declared gain tensor.
type scaler struct {
	backend tensor.Backend
	gain    *tensor.Tensor
}

func (s *scaler) Forward(x *tensor.Tensor) *tensor.Tensor {
	return s.backend.Mul(s.gain, x)
}

func (s *scaler) GetParams(method string) []*tensor.Tensor {
	if method == "Forward" {
		return []*tensor.Tensor{s.gain}
	}
	return nil
}

func (s *scaler) SetParams(method string, params ...*tensor.Tensor) (int, error) {
	if method != "Forward" {
		return 0, nil
	}
	if len(params) < 1 {
		return 0, fmt.Errorf("scaler: Forward needs 1 parameter, got %d", len(params))
	}
	s.gain = params[0]
	return 1, nil
}

func (s *scaler) Slots() []edit.Slot {
	return []edit.Slot{
		{Key: "gain", Get: func() any { return s.gain }, Set: func(v any) { s.gain = v.(*tensor.Tensor) }},
	}
}

func TestPublicAPI_EndToEnd(t *testing.T) {
	backend := autodiff.New(cpu.New())
	gain, err := tensor.FromFloat32([]float32{2, 4}, tensor.Shape{2})
	require.NoError(t, err)
	s := &scaler{backend: backend, gain: gain}

	tensors, names, err := edit.Collect(s)
	require.NoError(t, err)
	require.Len(t, tensors, 1)
	assert.Equal(t, []string{"self.gain"}, names)

	ed := edit.NewEditor(s, edit.WithProber(autodiff.Prober(backend)))

	x, err := tensor.FromFloat32([]float32{10, 10}, tensor.Shape{2})
	require.NoError(t, err)
	require.NoError(t, ed.Verify("Forward", x))

	// Substitute a candidate gain, observe the changed output, and confirm
	// restoration afterwards.
	candidate, err := tensor.FromFloat32([]float32{3, 3}, tensor.Shape{2})
	require.NoError(t, err)

	var out *tensor.Tensor
	err = ed.WithParams("Forward", []*tensor.Tensor{candidate}, func() error {
		out = s.Forward(x)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []float32{30, 30}, out.AsFloat32())
	assert.Same(t, gain, s.gain, "original gain must be restored")
}
