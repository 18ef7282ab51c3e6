package tensor

import "math"

// Default tolerances for AllClose, matching the usual allclose convention.
const (
	DefaultRtol = 1e-5
	DefaultAtol = 1e-8
)

// AllClose reports whether two tensors are element-wise equal within a
// tolerance: |a - b| <= atol + rtol*|b|. Tensors of different shapes or
// dtypes are never close.
func AllClose(a, b *Tensor, rtol, atol float64) bool {
	if a.dtype != b.dtype || !a.shape.Equal(b.shape) {
		return false
	}
	switch a.dtype {
	case Float32:
		av, bv := a.AsFloat32(), b.AsFloat32()
		for i := range av {
			if !closeEnough(float64(av[i]), float64(bv[i]), rtol, atol) {
				return false
			}
		}
	case Float64:
		av, bv := a.AsFloat64(), b.AsFloat64()
		for i := range av {
			if !closeEnough(av[i], bv[i], rtol, atol) {
				return false
			}
		}
	default:
		// Non-float tensors compare exactly.
		av, bv := a.data, b.data
		for i := range av {
			if av[i] != bv[i] {
				return false
			}
		}
	}
	return true
}

func closeEnough(a, b, rtol, atol float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return false
	}
	return math.Abs(a-b) <= atol+rtol*math.Abs(b)
}
