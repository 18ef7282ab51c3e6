package tensor

import "fmt"

// FromFloat32 creates a Float32 tensor from a Go slice.
// The slice is copied into the tensor's memory.
func FromFloat32(data []float32, shape Shape) (*Tensor, error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}
	t, err := New(shape, Float32, CPU)
	if err != nil {
		return nil, err
	}
	copy(t.AsFloat32(), data)
	return t, nil
}

// FromFloat64 creates a Float64 tensor from a Go slice.
// The slice is copied into the tensor's memory.
func FromFloat64(data []float64, shape Shape) (*Tensor, error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}
	t, err := New(shape, Float64, CPU)
	if err != nil {
		return nil, err
	}
	copy(t.AsFloat64(), data)
	return t, nil
}

// Zeros creates a tensor filled with zeros.
func Zeros(shape Shape, dtype DataType) *Tensor {
	t, err := New(shape, dtype, CPU)
	if err != nil {
		panic(fmt.Sprintf("zeros: %v", err))
	}
	return t
}

// Ones creates a tensor filled with ones.
func Ones(shape Shape, dtype DataType) *Tensor {
	return Full(shape, 1.0, dtype)
}

// Full creates a tensor filled with a specific value.
func Full(shape Shape, value float64, dtype DataType) *Tensor {
	t, err := New(shape, dtype, CPU)
	if err != nil {
		panic(fmt.Sprintf("full: %v", err))
	}
	switch dtype {
	case Float32:
		data := t.AsFloat32()
		for i := range data {
			data[i] = float32(value)
		}
	case Float64:
		data := t.AsFloat64()
		for i := range data {
			data[i] = value
		}
	default:
		panic(fmt.Sprintf("full: unsupported dtype %s", dtype))
	}
	return t
}
