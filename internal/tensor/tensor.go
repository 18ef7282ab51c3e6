package tensor

import (
	"fmt"
	"unsafe"
)

// Tensor is an opaque floating-point (or integer) array value.
//
// Identity matters more than value here: two tensors with equal contents are
// still distinct parameters, and the whole edit layer keys its bookkeeping on
// *Tensor pointers. Cloning always produces a fresh identity.
type Tensor struct {
	data   []byte
	shape  Shape
	stride []int
	dtype  DataType
	device Device
}

// New creates a new Tensor with the given shape and type.
// Memory is allocated and zero-initialized.
func New(shape Shape, dtype DataType, device Device) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}

	return &Tensor{
		data:   make([]byte, shape.NumElements()*dtype.Size()),
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		dtype:  dtype,
		device: device,
	}, nil
}

// Shape returns the tensor's shape.
func (t *Tensor) Shape() Shape {
	return t.shape
}

// Strides returns the tensor's memory strides.
func (t *Tensor) Strides() []int {
	return t.stride
}

// DType returns the tensor's data type.
func (t *Tensor) DType() DataType {
	return t.dtype
}

// Device returns the tensor's compute device.
func (t *Tensor) Device() Device {
	return t.device
}

// NumElements returns the total number of elements.
func (t *Tensor) NumElements() int {
	return t.shape.NumElements()
}

// Data returns the raw byte slice.
// WARNING: direct access to underlying memory. Use with caution.
func (t *Tensor) Data() []byte {
	return t.data
}

// AsFloat32 interprets the data as []float32.
// Panics if the tensor's dtype is not Float32.
func (t *Tensor) AsFloat32() []float32 {
	if t.dtype != Float32 {
		panic(fmt.Sprintf("tensor dtype is %s, not float32", t.dtype))
	}
	n := t.NumElements()
	if n == 0 {
		return nil
	}
	//nolint:gosec // zero-copy view, length bounded by NumElements()
	return unsafe.Slice((*float32)(unsafe.Pointer(&t.data[0])), n)
}

// AsFloat64 interprets the data as []float64.
// Panics if the tensor's dtype is not Float64.
func (t *Tensor) AsFloat64() []float64 {
	if t.dtype != Float64 {
		panic(fmt.Sprintf("tensor dtype is %s, not float64", t.dtype))
	}
	n := t.NumElements()
	if n == 0 {
		return nil
	}
	//nolint:gosec // zero-copy view, length bounded by NumElements()
	return unsafe.Slice((*float64)(unsafe.Pointer(&t.data[0])), n)
}

// AsInt32 interprets the data as []int32.
// Panics if the tensor's dtype is not Int32.
func (t *Tensor) AsInt32() []int32 {
	if t.dtype != Int32 {
		panic(fmt.Sprintf("tensor dtype is %s, not int32", t.dtype))
	}
	n := t.NumElements()
	if n == 0 {
		return nil
	}
	//nolint:gosec // zero-copy view, length bounded by NumElements()
	return unsafe.Slice((*int32)(unsafe.Pointer(&t.data[0])), n)
}

// Item returns the scalar value of a 0-D or single-element tensor as float64.
// Panics if the tensor holds more than one element or is not a float kind.
func (t *Tensor) Item() float64 {
	if t.NumElements() != 1 {
		panic(fmt.Sprintf("Item() only works for scalar tensors, got shape %v", t.shape))
	}
	switch t.dtype {
	case Float32:
		return float64(t.AsFloat32()[0])
	case Float64:
		return t.AsFloat64()[0]
	default:
		panic(fmt.Sprintf("Item() unsupported for dtype %s", t.dtype))
	}
}

// Clone creates a deep copy of the tensor with a fresh identity.
// The clone shares no memory with the original and carries no derivation
// history, so it is always a leaf for differentiation purposes.
func (t *Tensor) Clone() *Tensor {
	data := make([]byte, len(t.data))
	copy(data, t.data)
	return &Tensor{
		data:   data,
		shape:  t.shape.Clone(),
		stride: t.shape.ComputeStrides(),
		dtype:  t.dtype,
		device: t.device,
	}
}

// CopyFrom overwrites the tensor's contents with those of src.
// Shapes and dtypes must match.
func (t *Tensor) CopyFrom(src *Tensor) error {
	if !t.shape.Equal(src.shape) {
		return fmt.Errorf("copy: shape mismatch %v vs %v", t.shape, src.shape)
	}
	if t.dtype != src.dtype {
		return fmt.Errorf("copy: dtype mismatch %s vs %s", t.dtype, src.dtype)
	}
	copy(t.data, src.data)
	return nil
}

// String returns a human-readable representation of the tensor.
func (t *Tensor) String() string {
	return fmt.Sprintf("Tensor[%s]%v on %s", t.dtype, t.shape, t.device)
}
