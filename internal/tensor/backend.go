package tensor

// Backend defines the interface that compute backends must implement.
// Backends handle the actual arithmetic for tensor operations; the edit
// layer's gradient probing only needs this small element-wise set plus a
// total reduction.
type Backend interface {
	// Name returns a human-readable backend name.
	Name() string

	// Device returns the compute device the backend runs on.
	Device() Device

	// Element-wise binary operations. Operands must share shape and dtype.
	Add(a, b *Tensor) *Tensor
	Sub(a, b *Tensor) *Tensor
	Mul(a, b *Tensor) *Tensor
	Div(a, b *Tensor) *Tensor

	// Sum reduces a tensor to a scalar (shape {}) of the same dtype.
	Sum(x *Tensor) *Tensor
}
