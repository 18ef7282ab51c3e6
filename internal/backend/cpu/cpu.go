// Package cpu implements the pure-Go CPU compute backend.
package cpu

import (
	"fmt"

	"github.com/editgrad/editgrad/internal/tensor"
)

// CPUBackend implements tensor operations with plain element loops.
type CPUBackend struct {
	device tensor.Device
}

// New creates a new CPU backend.
func New() *CPUBackend {
	return &CPUBackend{device: tensor.CPU}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// Add performs element-wise addition.
func (cpu *CPUBackend) Add(a, b *tensor.Tensor) *tensor.Tensor {
	return cpu.binaryOp("add", a, b,
		func(x, y float32) float32 { return x + y },
		func(x, y float64) float64 { return x + y })
}

// Sub performs element-wise subtraction.
func (cpu *CPUBackend) Sub(a, b *tensor.Tensor) *tensor.Tensor {
	return cpu.binaryOp("sub", a, b,
		func(x, y float32) float32 { return x - y },
		func(x, y float64) float64 { return x - y })
}

// Mul performs element-wise multiplication.
func (cpu *CPUBackend) Mul(a, b *tensor.Tensor) *tensor.Tensor {
	return cpu.binaryOp("mul", a, b,
		func(x, y float32) float32 { return x * y },
		func(x, y float64) float64 { return x * y })
}

// Div performs element-wise division.
func (cpu *CPUBackend) Div(a, b *tensor.Tensor) *tensor.Tensor {
	return cpu.binaryOp("div", a, b,
		func(x, y float32) float32 { return x / y },
		func(x, y float64) float64 { return x / y })
}

// Sum reduces a tensor to a scalar of the same dtype.
func (cpu *CPUBackend) Sum(x *tensor.Tensor) *tensor.Tensor {
	result, err := tensor.New(tensor.Shape{}, x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("sum: failed to create result tensor: %v", err))
	}

	switch x.DType() {
	case tensor.Float32:
		var acc float32
		for _, v := range x.AsFloat32() {
			acc += v
		}
		result.AsFloat32()[0] = acc
	case tensor.Float64:
		var acc float64
		for _, v := range x.AsFloat64() {
			acc += v
		}
		result.AsFloat64()[0] = acc
	default:
		panic(fmt.Sprintf("sum: unsupported dtype %s", x.DType()))
	}

	return result
}

// binaryOp applies an element-wise binary operation, allocating a new result.
// Operands must share shape and dtype; violation is a programmer error.
func (cpu *CPUBackend) binaryOp(
	name string,
	a, b *tensor.Tensor,
	f32 func(x, y float32) float32,
	f64 func(x, y float64) float64,
) *tensor.Tensor {
	if !a.Shape().Equal(b.Shape()) {
		panic(fmt.Sprintf("%s: shape mismatch %v vs %v", name, a.Shape(), b.Shape()))
	}
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("%s: dtype mismatch %s vs %s", name, a.DType(), b.DType()))
	}

	result, err := tensor.New(a.Shape(), a.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("%s: failed to create result tensor: %v", name, err))
	}

	switch a.DType() {
	case tensor.Float32:
		av, bv, rv := a.AsFloat32(), b.AsFloat32(), result.AsFloat32()
		for i := range av {
			rv[i] = f32(av[i], bv[i])
		}
	case tensor.Float64:
		av, bv, rv := a.AsFloat64(), b.AsFloat64(), result.AsFloat64()
		for i := range av {
			rv[i] = f64(av[i], bv[i])
		}
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", name, a.DType()))
	}

	return result
}
