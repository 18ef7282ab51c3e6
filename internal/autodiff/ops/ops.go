// Package ops defines the differentiable operations recorded on the gradient tape.
//
// Each operation stores its forward inputs and output and knows how to turn
// the gradient of its output into gradients of its inputs (chain rule).
package ops

import (
	"fmt"

	"github.com/editgrad/editgrad/internal/tensor"
)

// Operation is a node in the recorded computation graph.
type Operation interface {
	// Inputs returns the tensors the operation consumed, in argument order.
	Inputs() []*tensor.Tensor

	// Output returns the tensor the operation produced.
	Output() *tensor.Tensor

	// Backward computes input gradients given the output gradient.
	// The returned slice is parallel to Inputs(); a nil entry means no
	// gradient flows to that input.
	Backward(outputGrad *tensor.Tensor, backend tensor.Backend) []*tensor.Tensor
}

// binaryOp is the common storage for two-input operations.
type binaryOp struct {
	a, b, out *tensor.Tensor
}

func (op *binaryOp) Inputs() []*tensor.Tensor { return []*tensor.Tensor{op.a, op.b} }
func (op *binaryOp) Output() *tensor.Tensor   { return op.out }

// AddOp records c = a + b.
type AddOp struct{ binaryOp }

// NewAddOp creates an AddOp.
func NewAddOp(a, b, out *tensor.Tensor) *AddOp {
	return &AddOp{binaryOp{a: a, b: b, out: out}}
}

// Backward: ∂(a+b)/∂a = 1, ∂(a+b)/∂b = 1.
func (op *AddOp) Backward(outputGrad *tensor.Tensor, backend tensor.Backend) []*tensor.Tensor {
	return []*tensor.Tensor{outputGrad.Clone(), outputGrad.Clone()}
}

// SubOp records c = a - b.
type SubOp struct{ binaryOp }

// NewSubOp creates a SubOp.
func NewSubOp(a, b, out *tensor.Tensor) *SubOp {
	return &SubOp{binaryOp{a: a, b: b, out: out}}
}

// Backward: ∂(a-b)/∂a = 1, ∂(a-b)/∂b = -1.
func (op *SubOp) Backward(outputGrad *tensor.Tensor, backend tensor.Backend) []*tensor.Tensor {
	return []*tensor.Tensor{outputGrad.Clone(), negate(outputGrad)}
}

// MulOp records c = a * b (element-wise).
type MulOp struct{ binaryOp }

// NewMulOp creates a MulOp.
func NewMulOp(a, b, out *tensor.Tensor) *MulOp {
	return &MulOp{binaryOp{a: a, b: b, out: out}}
}

// Backward: ∂(a*b)/∂a = b, ∂(a*b)/∂b = a.
func (op *MulOp) Backward(outputGrad *tensor.Tensor, backend tensor.Backend) []*tensor.Tensor {
	return []*tensor.Tensor{
		backend.Mul(outputGrad, op.b),
		backend.Mul(outputGrad, op.a),
	}
}

// DivOp records c = a / b (element-wise).
type DivOp struct{ binaryOp }

// NewDivOp creates a DivOp.
func NewDivOp(a, b, out *tensor.Tensor) *DivOp {
	return &DivOp{binaryOp{a: a, b: b, out: out}}
}

// Backward: ∂(a/b)/∂a = 1/b, ∂(a/b)/∂b = -a/b² = -(a/b)/b.
func (op *DivOp) Backward(outputGrad *tensor.Tensor, backend tensor.Backend) []*tensor.Tensor {
	gradA := backend.Div(outputGrad, op.b)
	gradB := negate(backend.Div(backend.Mul(outputGrad, op.out), op.b))
	return []*tensor.Tensor{gradA, gradB}
}

// SumOp records s = sum(x), a total reduction to a scalar.
type SumOp struct {
	x, out *tensor.Tensor
}

// NewSumOp creates a SumOp.
func NewSumOp(x, out *tensor.Tensor) *SumOp {
	return &SumOp{x: x, out: out}
}

// Inputs returns the reduced tensor.
func (op *SumOp) Inputs() []*tensor.Tensor { return []*tensor.Tensor{op.x} }

// Output returns the scalar result.
func (op *SumOp) Output() *tensor.Tensor { return op.out }

// Backward broadcasts the scalar output gradient over the input shape.
func (op *SumOp) Backward(outputGrad *tensor.Tensor, backend tensor.Backend) []*tensor.Tensor {
	var g float64
	switch outputGrad.DType() {
	case tensor.Float32:
		g = float64(outputGrad.AsFloat32()[0])
	case tensor.Float64:
		g = outputGrad.AsFloat64()[0]
	default:
		panic(fmt.Sprintf("sum backward: unsupported dtype %s", outputGrad.DType()))
	}
	return []*tensor.Tensor{tensor.Full(op.x.Shape(), g, op.x.DType())}
}

// negate returns a fresh tensor holding -x.
func negate(x *tensor.Tensor) *tensor.Tensor {
	out := x.Clone()
	switch out.DType() {
	case tensor.Float32:
		data := out.AsFloat32()
		for i := range data {
			data[i] = -data[i]
		}
	case tensor.Float64:
		data := out.AsFloat64()
		for i := range data {
			data[i] = -data[i]
		}
	default:
		panic(fmt.Sprintf("negate: unsupported dtype %s", out.DType()))
	}
	return out
}
