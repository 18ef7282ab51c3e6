// Copyright 2026 The editgrad Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public API for editgrad's tensor values.
//
// A Tensor is an opaque floating-point array with identity: two tensors with
// equal contents are still distinct parameters. The edit package keys all its
// bookkeeping on tensor identity, and Clone always produces a fresh one.
//
// Example:
//
//	w, _ := tensor.FromFloat32([]float32{1, 2, 3}, tensor.Shape{3})
//	snapshot := w.Clone() // same values, new identity
package tensor

import (
	"github.com/editgrad/editgrad/internal/tensor"
)

// Tensor is an opaque array value with identity, shape, and dtype.
type Tensor = tensor.Tensor

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 3} represents a 2×3 matrix; Shape{} a scalar.
type Shape = tensor.Shape

// DataType represents the underlying data type of a tensor.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
	Int32   DataType = tensor.Int32
	Int64   DataType = tensor.Int64
	Uint8   DataType = tensor.Uint8
	Bool    DataType = tensor.Bool
)

// Device represents the device where tensor data resides.
type Device = tensor.Device

// Device constants.
const (
	CPU    Device = tensor.CPU
	CUDA   Device = tensor.CUDA
	WebGPU Device = tensor.WebGPU
)

// Backend is the interface compute backends implement.
type Backend = tensor.Backend

// Default tolerances for AllClose.
const (
	DefaultRtol = tensor.DefaultRtol
	DefaultAtol = tensor.DefaultAtol
)

// New creates a zero-initialized tensor with the given shape and type.
func New(shape Shape, dtype DataType, device Device) (*Tensor, error) {
	return tensor.New(shape, dtype, device)
}

// FromFloat32 creates a Float32 tensor from a Go slice (copied).
func FromFloat32(data []float32, shape Shape) (*Tensor, error) {
	return tensor.FromFloat32(data, shape)
}

// FromFloat64 creates a Float64 tensor from a Go slice (copied).
func FromFloat64(data []float64, shape Shape) (*Tensor, error) {
	return tensor.FromFloat64(data, shape)
}

// Zeros creates a tensor filled with zeros.
func Zeros(shape Shape, dtype DataType) *Tensor {
	return tensor.Zeros(shape, dtype)
}

// Ones creates a tensor filled with ones.
func Ones(shape Shape, dtype DataType) *Tensor {
	return tensor.Ones(shape, dtype)
}

// Full creates a tensor filled with a specific value.
func Full(shape Shape, value float64, dtype DataType) *Tensor {
	return tensor.Full(shape, value, dtype)
}

// AllClose reports whether two tensors are element-wise equal within
// tolerance: |a - b| <= atol + rtol*|b|.
func AllClose(a, b *Tensor, rtol, atol float64) bool {
	return tensor.AllClose(a, b, rtol, atol)
}
