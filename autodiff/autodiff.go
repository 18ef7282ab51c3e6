// Copyright 2026 The editgrad Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides reverse-mode automatic differentiation via the
// decorator pattern: AutodiffBackend wraps any tensor.Backend and records
// operations on a gradient tape.
//
// Example:
//
//	backend := autodiff.New(cpu.New())
//	backend.Tape().StartRecording()
//	y := backend.Mul(x, x) // recorded
//	grads := backend.Tape().Backward(y, seed, backend)
//
// The Prober adapter turns an AutodiffBackend into the gradient-probing
// capability the edit verifier consumes.
package autodiff

import (
	"github.com/editgrad/editgrad/internal/autodiff"
	"github.com/editgrad/editgrad/internal/tensor"
)

// AutodiffBackend wraps a Backend and adds gradient tracking.
type AutodiffBackend[B tensor.Backend] = autodiff.AutodiffBackend[B]

// Tape records operations during the forward pass and computes gradients
// during the backward pass.
type Tape = autodiff.Tape

// New creates a new AutodiffBackend wrapping the given backend.
func New[B tensor.Backend](backend B) *AutodiffBackend[B] {
	return autodiff.New(backend)
}

// NewTape creates a new gradient tape.
func NewTape() *Tape {
	return autodiff.NewTape()
}

// Prober adapts an AutodiffBackend into a gradient-probing function: it runs
// a closure with the tape recording, sums the closure's output to a scalar,
// and returns per-leaf gradients of that scalar, nil where no gradient flows.
func Prober[B tensor.Backend](b *AutodiffBackend[B]) func(leaves []*tensor.Tensor, run func() (*tensor.Tensor, error)) ([]*tensor.Tensor, error) {
	return autodiff.Prober(b)
}
