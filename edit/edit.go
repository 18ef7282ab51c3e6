// Copyright 2026 The editgrad Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package edit is the public API for parameter introspection and scoped
// state editing of differentiable objects.
//
// An object participates by implementing the Module contract: for each named
// operation (an exported method) it reports the ordered tensor list the
// operation depends on (GetParams) and accepts replacements for them
// (SetParams). On top of that contract the package provides:
//
//   - Collect/Install: deep traversal of the object graph gathering or
//     replacing every reachable floating-point tensor.
//   - Editor.UniqueParams/SetUniqueParams: identity-based deduplication of
//     aliased tensors, so a solver's optimization variables are never
//     double-counted.
//   - Editor.WithParams: temporary parameter substitution with guaranteed
//     restoration on every exit path.
//   - Editor.Verify: gradient-probing validation that the declared parameter
//     list is neither missing tensors the operation uses nor padded with
//     tensors it does not.
//
// Container types expose their children to the traversal engine by
// implementing Traversable; slices and maps are walked natively.
//
// Example:
//
//	ed := edit.NewEditor(model, edit.WithProber(autodiff.Prober(backend)))
//	if err := ed.Verify("Forward", x); err != nil {
//	    log.Fatal(err)
//	}
//	err := ed.WithParams("Forward", candidates, func() error {
//	    out = model.Forward(x) // runs against the substituted parameters
//	    return nil
//	})
package edit

import (
	"log/slog"

	"github.com/editgrad/editgrad/internal/edit"
	"github.com/editgrad/editgrad/internal/tensor"
)

// DefaultMaxDepth is the traversal depth budget used by Collect and Install.
const DefaultMaxDepth = edit.DefaultMaxDepth

// Module is the contract every participating object must implement.
type Module = edit.Module

// Traversable is implemented by container types that expose child slots to
// the traversal engine.
type Traversable = edit.Traversable

// Slot is an addressable reference to a child value inside a container.
type Slot = edit.Slot

// Editor provides deduplication, scoped substitution, and verification for a
// single Module instance.
type Editor = edit.Editor

// Option configures an Editor.
type Option = edit.Option

// GradProber is the injected differentiation capability used by Verify.
type GradProber = edit.GradProber

// ContractError reports a violation of the Module parameter contract.
type ContractError = edit.ContractError

// Sentinel errors surfaced by traversal and installation.
var (
	ErrDepthExceeded  = edit.ErrDepthExceeded
	ErrNotTraversable = edit.ErrNotTraversable
	ErrUnderflow      = edit.ErrUnderflow
	ErrNoProber       = edit.ErrNoProber
)

// NewEditor creates an Editor for the given module.
func NewEditor(m Module, opts ...Option) *Editor {
	return edit.NewEditor(m, opts...)
}

// WithMaxDepth sets the traversal depth budget (default DefaultMaxDepth).
func WithMaxDepth(depth int) Option {
	return edit.WithMaxDepth(depth)
}

// WithLogger sets the logger used for advisory warnings and substitution
// failure traces.
func WithLogger(l *slog.Logger) Option {
	return edit.WithLogger(l)
}

// WithProber sets the gradient-probing capability required by Verify.
func WithProber(p GradProber) Option {
	return edit.WithProber(p)
}

// WithTolerance sets the verifier's floating comparison tolerances.
func WithTolerance(rtol, atol float64) Option {
	return edit.WithTolerance(rtol, atol)
}

// Collect gathers every reachable floating-point tensor with synthetic path
// names, in deterministic traversal order.
func Collect(root any) ([]*tensor.Tensor, []string, error) {
	return edit.Collect(root)
}

// Install replaces each reachable floating-point tensor slot with the next
// tensor from params, mutating the object graph in place.
func Install(root any, params []*tensor.Tensor) error {
	return edit.Install(root, params)
}
