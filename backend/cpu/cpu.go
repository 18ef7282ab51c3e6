// Copyright 2026 The editgrad Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the pure-Go CPU compute backend.
package cpu

import (
	"github.com/editgrad/editgrad/internal/backend/cpu"
)

// CPUBackend implements tensor operations on the CPU.
type CPUBackend = cpu.CPUBackend

// New creates a new CPU backend.
func New() *CPUBackend {
	return cpu.New()
}
