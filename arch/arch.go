// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package arch describes the accelerator's architecture record: the nine
// size parameters that every other subsystem (instruction layout, DRAM
// bank sizing) derives its behavior from.
package arch

import "github.com/tcu-go/tcu/platform"

// DataType tags the scalar encoding used by the accelerator. FP16BP8 is the
// only variant today; adding one means adding a case here and a matching
// codec in package dram.
type DataType int

const (
	// Unknown marks an absent or unrecognized data type tag; Architecture
	// values carrying it are never valid.
	Unknown DataType = iota
	// FP16BP8 is a 16-bit signed fixed-point format with 8 fractional bits.
	FP16BP8
)

// Architecture is an immutable record of the accelerator's size parameters.
type Architecture struct {
	ArraySize          int
	DataType           DataType
	LocalDepth         int
	AccumulatorDepth   int
	DRAM0Depth         int
	DRAM1Depth         int
	Stride0Depth       int
	Stride1Depth       int
	SIMDRegistersDepth int
}

// Validate reports whether a carries enough information to be usable: a
// positive array size, a recognized data type, and every depth at least 1.
func (a Architecture) Validate() bool {
	if a.ArraySize < 1 {
		return false
	}
	if a.DataType != FP16BP8 {
		return false
	}
	depths := []int{
		a.LocalDepth, a.AccumulatorDepth, a.DRAM0Depth, a.DRAM1Depth,
		a.Stride0Depth, a.Stride1Depth, a.SIMDRegistersDepth,
	}
	for _, d := range depths {
		if d < 1 {
			return false
		}
	}
	return true
}

// Compatible reports whether a and b are interchangeable for the purposes
// of running a model compiled against one on a driver built around the
// other: every field must match exactly.
func Compatible(a, b Architecture) bool {
	return a == b
}

// FromJSON parses an Architecture from the "arch" object of a model
// descriptor. Missing or ill-typed fields are left at their zero value
// rather than raising an error; the result will simply fail Validate.
func FromJSON(j platform.JSONValue) Architecture {
	var a Architecture
	if n, ok := j.Int("array_size"); ok {
		a.ArraySize = n
	}
	if s, ok := j.String("data_type"); ok {
		switch s {
		case "FP16BP8":
			a.DataType = FP16BP8
		}
	}
	if n, ok := j.Int("local_depth"); ok {
		a.LocalDepth = n
	}
	if n, ok := j.Int("accumulator_depth"); ok {
		a.AccumulatorDepth = n
	}
	if n, ok := j.Int("dram0_depth"); ok {
		a.DRAM0Depth = n
	}
	if n, ok := j.Int("dram1_depth"); ok {
		a.DRAM1Depth = n
	}
	if n, ok := j.Int("stride0_depth"); ok {
		a.Stride0Depth = n
	}
	if n, ok := j.Int("stride1_depth"); ok {
		a.Stride1Depth = n
	}
	if n, ok := j.Int("simd_registers_depth"); ok {
		a.SIMDRegistersDepth = n
	}
	return a
}
