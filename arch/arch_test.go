// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package arch

import (
	"testing"

	"github.com/tcu-go/tcu/platform"
)

func validArch() Architecture {
	return Architecture{
		ArraySize: 8, DataType: FP16BP8,
		LocalDepth: 4096, AccumulatorDepth: 2048,
		DRAM0Depth: 1048576, DRAM1Depth: 1048576,
		Stride0Depth: 4, Stride1Depth: 4, SIMDRegistersDepth: 1,
	}
}

func TestValidate(t *testing.T) {
	if !validArch().Validate() {
		t.Errorf("valid architecture rejected")
	}
	bad := validArch()
	bad.ArraySize = 0
	if bad.Validate() {
		t.Errorf("zero array size accepted")
	}
	bad = validArch()
	bad.DataType = Unknown
	if bad.Validate() {
		t.Errorf("unknown data type accepted")
	}
	bad = validArch()
	bad.LocalDepth = 0
	if bad.Validate() {
		t.Errorf("zero local depth accepted")
	}
}

func TestCompatible(t *testing.T) {
	a := validArch()
	b := validArch()
	if !Compatible(a, b) {
		t.Errorf("identical architectures reported incompatible")
	}
	b.DRAM0Depth++
	if Compatible(a, b) {
		t.Errorf("differing architectures reported compatible")
	}
}

func TestFromJSONTolerant(t *testing.T) {
	doc := `{
		"array_size": 8, "data_type": "FP16BP8",
		"local_depth": "oops", "accumulator_depth": 2048,
		"dram0_depth": 1048576, "dram1_depth": 1048576,
		"stride0_depth": 4, "stride1_depth": 4, "simd_registers_depth": 1
	}`
	j, err := platform.ParseJSON([]byte(doc))
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}
	a := FromJSON(j)
	if a.LocalDepth != 0 {
		t.Errorf("LocalDepth = %d, want 0 (ill-typed field left at default)", a.LocalDepth)
	}
	if a.Validate() {
		t.Errorf("architecture with ill-typed local_depth reported valid")
	}
	if a.ArraySize != 8 || a.DataType != FP16BP8 {
		t.Errorf("well-typed fields were not parsed: %+v", a)
	}
}
