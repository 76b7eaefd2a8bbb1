// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package model

import (
	"errors"
	"testing"

	"github.com/tcu-go/tcu/arch"
	"github.com/tcu-go/tcu/platform"
	"github.com/tcu-go/tcu/tcuerr"
)

func validTestArch() arch.Architecture {
	return arch.Architecture{
		ArraySize: 8, DataType: arch.FP16BP8,
		LocalDepth: 4096, AccumulatorDepth: 2048,
		DRAM0Depth: 1048576, DRAM1Depth: 1048576,
		Stride0Depth: 4, Stride1Depth: 4, SIMDRegistersDepth: 1,
	}
}

const sampleDescriptor = `{
	"prog": {"file_name": "prog.bin", "size": 4096},
	"consts": [{"file_name": "consts.bin", "base": 0, "size": 128}],
	"inputs": [{"name": "x", "base": 128, "size": 8}],
	"outputs": [{"name": "y", "base": 256, "size": 8}],
	"arch": {
		"array_size": 8, "data_type": "FP16BP8",
		"local_depth": 4096, "accumulator_depth": 2048,
		"dram0_depth": 1048576, "dram1_depth": 1048576,
		"stride0_depth": 4, "stride1_depth": 4, "simd_registers_depth": 1
	},
	"load_consts_to_local": true
}`

type fakeFS map[string][]byte

func (f fakeFS) Size(path string) (int64, error) {
	b, ok := f[path]
	if !ok {
		return 0, errors.New("not found")
	}
	return int64(len(b)), nil
}
func (f fakeFS) ReadAt(path string, offset int64, buf []byte) error {
	b, ok := f[path]
	if !ok {
		return errors.New("not found")
	}
	copy(buf, b[offset:])
	return nil
}
func (f fakeFS) WriteAt(path string, offset int64, buf []byte) error {
	f[path] = append(f[path][:offset:offset], buf...)
	return nil
}

func TestLoadAndValidate(t *testing.T) {
	fs := fakeFS{"/model/model.json": []byte(sampleDescriptor)}
	m, err := Load(fs, "/model/model.json")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !m.IsValid() {
		t.Fatalf("model reported invalid: %+v", m)
	}
	if m.Dir != "/model" {
		t.Errorf("Dir = %q, want /model", m.Dir)
	}
	if got := m.Path("prog.bin"); got != "/model/prog.bin" {
		t.Errorf("Path(prog.bin) = %q", got)
	}
	in, ok := m.Input("x")
	if !ok || in.Base != 128 || in.Size != 8 {
		t.Errorf("Input(x) = %+v, %v", in, ok)
	}
	if _, ok := m.Input("missing"); ok {
		t.Errorf("Input(missing) ok = true, want false")
	}
	out, ok := m.Output("y")
	if !ok || out.Base != 256 {
		t.Errorf("Output(y) = %+v, %v", out, ok)
	}
	if !m.LoadConstsToLocal {
		t.Errorf("LoadConstsToLocal = false, want true")
	}
}

func TestLoadRejectsInvalidModel(t *testing.T) {
	fs := fakeFS{"/model/model.json": []byte(`{"prog": {"file_name": "p.bin"}}`)}
	_, err := Load(fs, "/model/model.json")
	if err == nil {
		t.Fatalf("Load of descriptor with no arch: err = nil")
	}
	tErr, ok := err.(*tcuerr.Error)
	if !ok || tErr.Code != tcuerr.InvalidModel {
		t.Errorf("err = %v, want InvalidModel", err)
	}
}

func TestFromJSONToleratesIllTypedArch(t *testing.T) {
	doc := `{"arch": {"array_size": "oops"}}`
	j, err := platform.ParseJSON([]byte(doc))
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}
	m := FromJSON(j)
	if m.IsValid() {
		t.Errorf("model with ill-typed arch reported valid")
	}
}

func TestTooManyInputsInvalid(t *testing.T) {
	m := Model{Arch: validTestArch()}
	for i := 0; i < MaxInputs+1; i++ {
		m.Inputs = append(m.Inputs, Region{Name: "x"})
	}
	if m.IsValid() {
		t.Errorf("model with too many inputs reported valid")
	}
}
