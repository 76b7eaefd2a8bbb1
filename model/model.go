// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package model parses and validates the model descriptor that binds a
// compiled program, its constants, and its named inputs/outputs to DRAM
// regions.
package model

import (
	"path/filepath"

	"github.com/tcu-go/tcu/arch"
	"github.com/tcu-go/tcu/platform"
	"github.com/tcu-go/tcu/tcuerr"
)

const (
	MaxInputs  = 4
	MaxOutputs = 4
)

// Program identifies the compiled instruction program bound to a model.
type Program struct {
	FileName string
	Size     int64 // bytes
}

// Region names a named DRAM-vector-granular binding: constants, an input,
// or an output.
type Region struct {
	Name     string // empty for the single constants entry
	FileName string // empty for inputs/outputs, which are bound at runtime
	Base     int    // vector index
	Size     int    // vector count
}

// Model is a parsed model descriptor.
type Model struct {
	// Dir is the directory the descriptor file lived in; file names named
	// within the descriptor are resolved relative to it.
	Dir string

	Prog              Program
	Consts            []Region // at most one entry
	Inputs            []Region // at most MaxInputs
	Outputs           []Region // at most MaxOutputs
	Arch              arch.Architecture
	LoadConstsToLocal bool
}

// IsValid reports whether m is complete enough to load: its architecture
// validates, it has at most one constants entry, and it has no more than
// MaxInputs/MaxOutputs bindings.
func (m Model) IsValid() bool {
	if !m.Arch.Validate() {
		return false
	}
	if len(m.Consts) > 1 {
		return false
	}
	if len(m.Inputs) > MaxInputs || len(m.Outputs) > MaxOutputs {
		return false
	}
	return true
}

// Input returns the input binding named name, or ok == false if absent.
func (m Model) Input(name string) (Region, bool) {
	for _, in := range m.Inputs {
		if in.Name == name {
			return in, true
		}
	}
	return Region{}, false
}

// Output returns the output binding named name, or ok == false if absent.
func (m Model) Output(name string) (Region, bool) {
	for _, out := range m.Outputs {
		if out.Name == name {
			return out, true
		}
	}
	return Region{}, false
}

// Path resolves a file name named within the descriptor relative to the
// descriptor's parent directory.
func (m Model) Path(fileName string) string {
	return filepath.Join(m.Dir, fileName)
}

func parseRegionList(arr []platform.JSONValue, hasName bool) []Region {
	regions := make([]Region, 0, len(arr))
	for _, e := range arr {
		var r Region
		if hasName {
			if s, ok := e.String("name"); ok {
				r.Name = s
			}
		}
		if s, ok := e.String("file_name"); ok {
			r.FileName = s
		}
		if n, ok := e.Int("base"); ok {
			r.Base = n
		}
		if n, ok := e.Int("size"); ok {
			r.Size = n
		}
		regions = append(regions, r)
	}
	return regions
}

// FromJSON parses a Model from a descriptor's root JSON value. Missing or
// ill-typed fields are left at their zero value; IsValid reports the
// result.
func FromJSON(j platform.JSONValue) Model {
	var m Model
	if prog, ok := j.Object("prog"); ok {
		if s, ok := prog.String("file_name"); ok {
			m.Prog.FileName = s
		}
		if n, ok := prog.Int("size"); ok {
			m.Prog.Size = int64(n)
		}
	}
	if consts, ok := j.Array("consts"); ok {
		m.Consts = parseRegionList(consts, false)
	}
	if inputs, ok := j.Array("inputs"); ok {
		m.Inputs = parseRegionList(inputs, true)
	}
	if outputs, ok := j.Array("outputs"); ok {
		m.Outputs = parseRegionList(outputs, true)
	}
	if a, ok := j.Object("arch"); ok {
		m.Arch = arch.FromJSON(a)
	}
	if b, ok := j.Bool("load_consts_to_local"); ok {
		m.LoadConstsToLocal = b
	}
	return m
}

// Load reads and parses the model descriptor at path through fs.
func Load(fs platform.FileSystem, path string) (Model, error) {
	size, err := fs.Size(path)
	if err != nil {
		return Model{}, tcuerr.FS(path, err)
	}
	buf := make([]byte, size)
	if err := fs.ReadAt(path, 0, buf); err != nil {
		return Model{}, tcuerr.FS(path, err)
	}
	j, err := platform.ParseJSON(buf)
	if err != nil {
		return Model{}, &tcuerr.Error{Class: tcuerr.Driver, Code: tcuerr.InvalidJSON, Msg: path, Err: err}
	}
	m := FromJSON(j)
	m.Dir = filepath.Dir(path)
	if !m.IsValid() {
		return Model{}, tcuerr.Driverf(tcuerr.InvalidModel, "invalid model %s", path)
	}
	return m, nil
}
