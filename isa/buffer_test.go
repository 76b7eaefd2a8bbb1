// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package isa

import (
	"bytes"
	"testing"

	"github.com/tcu-go/tcu/dmamem"
)

func TestBufferAppendMonotonicity(t *testing.T) {
	l := NewLayout(refArch())
	region := dmamem.NewSimulated(0, l.InstructionSizeBytes*8)
	buf := NewBuffer(region)

	before := buf.Offset
	if err := buf.AppendInstruction(l, NoOp, 0, 0, 0, 0); err != nil {
		t.Fatalf("AppendInstruction: %v", err)
	}
	if buf.Offset <= before {
		t.Errorf("offset did not advance: %d -> %d", before, buf.Offset)
	}
	if buf.Offset != before+l.InstructionSizeBytes {
		t.Errorf("offset advanced by %d, want %d", buf.Offset-before, l.InstructionSizeBytes)
	}
}

func TestBufferPadToAlignment(t *testing.T) {
	l := NewLayout(refArch())
	region := dmamem.NewSimulated(0, l.InstructionSizeBytes*16)
	buf := NewBuffer(region)

	if err := buf.AppendInstruction(l, MatMul, 0, 1, 1, 1); err != nil {
		t.Fatal(err)
	}
	alignment := 16
	if err := buf.PadToAlignment(l, alignment); err != nil {
		t.Fatalf("PadToAlignment: %v", err)
	}
	if buf.Offset%alignment != 0 {
		t.Errorf("offset %d not aligned to %d", buf.Offset, alignment)
	}
	// Everything after the first instruction must be NoOp (all zero).
	for off := l.InstructionSizeBytes; off < buf.Offset; off += l.InstructionSizeBytes {
		d := Decode(l, region.Bytes(), off)
		if d.Opcode != NoOp {
			t.Errorf("padding at offset %d is not NoOp: %+v", off, d)
		}
	}
}

func TestBufferOverflow(t *testing.T) {
	l := NewLayout(refArch())
	region := dmamem.NewSimulated(0, l.InstructionSizeBytes-1)
	buf := NewBuffer(region)
	if err := buf.AppendInstruction(l, NoOp, 0, 0, 0, 0); err == nil {
		t.Errorf("AppendInstruction into undersized buffer: err = nil, want error")
	}
}

func TestBufferAppendProgram(t *testing.T) {
	l := NewLayout(refArch())
	region := dmamem.NewSimulated(0, 64)
	buf := NewBuffer(region)
	program := bytes.Repeat([]byte{0xAB}, l.InstructionSizeBytes)
	if err := buf.AppendProgram(program); err != nil {
		t.Fatalf("AppendProgram: %v", err)
	}
	if buf.Offset != len(program) {
		t.Errorf("offset = %d, want %d", buf.Offset, len(program))
	}
	if !bytes.Equal(region.Bytes()[:len(program)], program) {
		t.Errorf("program bytes not copied verbatim")
	}
}

func TestBufferReset(t *testing.T) {
	l := NewLayout(refArch())
	region := dmamem.NewSimulated(0, 64)
	buf := NewBuffer(region)
	if err := buf.AppendInstruction(l, NoOp, 0, 0, 0, 0); err != nil {
		t.Fatal(err)
	}
	buf.Reset()
	if buf.Offset != 0 {
		t.Errorf("Offset after Reset = %d, want 0", buf.Offset)
	}
}
