// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package tcusim

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/tcu-go/tcu/arch"
	"github.com/tcu-go/tcu/isa"
	"github.com/tcu-go/tcu/sample"
)

func testArch() arch.Architecture {
	return arch.Architecture{
		ArraySize: 4, DataType: arch.FP16BP8,
		LocalDepth: 16, AccumulatorDepth: 16,
		DRAM0Depth: 64, DRAM1Depth: 64,
		Stride0Depth: 2, Stride1Depth: 2, SIMDRegistersDepth: 1,
	}
}

func newAttached(a arch.Architecture) *TCU {
	t := New(a)
	vb := a.ArraySize * 2
	t.AttachDRAM(make([]byte, (a.DRAM0Depth+a.DRAM1Depth)*vb))
	return t
}

func encode(l isa.Layout, opcode isa.Opcode, flags isa.Flag, op0, op1, op2 uint64) []byte {
	buf := make([]byte, l.InstructionSizeBytes)
	isa.SetInstruction(l, buf, 0, opcode, flags, op0, op1, op2)
	return buf
}

func TestDataMoveRoundTrip(t *testing.T) {
	a := testArch()
	sim := newAttached(a)
	l := sim.layout
	vb := sim.vectorBytes()

	want := bytes.Repeat([]byte{0xA5, 0x3C}, vb/2)
	copy(sim.dram0[2*vb:], want)

	prog := encode(l, isa.DataMove, isa.DataMoveDRAM0ToLocal,
		l.MakeOperand0(7, 0), l.MakeOperand1(2, 0), 0)
	prog = append(prog, encode(l, isa.DataMove, isa.DataMoveLocalToDRAM0,
		l.MakeOperand0(7, 0), l.MakeOperand1(9, 0), 0)...)
	if _, err := sim.submit(prog); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !bytes.Equal(sim.dram0[9*vb:9*vb+vb], want) {
		t.Errorf("vector did not round trip through Local")
	}
}

func TestDataMoveMultiVectorStrided(t *testing.T) {
	a := testArch()
	sim := newAttached(a)
	l := sim.layout
	vb := sim.vectorBytes()

	// Three vectors at DRAM0 stride 2, staged into Local at stride 1.
	for i := 0; i < 3; i++ {
		sim.dram0[(4+2*i)*vb] = byte(0x10 + i)
	}
	prog := encode(l, isa.DataMove, isa.DataMoveDRAM0ToLocal,
		l.MakeOperand0(0, 0), l.MakeOperand1(4, 1), 2)
	if _, err := sim.submit(prog); err != nil {
		t.Fatalf("submit: %v", err)
	}
	for i := 0; i < 3; i++ {
		if got := sim.local[i*vb]; got != byte(0x10+i) {
			t.Errorf("local vector %d first byte = %#x, want %#x", i, got, 0x10+i)
		}
	}
}

func TestAccumulatingMove(t *testing.T) {
	a := testArch()
	sim := newAttached(a)
	l := sim.layout

	binary.LittleEndian.PutUint16(sim.local[0:], 0x0100) // 1.0
	binary.LittleEndian.PutUint16(sim.acc[0:], 0x0080)   // 0.5

	prog := encode(l, isa.DataMove, isa.DataMoveLocalToAccumulatorAccumulating,
		l.MakeOperand0(0, 0), l.MakeOperand1(0, 0), 0)
	if _, err := sim.submit(prog); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got := binary.LittleEndian.Uint16(sim.acc[0:]); got != 0x0180 {
		t.Errorf("accumulated scalar = %#04x, want 0x0180 (1.5)", got)
	}
}

func TestSplitChunksStillExecute(t *testing.T) {
	a := testArch()
	sim := newAttached(a)
	l := sim.layout
	vb := sim.vectorBytes()

	sim.dram0[0] = 0xEE
	prog := encode(l, isa.DataMove, isa.DataMoveDRAM0ToLocal,
		l.MakeOperand0(3, 0), l.MakeOperand1(0, 0), 0)

	// Feed the instruction one byte short, then the rest: execution must
	// only happen once the final byte lands.
	if _, err := sim.submit(prog[:len(prog)-1]); err != nil {
		t.Fatal(err)
	}
	if sim.local[3*vb] == 0xEE {
		t.Fatalf("partial instruction executed")
	}
	if _, err := sim.submit(prog[len(prog)-1:]); err != nil {
		t.Fatal(err)
	}
	if sim.local[3*vb] != 0xEE {
		t.Errorf("instruction did not execute after completing the chunk")
	}
}

func TestConfigAndSampling(t *testing.T) {
	a := testArch()
	sim := newAttached(a)
	l := sim.layout

	cfg := make([]byte, l.InstructionSizeBytes*2)
	isa.SetAllOperands(l, cfg, 0, isa.Config, 0, 3<<4|uint64(isa.ConfigSampleInterval))
	isa.SetAllOperands(l, cfg, l.InstructionSizeBytes, isa.Config, 0, 5<<4|uint64(isa.ConfigProgramCounter))
	if _, err := sim.submit(cfg); err != nil {
		t.Fatal(err)
	}
	if sim.sampleInterval != 3 {
		t.Errorf("sampleInterval = %d, want 3", sim.sampleInterval)
	}
	if sim.pc != 5 {
		t.Errorf("pc = %d, want 5 (config must set, not advance)", sim.pc)
	}

	noop := make([]byte, l.InstructionSizeBytes*2)
	if _, err := sim.submit(noop); err != nil {
		t.Fatal(err)
	}

	dst := make([]byte, 4*sample.SizeBytes)
	ch := sim.Samples()
	if err := ch.StartSampling(dst); err != nil {
		t.Fatal(err)
	}
	if got := ch.CompleteSampling(); got != len(dst) {
		t.Errorf("CompleteSampling = %d, want %d", got, len(dst))
	}
	s0 := sample.Decode(dst, 0)
	s1 := sample.Decode(dst, sample.SizeBytes)
	if s0.PC != 5 || s1.PC != 6 {
		t.Errorf("sampled PCs = %d, %d, want 5, 6", s0.PC, s1.PC)
	}
	s2 := sample.Decode(dst, 2*sample.SizeBytes)
	if s2.PC != sample.InvalidPC {
		t.Errorf("padding slot PC = %d, want invalid", s2.PC)
	}
}
