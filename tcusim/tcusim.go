// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package tcusim is a functional software model of the tensor compute unit.
//
// It implements both transport channel interfaces over a fetch-decode-execute
// loop: instruction bytes submitted to the instruction channel are decoded
// and applied to the same DRAM regions the driver owns, so the completion
// probe, data movement, and sampling behave as they do against hardware.
// Driver tests run end to end against it; hosts without an FPGA can use it
// to validate a model's data plumbing.
//
// Only the host-observable contract is modeled: DataMove in all seven
// directions (with stride selectors and multi-vector counts) and the Config
// registers. MatMul, LoadWeight, and SIMD advance the decoder but their
// array-side arithmetic is not simulated. Once a nonzero sample interval is
// configured, sampling emits one record per executed non-Config
// instruction; cycle-accurate pacing is not modeled.
package tcusim

import (
	"encoding/binary"

	"github.com/tcu-go/tcu/arch"
	"github.com/tcu-go/tcu/dram"
	"github.com/tcu-go/tcu/isa"
	"github.com/tcu-go/tcu/sample"
	"github.com/tcu-go/tcu/transport"
)

// sampleFlags is the pipeline-stage pattern stamped on every emitted
// sample: all eight stages valid, none ready.
const sampleFlags = 0x5555

// TCU is the simulated accelerator. The zero value is not usable; construct
// with New and hand the driver's DRAM region to AttachDRAM before running
// programs that touch the banks.
type TCU struct {
	arch   arch.Architecture
	layout isa.Layout

	dram0, dram1 []byte
	local, acc   []byte

	// pending holds submitted bytes not yet forming a whole instruction;
	// DMA chunk boundaries need not align with instruction boundaries.
	pending []byte
	pc      uint32

	dram0Offset    uint64
	dram1Offset    uint64
	timeout        uint16
	sampleInterval uint16

	samples       []byte
	lastSampleLen int

	// MaxTransferLen and DataWidth mirror the vendor DMA engine's transfer
	// limits; zero values mean unlimited and byte-granular.
	MaxTransferLen int
	DataWidth      int
}

// New builds a simulated TCU for a. Local and accumulator memories are
// allocated here; DRAM is attached separately since the driver owns it.
func New(a arch.Architecture) *TCU {
	vb := a.ArraySize * dram.SizeofScalar(a.DataType)
	return &TCU{
		arch:   a,
		layout: isa.NewLayout(a),
		local:  make([]byte, a.LocalDepth*vb),
		acc:    make([]byte, a.AccumulatorDepth*vb),
	}
}

// AttachDRAM points the simulator at the combined DRAM range the driver
// carved its two banks from: DRAM0 first, DRAM1 immediately after.
func (t *TCU) AttachDRAM(combined []byte) {
	vb := t.vectorBytes()
	d0 := t.arch.DRAM0Depth * vb
	d1 := t.arch.DRAM1Depth * vb
	t.dram0 = combined[:d0]
	t.dram1 = combined[d0 : d0+d1]
}

// ProgramCounter reports the decoder's current instruction index.
func (t *TCU) ProgramCounter() uint32 { return t.pc }

// DRAMOffsets reports the two DRAM offset registers as last configured.
func (t *TCU) DRAMOffsets() (dram0, dram1 uint64) { return t.dram0Offset, t.dram1Offset }

// Instructions returns the instruction-channel face of the simulator.
func (t *TCU) Instructions() transport.InstructionChannel { return instructionPort{t} }

// Samples returns the sample-channel face of the simulator.
func (t *TCU) Samples() transport.SampleChannel { return samplePort{t} }

func (t *TCU) vectorBytes() int {
	return t.arch.ArraySize * dram.SizeofScalar(t.arch.DataType)
}

// submit accepts one DMA chunk of instruction bytes and executes every
// complete instruction it now holds. Execution is synchronous; the channel
// is never busy afterwards.
func (t *TCU) submit(data []byte) (int, error) {
	n := len(data)
	if t.MaxTransferLen > 0 && n > t.MaxTransferLen {
		n = t.MaxTransferLen
	}
	if t.DataWidth > 1 {
		n -= n % t.DataWidth
	}
	t.pending = append(t.pending, data[:n]...)
	size := t.layout.InstructionSizeBytes
	for len(t.pending) >= size {
		t.execute(t.pending[:size])
		t.pending = t.pending[size:]
	}
	return n, nil
}

func (t *TCU) execute(instr []byte) {
	d := isa.Decode(t.layout, instr, 0)
	if d.Opcode == isa.Config {
		operands := isa.DecodeAllOperands(t.layout, instr, 0)
		value := operands >> 4
		switch int(operands & 0xF) {
		case isa.ConfigDRAM0Offset:
			t.dram0Offset = value
		case isa.ConfigDRAM1Offset:
			t.dram1Offset = value
		case isa.ConfigTimeout:
			t.timeout = uint16(value)
		case isa.ConfigProgramCounter:
			t.pc = uint32(value)
		case isa.ConfigSampleInterval:
			t.sampleInterval = uint16(value)
		}
		// Config does not advance the program counter and is never sampled.
		return
	}
	if d.Opcode == isa.DataMove {
		t.dataMove(d)
	}
	t.emitSample()
	t.pc++
}

func (t *TCU) dataMove(d isa.DecodedInstruction) {
	l := t.layout
	localAddr := int(d.Op0 & (1<<uint(l.Operand0AddrBits) - 1))
	localStride := 1 << uint(d.Op0>>uint(l.Operand0AddrBits))
	memAddr := int(d.Op1 & (1<<uint(l.Operand1AddrBits) - 1))
	memStride := 1 << uint(d.Op1>>uint(l.Operand1AddrBits))
	count := int(d.Op2) + 1
	vb := t.vectorBytes()

	for i := 0; i < count; i++ {
		lOff := (localAddr + i*localStride) * vb
		mOff := (memAddr + i*memStride) * vb
		if lOff < 0 || lOff+vb > len(t.local) {
			continue
		}
		switch d.Flags {
		case isa.DataMoveDRAM0ToLocal:
			if mOff+vb <= len(t.dram0) {
				copy(t.local[lOff:lOff+vb], t.dram0[mOff:])
			}
		case isa.DataMoveLocalToDRAM0:
			if mOff+vb <= len(t.dram0) {
				copy(t.dram0[mOff:mOff+vb], t.local[lOff:])
			}
		case isa.DataMoveDRAM1ToLocal:
			if mOff+vb <= len(t.dram1) {
				copy(t.local[lOff:lOff+vb], t.dram1[mOff:])
			}
		case isa.DataMoveLocalToDRAM1:
			if mOff+vb <= len(t.dram1) {
				copy(t.dram1[mOff:mOff+vb], t.local[lOff:])
			}
		case isa.DataMoveAccumulatorToLocal:
			if mOff+vb <= len(t.acc) {
				copy(t.local[lOff:lOff+vb], t.acc[mOff:])
			}
		case isa.DataMoveLocalToAccumulator:
			if mOff+vb <= len(t.acc) {
				copy(t.acc[mOff:mOff+vb], t.local[lOff:])
			}
		case isa.DataMoveLocalToAccumulatorAccumulating:
			if mOff+vb <= len(t.acc) {
				t.accumulate(t.acc[mOff:mOff+vb], t.local[lOff:lOff+vb])
			}
		}
	}
}

// accumulate adds src into dst scalar-wise in the 16-bit fixed-point wire
// format.
func (t *TCU) accumulate(dst, src []byte) {
	for i := 0; i+1 < len(dst); i += 2 {
		a := int16(binary.LittleEndian.Uint16(dst[i:]))
		b := int16(binary.LittleEndian.Uint16(src[i:]))
		binary.LittleEndian.PutUint16(dst[i:], uint16(a+b))
	}
}

func (t *TCU) emitSample() {
	if t.sampleInterval == 0 {
		return
	}
	var rec [sample.SizeBytes]byte
	binary.LittleEndian.PutUint32(rec[:], t.pc)
	binary.LittleEndian.PutUint16(rec[4:], sampleFlags)
	t.samples = append(t.samples, rec[:]...)
}

type instructionPort struct{ t *TCU }

func (p instructionPort) Init() error { return nil }

func (p instructionPort) StartInstructions(data []byte) (int, error) {
	return p.t.submit(data)
}

func (p instructionPort) IsBusy() bool { return false }

func (p instructionPort) DataWidthBytes() int {
	if p.t.DataWidth == 0 {
		return 1
	}
	return p.t.DataWidth
}

type samplePort struct{ t *TCU }

func (p samplePort) Init() error { return nil }

// StartSampling drains emitted samples into dst, padding any remainder
// with never-populated slots exactly as a ring DMA would leave them.
func (p samplePort) StartSampling(dst []byte) error {
	t := p.t
	n := copy(dst, t.samples)
	t.samples = t.samples[n:]
	for off := n; off+sample.SizeBytes <= len(dst); off += sample.SizeBytes {
		binary.LittleEndian.PutUint32(dst[off:], sample.InvalidPC)
		binary.LittleEndian.PutUint16(dst[off+4:], 0)
	}
	t.lastSampleLen = len(dst)
	return nil
}

func (p samplePort) IsBusy() bool { return false }

func (p samplePort) CompleteSampling() int { return p.t.lastSampleLen }

var (
	_ transport.InstructionChannel = instructionPort{}
	_ transport.SampleChannel      = samplePort{}
)
