// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package isa implements the accelerator's instruction layout, encoder, and
// append-only program buffer.
package isa

import (
	"math/bits"

	"github.com/tcu-go/tcu/arch"
)

// Opcode identifies the accelerator operation an instruction performs.
type Opcode uint8

const (
	NoOp       Opcode = 0x0
	MatMul     Opcode = 0x1
	DataMove   Opcode = 0x2
	LoadWeight Opcode = 0x3
	SIMD       Opcode = 0x4
	Config     Opcode = 0xF
)

// Flag is a 4-bit instruction modifier whose meaning depends on the
// instruction's opcode (DataMove direction, SIMD read/write/accumulate).
type Flag uint8

// DataMove flags select the direction of a DataMove instruction. The
// accumulator directions occupy the 0b11xx encodings.
const (
	DataMoveDRAM0ToLocal                   Flag = 0x0
	DataMoveLocalToDRAM0                   Flag = 0x1
	DataMoveDRAM1ToLocal                   Flag = 0x2
	DataMoveLocalToDRAM1                   Flag = 0x3
	DataMoveAccumulatorToLocal             Flag = 0xC
	DataMoveLocalToAccumulator             Flag = 0xD
	DataMoveLocalToAccumulatorAccumulating Flag = 0xF
)

// MatMul flags.
const (
	MatMulAccumulate Flag = 0x1
	MatMulZeroes     Flag = 0x2
)

// LoadWeight flags.
const (
	LoadWeightZeroes Flag = 0x1
)

// SIMD flags encode read/write/accumulate bits.
const (
	SIMDRead       Flag = 1 << 0
	SIMDWrite      Flag = 1 << 1
	SIMDAccumulate Flag = 1 << 2
)

// SIMD sub-opcodes carried in operand2.
const (
	SIMDOpMove = 0x2
	SIMDOpAdd  = 0x8
	SIMDOpMul  = 0xA
)

// Config registers addressable via Buffer.AppendConfig.
const (
	ConfigDRAM0Offset    = 0x0
	ConfigDRAM1Offset    = 0x4
	ConfigTimeout        = 0x8
	ConfigProgramCounter = 0xA
	ConfigSampleInterval = 0xB
)

// ceilLog2 returns the number of bits needed to address n distinct values:
// the smallest b with 2^b >= n, and 0 for n <= 1. Non-power-of-two depths
// round up so every address stays representable.
func ceilLog2(n int) int {
	if n <= 1 {
		return 0
	}
	return bits.Len(uint(n - 1))
}

func roundToBytes(bitsCount int) int {
	return (bitsCount + 7) / 8
}

func maxInt(xs ...int) int {
	m := xs[0]
	for _, x := range xs[1:] {
		if x > m {
			m = x
		}
	}
	return m
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Layout is the per-architecture sizing of an instruction's header and
// three operand fields, derived once at driver init.
type Layout struct {
	Stride0Bits          int
	Stride1Bits          int
	Operand0AddrBits     int
	Operand1AddrBits     int
	HeaderSizeBytes      int
	Operand0SizeBytes    int
	Operand1SizeBytes    int
	Operand2SizeBytes    int
	InstructionSizeBytes int
}

// simdOpCount is the number of distinct SIMD op selector values; it fixes
// the width of the op field inside operand2.
const simdOpCount = 15

// NewLayout computes the instruction layout for a. It is a pure function:
// independent calls with an equal architecture always produce an equal
// Layout.
func NewLayout(a arch.Architecture) Layout {
	localBits := ceilLog2(a.LocalDepth)
	accumulatorBits := ceilLog2(a.AccumulatorDepth)
	dram0Bits := ceilLog2(a.DRAM0Depth)
	dram1Bits := ceilLog2(a.DRAM1Depth)

	var l Layout
	l.Stride0Bits = ceilLog2(a.Stride0Depth)
	l.Stride1Bits = ceilLog2(a.Stride1Depth)

	simdOpBits := ceilLog2(simdOpCount)
	simdOperandBits := ceilLog2(a.SIMDRegistersDepth + 1)
	simdInstructionBits := simdOperandBits*3 + simdOpBits

	l.Operand0AddrBits = maxInt(localBits, accumulatorBits)
	l.Operand1AddrBits = maxInt(localBits, dram0Bits, dram1Bits, accumulatorBits)

	operand2Bits := maxInt(
		minInt(localBits, accumulatorBits),
		minInt(localBits, dram0Bits),
		minInt(localBits, dram1Bits),
		simdInstructionBits,
	)

	l.HeaderSizeBytes = 1
	l.Operand0SizeBytes = roundToBytes(l.Operand0AddrBits + l.Stride0Bits)
	l.Operand1SizeBytes = roundToBytes(l.Operand1AddrBits + l.Stride1Bits)
	l.Operand2SizeBytes = roundToBytes(operand2Bits)
	l.InstructionSizeBytes = l.HeaderSizeBytes + l.Operand0SizeBytes + l.Operand1SizeBytes + l.Operand2SizeBytes
	return l
}

// MakeOperand0 packs an address and stride selector into operand0's wire
// representation: the address in the low bits, the stride exponent above it.
func (l Layout) MakeOperand0(addr, stride uint64) uint64 {
	addrMask := uint64(1)<<uint(l.Operand0AddrBits) - 1
	strideMask := uint64(1)<<uint(l.Stride0Bits) - 1
	return (stride&strideMask)<<uint(l.Operand0AddrBits) | (addr & addrMask)
}

// MakeOperand1 is the operand1 counterpart of MakeOperand0.
func (l Layout) MakeOperand1(addr, stride uint64) uint64 {
	addrMask := uint64(1)<<uint(l.Operand1AddrBits) - 1
	strideMask := uint64(1)<<uint(l.Stride1Bits) - 1
	return (stride&strideMask)<<uint(l.Operand1AddrBits) | (addr & addrMask)
}
