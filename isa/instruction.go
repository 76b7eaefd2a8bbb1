// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package isa

// The wire format is little-endian byte-packed: operand0, operand1, and
// operand2 in ascending address order, then the header as the
// highest-addressed byte so the accelerator's front end can fetch the
// opcode with a single byte read.

func setLE(buf []byte, offset int, size int, value uint64) {
	for i := 0; i < size; i++ {
		buf[offset+i] = byte(value >> uint(i*8))
	}
}

func getLE(buf []byte, offset int, size int) uint64 {
	var v uint64
	for i := 0; i < size; i++ {
		v |= uint64(buf[offset+i]) << uint(i*8)
	}
	return v
}

// SetInstruction writes one instruction into buf at offset: the three
// independently addressed operand fields followed by the header byte.
func SetInstruction(l Layout, buf []byte, offset int, opcode Opcode, flags Flag, op0, op1, op2 uint64) {
	headerOffset := offset + l.Operand0SizeBytes + l.Operand1SizeBytes + l.Operand2SizeBytes
	buf[headerOffset] = byte(opcode)<<4 | byte(flags)

	setLE(buf, offset, l.Operand0SizeBytes, op0)
	setLE(buf, offset+l.Operand0SizeBytes, l.Operand1SizeBytes, op1)
	setLE(buf, offset+l.Operand0SizeBytes+l.Operand1SizeBytes, l.Operand2SizeBytes, op2)
}

// SetAllOperands writes a Config instruction: the three operand fields are
// treated as one contiguous little-endian value, equal to
// (value<<4)|register, rather than the usual per-operand split.
func SetAllOperands(l Layout, buf []byte, offset int, opcode Opcode, flags Flag, operands uint64) {
	headerOffset := offset + l.Operand0SizeBytes + l.Operand1SizeBytes + l.Operand2SizeBytes
	buf[headerOffset] = byte(opcode)<<4 | byte(flags)

	total := l.Operand0SizeBytes + l.Operand1SizeBytes + l.Operand2SizeBytes
	setLE(buf, offset, total, operands)
}

// DecodedInstruction is the result of reading back a byte-packed
// instruction, used by tests and by the sample analyzer.
type DecodedInstruction struct {
	Opcode Opcode
	Flags  Flag
	Op0    uint64
	Op1    uint64
	Op2    uint64
}

// Decode reads the instruction at offset back out of buf. It is the
// inverse of SetInstruction, used by the sample analyzer to recover an
// instruction's opcode and flags from the program buffer.
func Decode(l Layout, buf []byte, offset int) DecodedInstruction {
	headerOffset := offset + l.Operand0SizeBytes + l.Operand1SizeBytes + l.Operand2SizeBytes
	header := buf[headerOffset]
	return DecodedInstruction{
		Opcode: Opcode(header >> 4),
		Flags:  Flag(header & 0xF),
		Op0:    getLE(buf, offset, l.Operand0SizeBytes),
		Op1:    getLE(buf, offset+l.Operand0SizeBytes, l.Operand1SizeBytes),
		Op2:    getLE(buf, offset+l.Operand0SizeBytes+l.Operand1SizeBytes, l.Operand2SizeBytes),
	}
}

// DecodeAllOperands reads the instruction's whole operand block at offset as
// one little-endian value. It is the inverse of SetAllOperands: for a Config
// instruction the result is (value<<4)|register.
func DecodeAllOperands(l Layout, buf []byte, offset int) uint64 {
	return getLE(buf, offset, l.Operand0SizeBytes+l.Operand1SizeBytes+l.Operand2SizeBytes)
}
