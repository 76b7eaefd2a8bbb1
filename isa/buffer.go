// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package isa

import (
	"github.com/tcu-go/tcu/dmamem"
	"github.com/tcu-go/tcu/platform"
	"github.com/tcu-go/tcu/tcuerr"
)

// Buffer is the append-only instruction program builder. It owns a
// contiguous DMA-visible region and a monotonic append Offset;
// Offset never exceeds the region's size, and the region is flushed for
// cache coherency after every mutation.
type Buffer struct {
	region dmamem.Region
	Offset int
}

// NewBuffer wraps region as an instruction buffer, starting empty.
func NewBuffer(region dmamem.Region) *Buffer {
	return &Buffer{region: region}
}

// Region returns the buffer's backing DMA region.
func (b *Buffer) Region() dmamem.Region { return b.region }

// Reset rewinds the buffer to empty without touching its contents; the
// next append starts at offset 0.
func (b *Buffer) Reset() {
	b.Offset = 0
}

func (b *Buffer) remaining() int {
	return len(b.region.Bytes()) - b.Offset
}

// AppendInstruction encodes one instruction at the current offset and
// advances it, flushing exactly the bytes written.
func (b *Buffer) AppendInstruction(l Layout, opcode Opcode, flags Flag, op0, op1, op2 uint64) error {
	if l.InstructionSizeBytes > b.remaining() {
		return tcuerr.Driverf(tcuerr.InsufficientBuffer, "instruction buffer exhausted: need %d, have %d", l.InstructionSizeBytes, b.remaining())
	}
	SetInstruction(l, b.region.Bytes(), b.Offset, opcode, flags, op0, op1, op2)
	if err := b.region.Flush(b.Offset, l.InstructionSizeBytes); err != nil {
		return err
	}
	b.Offset += l.InstructionSizeBytes
	return nil
}

// AppendConfig appends a Config instruction packing (value<<4)|register
// across the whole operand block.
func (b *Buffer) AppendConfig(l Layout, register int, value uint64) error {
	if l.InstructionSizeBytes > b.remaining() {
		return tcuerr.Driverf(tcuerr.InsufficientBuffer, "instruction buffer exhausted: need %d, have %d", l.InstructionSizeBytes, b.remaining())
	}
	SetAllOperands(l, b.region.Bytes(), b.Offset, Config, 0, value<<4|uint64(register))
	if err := b.region.Flush(b.Offset, l.InstructionSizeBytes); err != nil {
		return err
	}
	b.Offset += l.InstructionSizeBytes
	return nil
}

// AppendNoops appends count all-zero NoOp instructions, one at a time, so
// every instruction in the buffer goes through the same per-append
// flush/bookkeeping path.
func (b *Buffer) AppendNoops(l Layout, count int) error {
	for i := 0; i < count; i++ {
		if err := b.AppendInstruction(l, NoOp, 0, 0, 0, 0); err != nil {
			return err
		}
	}
	return nil
}

// PadToAlignment appends NoOps until Offset is a multiple of alignmentBytes
// (the DMA bus width).
func (b *Buffer) PadToAlignment(l Layout, alignmentBytes int) error {
	for b.Offset%alignmentBytes != 0 {
		if err := b.AppendInstruction(l, NoOp, 0, 0, 0, 0); err != nil {
			return err
		}
	}
	return nil
}

// AppendProgram copies a pre-compiled program image verbatim into the
// buffer and flushes the written range.
func (b *Buffer) AppendProgram(program []byte) error {
	if len(program) > b.remaining() {
		return tcuerr.Driverf(tcuerr.InsufficientBuffer, "program of %d bytes exceeds remaining %d", len(program), b.remaining())
	}
	copy(b.region.Bytes()[b.Offset:], program)
	if err := b.region.Flush(b.Offset, len(program)); err != nil {
		return err
	}
	b.Offset += len(program)
	return nil
}

// AppendProgramFromFile reads a pre-compiled program directly from fs at
// path into the buffer. If expectSize is nonzero, the file's actual size
// must match it exactly.
func (b *Buffer) AppendProgramFromFile(fs platform.FileSystem, path string, expectSize int64) error {
	actual, err := fs.Size(path)
	if err != nil {
		return tcuerr.FS(path, err)
	}
	if expectSize != 0 && actual != expectSize {
		return tcuerr.Driverf(tcuerr.UnexpectedProgramSize, "%s: expected %d bytes, got %d", path, expectSize, actual)
	}
	if actual > int64(b.remaining()) {
		return tcuerr.Driverf(tcuerr.InsufficientBuffer, "program file %s of %d bytes exceeds remaining %d", path, actual, b.remaining())
	}
	if err := fs.ReadAt(path, 0, b.region.Bytes()[b.Offset:b.Offset+int(actual)]); err != nil {
		return tcuerr.FS(path, err)
	}
	if err := b.region.Flush(b.Offset, int(actual)); err != nil {
		return err
	}
	b.Offset += int(actual)
	return nil
}
