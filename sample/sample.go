// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package sample implements the accelerator's execution sample buffer:
// wrap-point recovery, iteration, and aggregate analysis.
package sample

import "encoding/binary"

// SizeBytes is the wire size of one sample: a 32-bit program counter, a
// 16-bit pipeline-stage flags tag, and 2 reserved bytes.
const SizeBytes = 8

// InvalidPC marks a sample slot the TCU never populated.
const InvalidPC uint32 = 0xFFFFFFFF

// Sample is one decoded cycle-interval record.
type Sample struct {
	PC    uint32
	Flags uint16
}

// Decode reads the sample at byte offset in buf.
func Decode(buf []byte, offset int) Sample {
	return Sample{
		PC:    binary.LittleEndian.Uint32(buf[offset:]),
		Flags: binary.LittleEndian.Uint16(buf[offset+4:]),
	}
}

// FindValidOffset scans the filled portion of a sample buffer
// (buf[:filledBytes]) for the first slot where monotonic PC ordering
// breaks (its PC is lower than the previous valid PC) and returns its byte
// offset. Slots holding InvalidPC are skipped, so the never-populated
// padding of a partial DMA block is not mistaken for the wrap. If the
// sequence never breaks (the buffer has not wrapped), it returns 0: the
// buffer has never filled and the oldest valid sample is simply the first
// one.
func FindValidOffset(buf []byte, filledBytes int) int {
	count := filledBytes / SizeBytes
	prev := InvalidPC
	for i := 0; i < count; i++ {
		pc := binary.LittleEndian.Uint32(buf[i*SizeBytes:])
		if pc == InvalidPC {
			continue
		}
		if prev != InvalidPC && pc < prev {
			return i * SizeBytes
		}
		prev = pc
	}
	return 0
}

// Iterator walks valid samples forward from a FindValidOffset result to
// the physical end of the filled buffer. It does not wrap back to offset
// 0: the region past the wrap point up to the buffer's end is the single
// contiguous run of samples still trustworthy after a DMA ring overwrite.
type Iterator struct {
	buf         []byte
	pos         int
	end         int
	instrSize   int
	programSize int
}

// NewIterator starts an Iterator over buf[:filledBytes], beginning at the
// wrap-recovered start offset, filtering samples whose derived instruction
// offset (pc * instrSize) falls within [0, programSize).
func NewIterator(buf []byte, filledBytes, instrSize, programSize int) *Iterator {
	start := FindValidOffset(buf, filledBytes)
	return &Iterator{buf: buf, pos: start - SizeBytes, end: filledBytes, instrSize: instrSize, programSize: programSize}
}

// Next advances to the next valid sample and reports whether one was
// found before reaching the end of the buffer.
func (it *Iterator) Next(out *Sample) bool {
	for {
		it.pos += SizeBytes
		if it.pos >= it.end {
			return false
		}
		s := Decode(it.buf, it.pos)
		if s.PC == InvalidPC {
			continue
		}
		instrOffset := int(s.PC) * it.instrSize
		if instrOffset < 0 || instrOffset >= it.programSize {
			continue
		}
		*out = s
		return true
	}
}
