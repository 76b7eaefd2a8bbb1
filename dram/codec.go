// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package dram implements the scalar codec for the accelerator's two DRAM
// banks: encoding/decoding the fixed-point wire format and the
// bank-addressed byte operations built on top of it.
package dram

import (
	"bytes"
	"math"
	"math/rand"

	"github.com/tcu-go/tcu/arch"
	"github.com/tcu-go/tcu/dmamem"
)

// Scalar format constants for FP16BP8: a 16-bit signed integer with an
// implied scale of 2^8 (8 fractional bits).
const (
	fp16bp8SizeBytes = 2
	fp16bp8Ratio     = 256
	fp16bp8Max       = float32(32767) / fp16bp8Ratio // INT16_MAX/256
	fp16bp8Min       = float32(-32768) / fp16bp8Ratio // INT16_MIN/256
	fp16bp8MaxError  = 0.2
)

// SizeofScalar returns the wire size in bytes of a's scalar data type.
func SizeofScalar(dt arch.DataType) int {
	switch dt {
	case arch.FP16BP8:
		return fp16bp8SizeBytes
	default:
		return 0
	}
}

// MaxScalar, MinScalar, and MaxError report the representable range and
// maximum round-trip error of dt's codec.
func MaxScalar(dt arch.DataType) float32 { return fp16bp8Max }
func MinScalar(dt arch.DataType) float32 { return fp16bp8Min }
func MaxError(dt arch.DataType) float32  { return fp16bp8MaxError }

// encodeFP16BP8 quantizes x into its 16-bit signed fixed-point
// representation, clamping (saturating) values outside the representable
// range rather than wrapping.
func encodeFP16BP8(x float32) int16 {
	scaled := math.Round(float64(x) * fp16bp8Ratio)
	if scaled > 32767 {
		return 32767
	}
	if scaled < -32768 {
		return -32768
	}
	return int16(scaled)
}

// decodeFP16BP8 is the inverse of encodeFP16BP8.
func decodeFP16BP8(v int16) float32 {
	return float32(v) / fp16bp8Ratio
}

// ReadScalars flushes the byte range then decodes count scalars starting
// at offsetScalars from bank into out.
func ReadScalars(bank dmamem.Region, dt arch.DataType, offsetScalars, count int, out []float32) error {
	size := SizeofScalar(dt)
	byteOffset := offsetScalars * size
	if err := bank.Flush(byteOffset, count*size); err != nil {
		return err
	}
	buf := bank.Bytes()
	for i := 0; i < count; i++ {
		off := byteOffset + i*size
		raw := int16(uint16(buf[off]) | uint16(buf[off+1])<<8)
		out[i] = decodeFP16BP8(raw)
	}
	return nil
}

// WriteScalars encodes count scalars from in into bank starting at
// offsetScalars, then flushes the written byte range.
func WriteScalars(bank dmamem.Region, dt arch.DataType, offsetScalars, count int, in []float32) error {
	size := SizeofScalar(dt)
	byteOffset := offsetScalars * size
	buf := bank.Bytes()
	for i := 0; i < count; i++ {
		v := encodeFP16BP8(in[i])
		off := byteOffset + i*size
		buf[off] = byte(uint16(v))
		buf[off+1] = byte(uint16(v) >> 8)
	}
	return bank.Flush(byteOffset, count*size)
}

// FillRandom fills countScalars scalars starting at offset with random
// bytes, then flushes the range.
func FillRandom(bank dmamem.Region, dt arch.DataType, offset, countScalars int) error {
	size := SizeofScalar(dt)
	byteOffset := offset * size
	n := countScalars * size
	buf := bank.Bytes()
	for i := 0; i < n; i++ {
		buf[byteOffset+i] = byte(rand.Intn(256))
	}
	return bank.Flush(byteOffset, n)
}

// FillBytes fills countScalars scalars starting at offset with the literal
// byte value, then flushes the range.
func FillBytes(bank dmamem.Region, dt arch.DataType, offset int, value byte, countScalars int) error {
	size := SizeofScalar(dt)
	byteOffset := offset * size
	n := countScalars * size
	buf := bank.Bytes()
	for i := 0; i < n; i++ {
		buf[byteOffset+i] = value
	}
	return bank.Flush(byteOffset, n)
}

// CompareBytes flushes both ranges then compares them with memcmp
// semantics: negative if a < b, zero if equal, positive if a > b.
func CompareBytes(bankA, bankB dmamem.Region, dt arch.DataType, offsetA, offsetB, countScalars int) (int, error) {
	size := SizeofScalar(dt)
	n := countScalars * size
	if err := bankA.Flush(offsetA*size, n); err != nil {
		return 0, err
	}
	if err := bankB.Flush(offsetB*size, n); err != nil {
		return 0, err
	}
	a := bankA.Bytes()[offsetA*size : offsetA*size+n]
	b := bankB.Bytes()[offsetB*size : offsetB*size+n]
	return bytes.Compare(a, b), nil
}
