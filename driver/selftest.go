// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package driver

import (
	"fmt"
	"io"

	"github.com/tcu-go/tcu/dram"
	"github.com/tcu-go/tcu/isa"
	"github.com/tcu-go/tcu/tcuerr"
)

// probeReservedVectors is how many top DRAM0 vector slots the completion
// probe owns; the memory test must stay clear of them.
const probeReservedVectors = 2

// RunMemoryTest sweeps vector counts and stride selectors, round-tripping
// random data from one DRAM bank through Local and the accumulator into
// another, and reports mismatches to w. It exercises the same DataMove
// paths a model run uses, so a failing board surfaces here before any model
// produces silently wrong output. Returns the number of failing
// combinations.
func (d *Driver) RunMemoryTest(w io.Writer, from, to Bank, verbose bool) (int, error) {
	maxSize := d.arch.AccumulatorDepth
	fromBuf := make([]float32, maxSize*d.arch.ArraySize)
	toBuf := make([]float32, maxSize*d.arch.ArraySize)

	failures := 0
	tests := 0
	for size := 1; size <= maxSize; size *= 2 {
		for stride0 := uint(0); int(stride0) < d.arch.Stride0Depth; stride0++ {
			for stride1 := uint(0); int(stride1) < d.arch.Stride1Depth; stride1++ {
				failed, ran, err := d.doMemoryTest(w, from, to, size, stride0, stride1, fromBuf, toBuf, verbose)
				if err != nil {
					return failures, err
				}
				if ran {
					tests++
				}
				if failed {
					failures++
				}
			}
		}
	}
	fmt.Fprintf(w, "memory test %v->%v: %d combinations, %d failed\n", from, to, tests, failures)
	return failures, nil
}

// doMemoryTest runs one (size, stride0, stride1) combination with the data
// placed at the bottom of the source bank and landed immediately past its
// own extent in the destination bank. Combinations that would overrun
// Local, the accumulator, or a bank's usable depth are skipped.
func (d *Driver) doMemoryTest(w io.Writer, from, to Bank, size int, stride0, stride1 uint, fromBuf, toBuf []float32, verbose bool) (failed, ran bool, err error) {
	maxStride := stride0
	if stride1 > maxStride {
		maxStride = stride1
	}
	extent := size * (1 << maxStride)
	fromOffset := 0
	toOffset := extent

	if fromOffset+extent > d.arch.LocalDepth ||
		toOffset+extent > d.arch.LocalDepth ||
		toOffset+extent > d.arch.AccumulatorDepth {
		return false, false, nil
	}
	if fromOffset+extent > d.bankDepth(from)-probeReservedVectors ||
		toOffset+extent > d.bankDepth(to)-probeReservedVectors {
		return false, false, nil
	}

	if err := d.writeDRAMRandomVectors(from, fromOffset, stride1, size); err != nil {
		return false, false, err
	}
	scalars := size * d.arch.ArraySize
	if err := d.ReadDRAMVectors(from, fromOffset, stride1, size, fromBuf[:scalars]); err != nil {
		return false, false, err
	}

	fromFlags := isa.DataMoveDRAM0ToLocal
	if from == DRAM1 {
		fromFlags = isa.DataMoveDRAM1ToLocal
	}
	toFlags := isa.DataMoveLocalToDRAM0
	if to == DRAM1 {
		toFlags = isa.DataMoveLocalToDRAM1
	}

	if err := d.preamble(); err != nil {
		return false, false, err
	}
	l := d.layout
	count := uint64(size - 1)
	moves := []struct {
		flags isa.Flag
		op0   uint64
		op1   uint64
	}{
		{fromFlags, l.MakeOperand0(uint64(fromOffset), uint64(stride0)), l.MakeOperand1(uint64(fromOffset), uint64(stride1))},
		{isa.DataMoveLocalToAccumulator, l.MakeOperand0(uint64(fromOffset), uint64(stride0)), l.MakeOperand1(uint64(fromOffset), uint64(stride1))},
		{isa.DataMoveAccumulatorToLocal, l.MakeOperand0(uint64(toOffset), uint64(stride0)), l.MakeOperand1(uint64(fromOffset), uint64(stride1))},
		{toFlags, l.MakeOperand0(uint64(toOffset), uint64(stride0)), l.MakeOperand1(uint64(toOffset), uint64(stride1))},
	}
	for _, m := range moves {
		if err := d.progBuf.AppendInstruction(l, isa.DataMove, m.flags, m.op0, m.op1, count); err != nil {
			return false, false, err
		}
	}
	if err := d.postamble(); err != nil {
		return false, false, err
	}
	if err := d.Run(nil); err != nil {
		return false, false, err
	}

	if err := d.ReadDRAMVectors(to, toOffset, stride1, size, toBuf[:scalars]); err != nil {
		return false, false, err
	}

	bad := 0
	for k := 0; k < scalars; k++ {
		if fromBuf[k] != toBuf[k] {
			if verbose {
				fmt.Fprintf(w, "\t[%d]%f!=[%d]%f\n",
					fromOffset*d.arch.ArraySize+k, fromBuf[k],
					toOffset*d.arch.ArraySize+k, toBuf[k])
			}
			bad++
		}
	}
	if bad > 0 && verbose {
		fmt.Fprintf(w, "moving %d vectors (strides %d/%d): %d bad scalars\n", size, stride0, stride1, bad)
	}
	return bad > 0, true, nil
}

// writeDRAMRandomVectors fills countVec vectors at offsetVec with random
// bytes, honoring the same stride layout the test program will read with.
func (d *Driver) writeDRAMRandomVectors(bank Bank, offsetVec int, strideLog2 uint, countVec int) error {
	region := d.bankRegion(bank)
	if strideLog2 == 0 {
		return dram.FillRandom(region, d.arch.DataType, offsetVec*d.arch.ArraySize, countVec*d.arch.ArraySize)
	}
	stride := 1 << strideLog2
	for i := 0; i < countVec; i++ {
		off := (offsetVec + i*stride) * d.arch.ArraySize
		if off*dram.SizeofScalar(d.arch.DataType) >= len(region.Bytes()) {
			return tcuerr.Driverf(tcuerr.InsufficientBuffer, "random fill past end of bank")
		}
		if err := dram.FillRandom(region, d.arch.DataType, off, d.arch.ArraySize); err != nil {
			return err
		}
	}
	return nil
}
