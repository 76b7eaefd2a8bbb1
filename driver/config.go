// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package driver is the orchestrator: init, program load, run-to-completion,
// and read-back, composing every other package in this module.
//
// Completion of a run is detected with a probe: every program ends with two
// DataMoves that copy a reserved DRAM0 vector into a second reserved one,
// and the host polls until the two compare equal. No fence instruction
// exists, so this assumes the accelerator commits those two DataMoves only
// after every earlier instruction has finished.
package driver

import (
	"github.com/tcu-go/tcu/arch"
	"github.com/tcu-go/tcu/dmamem"
	"github.com/tcu-go/tcu/platform"
	"github.com/tcu-go/tcu/transport"
)

// dramOffsetAlignment is the granularity the accelerator's DRAM offset
// registers address at: each register holds a host pointer right-shifted by
// 16 bits, so DRAM bank base addresses must be 64KB-aligned.
const dramOffsetAlignment = 1 << 16

// Bank selects one of the two DRAM banks visible to both host and
// accelerator: DRAM0 carries activations, inputs, and outputs; DRAM1
// carries weights and constants.
type Bank int

const (
	DRAM0 Bank = 0
	DRAM1 Bank = 1
)

func (b Bank) String() string {
	if b == DRAM1 {
		return "DRAM1"
	}
	return "DRAM0"
}

// Config carries the platform options the driver needs: byte ranges for the
// three DMA-visible regions, the DMA channels themselves, and the optional
// capabilities that gate parts of the driver's surface.
type Config struct {
	Arch arch.Architecture

	ProgBufferBase, ProgBufferHigh     uint64
	DRAMBufferBase, DRAMBufferHigh     uint64
	SampleBufferBase, SampleBufferHigh uint64 // zero range disables sampling

	SampleBlockSize      int     // samples per DMA chunk; required iff sampling
	DecoderTimeout       *uint16 // optional
	SampleIntervalCycles *uint16 // required iff sampling

	Instructions transport.InstructionChannel
	Samples      transport.SampleChannel // nil disables sampling

	// MapRegion carves a DMA-visible Region out of the platform's static
	// memory map. Defaults to dmamem.Map (real /dev/mem) if nil; tests
	// substitute a dmamem.NewSimulated-backed function.
	MapRegion func(base uint64, size int) (dmamem.Region, error)

	// FS is the optional file-system capability. Model loading and sample
	// persistence methods report InvalidPlatform when it is absent.
	FS platform.FileSystem

	// Flash is the optional raw flash capability, for hosts that carry
	// model data outside a file namespace.
	Flash platform.Flash

	// Clock, when set, times each Run from first dispatch to probe
	// resolution and logs the elapsed duration.
	Clock platform.Stopwatch
}

func (c Config) mapRegion(base uint64, size int) (dmamem.Region, error) {
	if c.MapRegion != nil {
		return c.MapRegion(base, size)
	}
	return dmamem.Map(base, size)
}

func (c Config) samplingEnabled() bool {
	return c.SampleBufferHigh > c.SampleBufferBase && c.Samples != nil
}
