// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package driver

import (
	"log"

	"github.com/tcu-go/tcu/arch"
	"github.com/tcu-go/tcu/dmamem"
	"github.com/tcu-go/tcu/dram"
	"github.com/tcu-go/tcu/isa"
	"github.com/tcu-go/tcu/model"
	"github.com/tcu-go/tcu/sample"
	"github.com/tcu-go/tcu/tcuerr"
	"github.com/tcu-go/tcu/transport"
)

// programCounterShift is the value the preamble seeds the decoder's program
// counter with when sampling, so that samples of the user program correlate
// past the config instruction that precedes it in the buffer.
const programCounterShift = 1

// Driver orchestrates the accelerator end to end: initialization, program
// assembly and dispatch, completion detection, model loading, and DRAM
// vector I/O.
type Driver struct {
	cfg    Config
	arch   arch.Architecture
	layout isa.Layout
	// model is the most recently loaded model descriptor; named input/output
	// operations resolve bindings against it.
	model model.Model

	progBuf *isa.Buffer
	dram0   dmamem.Region
	dram1   dmamem.Region

	sampleRegion    dmamem.Region
	sampleBlockSize int

	instr   transport.InstructionChannel
	samples transport.SampleChannel

	// probeSourceOffset/probeTargetOffset are DRAM0 vector indices; the
	// top two vector slots are reserved for the completion probe.
	probeSourceOffset int
	probeTargetOffset int
	// localOffset is the Local-memory vector index the probe stages
	// through, the last slot in Local memory.
	localOffset int
}

// New constructs a Driver from cfg without touching hardware. Call Init to
// validate, carve regions, bring up DMA, and run the config program.
func New(cfg Config) *Driver {
	return &Driver{cfg: cfg}
}

func sizeofDRAMBank(a arch.Architecture, depth int) int {
	return depth * a.ArraySize * dram.SizeofScalar(a.DataType)
}

// bankRegion resolves a Bank selector to its backing region.
func (d *Driver) bankRegion(b Bank) dmamem.Region {
	if b == DRAM1 {
		return d.dram1
	}
	return d.dram0
}

// bankDepth returns the vector capacity of b.
func (d *Driver) bankDepth(b Bank) int {
	if b == DRAM1 {
		return d.arch.DRAM1Depth
	}
	return d.arch.DRAM0Depth
}

// Init validates the architecture, computes the instruction layout, carves
// the instruction/DRAM/sample regions from the platform memory map, brings
// up the DMA channels, and runs the initial config program.
func (d *Driver) Init() error {
	d.arch = d.cfg.Arch
	if !d.arch.Validate() {
		return tcuerr.Driverf(tcuerr.InvalidArch, "architecture failed validation: %+v", d.arch)
	}
	d.layout = isa.NewLayout(d.arch)

	if d.cfg.DRAMBufferBase%dramOffsetAlignment != 0 {
		return tcuerr.Driverf(tcuerr.InvalidPlatform, "DRAM buffer base %#x is not 64KB-aligned", d.cfg.DRAMBufferBase)
	}

	progRegion, err := d.cfg.mapRegion(d.cfg.ProgBufferBase, int(d.cfg.ProgBufferHigh-d.cfg.ProgBufferBase))
	if err != nil {
		return err
	}
	d.progBuf = isa.NewBuffer(progRegion)

	dram0Size := sizeofDRAMBank(d.arch, d.arch.DRAM0Depth)
	dram1Size := sizeofDRAMBank(d.arch, d.arch.DRAM1Depth)
	configured := int(d.cfg.DRAMBufferHigh - d.cfg.DRAMBufferBase)
	if dram0Size+dram1Size > configured {
		return tcuerr.Driverf(tcuerr.InsufficientBuffer, "architecture needs %d bytes of DRAM, platform configured %d", dram0Size+dram1Size, configured)
	}
	dramRegion, err := d.cfg.mapRegion(d.cfg.DRAMBufferBase, configured)
	if err != nil {
		return err
	}
	if d.dram0, err = dmamem.Sub(dramRegion, 0, dram0Size); err != nil {
		return err
	}
	if d.dram1, err = dmamem.Sub(dramRegion, dram0Size, dram1Size); err != nil {
		return err
	}
	// DRAM1 starts right after DRAM0, so its base is only 64KB-aligned when
	// the DRAM0 bank's byte size is; a misaligned base would be silently
	// truncated by the offset register's 16-bit right shift.
	if d.dram1.PhysAddr()%dramOffsetAlignment != 0 {
		return tcuerr.Driverf(tcuerr.InvalidPlatform, "DRAM1 bank base %#x is not 64KB-aligned", d.dram1.PhysAddr())
	}

	d.probeSourceOffset = d.arch.DRAM0Depth - 1
	d.probeTargetOffset = d.arch.DRAM0Depth - 2
	d.localOffset = d.arch.LocalDepth - 1

	if d.cfg.samplingEnabled() {
		if d.cfg.SampleBlockSize <= 0 {
			return tcuerr.Driverf(tcuerr.InvalidPlatform, "sampling enabled without a sample block size")
		}
		if d.cfg.SampleIntervalCycles == nil {
			return tcuerr.Driverf(tcuerr.InvalidPlatform, "sampling enabled without a sample interval")
		}
		sampleSize := d.cfg.SampleBlockSize * sample.SizeBytes
		available := int(d.cfg.SampleBufferHigh - d.cfg.SampleBufferBase)
		if sampleSize > available {
			return tcuerr.Driverf(tcuerr.OutOfSampleBuffer, "sample block of %d bytes exceeds configured buffer of %d", sampleSize, available)
		}
		d.sampleRegion, err = d.cfg.mapRegion(d.cfg.SampleBufferBase, available)
		if err != nil {
			return err
		}
		d.sampleBlockSize = d.cfg.SampleBlockSize
		d.samples = d.cfg.Samples
		if err := d.samples.Init(); err != nil {
			return err
		}
	}

	d.instr = d.cfg.Instructions
	if d.instr == nil {
		return tcuerr.Driverf(tcuerr.InvalidPlatform, "no instruction DMA channel configured")
	}
	if err := d.instr.Init(); err != nil {
		return err
	}

	if err := d.runConfigProgram(); err != nil {
		return err
	}
	logf("array size %d, %d byte instructions, sampling %v",
		d.arch.ArraySize, d.layout.InstructionSizeBytes, d.samplingEnabled())
	return nil
}

// samplingEnabled reports whether this Driver was configured with a
// sample DMA channel and buffer.
func (d *Driver) samplingEnabled() bool {
	return d.samples != nil
}

func (d *Driver) runConfigProgram() error {
	if err := d.preamble(); err != nil {
		return err
	}
	if err := d.progBuf.AppendConfig(d.layout, isa.ConfigDRAM0Offset, d.dram0.PhysAddr()>>16); err != nil {
		return err
	}
	if err := d.progBuf.AppendConfig(d.layout, isa.ConfigDRAM1Offset, d.dram1.PhysAddr()>>16); err != nil {
		return err
	}
	if d.cfg.DecoderTimeout != nil {
		if err := d.progBuf.AppendConfig(d.layout, isa.ConfigTimeout, uint64(*d.cfg.DecoderTimeout)); err != nil {
			return err
		}
	}
	if d.samplingEnabled() {
		if err := d.progBuf.AppendConfig(d.layout, isa.ConfigSampleInterval, uint64(*d.cfg.SampleIntervalCycles)); err != nil {
			return err
		}
	}
	if err := d.postamble(); err != nil {
		return err
	}
	return d.Run(nil)
}

// preamble resets the program buffer and, when sampling is enabled, seeds
// the decoder's program counter so subsequent samples' PCs line up with
// the user program. This assumes the config instruction is not advancing
// the program counter after setting it.
func (d *Driver) preamble() error {
	d.progBuf.Reset()
	if d.samplingEnabled() {
		if err := d.progBuf.AppendConfig(d.layout, isa.ConfigProgramCounter, programCounterShift); err != nil {
			return err
		}
	}
	return nil
}

// postamble appends the completion probe and pads to the DMA alignment
// boundary.
func (d *Driver) postamble() error {
	op0 := d.layout.MakeOperand0(uint64(d.localOffset), 0)
	opSource := d.layout.MakeOperand1(uint64(d.probeSourceOffset), 0)
	opTarget := d.layout.MakeOperand1(uint64(d.probeTargetOffset), 0)

	if err := d.progBuf.AppendInstruction(d.layout, isa.DataMove, isa.DataMoveDRAM0ToLocal, op0, opSource, 0); err != nil {
		return err
	}
	if err := d.progBuf.AppendInstruction(d.layout, isa.DataMove, isa.DataMoveLocalToDRAM0, op0, opTarget, 0); err != nil {
		return err
	}
	return d.progBuf.PadToAlignment(d.layout, d.instr.DataWidthBytes())
}

// resetFlushProbe seeds the two reserved DRAM0 sentinel vectors so that
// equality after a run implies the postamble's probe instructions have
// landed.
func (d *Driver) resetFlushProbe() error {
	if err := dram.FillBytes(d.dram0, d.arch.DataType, d.probeSourceOffset*d.arch.ArraySize, 0x00, d.arch.ArraySize); err != nil {
		return err
	}
	return dram.FillBytes(d.dram0, d.arch.DataType, d.probeTargetOffset*d.arch.ArraySize, 0xFF, d.arch.ArraySize)
}

// waitForFlush busy-polls (reflushing the cache each round) until the two
// probe sentinels compare equal.
func (d *Driver) waitForFlush() error {
	for {
		cmp, err := dram.CompareBytes(d.dram0, d.dram0, d.arch.DataType,
			d.probeSourceOffset*d.arch.ArraySize, d.probeTargetOffset*d.arch.ArraySize, d.arch.ArraySize)
		if err != nil {
			return err
		}
		if cmp == 0 {
			return nil
		}
	}
}

func logf(format string, args ...interface{}) {
	log.Printf("tcu: "+format, args...)
}
