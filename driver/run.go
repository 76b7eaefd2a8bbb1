// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package driver

import (
	"io"
	"os"

	"github.com/tcu-go/tcu/sample"
	"github.com/tcu-go/tcu/tcuerr"
)

// RunOptions controls post-run sample reporting and persistence, only
// meaningful when the Driver was configured with sampling.
type RunOptions struct {
	PrintSummary    bool
	PrintAggregates bool
	PrintListing    bool
	// Out receives the requested printouts; defaults to os.Stdout.
	Out io.Writer
	// SampleFile, if non-empty, persists the run's valid sample range to
	// this path through Config.FS.
	SampleFile string
}

func (o *RunOptions) out() io.Writer {
	if o.Out != nil {
		return o.Out
	}
	return os.Stdout
}

// Run dispatches the currently-assembled program, waits for completion via
// the flush probe, and (if sampling is enabled and opts requests it)
// reports or persists the collected samples.
func (d *Driver) Run(opts *RunOptions) error {
	if err := d.resetFlushProbe(); err != nil {
		return err
	}
	if d.cfg.Clock != nil {
		d.cfg.Clock.Start()
	}

	var sampleOffset int
	var err error
	if d.samplingEnabled() {
		sampleOffset, err = d.runInterleaved()
	} else {
		err = d.runPlain()
	}
	if err != nil {
		return err
	}

	if err := d.waitForFlush(); err != nil {
		return err
	}
	if d.cfg.Clock != nil {
		d.cfg.Clock.Stop()
		logf("run took %v", d.cfg.Clock.Elapsed())
	}

	if d.samplingEnabled() && opts != nil {
		buf := d.sampleRegion.Bytes()
		prog := d.progBuf.Region().Bytes()
		if opts.PrintSummary || opts.PrintAggregates {
			it := sample.NewIterator(buf, sampleOffset, d.layout.InstructionSizeBytes, d.progBuf.Offset)
			analysis := sample.Analyze(it, prog, d.layout)
			if opts.PrintSummary {
				analysis.PrintSummary(opts.out())
			}
			if opts.PrintAggregates {
				analysis.PrintAggregates(opts.out())
			}
		}
		if opts.PrintListing {
			it := sample.NewIterator(buf, sampleOffset, d.layout.InstructionSizeBytes, d.progBuf.Offset)
			sample.PrintListing(opts.out(), it, prog, d.layout, programCounterShift)
		}
		if opts.SampleFile != "" {
			if d.cfg.FS == nil {
				return tcuerr.Driverf(tcuerr.InvalidPlatform, "sample file persistence requested but no FileSystem configured")
			}
			if err := sample.ToFile(d.cfg.FS, opts.SampleFile, buf, sampleOffset, d.layout.InstructionSizeBytes, d.progBuf.Offset); err != nil {
				return err
			}
		}
	}
	return nil
}

// runPlain is the non-sampling dispatch path: chunked transmit polling
// IsBusy between chunks.
func (d *Driver) runPlain() error {
	runOffset := 0
	total := d.progBuf.Offset
	data := d.progBuf.Region().Bytes()
	for runOffset != total {
		if !d.instr.IsBusy() {
			sent, err := d.instr.StartInstructions(data[runOffset:total])
			if err != nil {
				return err
			}
			if sent == 0 {
				return tcuerr.Driverf(tcuerr.InsufficientBuffer, "instruction channel accepted 0 bytes of %d remaining", total-runOffset)
			}
			runOffset += sent
		}
	}
	for d.instr.IsBusy() {
	}
	return nil
}

func (d *Driver) startSampling(sampleOffset int) (int, error) {
	transferSize := d.sampleBlockSize * sample.SizeBytes
	if transferSize > len(d.sampleRegion.Bytes())-sampleOffset {
		return sampleOffset, tcuerr.Driverf(tcuerr.OutOfSampleBuffer, "out of sample buffer")
	}
	dst := d.sampleRegion.Bytes()[sampleOffset : sampleOffset+transferSize]
	if err := d.samples.StartSampling(dst); err != nil {
		return sampleOffset, err
	}
	return sampleOffset, nil
}

// runInterleaved is the sampling dispatch path: instruction submission
// drives progress; sample collection is best-effort concurrent and
// completes on every idle transition, so the final partial block is never
// dropped.
func (d *Driver) runInterleaved() (int, error) {
	runOffset := 0
	total := d.progBuf.Offset
	data := d.progBuf.Region().Bytes()

	instructionsBusy := false
	sampleBusy := false
	sampleOffset := 0

	for runOffset != total {
		if !instructionsBusy {
			sent, err := d.instr.StartInstructions(data[runOffset:total])
			if err != nil {
				return sampleOffset, err
			}
			if sent == 0 {
				return sampleOffset, tcuerr.Driverf(tcuerr.InsufficientBuffer, "instruction channel accepted 0 bytes of %d remaining", total-runOffset)
			}
			runOffset += sent
			instructionsBusy = true
		}
		if !sampleBusy {
			var err error
			sampleOffset, err = d.startSampling(sampleOffset)
			if err != nil {
				return sampleOffset, err
			}
			sampleBusy = true
		}

		for d.instr.IsBusy() && d.samples.IsBusy() {
		}

		instructionsBusy = d.instr.IsBusy()
		if sampleBusy && !d.samples.IsBusy() {
			sampleOffset += d.samples.CompleteSampling()
			sampleBusy = false
		}
	}

	for d.instr.IsBusy() {
		if !sampleBusy {
			var err error
			sampleOffset, err = d.startSampling(sampleOffset)
			if err != nil {
				return sampleOffset, err
			}
			sampleBusy = true
		}
		if sampleBusy && !d.samples.IsBusy() {
			sampleOffset += d.samples.CompleteSampling()
			sampleBusy = false
		}
	}

	if sampleBusy {
		for d.samples.IsBusy() {
		}
		sampleOffset += d.samples.CompleteSampling()
	}

	return sampleOffset, nil
}
