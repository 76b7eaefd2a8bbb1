// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package driver

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/tcu-go/tcu/dram"
	"github.com/tcu-go/tcu/isa"
	"github.com/tcu-go/tcu/tcusim"
)

// fakeClock is a Stopwatch that records its transitions instead of timing.
type fakeClock struct {
	starts, stops int
}

func (c *fakeClock) Start()                 { c.starts++ }
func (c *fakeClock) Stop()                  { c.stops++ }
func (c *fakeClock) Elapsed() time.Duration { return 42 * time.Microsecond }

// appendIdentityProgram frames a program that round-trips one vector
// DRAM0 -> Local -> Accumulator -> Local -> DRAM0 at a different offset.
func appendIdentityProgram(t *testing.T, d *Driver, srcVec, dstVec int) {
	t.Helper()
	if err := d.preamble(); err != nil {
		t.Fatalf("preamble: %v", err)
	}
	l := d.layout

	op0 := l.MakeOperand0(0, 0) // Local slot 0
	opSrc := l.MakeOperand1(uint64(srcVec), 0)
	if err := d.progBuf.AppendInstruction(l, isa.DataMove, isa.DataMoveDRAM0ToLocal, op0, opSrc, 0); err != nil {
		t.Fatalf("append DRAM0->Local: %v", err)
	}

	opAcc := l.MakeOperand1(0, 0)
	if err := d.progBuf.AppendInstruction(l, isa.DataMove, isa.DataMoveLocalToAccumulator, op0, opAcc, 0); err != nil {
		t.Fatalf("append Local->Accumulator: %v", err)
	}
	if err := d.progBuf.AppendInstruction(l, isa.DataMove, isa.DataMoveAccumulatorToLocal, op0, opAcc, 0); err != nil {
		t.Fatalf("append Accumulator->Local: %v", err)
	}

	opDst := l.MakeOperand1(uint64(dstVec), 0)
	if err := d.progBuf.AppendInstruction(l, isa.DataMove, isa.DataMoveLocalToDRAM0, op0, opDst, 0); err != nil {
		t.Fatalf("append Local->DRAM0: %v", err)
	}

	if err := d.postamble(); err != nil {
		t.Fatalf("postamble: %v", err)
	}
}

// TestRunIdentityTransform runs the identity round trip end to end: the
// destination vector must read back within the codec's max error, and the
// run must complete (the flush probe must resolve).
func TestRunIdentityTransform(t *testing.T) {
	d, _ := newTestDriver(t, nil)
	a := d.arch

	v := []float32{1.0, -1.0, 0.5, 0.25}
	if err := dram.WriteScalars(d.dram0, a.DataType, 0, a.ArraySize, v); err != nil {
		t.Fatalf("seed DRAM0: %v", err)
	}

	const srcVec = 0
	const dstVec = 32 // well clear of the probe's reserved top two slots
	appendIdentityProgram(t, d, srcVec, dstVec)
	if err := d.Run(nil); err != nil {
		t.Fatalf("Run: %v", err)
	}

	out := make([]float32, a.ArraySize)
	if err := dram.ReadScalars(d.dram0, a.DataType, dstVec*a.ArraySize, a.ArraySize, out); err != nil {
		t.Fatalf("read back: %v", err)
	}
	maxErr := float64(dram.MaxError(a.DataType))
	for i, want := range v {
		if math.Abs(float64(out[i])-float64(want)) > maxErr {
			t.Errorf("scalar %d: got %v, want %v (+/- %v)", i, out[i], want, maxErr)
		}
	}
}

func TestRunTimesWithClock(t *testing.T) {
	sim := tcusim.New(testArch())
	cfg := testConfig(sim, nil)
	clock := &fakeClock{}
	cfg.Clock = clock
	d := New(cfg)
	if err := d.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	// Init's config program already ran under the clock.
	if clock.starts == 0 || clock.starts != clock.stops {
		t.Fatalf("clock transitions after Init: %d starts, %d stops", clock.starts, clock.stops)
	}
	before := clock.starts
	appendIdentityProgram(t, d, 0, 32)
	if err := d.Run(nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if clock.starts != before+1 || clock.stops != before+1 {
		t.Errorf("clock transitions after Run: %d starts, %d stops, want %d each", clock.starts, clock.stops, before+1)
	}
}

// newSamplingTestDriver is newTestDriver with the sample channel, buffer,
// and interval configured.
func newSamplingTestDriver(t *testing.T, fs fakeFS) (*Driver, *tcusim.TCU) {
	t.Helper()
	sim := tcusim.New(testArch())
	sim.MaxTransferLen = 16
	sim.DataWidth = 4
	cfg := testConfig(sim, fs)
	interval := uint16(10)
	cfg.SampleBufferBase = 0x20000
	cfg.SampleBufferHigh = 0x20000 + 4096
	cfg.SampleBlockSize = 4
	cfg.SampleIntervalCycles = &interval
	cfg.Samples = sim.Samples()
	d := New(cfg)
	if err := d.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return d, sim
}

func TestRunWithSamplingReportsAndPersists(t *testing.T) {
	fs := fakeFS{}
	d, _ := newSamplingTestDriver(t, fs)

	if err := dram.WriteScalars(d.dram0, d.arch.DataType, 0, d.arch.ArraySize, []float32{2, 4, 6, 8}); err != nil {
		t.Fatalf("seed DRAM0: %v", err)
	}
	appendIdentityProgram(t, d, 0, 32)

	var report bytes.Buffer
	opts := &RunOptions{
		PrintSummary:    true,
		PrintAggregates: true,
		PrintListing:    true,
		Out:             &report,
		SampleFile:      "/samples.bin",
	}
	if err := d.Run(opts); err != nil {
		t.Fatalf("Run: %v", err)
	}

	text := report.String()
	if !strings.Contains(text, "samples:") {
		t.Errorf("summary missing from report:\n%s", text)
	}
	if !strings.Contains(text, "DataMove") {
		t.Errorf("DataMove totals missing from report:\n%s", text)
	}
	if len(fs["/samples.bin"]) == 0 {
		t.Errorf("sample file not persisted")
	}
	if len(fs["/samples.bin"])%8 != 0 {
		t.Errorf("sample file length %d is not slot-aligned", len(fs["/samples.bin"]))
	}
}
