// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package transport

// SimulatedInstructionChannel is an in-process InstructionChannel used by
// tests and by hosts without a real AXI-DMA device. It records every chunk
// it was asked to transmit (Sent) and can be made to stay "busy" for a
// fixed number of IsBusy polls to exercise the driver's busy-wait paths.
type SimulatedInstructionChannel struct {
	MaxTransferLen int
	DataWidth      int
	// BusyPolls is how many IsBusy() calls return true after each
	// StartInstructions, before settling to false.
	BusyPolls int

	Sent      [][]byte
	pollsLeft int
}

func (c *SimulatedInstructionChannel) Init() error { return nil }

func (c *SimulatedInstructionChannel) StartInstructions(data []byte) (int, error) {
	size := len(data)
	if c.MaxTransferLen > 0 && size > c.MaxTransferLen {
		size = c.MaxTransferLen
	}
	if c.DataWidth > 1 {
		size -= size % c.DataWidth
	}
	chunk := make([]byte, size)
	copy(chunk, data[:size])
	c.Sent = append(c.Sent, chunk)
	c.pollsLeft = c.BusyPolls
	return size, nil
}

func (c *SimulatedInstructionChannel) IsBusy() bool {
	if c.pollsLeft > 0 {
		c.pollsLeft--
		return true
	}
	return false
}

func (c *SimulatedInstructionChannel) DataWidthBytes() int {
	if c.DataWidth == 0 {
		return 1
	}
	return c.DataWidth
}

// SimulatedSampleChannel is the SampleChannel counterpart. Fill, when set,
// is called to populate dst with synthetic sample bytes on each
// StartSampling; this lets tests drive the sample package's wrap-recovery
// logic with deterministic PC sequences.
type SimulatedSampleChannel struct {
	BusyPolls int
	Fill      func(dst []byte)

	lastLen   int
	pollsLeft int
}

func (c *SimulatedSampleChannel) Init() error { return nil }

func (c *SimulatedSampleChannel) StartSampling(dst []byte) error {
	if c.Fill != nil {
		c.Fill(dst)
	}
	c.lastLen = len(dst)
	c.pollsLeft = c.BusyPolls
	return nil
}

func (c *SimulatedSampleChannel) IsBusy() bool {
	if c.pollsLeft > 0 {
		c.pollsLeft--
		return true
	}
	return false
}

func (c *SimulatedSampleChannel) CompleteSampling() int {
	return c.lastLen
}

var (
	_ InstructionChannel = (*SimulatedInstructionChannel)(nil)
	_ SampleChannel      = (*SimulatedSampleChannel)(nil)
)
