// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package transport defines the TCU's two AXI-DMA channels: one for
// transmitting instructions, one (optional) for receiving samples, plus a
// simulated implementation for hosts and tests without real hardware.
package transport

// InstructionChannel transmits instruction-buffer bytes to the TCU:
// chunked, poll-oriented transmission with a vendor-imposed maximum
// transfer length and data-width alignment.
type InstructionChannel interface {
	// Init looks up the underlying DMA device, runs its self-test, and
	// disables interrupts (the driver polls rather than waits on IRQ).
	Init() error
	// StartInstructions submits as much of data as the channel's transfer
	// limits allow, at most min(len(data), MaxTransferLen) rounded down
	// to a DataWidthBytes multiple, and returns how many bytes it
	// accepted. The caller advances its own run offset by that amount.
	StartInstructions(data []byte) (sent int, err error)
	// IsBusy reports whether the most recent transfer is still in flight.
	IsBusy() bool
	// DataWidthBytes is the channel's required transfer-size alignment,
	// used for instruction-buffer padding.
	DataWidthBytes() int
}

// SampleChannel receives sample-buffer bytes from the TCU.
type SampleChannel interface {
	Init() error
	// StartSampling begins an asynchronous transfer that will fill dst.
	StartSampling(dst []byte) error
	IsBusy() bool
	// CompleteSampling returns the number of bytes the channel actually
	// transferred in the most recently completed receive, read from the
	// DMA engine's transferred-length register.
	CompleteSampling() int
}
