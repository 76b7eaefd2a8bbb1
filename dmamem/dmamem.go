// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package dmamem provides the DMA-visible memory regions the driver carves
// its instruction buffer, DRAM banks, and sample buffer from: a
// /dev/mem-backed physical mapping for real hardware, plus a RAM-backed
// simulated region for hosts without /dev/mem access.
package dmamem

import "github.com/tcu-go/tcu/tcuerr"

// Region is a contiguous range of DMA-visible memory together with the
// cache-coherency operations the driver must perform around every access.
type Region interface {
	// Bytes returns the region's backing slice. Callers must not retain it
	// past a Flush call that could move or reinterpret the mapping.
	Bytes() []byte
	// PhysAddr returns the region's base physical address, used to compute
	// the accelerator's DRAM offset register values.
	PhysAddr() uint64
	// Flush forces the byte range [offset, offset+size) to be coherent
	// between the CPU cache and DRAM, in both directions: callers flush
	// after every host write before a DMA submission references it, and
	// before every host read that follows a DMA completion.
	Flush(offset, size int) error
	// Close releases the region. Optional on bare-metal targets.
	Close() error
}

// Sub returns a Region representing the sub-range [offset, offset+size) of
// r, sharing r's backing storage. Used by driver.Init to carve the two
// DRAM banks out of one platform-provided range.
func Sub(r Region, offset, size int) (Region, error) {
	b := r.Bytes()
	if offset < 0 || size < 0 || offset+size > len(b) {
		return nil, tcuerr.Driverf(tcuerr.InsufficientBuffer,
			"sub-region [%d, %d) out of bounds for region of size %d", offset, offset+size, len(b))
	}
	return &subRegion{parent: r, offset: offset, size: size}, nil
}

type subRegion struct {
	parent Region
	offset int
	size   int
}

func (s *subRegion) Bytes() []byte {
	return s.parent.Bytes()[s.offset : s.offset+s.size]
}

func (s *subRegion) PhysAddr() uint64 {
	return s.parent.PhysAddr() + uint64(s.offset)
}

func (s *subRegion) Flush(offset, size int) error {
	return s.parent.Flush(s.offset+offset, size)
}

func (s *subRegion) Close() error {
	// Sub-regions don't own the parent's mapping.
	return nil
}
