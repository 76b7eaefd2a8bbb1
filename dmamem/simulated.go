// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dmamem

// simulatedRegion is a plain heap-backed Region, used by tests and by
// hosts without /dev/mem access to exercise the driver end to end without
// real hardware. Flush is a genuine no-op since there is no separate
// cache/DRAM coherency domain to manage for a Go slice.
type simulatedRegion struct {
	buf  []byte
	base uint64
}

// NewSimulated returns a Region backed by a zeroed in-process buffer of the
// given size, addressed starting at base (an arbitrary value used only to
// exercise address-dependent logic such as the 64KB DRAM-offset check).
func NewSimulated(base uint64, size int) Region {
	return &simulatedRegion{buf: make([]byte, size), base: base}
}

func (r *simulatedRegion) Bytes() []byte    { return r.buf }
func (r *simulatedRegion) PhysAddr() uint64 { return r.base }

func (r *simulatedRegion) Flush(offset, size int) error {
	if offset < 0 || size < 0 || offset+size > len(r.buf) {
		panic("dmamem: flush range out of bounds")
	}
	return nil
}

func (r *simulatedRegion) Close() error { return nil }
