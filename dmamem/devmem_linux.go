// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

//go:build linux

package dmamem

import (
	"fmt"
	"os"
	"sync"
	"syscall"

	"github.com/tcu-go/tcu/tcuerr"
)

var (
	mu        sync.Mutex
	devMem    *os.File
	devMemErr error
)

func openDevMem() (*os.File, error) {
	mu.Lock()
	defer mu.Unlock()
	if devMem == nil && devMemErr == nil {
		devMem, devMemErr = os.OpenFile("/dev/mem", os.O_RDWR|os.O_SYNC, 0)
	}
	return devMem, devMemErr
}

// devMemRegion is a Region backed by a /dev/mem mapping of physical memory.
type devMemRegion struct {
	slice []byte // view, offset within orig to the requested base
	orig  []byte // full page-aligned mapping, used for Munmap
	base  uint64
}

// Map maps size bytes of physical memory starting at base, rounded to the
// enclosing 4KB page range.
func Map(base uint64, size int) (Region, error) {
	f, err := openDevMem()
	if err != nil {
		return nil, tcuerr.FS("/dev/mem", err)
	}
	pageOffset := int(base & 0xFFF)
	mapSize := (size + pageOffset + 0xFFF) &^ 0xFFF
	orig, err := syscall.Mmap(int(f.Fd()), int64(base&^0xFFF), mapSize,
		syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_SHARED)
	if err != nil {
		return nil, tcuerr.FS(fmt.Sprintf("/dev/mem@0x%x", base), err)
	}
	return &devMemRegion{slice: orig[pageOffset : pageOffset+size], orig: orig, base: base}, nil
}

func (r *devMemRegion) Bytes() []byte    { return r.slice }
func (r *devMemRegion) PhysAddr() uint64 { return r.base }

// Flush is a no-op on the /dev/mem path: mmap of physical memory through
// /dev/mem is always uncached on the platforms this driver targets, so the
// CPU cache never holds a dirty line over this range. Platforms where that
// isn't true should use a Region implementation that calls the vendor
// cache-maintenance routine (e.g. Xil_DCacheFlushRange) instead.
func (r *devMemRegion) Flush(offset, size int) error {
	if offset < 0 || size < 0 || offset+size > len(r.slice) {
		return tcuerr.Driverf(tcuerr.InsufficientBuffer, "flush range [%d,%d) out of bounds", offset, offset+size)
	}
	return nil
}

func (r *devMemRegion) Close() error {
	return syscall.Munmap(r.orig)
}
