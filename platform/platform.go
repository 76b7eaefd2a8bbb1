// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package platform declares the capability-typed collaborators the driver
// needs from its host environment: a file system, a flash reader, and a
// stopwatch. A host that lacks one simply does not supply it; the driver
// methods needing it then report InvalidPlatform instead of being
// conditionally compiled away.
package platform

import "time"

// FileSystem is a blocking byte-range reader/writer of a named path.
//
// Implementations are expected to be safe for the driver's single-threaded,
// cooperative use; no concurrent-access guarantees are required.
type FileSystem interface {
	// Size returns the size in bytes of the file at path.
	Size(path string) (int64, error)
	// ReadAt reads len(buf) bytes from path starting at offset into buf.
	ReadAt(path string, offset int64, buf []byte) error
	// WriteAt writes buf to path starting at offset, creating the file if
	// it does not already exist. Used by sample.ToFile persistence.
	WriteAt(path string, offset int64, buf []byte) error
}

// Flash is a blocking block-read device, distinct from FileSystem because
// on bare-metal targets flash may not be exposed through a file namespace.
type Flash interface {
	// ReadBlock reads len(buf) bytes starting at block-relative offset.
	ReadBlock(offset int64, buf []byte) error
}

// Stopwatch measures elapsed wall-clock time.
type Stopwatch interface {
	Start()
	Stop()
	// Elapsed returns the duration between the most recent Start and Stop.
	Elapsed() time.Duration
}
