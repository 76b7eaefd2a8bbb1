// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package isa

import (
	"errors"

	"github.com/tcu-go/tcu/platform"
)

// fakeFS is an in-memory platform.FileSystem used only by tests.
type fakeFS map[string][]byte

func (f fakeFS) Size(path string) (int64, error) {
	b, ok := f[path]
	if !ok {
		return 0, errors.New("not found")
	}
	return int64(len(b)), nil
}

func (f fakeFS) ReadAt(path string, offset int64, buf []byte) error {
	b, ok := f[path]
	if !ok {
		return errors.New("not found")
	}
	n := copy(buf, b[offset:])
	if n != len(buf) {
		return errors.New("short read")
	}
	return nil
}

func (f fakeFS) WriteAt(path string, offset int64, buf []byte) error {
	b := f[path]
	need := int(offset) + len(buf)
	if len(b) < need {
		grown := make([]byte, need)
		copy(grown, b)
		b = grown
	}
	copy(b[offset:], buf)
	f[path] = b
	return nil
}

var _ platform.FileSystem = fakeFS{}
