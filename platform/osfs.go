// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package platform

import (
	"io"
	"os"
)

// osFileSystem is a FileSystem backed directly by the local filesystem,
// used by hosts that run this driver under a full OS rather than bare
// metal, where no platform-supplied capability is needed at all.
type osFileSystem struct{}

// OSFileSystem is the trivial FileSystem implementation for hosts running
// under a conventional OS.
var OSFileSystem FileSystem = osFileSystem{}

func (osFileSystem) Size(path string) (int64, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return fi.Size(), nil
}

func (osFileSystem) ReadAt(path string, offset int64, buf []byte) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.ReadFull(io.NewSectionReader(f, offset, int64(len(buf))), buf)
	return err
}

func (osFileSystem) WriteAt(path string, offset int64, buf []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteAt(buf, offset)
	return err
}
