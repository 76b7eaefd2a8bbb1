// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

//go:build !linux

package dmamem

import "errors"

// Map is unsupported outside Linux. Use NewSimulated for tests on
// non-Linux hosts.
func Map(base uint64, size int) (Region, error) {
	return nil, errors.New("dmamem: /dev/mem is not supported on this platform")
}
