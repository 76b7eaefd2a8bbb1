// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package driver

import (
	"bytes"
	"strings"
	"testing"
)

func TestRunMemoryTestBetweenBanks(t *testing.T) {
	d, _ := newTestDriver(t, nil)
	for _, banks := range []struct{ from, to Bank }{
		{DRAM0, DRAM0},
		{DRAM0, DRAM1},
		{DRAM1, DRAM0},
	} {
		var out bytes.Buffer
		failures, err := d.RunMemoryTest(&out, banks.from, banks.to, true)
		if err != nil {
			t.Fatalf("RunMemoryTest(%v, %v): %v", banks.from, banks.to, err)
		}
		if failures != 0 {
			t.Errorf("RunMemoryTest(%v, %v) = %d failures:\n%s", banks.from, banks.to, failures, out.String())
		}
		if !strings.Contains(out.String(), "memory test") {
			t.Errorf("summary line missing:\n%s", out.String())
		}
	}
}
