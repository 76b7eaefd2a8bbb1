// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package tcuerr

import (
	"errors"
	"strings"
	"testing"
)

func TestErrorMessage(t *testing.T) {
	cases := []struct {
		err  *Error
		want []string // substrings that must appear
	}{
		{Driverf(InvalidArch, "bad array size %d", 0), []string{"driver", "InvalidArch", "bad array size 0"}},
		{FS("/tmp/prog.bin", errors.New("no such file")), []string{"fs", "/tmp/prog.bin", "no such file"}},
		{VendorErr("axi_dma", errors.New("status 2")), []string{"vendor", "axi_dma", "status 2"}},
	}
	for _, c := range cases {
		msg := c.err.Error()
		for _, want := range c.want {
			if !strings.Contains(msg, want) {
				t.Errorf("Error() = %q, want substring %q", msg, want)
			}
		}
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := VendorErr("selftest", cause)
	if !errors.Is(err, cause) {
		t.Errorf("errors.Is(err, cause) = false, want true")
	}
}

func TestCodeString(t *testing.T) {
	if got := InsufficientBuffer.String(); got != "InsufficientBuffer" {
		t.Errorf("Code.String() = %q", got)
	}
}
