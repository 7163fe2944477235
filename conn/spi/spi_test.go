// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package spi

import "testing"

func TestMode_String(t *testing.T) {
	data := []struct {
		m        Mode
		expected string
	}{
		{Mode0, "Mode0"},
		{Mode3, "Mode3"},
		{Mode0 | HalfDuplex, "Mode0|HalfDuplex"},
		{Mode1 | NoCS | LSBFirst, "Mode1|NoCS|LSBFirst"},
	}
	for i, line := range data {
		if actual := line.m.String(); actual != line.expected {
			t.Fatalf("#%d: Mode(%#x).String() = %q, want %q", i, uint(line.m), actual, line.expected)
		}
	}
}
