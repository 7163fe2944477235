// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package timebase

import "testing"

func TestUSSinceWraps(t *testing.T) {
	// now wrapped past 0, t0 was near the top of the range.
	if got := USSince(65530, 10); got != 16 {
		t.Fatalf("USSince(65530, 10) = %d, want 16", got)
	}
}

func TestTicksSinceWraps(t *testing.T) {
	if got := TicksSince(4294967290, 5); got != 11 {
		t.Fatalf("TicksSince = %d, want 11", got)
	}
}

func TestMSToTicks(t *testing.T) {
	if got := MSToTicks(6); got != 6 {
		t.Fatalf("MSToTicks(6) = %d, want 6 at 1kHz", got)
	}
}

func TestClockTick(t *testing.T) {
	c := New()
	if c.TickCount() != 0 {
		t.Fatal("fresh clock should start at tick 0")
	}
	for i := uint32(1); i <= 3; i++ {
		if got := c.Tick(); got != i {
			t.Fatalf("Tick() = %d, want %d", got, i)
		}
	}
}
