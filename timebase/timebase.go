// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package timebase provides the monotonic microsecond counter and tick
// counter that drive the high-priority loop.
//
// The hardware this models free-runs a 16-bit microsecond counter that
// wraps every 65.536ms; all comparisons against it must be wrap-safe. The
// tick counter increments once per high-priority tick and is wide enough
// (32 bits) that wraparound is not a practical concern, but arithmetic
// against it still uses the same wrap-safe helpers for consistency.
package timebase

import "time"

// Freq is the high-priority tick frequency in Hz, a compile-time constant
// in the original firmware.
const Freq = 1000

// Clock is a monotonic source of microseconds and ticks.
//
// A zero Clock is not ready for use; construct one with New.
type Clock struct {
	start time.Time
	ticks uint32
}

// New returns a Clock whose epoch is the current instant.
func New() *Clock {
	return &Clock{start: time.Now()}
}

// NowUS returns the free-running 16-bit microsecond counter.
func (c *Clock) NowUS() uint16 {
	return uint16(time.Since(c.start).Microseconds())
}

// USSince returns the wrap-safe elapsed microseconds since t0, as read from
// NowUS. Valid for elapsed durations up to 65.535ms.
func USSince(t0 uint16, now uint16) uint16 {
	return now - t0
}

// BusyWait spins until at least the given number of microseconds elapse.
// Mirrors the firmware's busy_wait(us); used only for the documented short
// settle delays (sensor chip-select settle, ADC startup, display init).
func BusyWait(us uint16) {
	if us == 0 {
		return
	}
	deadline := time.Now().Add(time.Duration(us) * time.Microsecond)
	for time.Now().Before(deadline) {
	}
}

// Tick advances the tick counter by one and returns the new value. Called
// exactly once per high-priority tick.
func (c *Clock) Tick() uint32 {
	c.ticks++
	return c.ticks
}

// TickCount returns the current tick counter without advancing it.
func (c *Clock) TickCount() uint32 {
	return c.ticks
}

// TicksSince returns the wrap-safe elapsed ticks since t0.
func TicksSince(t0, now uint32) uint32 {
	return now - t0
}

// MSToTicks converts a millisecond duration to a tick count at Freq.
func MSToTicks(ms uint32) uint32 {
	return (ms * Freq) / 1000
}
