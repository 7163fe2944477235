// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package dsp provides the small set of signal processing primitives the
// pressure engine needs: a direct-form-II biquad filter used for the
// auto-offset drift compensation's 2-pole Butterworth low-pass.
package dsp

// Biquad is a two-pole, two-zero IIR filter in direct form II, matching the
// original firmware's Filter struct: coefficients a[2]/b[3], with state
// x[2] (last two inputs) and y[2] (last two outputs).
type Biquad struct {
	a [2]float32
	b [3]float32
	x [2]float32
	y [2]float32
}

// NewBiquad returns a Biquad with the given feedback (a) and feedforward
// (b) coefficients and zeroed state.
func NewBiquad(a [2]float32, b [3]float32) *Biquad {
	return &Biquad{a: a, b: b}
}

// Step runs one sample through the filter and returns the new output.
func (f *Biquad) Step(xn float32) float32 {
	yn := f.b[0]*xn + f.b[1]*f.x[0] + f.b[2]*f.x[1] - f.a[0]*f.y[0] - f.a[1]*f.y[1]
	f.x[1] = f.x[0]
	f.x[0] = xn
	f.y[1] = f.y[0]
	f.y[0] = yn
	return yn
}

// Out returns the most recent output without advancing the filter.
func (f *Biquad) Out() float32 {
	return f.y[0]
}

// Clear resets the filter's internal state to zero.
func (f *Biquad) Clear() {
	f.x = [2]float32{}
	f.y = [2]float32{}
}
