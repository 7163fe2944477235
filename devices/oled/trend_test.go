// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package oled

import "testing"

func TestDrawTrendSetsSomePixels(t *testing.T) {
	fb := NewFrameBuffer()
	samples := make([]float32, 32)
	for i := range samples {
		samples[i] = float32(i)
	}
	fb.DrawTrend(samples, 0, 0, 32, 16)

	lit := 0
	for p := 0; p < NumPages; p++ {
		for c := 1; c <= 32; c++ {
			if fb[p][c] != 0 {
				lit++
			}
		}
	}
	if lit == 0 {
		t.Fatal("DrawTrend set no pixels for a rising ramp")
	}
}

func TestDrawTrendEmptySamplesNoop(t *testing.T) {
	fb := NewFrameBuffer()
	fb.DrawTrend(nil, 0, 0, 32, 16)
	for p := 0; p < NumPages; p++ {
		for c := 1; c <= NumCols; c++ {
			if fb[p][c] != 0 {
				t.Fatal("DrawTrend with no samples modified the frame buffer")
			}
		}
	}
}

func TestDrawTrendFlatSamplesNoPanic(t *testing.T) {
	fb := NewFrameBuffer()
	samples := []float32{5, 5, 5, 5}
	fb.DrawTrend(samples, 0, 0, 16, 16)
}
