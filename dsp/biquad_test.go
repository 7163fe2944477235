// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dsp

import "testing"

func TestStepIsDeterministic(t *testing.T) {
	coefA := [2]float32{-1.99111, 0.99115}
	coefB := [3]float32{9.8259e-06, 1.9652e-05, 9.8259e-06}
	f1 := NewBiquad(coefA, coefB)
	f2 := NewBiquad(coefA, coefB)
	for i := 0; i < 100; i++ {
		a := f1.Step(1.0)
		b := f2.Step(1.0)
		if a != b {
			t.Fatalf("sample %d: %v != %v", i, a, b)
		}
	}
}

func TestStepOnZeroInputStaysZero(t *testing.T) {
	f := NewBiquad([2]float32{-1.99111, 0.99115}, [3]float32{9.8259e-06, 1.9652e-05, 9.8259e-06})
	for i := 0; i < 10; i++ {
		if got := f.Step(0); got != 0 {
			t.Fatalf("Step(0) = %v, want 0", got)
		}
	}
}

func TestClearResetsState(t *testing.T) {
	f := NewBiquad([2]float32{-1.99111, 0.99115}, [3]float32{9.8259e-06, 1.9652e-05, 9.8259e-06})
	for i := 0; i < 20; i++ {
		f.Step(1.0)
	}
	if f.Out() == 0 {
		t.Fatal("expected nonzero output before Clear")
	}
	f.Clear()
	if f.Out() != 0 {
		t.Fatalf("Out() after Clear = %v, want 0", f.Out())
	}
}
