// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package trace

import "testing"

func fakeClock() func() uint16 {
	var t uint16
	return func() uint16 {
		t += 10
		return t
	}
}

func TestTickSamplesAtPeriod(t *testing.T) {
	var calls int
	funcs := []VarFunc{nil, func() uint16 { calls++; return uint16(calls) }}
	r := New(fakeClock(), funcs)
	r.period = 2
	r.ctrl = int16(ctrlRunning)
	r.varID[0] = 1

	r.Tick()
	if len(r.Samples()) != 0 {
		t.Fatalf("expected no sample before period elapses, got %v", r.Samples())
	}
	r.Tick()
	if len(r.Samples()) != 1 {
		t.Fatalf("expected 1 sample after period elapses, got %v", r.Samples())
	}
}

func TestTickStopsWhenVarZero(t *testing.T) {
	r := New(fakeClock(), []VarFunc{nil, func() uint16 { return 1 }})
	r.period = 1
	r.ctrl = int16(ctrlRunning)
	r.varID[0] = 0
	r.Tick()
	if len(r.Samples()) != 0 {
		t.Fatalf("expected no samples when varID[0] is 0, got %v", r.Samples())
	}
}

func TestSetCtrlRejectsReservedBits(t *testing.T) {
	r := New(fakeClock(), nil)
	if err := r.setCtrl([]byte{0x00, 0x80}); err == nil {
		t.Fatal("expected error setting a reserved bit")
	}
}

func TestSetCtrlDebugModeResets(t *testing.T) {
	r := New(fakeClock(), nil)
	r.samples = 5
	if err := r.setCtrl([]byte{byte(ctrlDebug), 0}); err != nil {
		t.Fatal(err)
	}
	if !r.DebugMode() {
		t.Fatal("expected DebugMode true")
	}
	if r.samples != 0 {
		t.Fatalf("samples = %d, want 0", r.samples)
	}
}

func TestDebugRecordsQuadruple(t *testing.T) {
	r := New(fakeClock(), nil)
	r.setCtrl([]byte{byte(ctrlDebug), 0})
	r.Debug(1, 2, 3)
	s := r.Samples()
	if len(s) != 4 {
		t.Fatalf("len(Samples()) = %d, want 4", len(s))
	}
	if s[1] != 1 || s[2] != 2 || s[3] != 3 {
		t.Fatalf("samples = %v, want [*, 1, 2, 3]", s)
	}
}

func TestDebugNoopOutsideDebugMode(t *testing.T) {
	r := New(fakeClock(), nil)
	r.Debug(1, 2, 3)
	if len(r.Samples()) != 0 {
		t.Fatal("expected Debug to no-op when not in debug mode")
	}
}

func TestExportDecodeSnapshotRoundTrips(t *testing.T) {
	r := New(fakeClock(), nil)
	r.setCtrl([]byte{byte(ctrlDebug), 0})
	r.Debug(1, 2, 3)

	b := r.Export()
	s, err := DecodeSnapshot(b)
	if err != nil {
		t.Fatalf("DecodeSnapshot: %v", err)
	}
	if s.Ctrl != uint16(r.ctrl) {
		t.Fatalf("Ctrl = %#x, want %#x", s.Ctrl, uint16(r.ctrl))
	}
	if len(s.Samples) != 4 || s.Samples[1] != 1 || s.Samples[2] != 2 || s.Samples[3] != 3 {
		t.Fatalf("Samples = %v, want [*, 1, 2, 3]", s.Samples)
	}
}

func TestDecodeSnapshotRejectsGarbage(t *testing.T) {
	if _, err := DecodeSnapshot([]byte{0xff, 0xff, 0xff}); err == nil {
		t.Fatal("expected an error decoding garbage bytes")
	}
}
