// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pressure

import (
	"errors"
	"math"
	"testing"

	"github.com/sglow/freeflow/conn/conntest"
	"github.com/sglow/freeflow/conn/gpio"
	"github.com/sglow/freeflow/conn/physic"
	"github.com/sglow/freeflow/conn/spi"
	"github.com/sglow/freeflow/flash"
	"github.com/sglow/freeflow/registry"
	"github.com/sglow/freeflow/store"
)

type fakeCS struct {
	level gpio.Level
}

func (f *fakeCS) Number() int      { return 0 }
func (f *fakeCS) String() string   { return "fakeCS" }
func (f *fakeCS) Name() string     { return "fakeCS" }
func (f *fakeCS) Function() string { return "" }
func (f *fakeCS) Out(l gpio.Level) error {
	f.level = l
	return nil
}

func newTestEngine() *Engine {
	return NewEngine(nil, &fakeCS{}, &fakeCS{})
}

func TestStateSequence(t *testing.T) {
	e := newTestEngine()
	want := []State{Read1L, Read2H, Read2L, Idle}
	e.BeginCycle()
	if e.State() != Read1H {
		t.Fatalf("after BeginCycle, state = %v, want Read1H", e.State())
	}
	for i, w := range want {
		e.OnWordReceived(uint16(i))
		if e.State() != w {
			t.Fatalf("after word %d, state = %v, want %v", i, e.State(), w)
		}
	}
}

func TestRawAssembly(t *testing.T) {
	e := newTestEngine()
	e.BeginCycle()
	e.OnWordReceived(0x1234) // Read1H
	e.OnWordReceived(0x5678) // Read1L
	e.OnWordReceived(0xAAAA) // Read2H
	e.OnWordReceived(0xBBBB) // Read2L

	if e.raw[0] != 0x00345678 {
		t.Fatalf("raw[0] = %#x, want 0x00345678", e.raw[0])
	}
	if !e.NewReading() {
		t.Fatal("expected NewReading after full cycle")
	}
	if e.NewReading() {
		t.Fatal("NewReading should clear after being observed once")
	}
}

func TestFlowRateMonotonic(t *testing.T) {
	e := newTestEngine()
	table := [20]float32{}
	for i := range table {
		table[i] = float32(i+1) * 100
	}
	if err := e.SetCalibration(table); err != nil {
		t.Fatal(err)
	}
	var last float32
	for _, dp := range []int32{0, 50, 150, 500, 1999, 2500} {
		e.adj[1] = dp
		e.adj[0] = 0
		f := e.FlowRate()
		if f < last {
			t.Fatalf("FlowRate(%d) = %v, not >= previous %v", dp, f, last)
		}
		last = f
	}
}

func TestFlowRateExampleFromSpec(t *testing.T) {
	e := newTestEngine()
	table := e.Calibration()
	table[0] = 10
	table[1] = 20
	table[2] = 40
	table[3] = 80
	e.SetCalibration(table)
	e.adj[1] = 30
	e.adj[0] = 0
	got := e.FlowRate()
	want := float32(250.0)
	if got != want {
		t.Fatalf("FlowRate = %v, want %v", got, want)
	}
}

func TestAutoOffsetNudgesTowardZero(t *testing.T) {
	e := newTestEngine()
	e.adj[0] = 0
	e.adj[1] = 100
	e.ignoreCount = 0
	before := e.AutoOffset()
	e.LoopUpdateOffset()
	if e.AutoOffset() >= before {
		t.Fatalf("AutoOffset should decrease when differential is positive, got %v (was %v)", e.AutoOffset(), before)
	}
}

func TestPressure1ReportsCmH2OThroughRegistry(t *testing.T) {
	e := newTestEngine()
	r := registry.New()
	if err := e.BindRegistry(r); err != nil {
		t.Fatal(err)
	}
	e.adj[0] = countsPerPascal * 2 // 2 Pa, single-ended

	out := make([]byte, 4)
	if _, err := r.HandleGet(8, out); err != nil {
		t.Fatal(err)
	}
	got := math.Float32frombits(uint32(out[0]) | uint32(out[1])<<8 | uint32(out[2])<<16 | uint32(out[3])<<24)
	want := float32(2) * cmH2OPerPascal
	if got != want {
		t.Fatalf("pressure1 = %v cmH2O, want %v", got, want)
	}
}

func TestPoff1SetPersistsToStore(t *testing.T) {
	dev := flash.NewSim(2 * flash.PageSize)
	s, err := store.Open(dev, 0)
	if err != nil {
		t.Fatal(err)
	}
	e := newTestEngine()
	e.SetStore(s)
	r := registry.New()
	if err := e.BindRegistry(r); err != nil {
		t.Fatal(err)
	}

	if err := r.HandleSet(10, []byte{0x12, 0x34, 0x56, 0x78}); err != nil {
		t.Fatal(err)
	}
	if e.pOff[0] != 0x78563412 {
		t.Fatalf("pOff[0] = %#x, want 0x78563412", e.pOff[0])
	}
	if got := s.Current().POff[0]; got != 0x78563412 {
		t.Fatalf("persisted POff[0] = %#x, want 0x78563412", got)
	}

	e2 := newTestEngine()
	e2.SetStore(s)
	if e2.pOff[0] != 0x78563412 {
		t.Fatalf("reloaded pOff[0] = %#x, want 0x78563412", e2.pOff[0])
	}
}

func TestPrescalRoundTripsThroughRegistry(t *testing.T) {
	e := newTestEngine()
	r := registry.New()
	if err := e.BindRegistry(r); err != nil {
		t.Fatal(err)
	}

	var table [20]float32
	for i := range table {
		table[i] = float32(i+1) * 1000
	}
	buf := make([]byte, 80)
	for i, v := range table {
		u := math.Float32bits(v)
		buf[4*i] = byte(u)
		buf[4*i+1] = byte(u >> 8)
		buf[4*i+2] = byte(u >> 16)
		buf[4*i+3] = byte(u >> 24)
	}
	if err := r.HandleSet(13, buf); err != nil {
		t.Fatal(err)
	}
	if e.Calibration() != table {
		t.Fatalf("Calibration() = %v, want %v", e.Calibration(), table)
	}

	out := make([]byte, 80)
	if _, err := r.HandleGet(13, out); err != nil {
		t.Fatal(err)
	}
	for i := range out {
		if out[i] != buf[i] {
			t.Fatalf("byte %d = %#x, want %#x", i, out[i], buf[i])
		}
	}
}

func TestClearAutoOffset(t *testing.T) {
	e := newTestEngine()
	e.autoOffset = 42
	e.ClearAutoOffset()
	if e.AutoOffset() != 0 {
		t.Fatalf("AutoOffset() = %v after clear, want 0", e.AutoOffset())
	}
}

func TestDifferentialPressureZeroWhenBalanced(t *testing.T) {
	e := newTestEngine()
	e.adj[0] = 1000
	e.adj[1] = 1000
	if got := e.DifferentialPressure(); got != 0 {
		t.Fatalf("DifferentialPressure() = %v, want 0", got)
	}
}

func TestDifferentialPressureScalesWithCounts(t *testing.T) {
	e := newTestEngine()
	e.adj[0] = 0
	e.adj[1] = 8000
	want := physic.Pressure(100) * physic.Pascal
	if got := e.DifferentialPressure(); got != want {
		t.Fatalf("DifferentialPressure() = %v, want %v", got, want)
	}
}

// fakeSPIConn adapts a conntest.Playback into spi.Conn, which additionally
// requires TxPackets; this package never issues multi-packet transactions,
// so the method is never exercised.
type fakeSPIConn struct {
	*conntest.Playback
}

func (fakeSPIConn) TxPackets(p []spi.Packet) error {
	return errors.New("pressure: TxPackets not used")
}

func TestSPIBusReassemblesWordFromPlaybackConn(t *testing.T) {
	pb := &conntest.Playback{
		Ops: []conntest.IO{
			{Write: []byte{0x12, 0x34}, Read: []byte{0xAB, 0xCD}},
		},
	}
	bus := NewSPIBus(fakeSPIConn{pb})
	got, err := bus.TxWord(0x1234)
	if err != nil {
		t.Fatalf("TxWord: %v", err)
	}
	if want := uint16(0xABCD); got != want {
		t.Fatalf("TxWord() = %#x, want %#x", got, want)
	}
	if err := pb.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
