// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package trace implements the trace recorder (C6): a fixed-size ring of
// 16-bit samples, filled either by periodically polling up to four
// registered variables or, in debug mode, by ad hoc calls from anywhere in
// the firmware that want to timestamp an event.
//
// The trace is primarily a development/debug tool: interesting variables
// (pressure readings, battery voltage, ...) are saved to a buffer at a
// fixed rate so a host tool can later download and graph them.
package trace

import (
	"github.com/sglow/freeflow/errcode"
	"github.com/sglow/freeflow/registry"
)

// DataLen is the size, in 16-bit words, of the trace buffer.
const DataLen = 0x2000 / 2

// control bits, matching trace_ctrl in the original firmware.
const (
	ctrlRunning  uint16 = 0x0001
	ctrlDebug    uint16 = 0x0002
	ctrlReserved uint16 = 0xFFFC
)

// VarFunc samples one traceable variable and returns its current value.
type VarFunc func() uint16

// Recorder owns the trace buffer and its control variables. It is driven
// once per high-priority tick via Tick, and in debug mode additionally via
// Debug from anywhere that wants to timestamp an event.
type Recorder struct {
	data    [DataLen]uint16
	samples int16

	varID  [4]int16
	period int16
	pct    uint16
	ctrl   int16

	nowUS     func() uint16
	debugLast uint16
	funcs     []VarFunc
}

// New returns a Recorder whose debug timestamps are taken from nowUS (the
// microsecond free-running counter). funcs is the fixed table of
// traceable variables indexed by variable ID; funcs[0] is conventionally
// nil ("no variable selected") and must never be called.
func New(nowUS func() uint16, funcs []VarFunc) *Recorder {
	return &Recorder{nowUS: nowUS, funcs: funcs}
}

// BindRegistry installs the trace control variables (trace_ctrl,
// trace_period, trace_samples, trace_var1..4) into r.
func (t *Recorder) BindRegistry(r *registry.Registry) error {
	ctrlGet, _ := registry.Int16Accessors(&t.ctrl)
	if err := r.Define(16, "trace_ctrl", 2, 0, ctrlGet, t.setCtrl); err != nil {
		return err
	}
	perGet, perSet := registry.Int16Accessors(&t.period)
	if err := r.Define(17, "trace_period", 2, 0, perGet, perSet); err != nil {
		return err
	}
	sampGet, _ := registry.Int16Accessors(&t.samples)
	if err := r.Define(18, "trace_samples", 2, registry.ReadOnly, sampGet, nil); err != nil {
		return err
	}
	for i := 0; i < 4; i++ {
		get, set := registry.Int16Accessors(&t.varID[i])
		if err := r.Define(uint16(19+i), traceVarName(i), 2, 0, get, set); err != nil {
			return err
		}
	}
	return nil
}

func traceVarName(i int) string {
	names := [4]string{"trace_var1", "trace_var2", "trace_var3", "trace_var4"}
	return names[i]
}

func (t *Recorder) setCtrl(buf []byte) error {
	if len(buf) < 2 {
		return errcode.MissingData
	}
	tmp := uint16(buf[0]) | uint16(buf[1])<<8
	if tmp&ctrlReserved != 0 {
		return errcode.Range
	}
	if tmp&ctrlDebug != 0 {
		t.ctrl = int16(ctrlDebug)
		t.samples = 0
		t.debugLast = t.nowUS()
		return nil
	}
	if uint16(t.ctrl)&ctrlRunning == 0 && tmp&ctrlRunning != 0 {
		t.samples = 0
		t.pct = 0
	}
	t.ctrl = int16(tmp)
	return nil
}

// Running reports whether a periodic trace is currently active.
func (t *Recorder) Running() bool { return uint16(t.ctrl)&ctrlRunning != 0 }

// DebugMode reports whether the buffer is in ad hoc debug mode.
func (t *Recorder) DebugMode() bool { return uint16(t.ctrl)&ctrlDebug != 0 }

// Tick is called once per high-priority tick. When a periodic trace is
// running and the configured period has elapsed, it samples the up to
// four selected variables into the buffer, stopping the trace once there
// is no longer room for another full round.
func (t *Recorder) Tick() {
	if !t.Running() {
		return
	}
	t.pct++
	if t.pct < uint16(t.period) {
		return
	}
	t.pct = 0

	for _, id := range t.varID {
		if id == 0 || int(id) >= len(t.funcs) {
			break
		}
		if int(t.samples) >= DataLen {
			break
		}
		t.data[t.samples] = t.funcs[id]()
		t.samples++
	}

	if int(t.samples) > DataLen-4 {
		t.ctrl = int16(uint16(t.ctrl) &^ ctrlRunning)
	}
}

// Debug records one ad hoc debug sample if the buffer is in debug mode.
// The stored quadruple is [elapsed-microseconds-since-last-call, a, b, c].
func (t *Recorder) Debug(a, b, c uint16) {
	if !t.DebugMode() {
		return
	}
	now := t.nowUS()
	if int(t.samples)+4 > DataLen {
		t.ctrl = 0
		return
	}
	t.data[t.samples] = now - t.debugLast
	t.data[t.samples+1] = a
	t.data[t.samples+2] = b
	t.data[t.samples+3] = c
	t.samples += 4
	t.debugLast = now

	if int(t.samples) >= DataLen {
		t.ctrl = 0
	}
}

// DebugLong is Debug with its last two words carrying a 32-bit value, high
// word first.
func (t *Recorder) DebugLong(a uint16, b uint32) {
	t.Debug(a, uint16(b>>16), uint16(b))
}

// Samples returns the recorded samples so far, a view into the live
// buffer: callers must not retain it across further Tick/Debug calls.
func (t *Recorder) Samples() []uint16 {
	return t.data[:int(t.samples)]
}
