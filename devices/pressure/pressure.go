// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package pressure implements the pressure engine (C5): the dual-sensor
// acquisition state machine over a shared clocked serial bus, offset
// calibration, auto-offset drift compensation, and the piecewise-linear
// flow calibration.
//
// Both sensors share one bus (mode 0, MSB first, ~625kHz) with independent
// chip-select lines. A full reading cycle clocks two 16-bit words from
// each sensor in turn; OnWordReceived advances the state machine exactly
// the way the original firmware's SPI completion interrupt does, so the
// state sequence Idle→Read1H→Read1L→Read2H→Read2L→Idle can be driven and
// verified independently of the bus transport.
package pressure

import (
	"math"

	"github.com/sglow/freeflow/conn/gpio"
	"github.com/sglow/freeflow/conn/physic"
	"github.com/sglow/freeflow/conn/spi"
	"github.com/sglow/freeflow/dsp"
	"github.com/sglow/freeflow/errcode"
	"github.com/sglow/freeflow/registry"
	"github.com/sglow/freeflow/store"
	"github.com/sglow/freeflow/timebase"
)

// State is one state of the acquisition state machine.
type State uint8

const (
	Idle State = iota
	Read1H
	Read1L
	Read2H
	Read2L
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Read1H:
		return "Read1H"
	case Read1L:
		return "Read1L"
	case Read2H:
		return "Read2H"
	case Read2L:
		return "Read2L"
	default:
		return "Unknown"
	}
}

// MinCadenceTicks is the minimum number of high-priority ticks between the
// start of two acquisition cycles.
const MinCadenceTicks = 6

// LoopFreq is the high-priority tick rate in Hz, used by the auto-offset
// ignore-window and matching timebase.Freq.
const LoopFreq = timebase.Freq

// csSettleUS is how long to wait after asserting a chip-select before
// clocking data, per the sensor's datasheet timing.
const csSettleUS = 3

// calData is the 20-point differential-to-flow calibration table, in raw
// ADC-count units on the X axis. Carried over verbatim from the original
// firmware as the factory-default curve; host code may override it via the
// prescal variable (which persists through the store).
var calData = [20]float32{
	47393, 171011, 366416, 636238, 994108, 1420935, 1897852, 2441713,
	2889541, 3213755, 3570770, 3963378, 4398388, 4849933, 5188297, 5623387,
	5983148, 6359482, 6612908, 6673088,
}

// Bus is the minimal SPI surface the engine needs: a full-duplex
// transaction of exactly one 16-bit word, MSB first.
type Bus interface {
	// TxWord clocks out w and returns the word clocked in. spi.Conn.Tx
	// satisfies this when called with 2-byte big-endian buffers.
	TxWord(w uint16) (uint16, error)
}

// spiBus adapts a spi.Conn into Bus.
type spiBus struct {
	conn spi.Conn
}

func (s spiBus) TxWord(w uint16) (uint16, error) {
	out := []byte{byte(w >> 8), byte(w)}
	in := make([]byte, 2)
	if err := s.conn.Tx(out, in); err != nil {
		return 0, err
	}
	return uint16(in[0])<<8 | uint16(in[1]), nil
}

// NewSPIBus wraps a connected spi.Conn as a Bus.
func NewSPIBus(c spi.Conn) Bus {
	return spiBus{conn: c}
}

// Engine owns the two sensors, the acquisition state, calibration, and
// drift compensation.
type Engine struct {
	bus    Bus
	cs1    gpio.PinOut
	cs2    gpio.PinOut
	reg    *registry.Registry

	state State

	isrLast uint16
	raw     [2]uint32
	adj     [2]int32
	pOff    [2]int32

	offCalcTime  uint16
	offCalcCount uint16
	offSum       [2]uint32

	lastReadTick uint32
	newReading   bool

	calTable [20]float32

	filt       [2]*dsp.Biquad
	ignoreCount int
	autoOffset float64

	hist  *History
	store *store.Store
}

// NewEngine constructs an Engine wired to the given bus and chip-select
// pins, with the factory calibration table and a fresh set of Butterworth
// filters armed for the auto-offset ignore window.
func NewEngine(bus Bus, cs1, cs2 gpio.PinOut) *Engine {
	coefA := [2]float32{-1.99111, 0.99115}
	coefB := [3]float32{9.8259e-06, 1.9652e-05, 9.8259e-06}
	e := &Engine{
		bus:         bus,
		cs1:         cs1,
		cs2:         cs2,
		calTable:    calData,
		filt:        [2]*dsp.Biquad{dsp.NewBiquad(coefA, coefB), dsp.NewBiquad(coefA, coefB)},
		ignoreCount: LoopFreq,
		hist:        NewHistory(),
	}
	return e
}

// History returns the rolling pressure/flow history buffer, consumed by
// the display engine's trend graph.
func (e *Engine) History() *History { return e.hist }

// SetStore wires the engine to the persistent parameter store: poff1,
// poff2 and prescal writes made after this call persist across power
// cycles. It also loads the engine's current offsets and calibration
// table from the store's existing record, the way power-up restores the
// last-saved values before the command plane has had a chance to touch
// anything.
func (e *Engine) SetStore(s *store.Store) {
	e.store = s
	rec := s.Current()
	e.pOff[0] = rec.POff[0]
	e.pOff[1] = rec.POff[1]
	e.calTable = rec.PCal
}

// BindRegistry installs this engine's variables (pressure1, pressure2,
// poff1, poff2, poffcalc, prescal, flow) into r.
func (e *Engine) BindRegistry(r *registry.Registry) error {
	e.reg = r
	var p1cm float32
	p1get, _ := registry.Float32Accessors(&p1cm)
	wrappedP1Get := func(buf []byte) (int, error) {
		p1cm = e.pressureCmH2O(0)
		return p1get(buf)
	}
	if err := r.Define(8, "pressure1", 4, registry.ReadOnly, wrappedP1Get, nil); err != nil {
		return err
	}
	var p2cm float32
	p2get, _ := registry.Float32Accessors(&p2cm)
	wrappedP2Get := func(buf []byte) (int, error) {
		p2cm = e.pressureCmH2O(1)
		return p2get(buf)
	}
	if err := r.Define(9, "pressure2", 4, registry.ReadOnly, wrappedP2Get, nil); err != nil {
		return err
	}
	o1get, o1set := registry.Int32Accessors(&e.pOff[0])
	wrappedO1Set := func(buf []byte) error {
		if err := o1set(buf); err != nil {
			return err
		}
		if e.store != nil {
			return e.store.UpdatePOff(0, e.pOff[0])
		}
		return nil
	}
	if err := r.Define(10, "poff1", 4, 0, o1get, wrappedO1Set); err != nil {
		return err
	}
	o2get, o2set := registry.Int32Accessors(&e.pOff[1])
	wrappedO2Set := func(buf []byte) error {
		if err := o2set(buf); err != nil {
			return err
		}
		if e.store != nil {
			return e.store.UpdatePOff(1, e.pOff[1])
		}
		return nil
	}
	if err := r.Define(11, "poff2", 4, 0, o2get, wrappedO2Set); err != nil {
		return err
	}
	prescalGet := func(buf []byte) (int, error) {
		for i, v := range e.calTable {
			u := math.Float32bits(v)
			buf[4*i] = byte(u)
			buf[4*i+1] = byte(u >> 8)
			buf[4*i+2] = byte(u >> 16)
			buf[4*i+3] = byte(u >> 24)
		}
		return 4 * len(e.calTable), nil
	}
	prescalSet := func(buf []byte) error {
		var table [20]float32
		for i := range table {
			u := uint32(buf[4*i]) | uint32(buf[4*i+1])<<8 | uint32(buf[4*i+2])<<16 | uint32(buf[4*i+3])<<24
			table[i] = math.Float32frombits(u)
		}
		if err := e.SetCalibration(table); err != nil {
			return err
		}
		if e.store != nil {
			return e.store.UpdateCalibration(table)
		}
		return nil
	}
	if err := r.Define(13, "prescal", 4*20, 0, prescalGet, prescalSet); err != nil {
		return err
	}
	var offCalc int16
	ocGet, ocSet := registry.Int16Accessors(&offCalc)
	setOffsetTime := func(buf []byte) error {
		if err := ocSet(buf); err != nil {
			return err
		}
		e.offCalcTime = uint16(offCalc)
		e.offSum[0], e.offSum[1] = 0, 0
		e.offCalcCount = 0
		return nil
	}
	if err := r.Define(12, "poffcalc", 2, 0, ocGet, setOffsetTime); err != nil {
		return err
	}
	var flow float32
	flowGet, _ := registry.Float32Accessors(&flow)
	wrappedFlowGet := func(buf []byte) (int, error) {
		flow = e.FlowRate()
		return flowGet(buf)
	}
	if err := r.Define(15, "flow", 4, registry.ReadOnly, wrappedFlowGet, nil); err != nil {
		return err
	}
	return nil
}

// Poll is called once per high-priority tick. It enforces the minimum
// cadence and, if due, runs one full synchronous acquisition cycle through
// both sensors, advancing the state machine via OnWordReceived at each
// step exactly as the completion-interrupt handler would.
func (e *Engine) Poll(tick uint32) error {
	if timebase.TicksSince(e.lastReadTick, tick) < MinCadenceTicks {
		return nil
	}
	if e.state != Idle {
		return nil
	}
	e.lastReadTick = tick

	e.selectSensor(1)
	e.state = Read1H
	hi, err := e.bus.TxWord(0xAA00)
	if err != nil {
		return err
	}
	e.OnWordReceived(hi)
	lo, err := e.bus.TxWord(0x0000)
	if err != nil {
		return err
	}
	e.OnWordReceived(lo)

	hi, err = e.bus.TxWord(0xAA00)
	if err != nil {
		return err
	}
	e.OnWordReceived(hi)
	lo, err = e.bus.TxWord(0x0000)
	if err != nil {
		return err
	}
	e.OnWordReceived(lo)

	return nil
}

// BeginCycle arms the state machine to start a new reading: selects sensor
// 1 and transitions to Read1H. Exposed so tests can drive the state
// machine word-by-word via OnWordReceived without going through a bus.
func (e *Engine) BeginCycle() {
	e.selectSensor(1)
	e.state = Read1H
}

// OnWordReceived advances the acquisition state machine by one word,
// exactly the way the serial-bus completion interrupt does: which word
// this is depends only on the engine's current state, not on any
// out-of-band expectation passed by the caller.
func (e *Engine) OnWordReceived(value uint16) {
	switch e.state {
	case Read1H:
		e.isrLast = value
		e.state = Read1L
	case Read1L:
		e.raw[0] = 0x00FFFFFF & (uint32(e.isrLast)<<16 | uint32(value))
		e.adj[0] = int32(e.raw[0]) - e.pOff[0]
		e.selectSensor(2)
		e.state = Read2H
	case Read2H:
		e.isrLast = value
		e.state = Read2L
	case Read2L:
		e.raw[1] = 0x00FFFFFF & (uint32(e.isrLast)<<16 | uint32(value))
		e.adj[1] = int32(e.raw[1]) - e.pOff[1]
		e.selectSensor(0)
		e.state = Idle
		e.newReading = true
		e.accumulateOffset()
	}
}

func (e *Engine) accumulateOffset() {
	if e.offCalcTime == 0 {
		return
	}
	e.offSum[0] += e.raw[0]
	e.offSum[1] += e.raw[1]
	e.offCalcCount++
	e.offCalcTime--
	if e.offCalcTime == 0 {
		e.pOff[0] = int32(e.offSum[0] / uint32(e.offCalcCount))
		e.pOff[1] = int32(e.offSum[1] / uint32(e.offCalcCount))
	}
}

func (e *Engine) selectSensor(which int) {
	e.cs1.Out(gpio.High)
	e.cs2.Out(gpio.High)
	if which&1 != 0 {
		e.cs1.Out(gpio.Low)
	}
	if which&2 != 0 {
		e.cs2.Out(gpio.Low)
	}
	if which != 0 {
		timebase.BusyWait(csSettleUS)
	}
}

// State returns the current acquisition state machine state.
func (e *Engine) State() State { return e.state }

// NewReading reports and clears the edge flag set when a complete pair of
// samples has been acquired.
func (e *Engine) NewReading() bool {
	v := e.newReading
	e.newReading = false
	return v
}

// Adjusted returns the signed, offset-corrected raw counts for both
// channels.
func (e *Engine) Adjusted() (int32, int32) {
	return e.adj[0], e.adj[1]
}

// SetCalibration replaces the 20-point flow calibration table. Values must
// be non-decreasing; callers (the prescal set-hook) are responsible for
// persisting the new table.
func (e *Engine) SetCalibration(table [20]float32) error {
	for i := 1; i < len(table); i++ {
		if table[i] < table[i-1] {
			return errcode.Range
		}
	}
	e.calTable = table
	return nil
}

// Calibration returns the current 20-point flow calibration table.
func (e *Engine) Calibration() [20]float32 {
	return e.calTable
}

// FlowRate computes the calibrated flow rate from the current differential
// pressure via the piecewise-linear curve in e.calTable.
func (e *Engine) FlowRate() float32 {
	dp := float32(e.adj[1]-e.adj[0]) + float32(e.autoOffset)
	return flowFromTable(dp, e.calTable)
}

func flowFromTable(dp float32, table [20]float32) float32 {
	var prev float32
	for i, v := range table {
		if dp <= v {
			n := dp - prev
			d := v - prev
			return 100*float32(i) + 100*n/d
		}
		prev = v
	}
	return 100 * float32(len(table))
}

// LoopUpdateOffset runs the auto-offset drift compensation once per
// high-priority tick: filters both channels, rearms the ignore window on
// motion, and nudges autoOffset toward zero differential once quiescent.
func (e *Engine) LoopUpdateOffset() {
	const maxPresDiff = 0.005
	const gain = 1e-5

	// The motion check compares pressures in kPa, not raw counts.
	p := [2]float32{
		float32(e.adj[0]) / countsPerPascal / 1000,
		float32(e.adj[1]) / countsPerPascal / 1000,
	}
	for i := 0; i < 2; i++ {
		f := e.filt[i].Step(p[i])
		if float32(math.Abs(float64(p[i]-f))) > maxPresDiff {
			e.ignoreCount = LoopFreq
		}
	}

	if e.ignoreCount > 0 {
		e.ignoreCount--
	} else {
		pd := float64(e.adj[1]-e.adj[0]) + e.autoOffset
		e.autoOffset -= pd * gain
	}

	const msPerTick = 1000 / LoopFreq
	e.hist.Sample(msPerTick, e.adj[1]-e.adj[0], e.FlowRate())
}

// AutoOffset returns the current drift-compensation offset.
func (e *Engine) AutoOffset() float64 { return e.autoOffset }

// ClearAutoOffset resets the drift-compensation offset to zero, exposed
// for manual recalibration.
func (e *Engine) ClearAutoOffset() { e.autoOffset = 0 }

// countsPerPascal is the sensor's rated ADC-counts-per-pascal sensitivity,
// used to report readings in engineering units (DifferentialPressure and the
// pressure1/pressure2 variables) and to express the auto-offset motion check
// in kPa; the offsets, the auto-offset itself and the flow calibration stay
// in raw counts, the same way the original firmware does.
const countsPerPascal = 80

// DifferentialPressure converts the offset-corrected differential reading
// to a physic.Pressure, for the status line cmd/freeflowd prints.
func (e *Engine) DifferentialPressure() physic.Pressure {
	dp := e.adj[1] - e.adj[0]
	return physic.Pressure(dp) * physic.Pascal / countsPerPascal
}

// cmH2OPerPascal converts pascals to centimeters of water, the unit the
// pressure1/pressure2 registry variables are reported in.
const cmH2OPerPascal = 1.0 / 98.0665

// pressureCmH2O converts sensor i's offset-corrected single-ended reading
// to cmH2O, for the pressure1/pressure2 registry variables.
func (e *Engine) pressureCmH2O(i int) float32 {
	return float32(e.adj[i]) / countsPerPascal * cmH2OPerPascal
}
