// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package oled

import "github.com/sglow/freeflow/timebase"

// State is one state of the page-refresh DMA state machine.
type State uint8

const (
	Idle State = iota
	DoingInit
	SetPageAddr
	WritePage
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case DoingInit:
		return "DoingInit"
	case SetPageAddr:
		return "SetPageAddr"
	case WritePage:
		return "WritePage"
	default:
		return "Unknown"
	}
}

// initBudgetUS bounds how long Init will busy-wait for the init command
// to complete, matching the original's 500us budget.
const initBudgetUS = 500

// Engine owns the frame buffer and drives the refresh state machine.
// Each bus transfer is issued by the step that arms it (Init, Update, or
// OnTxDone advancing to the next dirty page); OnTxDone is the equivalent
// of the original's DispISR, called once per completed bus transfer.
type Engine struct {
	FB  *FrameBuffer
	bus Bus

	state   State
	dirty   uint8
	dmaPage uint8

	clock *timebase.Clock
}

// NewEngine returns an Engine with a blank frame buffer, idle until Init
// or Update is called.
func NewEngine(bus Bus, clock *timebase.Clock) *Engine {
	return &Engine{FB: NewFrameBuffer(), bus: bus, clock: clock}
}

// String implements conn.Resource.
func (e *Engine) String() string { return "oled.Engine" }

// Halt implements conn.Resource; the display engine owns no resource
// that needs releasing beyond letting the last transfer finish.
func (e *Engine) Halt() error { return nil }

// State returns the refresh state machine's current state.
func (e *Engine) State() State { return e.state }

// Init sends the one-time panel initialization sequence and busy-waits,
// bounded to initBudgetUS microseconds, for it to complete. It does not
// mark any page dirty or start a refresh; Update does that.
func (e *Engine) Init() error {
	e.state = DoingInit
	if err := e.bus.Write(dispInitCmd); err != nil {
		return err
	}

	start := e.clock.NowUS()
	for e.state != Idle {
		e.OnTxDone()
		if timebase.USSince(start, e.clock.NowUS()) > initBudgetUS {
			break
		}
	}
	return nil
}

// Update marks every page dirty and starts the refresh sequence from
// page 0. Safe to call again while a refresh is already in progress;
// it simply restarts from page 0 with all pages re-marked dirty.
func (e *Engine) Update() error {
	e.dirty = 0xFF
	return e.beginPageAddr(0)
}

func (e *Engine) beginPageAddr(page uint8) error {
	e.state = SetPageAddr
	e.dmaPage = page
	cmd := []byte{0x00, 0xB0 | (page & 7), 0x00, 0x10 | (0 >> 4)}
	return e.bus.Write(cmd)
}

func (e *Engine) sendPage(page uint8) error {
	page &= 7
	e.dirty &^= 1 << page
	e.state = WritePage
	e.dmaPage = page
	e.FB[page][0] = 0x40
	return e.bus.Write(e.FB[page][:])
}

// OnTxDone advances the refresh state machine by one completed bus
// transfer, exactly the way the original's DispISR advances dispState:
// after a page-address write, the page's data is sent; after a data
// write, the next dirty page (if any) is selected, else the machine
// returns to Idle.
func (e *Engine) OnTxDone() {
	switch e.state {
	case DoingInit:
		e.state = Idle
	case SetPageAddr:
		e.sendPage(e.dmaPage)
	case WritePage:
		for p := e.dmaPage + 1; p < NumPages; p++ {
			if e.dirty&(1<<p) != 0 {
				e.beginPageAddr(p)
				return
			}
		}
		e.state = Idle
	}
}
