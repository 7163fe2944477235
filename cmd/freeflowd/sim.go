// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"math"
	"time"

	"github.com/sglow/freeflow/conn/gpio"
)

// simPin is a software gpio.PinOut: this tree keeps no runtime pin
// registry (every pin is wired at compile time), so a hosted build that
// has no real chip-select line to drive still needs something to satisfy
// the interface.
type simPin struct {
	name  string
	level gpio.Level
}

func (p *simPin) String() string   { return p.name }
func (p *simPin) Name() string     { return p.name }
func (p *simPin) Number() int      { return -1 }
func (p *simPin) Function() string { return "" }
func (p *simPin) Out(l gpio.Level) error {
	p.level = l
	return nil
}

// simPressureBus is a pressure.Bus backed by a synthetic differential
// pressure waveform rather than a real sensor pair, for running the
// daemon end to end on a host with no SPI hardware attached.
//
// A full reading cycle is four calls: sensor1 high word, sensor1 low
// word, sensor2 high word, sensor2 low word. Both sensors' 24-bit values
// are frozen at the start of each cycle so the two words of one channel
// are always consistent with each other.
type simPressureBus struct {
	start time.Time
	step  int
	raw   [2]uint32
}

func newSimPressureBus() *simPressureBus {
	return &simPressureBus{start: time.Now()}
}

func (b *simPressureBus) TxWord(w uint16) (uint16, error) {
	idx := b.step % 4
	if idx == 0 {
		t := time.Since(b.start).Seconds()
		base := uint32(2_000_000)
		b.raw[0] = base
		b.raw[1] = base + uint32(40_000*math.Sin(2*math.Pi*0.3*t))
	}
	b.step++

	raw := b.raw[idx/2]
	if idx%2 == 0 {
		return uint16(raw >> 16), nil
	}
	return uint16(raw), nil
}

// simOLEDBus is an oled.Bus that discards every transfer, standing in for
// a real I2C-attached panel on a host with no display hardware attached.
type simOLEDBus struct{}

func (simOLEDBus) Write(data []byte) error { return nil }
