// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package gpio defines digital pins.
//
// The GPIO pins are described in their logical functionality, not in their
// physical position. The firmware's two sensor chip-selects are the only
// consumers in this tree; there is no runtime pin registry since every pin
// is wired at compile time.
package gpio

import (
	"fmt"
	"time"

	"github.com/sglow/freeflow/conn/pin"
)

// Level is the level of the pin: Low or High.
type Level bool

const (
	// Low represents 0v.
	Low Level = false
	// High represents Vin, generally 3.3v.
	High Level = true
)

func (l Level) String() string {
	if l == Low {
		return "Low"
	}
	return "High"
}

// Pull specifies the internal pull-up or pull-down for a pin set as input.
type Pull uint8

// Acceptable pull values.
const (
	Float        Pull = 0 // Let the input float
	Down         Pull = 1 // Apply pull-down
	Up           Pull = 2 // Apply pull-up
	PullNoChange Pull = 3 // Do not change the previous pull resistor setting
)

const pullName = "FloatDownUpPullNoChange"

var pullIndex = [...]uint8{0, 5, 9, 11, 23}

func (i Pull) String() string {
	if i >= Pull(len(pullIndex)-1) {
		return fmt.Sprintf("Pull(%d)", i)
	}
	return pullName[pullIndex[i]:pullIndex[i+1]]
}

// Edge specifies if an input pin should have edge detection enabled.
type Edge uint8

// Acceptable edge detection values.
const (
	None    Edge = 0
	Rising  Edge = 1
	Falling Edge = 2
	Both    Edge = 3
)

// PinIn is an input GPIO pin.
type PinIn interface {
	pin.Pin
	In(pull Pull, edge Edge) error
	Read() Level
	WaitForEdge(timeout time.Duration) bool
	Pull() Pull
}

// PinOut is an output GPIO pin.
//
// The pressure engine drives two of these (one per sensor chip-select); the
// display engine drives none.
type PinOut interface {
	pin.Pin
	// Out sets the pin level. It is always safe to call without a prior
	// configuration call; output pins here are statically configured at
	// boot and never switch direction.
	Out(l Level) error
}

// PinIO is a GPIO pin that supports both input and output.
type PinIO interface {
	pin.Pin
	In(pull Pull, edge Edge) error
	Read() Level
	WaitForEdge(timeout time.Duration) bool
	Pull() Pull
	Out(l Level) error
}

// INVALID implements PinIO and fails on all access.
var INVALID PinIO = invalidPin{}

var errInvalidPin = fmt.Errorf("gpio: invalid pin")

type invalidPin struct{}

func (invalidPin) Number() int                    { return -1 }
func (invalidPin) String() string                 { return "INVALID" }
func (invalidPin) Name() string                    { return "INVALID" }
func (invalidPin) Function() string                { return "" }
func (invalidPin) In(Pull, Edge) error              { return errInvalidPin }
func (invalidPin) Read() Level                      { return Low }
func (invalidPin) WaitForEdge(time.Duration) bool   { return false }
func (invalidPin) Pull() Pull                       { return PullNoChange }
func (invalidPin) Out(Level) error                  { return errInvalidPin }

var _ PinIn = INVALID
var _ PinOut = INVALID
var _ PinIO = INVALID
