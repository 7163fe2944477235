// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package conn

import "fmt"

// Conn defines the interface for a connection on a point-to-point
// communication channel.
//
// The channel may either be write-only or read-write, either half-duplex or
// full duplex.
//
// This is the lowest common denominator for all point-to-point communication
// channels.
//
// Implementation are expected to also implement the following interfaces:
// - fmt.Stringer which returns something meaningful to the user like "SPI0.1",
//   "I2C1.76", "COM6", etc.
// - io.Writer as an way to use io.Copy() on a write-only device.
type Conn interface {
	// Tx does a single transaction.
	//
	// For full duplex protocols (SPI, UART), the two buffers must have the same
	// length as both reading and writing happen simultaneously.
	//
	// For half duplex protocols (I²C), there is no restriction as reading
	// happens after writing, and r can be nil.
	Tx(w, r []byte) error

	// Duplex returns the current duplex setting for this point-to-point
	// connection.
	Duplex() Duplex
}

// Duplex declares whether a connection is half-duplex or full duplex.
type Duplex int

const (
	// DuplexUnknown is used when the duplex of a connection is yet to be
	// determined.
	DuplexUnknown Duplex = 0
	// Half means that the connection is half-duplex; data is either sent or
	// received but not both at the same time.
	Half Duplex = 1
	// Full means that the connection is full duplex; data can be sent and
	// received at the same time.
	Full Duplex = 2
)

func (d Duplex) String() string {
	switch d {
	case DuplexUnknown:
		return "DuplexUnknown"
	case Half:
		return "Half"
	case Full:
		return "Full"
	default:
		return fmt.Sprintf("Duplex(%d)", int(d))
	}
}

// Resource is a generic handle to a peripheral, a device driver, or a
// composite object that groups multiple of either.
//
// In this tree the display engine (oled.Engine) and the host serial device
// (uart.Dev) implement Resource; the pressure engine and the command
// session do not.
type Resource interface {
	// String returns a human readable name for logs and panics.
	String() string
	// Halt stops the resource. Implementations must be idempotent: calling
	// Halt() multiple times, or calling it before anything was started, is
	// not an error.
	Halt() error
}
