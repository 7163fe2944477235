// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package uart defines the API to communicate with devices over the UART
// protocol, and a Port implementation backed by a host serial device
// (/dev/ttyUSB0, COM3, ...) for the command session running over the
// hardware UART or the USB CDC-ACM endpoint.
//
// See https://en.wikipedia.org/wiki/UART for more information.
package uart

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/tarm/serial"

	"github.com/sglow/freeflow/conn"
	"github.com/sglow/freeflow/conn/gpio"
)

// Stream is a full duplex, byte oriented connection. Unlike Conn it isn't
// constrained to fixed size transactions: either side can send bytes at any
// time.
type Stream interface {
	conn.Resource
	io.Reader
	io.Writer
}

// Conn defines the interface a concrete UART driver must implement.
type Conn interface {
	conn.Conn
	Stream
}

// Port is the interface to be provided to device drivers.
type Port interface {
	// Connect sets the communication parameters and returns a Conn.
	//
	// baud is the bit rate. stopBit is the number of stop bits, generally 1 or
	// 2. parity selects the parity bit scheme, generally ParityNone.
	Connect(baud int64, stopBit StopBits, parity Parity, flow FlowControl, bits int) (Conn, error)
}

// PortCloser is a UART port that can be closed.
type PortCloser interface {
	io.Closer
	Port
}

// Pins defines the pins that a UART port interconnect is using on the host.
type Pins interface {
	RX() gpio.PinIn
	TX() gpio.PinOut
	RTS() gpio.PinIO
	CTS() gpio.PinIO
}

// StopBits selects the number of stop bits used to delimit a word. Its
// values are an enumeration, not the count itself (Two is 3).
type StopBits int

const (
	One        StopBits = 1
	OnePointFive StopBits = 2
	Two        StopBits = 3
)

// Parity determines the parity bit when transmitting a word.
type Parity int

const (
	ParityNone Parity = iota
	ParityOdd
	ParityEven
	ParityMark
	ParitySpace
)

// FlowControl determines the flow control mechanism used by the port.
type FlowControl int

const (
	NoFlow FlowControl = iota
	RTSCTS
	XONXOFF
)

// Dev is a host serial device opened as a Conn, for example the USB CDC-ACM
// endpoint the firmware enumerates, or a USB-to-UART bridge wired to the
// hardware UART pins.
//
// Dev is full duplex (see Duplex): Write() queues bytes for transmission
// and Read() blocks (up to ReadTimeout) for whatever has arrived since, and
// the two can be interleaved freely. There is no concept of simultaneous
// Tx/Rx word framing as there would be over SPI.
type Dev struct {
	name string
	port io.ReadWriteCloser
}

// Open opens the named host serial device (e.g. "/dev/ttyUSB0" or "COM3") at
// the given baud rate, 8 data bits, no parity, 1 stop bit, which matches the
// command session's wire format.
func Open(name string, baud int) (*Dev, error) {
	if name == "" {
		return nil, errors.New("uart: empty device name")
	}
	cfg := &serial.Config{Name: name, Baud: baud, ReadTimeout: 100 * time.Millisecond}
	p, err := serial.OpenPort(cfg)
	if err != nil {
		return nil, fmt.Errorf("uart: opening %s: %w", name, err)
	}
	return &Dev{name: name, port: p}, nil
}

func (d *Dev) String() string { return fmt.Sprintf("uart.Dev{%s}", d.name) }

// Halt closes the underlying serial device. It is idempotent.
func (d *Dev) Halt() error {
	if d.port == nil {
		return nil
	}
	err := d.port.Close()
	d.port = nil
	return err
}

func (d *Dev) Read(b []byte) (int, error) {
	if d.port == nil {
		return 0, errors.New("uart: device closed")
	}
	return d.port.Read(b)
}

func (d *Dev) Write(b []byte) (int, error) {
	if d.port == nil {
		return 0, errors.New("uart: device closed")
	}
	return d.port.Write(b)
}

// Tx implements conn.Conn for callers that want a single request/response
// round trip: it writes w in full, then reads until len(r) bytes have been
// collected or a read times out.
func (d *Dev) Tx(w, r []byte) error {
	if len(w) > 0 {
		if _, err := d.Write(w); err != nil {
			return err
		}
	}
	for n := 0; n < len(r); {
		m, err := d.Read(r[n:])
		n += m
		if err != nil {
			return err
		}
		if m == 0 {
			break
		}
	}
	return nil
}

// Duplex always reports Full: writes and reads can be interleaved freely on
// a UART, unlike a clocked bus.
func (d *Dev) Duplex() conn.Duplex { return conn.Full }

var _ Stream = (*Dev)(nil)
var _ conn.Conn = (*Dev)(nil)
