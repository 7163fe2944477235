// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// freeflowd runs the respiratory flow sensor firmware's background loop:
// the pressure engine, the trace recorder, the command plane session over
// either a real serial device or a simulated one, and the display engine.
// It wires every package in this module together the way the firmware's
// main loop does, against either real hardware ports (when given a serial
// device to open) or an in-process simulation (the default, for running
// and exercising the daemon on a host with no sensor or panel attached).
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sglow/freeflow/conn/gpio"
	"github.com/sglow/freeflow/conn/uart"
	"github.com/sglow/freeflow/devices/oled"
	"github.com/sglow/freeflow/devices/pressure"
	"github.com/sglow/freeflow/firmware"
	"github.com/sglow/freeflow/flash"
	"github.com/sglow/freeflow/proto"
	"github.com/sglow/freeflow/registry"
	"github.com/sglow/freeflow/ring"
	"github.com/sglow/freeflow/store"
	"github.com/sglow/freeflow/timebase"
	"github.com/sglow/freeflow/trace"
)

// flashSize is large enough for the parameter store's two pages plus a
// toy main-firmware region, for a host build with no real flash part.
const flashSize = 256 * 1024
const mainRegionSize = 128 * 1024

func mainImpl() error {
	uartDev := flag.String("uart", "", "serial device for the command session (e.g. /dev/ttyUSB0); empty runs with no transport attached")
	baud := flag.Int("baud", 115200, "serial baud rate")
	loader := flag.Bool("loader", false, "report as the loader image in the STATE command")
	flag.Parse()

	clock := timebase.New()
	dev := flash.NewSim(flashSize)

	st, err := store.Open(dev, 0)
	if err != nil {
		return fmt.Errorf("opening parameter store: %w", err)
	}

	reg := registry.New()

	pe := pressure.NewEngine(newSimPressureBus(), &simPin{name: "cs1"}, &simPin{name: "cs2"})
	pe.SetStore(st)
	if err := pe.BindRegistry(reg); err != nil {
		return fmt.Errorf("binding pressure variables: %w", err)
	}

	dbg := proto.NewDebugRAM()
	dbgWord := func(i int) uint16 {
		b := dbg.Bytes()
		return uint16(b[2*i]) | uint16(b[2*i+1])<<8
	}

	// The fixed trace variable enumeration: 0 is "none", 1-4 are the
	// debug scratch words, 5-9 are the pressure-related readings. Index 6
	// (battery voltage) has no ADC channel in this tree and always reads
	// zero.
	tr := trace.New(clock.NowUS, []trace.VarFunc{
		nil,
		func() uint16 { return dbgWord(0) },
		func() uint16 { return dbgWord(1) },
		func() uint16 { return dbgWord(2) },
		func() uint16 { return dbgWord(3) },
		func() uint16 { a, b := pe.Adjusted(); return uint16(b - a) },
		func() uint16 { return 0 },
		func() uint16 { return uint16(pe.FlowRate()) },
		func() uint16 { a, _ := pe.Adjusted(); return uint16(a >> 8) },
		func() uint16 { _, b := pe.Adjusted(); return uint16(b >> 8) },
	})
	if err := tr.BindRegistry(reg); err != nil {
		return fmt.Errorf("binding trace variables: %w", err)
	}

	fw := firmware.New(dev, flashSize-mainRegionSize, mainRegionSize)

	dispatcher := &proto.Dispatcher{
		Reg:      reg,
		Mem:      dbg,
		FW:       fw,
		IsLoader: *loader,
	}

	var session *proto.Session
	if *uartDev != "" {
		port, err := uart.Open(*uartDev, *baud)
		if err != nil {
			return fmt.Errorf("opening serial device: %w", err)
		}
		defer port.Halt()
		xport := newStreamTransport(port)
		session = proto.NewSession(xport, dispatcher)
	}

	disp := oled.NewEngine(simOLEDBus{}, clock)
	if err := disp.Init(); err != nil {
		return fmt.Errorf("initializing display: %w", err)
	}

	fmt.Println("freeflowd: running, ctrl+c to exit")
	halt := make(chan os.Signal, 1)
	signal.Notify(halt, syscall.SIGTERM, syscall.SIGINT)

	tick := time.NewTicker(time.Second / timebase.Freq)
	defer tick.Stop()

	refresh := time.NewTicker(200 * time.Millisecond)
	defer refresh.Stop()

	for {
		select {
		case <-tick.C:
			n := clock.Tick()
			if err := pe.Poll(n); err != nil {
				fmt.Fprintf(os.Stderr, "freeflowd: pressure poll: %v\n", err)
			}
			pe.LoopUpdateOffset()
			tr.Tick()
			if session != nil {
				session.Poll()
			}
		case <-refresh.C:
			logStatus(pe)
			renderDisplay(disp, pe)
			if err := disp.Update(); err != nil {
				fmt.Fprintf(os.Stderr, "freeflowd: display update: %v\n", err)
			}
			// The simulated bus completes each transfer synchronously, so
			// drive the page-refresh state machine to completion the same
			// way Init does, rather than leaving it armed after the first
			// page-address command.
			for disp.State() != oled.Idle {
				disp.OnTxDone()
			}
		case <-halt:
			return nil
		}
	}
}

// logStatus reports the current differential reading in engineering units,
// the same value a connected host would decode from the trace buffer.
func logStatus(pe *pressure.Engine) {
	fmt.Printf("freeflowd: flow=%.1f dp=%s\n", pe.FlowRate(), pe.DifferentialPressure())
}

// renderDisplay draws the current flow reading and trend graph into the
// display engine's frame buffer. The refresh engine's own state machine
// (driven separately, by Update/OnTxDone) pushes whatever is in the frame
// buffer out over the bus; this only updates the shadow.
func renderDisplay(disp *oled.Engine, pe *pressure.Engine) {
	disp.FB.Clear()
	disp.FB.DrawString(fmt.Sprintf("%.1f", pe.FlowRate()), 0, 0, oled.Digits7)
	disp.FB.DrawTrend(pe.History().FlowHistory(), 0, 24, oled.NumCols, 32)
}

// streamTransport adapts an io.ReadWriteCloser-backed uart.Dev into
// proto.Transport: a background goroutine feeds received bytes into a
// ring.Buffer so Poll never blocks on a slow or idle line.
type streamTransport struct {
	port *uart.Dev
	rx   ring.Buffer
}

func newStreamTransport(port *uart.Dev) *streamTransport {
	t := &streamTransport{port: port}
	go t.readLoop()
	return t
}

func (t *streamTransport) readLoop() {
	var buf [64]byte
	for {
		n, err := t.port.Read(buf[:])
		if err != nil {
			return
		}
		for i := 0; i < n; i++ {
			t.rx.PushByte(buf[i])
		}
	}
}

func (t *streamTransport) RecvByte() (byte, bool) { return t.rx.PopByte() }

func (t *streamTransport) SendByte(b byte) bool {
	_, err := t.port.Write([]byte{b})
	return err == nil
}

func (t *streamTransport) TxFree() int { return ring.Capacity }

var _ gpio.PinOut = (*simPin)(nil)

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "freeflowd: %s.\n", err)
		os.Exit(1)
	}
}
