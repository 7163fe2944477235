// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package proto

import (
	"testing"

	"github.com/sglow/freeflow/errcode"
	"github.com/sglow/freeflow/registry"
)

func newTestDispatcher() *Dispatcher {
	return &Dispatcher{
		Reg: registry.New(),
		Mem: NewDebugRAM(),
	}
}

func TestStateCommand(t *testing.T) {
	d := newTestDispatcher()
	resp := d.Process([]byte{byte(OpState), 0x55})
	want := []byte{0x00, byte(0) ^ 0x55, 0x00}
	if string(resp) != string(want) {
		t.Fatalf("resp = %v, want %v", resp, want)
	}
}

func TestStateCommandLoader(t *testing.T) {
	d := newTestDispatcher()
	d.IsLoader = true
	resp := d.Process([]byte{byte(OpState), 0x55})
	want := []byte{0x00, byte(1) ^ 0x55, 0x01}
	if string(resp) != string(want) {
		t.Fatalf("resp = %v, want %v", resp, want)
	}
}

func TestPeekDebugScratch(t *testing.T) {
	d := newTestDispatcher()
	ram := d.Mem.(*DebugRAM)
	copy(ram.Bytes(), []byte{0xDE, 0xAD, 0xBE, 0xEF})

	cmd := []byte{byte(OpPeek), 0, 0, 0, 0, 0, 4}
	cmd[1] = cksum(append([]byte{cmd[0]}, cmd[2:]...)) ^ 0x55
	resp := d.Process(cmd)
	if resp[0] != byte(errcode.OK) {
		t.Fatalf("error = %d, want OK", resp[0])
	}
	if string(resp[2:]) != string([]byte{0xDE, 0xAD, 0xBE, 0xEF}) {
		t.Fatalf("data = %v, want DE AD BE EF", resp[2:])
	}
}

func TestSetGetVariableRoundTrip(t *testing.T) {
	d := newTestDispatcher()
	var v int32
	get, set := registry.Int32Accessors(&v)
	if err := d.Reg.Define(10, "poff1", 4, 0, get, set); err != nil {
		t.Fatal(err)
	}

	setCmd := []byte{byte(OpSet), 0, 10, 0, 0x78, 0x56, 0x34, 0x12}
	setCmd[1] = cksum(append([]byte{setCmd[0]}, setCmd[2:]...)) ^ 0x55
	resp := d.Process(setCmd)
	if resp[0] != byte(errcode.OK) {
		t.Fatalf("SET failed: %d", resp[0])
	}

	getCmd := []byte{byte(OpGet), 0, 10, 0}
	getCmd[1] = cksum(append([]byte{getCmd[0]}, getCmd[2:]...)) ^ 0x55
	resp = d.Process(getCmd)
	if resp[0] != byte(errcode.OK) {
		t.Fatalf("GET failed: %d", resp[0])
	}
	want := []byte{0x78, 0x56, 0x34, 0x12}
	if string(resp[2:]) != string(want) {
		t.Fatalf("GET payload = %v, want %v", resp[2:], want)
	}
	if v != 0x12345678 {
		t.Fatalf("v = %#x, want 0x12345678", v)
	}
}

func TestUnknownOpcode(t *testing.T) {
	d := newTestDispatcher()
	resp := d.Process([]byte{0xFE, 0xFE ^ 0x55})
	if resp[0] != byte(errcode.BadCmd) {
		t.Fatalf("err = %d, want BadCmd", resp[0])
	}
}

func TestBadChecksum(t *testing.T) {
	d := newTestDispatcher()
	resp := d.Process([]byte{byte(OpState), 0x00})
	if resp[0] != byte(errcode.Cksum) {
		t.Fatalf("err = %d, want Cksum", resp[0])
	}
}

func TestShortCommand(t *testing.T) {
	d := newTestDispatcher()
	resp := d.Process([]byte{byte(OpState)})
	if resp[0] != byte(errcode.ShortCmd) {
		t.Fatalf("err = %d, want ShortCmd", resp[0])
	}
}

// property 1: every validly-checksummed packet gets a validly-checksummed
// response.
func TestFrameIntegrityProperty(t *testing.T) {
	d := newTestDispatcher()
	getCmd := []byte{byte(OpGet), 0, 5, 0}
	getCmd[1] = cksum(append([]byte{getCmd[0]}, getCmd[2:]...)) ^ 0x55

	cmds := [][]byte{
		{byte(OpState), 0x55},
		{0xFE, 0xFE ^ 0x55},
		getCmd,
	}
	for _, c := range cmds {
		if cksum(c) != 0x55 {
			continue
		}
		resp := d.Process(c)
		if len(resp) < 2 || cksum(resp) != 0x55 {
			t.Fatalf("response %v to %v has invalid checksum", resp, c)
		}
	}
}
