// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package proto implements the command plane (C7): the byte-stuffed binary
// framing state machine, the STATE/PEEK/POKE/GET/SET/FW_* dispatcher, and
// a supplementary human-typable ASCII command mode for interactive
// terminal debugging. The framing and dispatch are transport-agnostic; a
// Session is driven by repeated Poll calls from the background loop and
// talks to its transport only through the small Transport interface, so
// the same code serves both the hardware UART and a USB byte pipe.
package proto

import (
	"github.com/sglow/freeflow/errcode"
	"github.com/sglow/freeflow/registry"
)

// Special framing bytes in binary mode.
const (
	EOC byte = 0xF1
	ESC byte = 0xF2
)

// Opcode identifies a binary command.
type Opcode uint8

// Binary opcodes. 0..4 are reserved by the original firmware; FwErase,
// FwWrite and FwCrc are assigned the next three codes, consistently
// between host and device.
const (
	OpState Opcode = iota
	OpPeek
	OpPoke
	OpGet
	OpSet
	OpFwErase
	OpFwWrite
	OpFwCrc
)

// bufSize is the size of a session's command/response buffer, matching
// the original firmware's 200-byte cmdBuff.
const bufSize = 200

// debugRAMBase is added to any PEEK/POKE address below 0x80, the
// convention that reserves the first 128 bytes of RAM for debug scratch.
const debugRAMBase = 0x20000000

// Memory is the minimal addressable surface PEEK/POKE can reach. In this
// simulated environment it is only ever the fixed-size debug scratch
// region; there is no general memory-mapped address space to expose.
type Memory interface {
	Read(addr uint32, out []byte) error
	Write(addr uint32, data []byte) error
}

// DebugRAM is a Memory backed by a fixed-size byte array representing the
// first bytes of RAM, the only region the debug PEEK/POKE convention
// addresses in this tree.
type DebugRAM struct {
	data [128]byte
}

// NewDebugRAM returns an empty DebugRAM.
func NewDebugRAM() *DebugRAM { return &DebugRAM{} }

// Bytes exposes the scratch region directly, for wiring dbgInt-style
// trace sampler hooks.
func (d *DebugRAM) Bytes() []byte { return d.data[:] }

func (d *DebugRAM) bounds(addr uint32, n int) (int, error) {
	if addr < debugRAMBase || addr+uint32(n) > debugRAMBase+uint32(len(d.data)) {
		return 0, errcode.Range
	}
	return int(addr - debugRAMBase), nil
}

// Read copies n bytes starting at addr into out.
func (d *DebugRAM) Read(addr uint32, out []byte) error {
	off, err := d.bounds(addr, len(out))
	if err != nil {
		return err
	}
	copy(out, d.data[off:off+len(out)])
	return nil
}

// Write copies data into the scratch region starting at addr.
func (d *DebugRAM) Write(addr uint32, data []byte) error {
	off, err := d.bounds(addr, len(data))
	if err != nil {
		return err
	}
	copy(d.data[off:off+len(data)], data)
	return nil
}

// FirmwareRegion is the main-firmware flash region as seen by FW_ERASE,
// FW_WRITE and FW_CRC. Implemented by package firmware.
type FirmwareRegion interface {
	Size() uint32
	Erase() error
	WriteAt(addr uint32, data []byte) error
	SetTail(length, crc uint32) error
}

// Dispatcher holds everything a binary command needs to answer itself:
// the variable registry, the debug scratch memory, the firmware region,
// and whether this image identifies itself as the loader or application.
type Dispatcher struct {
	Reg       *registry.Registry
	Mem       Memory
	FW        FirmwareRegion
	IsLoader  bool
}

func cksum(b []byte) byte {
	var c byte
	for _, v := range b {
		c ^= v
	}
	return c
}

// addCksum builds a successful response: error OK, checksum of data, then
// data itself.
func addCksum(data []byte) []byte {
	resp := make([]byte, 2+len(data))
	resp[0] = byte(errcode.OK)
	resp[1] = cksum(data) ^ 0x55
	copy(resp[2:], data)
	return resp
}

// returnErr builds an error response: just the error code and its
// checksum, no payload.
func returnErr(err errcode.Code) []byte {
	return []byte{byte(err), byte(err) ^ 0x55}
}

func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

// Process dispatches one fully-destuffed binary command and returns the
// response to stuff and send back.
func (d *Dispatcher) Process(cmd []byte) []byte {
	if len(cmd) < 2 {
		return returnErr(errcode.ShortCmd)
	}
	if cksum(cmd) != 0x55 {
		return returnErr(errcode.Cksum)
	}

	switch Opcode(cmd[0]) {
	case OpState:
		flag := byte(0)
		if d.IsLoader {
			flag = 1
		}
		return addCksum([]byte{flag})
	case OpPeek:
		return d.handlePeek(cmd)
	case OpPoke:
		return d.handlePoke(cmd)
	case OpGet:
		return d.handleGet(cmd)
	case OpSet:
		return d.handleSet(cmd)
	case OpFwErase:
		return d.handleFwErase()
	case OpFwWrite:
		return d.handleFwWrite(cmd)
	case OpFwCrc:
		return d.handleFwCrc(cmd)
	default:
		return returnErr(errcode.BadCmd)
	}
}

func debugAddr(addr uint32) uint32 {
	if addr < 0x80 {
		return addr + debugRAMBase
	}
	return addr
}

// handlePeek: cmd[2:6] = little-endian address, cmd[6] = byte count.
func (d *Dispatcher) handlePeek(cmd []byte) []byte {
	if len(cmd) < 7 {
		return returnErr(errcode.MissingData)
	}
	addr := debugAddr(le32(cmd[2:6]))
	ct := int(cmd[6])
	if ct > bufSize-2 {
		ct = bufSize - 2
	}
	out := make([]byte, ct)
	if err := d.Mem.Read(addr, out); err != nil {
		return returnErr(errcode.FromError(err))
	}
	return addCksum(out)
}

// handlePoke: cmd[2:6] = little-endian address, cmd[6:] = data to write.
// Real hardware picks 32/16/8-bit bus transactions based on alignment;
// this backing store is a plain byte array so the distinction has no
// observable effect here, but the length checks are preserved.
func (d *Dispatcher) handlePoke(cmd []byte) []byte {
	if len(cmd) < 7 {
		return returnErr(errcode.MissingData)
	}
	addr := debugAddr(le32(cmd[2:6]))
	data := cmd[6:]
	if err := d.Mem.Write(addr, data); err != nil {
		return returnErr(errcode.FromError(err))
	}
	return returnErr(errcode.OK)
}

// handleGet: cmd[2:4] = little-endian variable id.
func (d *Dispatcher) handleGet(cmd []byte) []byte {
	if len(cmd) < 4 {
		return returnErr(errcode.MissingData)
	}
	vid := uint16(cmd[2]) | uint16(cmd[3])<<8
	buf := make([]byte, bufSize-2)
	n, err := d.Reg.HandleGet(vid, buf)
	if err != nil {
		return returnErr(errcode.FromError(err))
	}
	return addCksum(buf[:n])
}

// handleSet: cmd[2:4] = little-endian variable id, cmd[4:] = new value.
func (d *Dispatcher) handleSet(cmd []byte) []byte {
	if len(cmd) < 4 {
		return returnErr(errcode.MissingData)
	}
	vid := uint16(cmd[2]) | uint16(cmd[3])<<8
	if err := d.Reg.HandleSet(vid, cmd[4:]); err != nil {
		return returnErr(errcode.FromError(err))
	}
	return returnErr(errcode.OK)
}

func (d *Dispatcher) handleFwErase() []byte {
	if err := d.FW.Erase(); err != nil {
		return returnErr(errcode.Flash)
	}
	return returnErr(errcode.OK)
}

// handleFwWrite: cmd[2:6] = little-endian address, cmd[6:] = data. Both
// address and length must be multiples of 8 (flash is programmed 64 bits
// at a time) and the write must not reach into the reserved 8-byte tail.
func (d *Dispatcher) handleFwWrite(cmd []byte) []byte {
	if len(cmd) < 7 {
		return returnErr(errcode.MissingData)
	}
	addr := le32(cmd[2:6])
	data := cmd[6:]
	if addr%8 != 0 || len(data)%8 != 0 {
		return returnErr(errcode.Range)
	}
	if uint64(addr)+uint64(len(data)) > uint64(d.FW.Size())-8 {
		return returnErr(errcode.Range)
	}
	if err := d.FW.WriteAt(addr, data); err != nil {
		return returnErr(errcode.Flash)
	}
	return returnErr(errcode.OK)
}

// handleFwCrc: cmd[2:6] = little-endian length, cmd[6:10] = little-endian
// crc. Writes the tail record the boot image inspects.
func (d *Dispatcher) handleFwCrc(cmd []byte) []byte {
	if len(cmd) < 10 {
		return returnErr(errcode.MissingData)
	}
	length := le32(cmd[2:6])
	crc := le32(cmd[6:10])
	if err := d.FW.SetTail(length, crc); err != nil {
		return returnErr(errcode.Flash)
	}
	return returnErr(errcode.OK)
}
