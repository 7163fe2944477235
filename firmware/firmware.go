// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package firmware implements the main firmware image region (C9): the
// flash area the FW_ERASE/FW_WRITE/FW_CRC commands program, and the boot
// check that decides whether the image in it is safe to jump into.
//
// The region's last 8 bytes are a tail record, {length uint32, crc32
// uint32}, written last by FW_CRC once the image body has been fully
// transferred. A region only passes Verify if length leaves room for the
// tail itself and the CRC over the image body matches, the same property
// the original bootloader checks before jumping into the application.
package firmware

import (
	"encoding/binary"

	"github.com/sglow/freeflow/crc"
	"github.com/sglow/freeflow/flash"
	"github.com/sglow/freeflow/proto"
)

// tailSize is the size in bytes of the trailing {length, crc} record.
const tailSize = 8

// Region is a flash.Device-backed main firmware image, implementing
// proto.FirmwareRegion.
type Region struct {
	dev  flash.Device
	base uint32
	size uint32
}

// New returns a Region covering size bytes of dev starting at base. size
// must be a multiple of flash.PageSize.
func New(dev flash.Device, base, size uint32) *Region {
	return &Region{dev: dev, base: base, size: size}
}

var _ proto.FirmwareRegion = (*Region)(nil)

// Size implements proto.FirmwareRegion.
func (r *Region) Size() uint32 { return r.size }

// Erase implements proto.FirmwareRegion, erasing every page of the region
// in turn so that a failure partway through still leaves each erased page
// individually consistent.
func (r *Region) Erase() error {
	for addr := r.base; addr < r.base+r.size; addr += flash.PageSize {
		if err := r.dev.Erase(addr); err != nil {
			return err
		}
	}
	return nil
}

// WriteAt implements proto.FirmwareRegion. addr is relative to the start
// of the region; the caller (proto.Dispatcher) has already checked
// alignment and that the write does not reach into the tail.
func (r *Region) WriteAt(addr uint32, data []byte) error {
	return r.dev.Write(r.base+addr, data)
}

// SetTail implements proto.FirmwareRegion: writes the {length, crc} tail
// record into the region's last 8 bytes.
func (r *Region) SetTail(length, crcVal uint32) error {
	var buf [tailSize]byte
	binary.LittleEndian.PutUint32(buf[0:], length)
	binary.LittleEndian.PutUint32(buf[4:], crcVal)
	return r.dev.Write(r.base+r.size-tailSize, buf[:])
}

// readTail decodes the region's tail record.
func (r *Region) readTail() (length, crcVal uint32) {
	var buf [tailSize]byte
	r.dev.Read(r.base+r.size-tailSize, buf[:])
	return binary.LittleEndian.Uint32(buf[0:]), binary.LittleEndian.Uint32(buf[4:])
}

// Verify reports whether the region holds an image the boot path should
// trust: the recorded length must leave room for the tail itself, and the
// CRC-32 over exactly that many bytes of image body must match the
// recorded CRC.
func (r *Region) Verify() bool {
	length, wantCRC := r.readTail()
	if length == 0 || length >= r.size-tailSize {
		return false
	}
	body := make([]byte, length)
	r.dev.Read(r.base, body)
	return crc.Checksum(body) == wantCRC
}

// SwapFlag is the reserved-RAM word the application sets before an
// intentional jump into the loader (e.g. to receive an update), so the
// loader knows not to jump straight back into a main image that never
// asked to be replaced. It lives in ordinary RAM, not flash: a Sim in
// this tree models it as a plain in-memory cell rather than a fixed
// address, since nothing else needs to address it by location.
type SwapFlag struct {
	set bool
}

// RequestSwap marks that main jumped to the loader intentionally.
func (f *SwapFlag) RequestSwap() { f.set = true }

// Consume reports whether a swap was requested and clears the flag, the
// way the loader reads and clears it once on boot.
func (f *SwapFlag) Consume() bool {
	v := f.set
	f.set = false
	return v
}

// ShouldJumpToMain decides the loader's boot action: jump into the main
// image only if it verifies and no swap was requested.
func ShouldJumpToMain(main *Region, swap *SwapFlag) bool {
	if swap.Consume() {
		return false
	}
	return main.Verify()
}
