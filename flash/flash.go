// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package flash defines the interface to the byte-addressable, page-erase
// flash region backing the persistent store (C3) and the main firmware
// image (C9), plus an in-memory simulator for development and tests.
//
// There is no real flash controller to target from a hosted Go binary, so
// Device is the seam: a production build wires in a platform-specific
// implementation; this module ships only Sim.
package flash

import "fmt"

// PageSize is the erase granularity. Chosen to match spec.md's example of
// "2·page_size/256" slots per page holding an integer number of 256-byte
// store records.
const PageSize = 4096

// Device is a byte-addressable flash region that must be erased a page at a
// time before being programmed.
type Device interface {
	// Erase erases the page containing addr. addr must be page-aligned.
	Erase(addr uint32) error
	// Write programs data at addr. Programming never sets a bit from 0 to 1;
	// implementations that can't express that are expected to enforce it.
	Write(addr uint32, data []byte) error
	// Read copies len(p) bytes starting at addr into p.
	Read(addr uint32, p []byte)
	// Size returns the total addressable size in bytes.
	Size() uint32
}

// Sim is an in-memory Device. Freshly erased bytes read as 0xFF, matching
// real NOR flash; Write ANDs new bits into existing ones so that writing
// without erasing never sets a 0 bit back to 1, same as hardware.
type Sim struct {
	mem []byte
}

// NewSim returns a Sim of the given size, fully erased (all 0xFF).
func NewSim(size uint32) *Sim {
	s := &Sim{mem: make([]byte, size)}
	for i := range s.mem {
		s.mem[i] = 0xFF
	}
	return s
}

func (s *Sim) Size() uint32 { return uint32(len(s.mem)) }

func (s *Sim) Erase(addr uint32) error {
	if addr%PageSize != 0 {
		return fmt.Errorf("flash: erase address %#x not page-aligned", addr)
	}
	if uint64(addr)+PageSize > uint64(len(s.mem)) {
		return fmt.Errorf("flash: erase address %#x out of range", addr)
	}
	for i := addr; i < addr+PageSize; i++ {
		s.mem[i] = 0xFF
	}
	return nil
}

func (s *Sim) Write(addr uint32, data []byte) error {
	if uint64(addr)+uint64(len(data)) > uint64(len(s.mem)) {
		return fmt.Errorf("flash: write at %#x, len %d out of range", addr, len(data))
	}
	for i, b := range data {
		s.mem[addr+uint32(i)] &= b
	}
	return nil
}

func (s *Sim) Read(addr uint32, p []byte) {
	copy(p, s.mem[addr:])
}

var _ Device = (*Sim)(nil)
