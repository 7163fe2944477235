// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package registry implements the variable registry (C4): a flat table of
// named, typed cells, each with a get/set accessor pair, addressed by a
// small numeric id from the command plane's GET/SET opcodes.
//
// Cells are statically allocated: MaxID bounds the table and there is no
// dynamic growth. A cell's Set may be overridden at construction to run a
// side effect (recompute an offset, persist to flash); read-only cells are
// enforced by construction, not by caller discipline, per spec.md §3.
package registry

import (
	"math"

	"github.com/sglow/freeflow/errcode"
)

// MaxID bounds the id space, matching VARID_MAX in the original firmware.
const MaxID = 50

// Type enumerates the legal logical types a cell can declare.
type Type int

const (
	Int16 Type = iota
	Int32
	ArrayInt32
	Float32
	ArrayFloat32
)

// Flags modify a cell's behavior.
type Flags uint8

const ReadOnly Flags = 0x01

// Getter copies the cell's current value into buf (which has at least max
// bytes of room) and returns the number of bytes written, or an error.
type Getter func(buf []byte) (int, error)

// Setter consumes buf (the full payload supplied by the command) and
// applies it to the cell, returning an error on failure.
type Setter func(buf []byte) error

// Cell is one entry in the registry.
type Cell struct {
	ID    uint16
	Name  string
	Size  uint8
	Flags Flags
	Get   Getter
	Set   Setter
}

// Registry is the flat, statically-sized table of cells.
type Registry struct {
	cells [MaxID]*Cell
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{}
}

// Define installs a cell at id. It fails with errcode.AlreadyDefined if the
// slot is occupied, or errcode.Range if id is out of bounds. If flags has
// ReadOnly set, set is ignored and every Set call on this cell fails with
// errcode.ReadOnly, matching the original's VarSetReadOnly override.
func (r *Registry) Define(id uint16, name string, size uint8, flags Flags, get Getter, set Setter) error {
	if int(id) >= MaxID {
		return errcode.Range
	}
	if r.cells[id] != nil {
		return errcode.AlreadyDefined
	}
	if flags&ReadOnly != 0 {
		set = func([]byte) error { return errcode.ReadOnly }
	}
	r.cells[id] = &Cell{ID: id, Name: name, Size: size, Flags: flags, Get: get, Set: set}
	return nil
}

// Lookup returns the cell at id, or nil if none is registered there.
func (r *Registry) Lookup(id uint16) *Cell {
	if int(id) >= MaxID {
		return nil
	}
	return r.cells[id]
}

// Find returns the cell registered under name, or nil if none matches.
// Used by the ASCII command mode, which addresses variables by name
// rather than numeric id.
func (r *Registry) Find(name string) *Cell {
	for _, c := range r.cells {
		if c != nil && c.Name == name {
			return c
		}
	}
	return nil
}

// HandleGet implements the binary GET dispatch: look up the cell, confirm
// the caller's buffer (max bytes) is large enough, then delegate.
func (r *Registry) HandleGet(id uint16, buf []byte) (int, error) {
	c := r.Lookup(id)
	if c == nil {
		return 0, errcode.UnknownVar
	}
	if len(buf) < int(c.Size) {
		return 0, errcode.ShortCmd
	}
	return c.Get(buf)
}

// HandleSet implements the binary SET dispatch: look up the cell, confirm
// enough payload was supplied, then delegate.
func (r *Registry) HandleSet(id uint16, payload []byte) error {
	c := r.Lookup(id)
	if c == nil {
		return errcode.UnknownVar
	}
	if len(payload) < int(c.Size) {
		return errcode.MissingData
	}
	return c.Set(payload)
}

// Int32Accessors builds default little-endian Getter/Setter pair over an
// int32 cell, matching VarGet32/VarSet32.
func Int32Accessors(v *int32) (Getter, Setter) {
	get := func(buf []byte) (int, error) {
		if len(buf) < 4 {
			return 0, errcode.MissingData
		}
		u := uint32(*v)
		buf[0] = byte(u)
		buf[1] = byte(u >> 8)
		buf[2] = byte(u >> 16)
		buf[3] = byte(u >> 24)
		return 4, nil
	}
	set := func(buf []byte) error {
		if len(buf) < 4 {
			return errcode.MissingData
		}
		*v = int32(uint32(buf[0]) | uint32(buf[1])<<8 | uint32(buf[2])<<16 | uint32(buf[3])<<24)
		return nil
	}
	return get, set
}

// Int16Accessors builds a default little-endian Getter/Setter pair over an
// int16 cell, matching VarGet16/VarSet16.
func Int16Accessors(v *int16) (Getter, Setter) {
	get := func(buf []byte) (int, error) {
		if len(buf) < 2 {
			return 0, errcode.MissingData
		}
		u := uint16(*v)
		buf[0] = byte(u)
		buf[1] = byte(u >> 8)
		return 2, nil
	}
	set := func(buf []byte) error {
		if len(buf) < 2 {
			return errcode.MissingData
		}
		*v = int16(uint16(buf[0]) | uint16(buf[1])<<8)
		return nil
	}
	return get, set
}

// Float32Accessors builds a default Getter/Setter pair that transmits the
// raw IEEE-754 bit pattern in little-endian order.
func Float32Accessors(v *float32) (Getter, Setter) {
	get := func(buf []byte) (int, error) {
		if len(buf) < 4 {
			return 0, errcode.MissingData
		}
		u := math.Float32bits(*v)
		buf[0] = byte(u)
		buf[1] = byte(u >> 8)
		buf[2] = byte(u >> 16)
		buf[3] = byte(u >> 24)
		return 4, nil
	}
	set := func(buf []byte) error {
		if len(buf) < 4 {
			return errcode.MissingData
		}
		u := uint32(buf[0]) | uint32(buf[1])<<8 | uint32(buf[2])<<16 | uint32(buf[3])<<24
		*v = math.Float32frombits(u)
		return nil
	}
	return get, set
}
