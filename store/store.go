// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package store implements the non-volatile parameter store: a fixed
// 256-byte record ping-ponged across two flash pages with CRC validation
// and power-loss safety.
//
// On startup, every 256-byte slot across both pages is scanned; the valid
// slot (good mark + matching CRC) with the highest 8-bit modular counter
// wins, and any other valid slot found is invalidated. Updates always write
// a fresh copy to the next slot before invalidating the old one, so a power
// loss mid-update still leaves exactly one reachable valid record.
package store

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/sglow/freeflow/crc"
	"github.com/sglow/freeflow/flash"
)

// RecordSize is the fixed on-flash record size in bytes.
const RecordSize = 256

// CalPoints is the number of entries in the flow calibration table.
const CalPoints = 20

const (
	offCRC     = 0
	offCount   = 4
	offMark    = 5
	offInfo    = 6
	offPOff    = 8
	offPCal    = 16
	offReserved = 96
)

// goodMark is written into a record to mark it valid. Any other value
// (0xFF for erased, 0x00 once deliberately invalidated) reads as invalid.
const goodMark = 0x55

// Record is the decoded, in-memory view of a 256-byte store slot.
type Record struct {
	CRC     uint32
	Count   uint8
	Mark    uint8
	Info    uint16
	POff    [2]int32
	PCal    [CalPoints]float32
	reserved [RecordSize - offReserved]byte
}

func (r *Record) encode() []byte {
	buf := make([]byte, RecordSize)
	binary.LittleEndian.PutUint32(buf[offCRC:], r.CRC)
	buf[offCount] = r.Count
	buf[offMark] = r.Mark
	binary.LittleEndian.PutUint16(buf[offInfo:], r.Info)
	binary.LittleEndian.PutUint32(buf[offPOff:], uint32(r.POff[0]))
	binary.LittleEndian.PutUint32(buf[offPOff+4:], uint32(r.POff[1]))
	for i, v := range r.PCal {
		binary.LittleEndian.PutUint32(buf[offPCal+4*i:], math.Float32bits(v))
	}
	copy(buf[offReserved:], r.reserved[:])
	return buf
}

func decode(buf []byte) Record {
	var r Record
	r.CRC = binary.LittleEndian.Uint32(buf[offCRC:])
	r.Count = buf[offCount]
	r.Mark = buf[offMark]
	r.Info = binary.LittleEndian.Uint16(buf[offInfo:])
	r.POff[0] = int32(binary.LittleEndian.Uint32(buf[offPOff:]))
	r.POff[1] = int32(binary.LittleEndian.Uint32(buf[offPOff+4:]))
	for i := range r.PCal {
		r.PCal[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[offPCal+4*i:]))
	}
	copy(r.reserved[:], buf[offReserved:])
	return r
}

// blockCRC computes the CRC over everything but the leading CRC field
// itself, matching the original's BlockCRC which skips the first word.
func blockCRC(buf []byte) uint32 {
	return crc.Checksum(buf[4:])
}

// Store owns the two flash pages and tracks the address of the currently
// valid record.
type Store struct {
	dev     flash.Device
	base    uint32 // address of page 0
	slotsPerPage uint32
	cur     uint32 // address of the current valid slot
}

// Errors mirror spec.md §7's taxonomy for the subset this package can
// raise.
var (
	ErrRange  = fmt.Errorf("store: offset out of range")
	ErrFlash  = fmt.Errorf("store: flash operation failed")
	ErrVerify = fmt.Errorf("store: post-write verify mismatch")
)

// Open scans the two flash pages starting at base (each flash.PageSize
// bytes) and returns a Store positioned at the most recent valid record.
// If none is found, page 0 is erased and a blank record is written.
func Open(dev flash.Device, base uint32) (*Store, error) {
	s := &Store{dev: dev, base: base, slotsPerPage: flash.PageSize / RecordSize}
	total := 2 * s.slotsPerPage

	var buf [RecordSize]byte
	var found bool
	for i := uint32(0); i < total; i++ {
		addr := base + i*RecordSize
		dev.Read(addr, buf[:])
		if !checkValid(buf[:]) {
			continue
		}
		if !found {
			s.cur = addr
			found = true
			continue
		}
		var old [RecordSize]byte
		dev.Read(s.cur, old[:])
		if int8(buf[offCount]-old[offCount]) > 0 {
			if err := s.invalidate(s.cur); err != nil {
				return nil, err
			}
			s.cur = addr
		} else {
			if err := s.invalidate(addr); err != nil {
				return nil, err
			}
		}
	}

	if found {
		return s, nil
	}

	var blank Record
	blank.Mark = goodMark
	enc := blank.encode()
	blank.CRC = blockCRC(enc)
	enc = blank.encode()

	if err := dev.Erase(base); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFlash, err)
	}
	if err := dev.Write(base, enc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFlash, err)
	}
	s.cur = base
	return s, nil
}

func checkValid(buf []byte) bool {
	if buf[offMark] != goodMark {
		return false
	}
	want := binary.LittleEndian.Uint32(buf[offCRC:])
	return blockCRC(buf) == want
}

// Current returns the decoded record currently considered valid.
func (s *Store) Current() Record {
	var buf [RecordSize]byte
	s.dev.Read(s.cur, buf[:])
	return decode(buf[:])
}

// UpdateOffset patches len(value) bytes at the given byte offset within the
// record (offset must be >= 8, the reserved CRC/count/mark/info header, and
// offset+len must not exceed RecordSize), persists the patched record to
// the next slot, and invalidates the previous one on success. The reserved
// tail of the record (offsets 96 and up) is always stored as zero, so bytes
// patched there are not persisted.
func (s *Store) UpdateOffset(offset uint32, value []byte) error {
	if offset < 8 || offset+uint32(len(value)) > RecordSize {
		return ErrRange
	}

	var buf [RecordSize]byte
	s.dev.Read(s.cur, buf[:])
	temp := decode(buf[:])

	patched := temp.encode()
	copy(patched[offset:], value)
	for i := offReserved; i < RecordSize; i++ {
		patched[i] = 0
	}
	temp = decode(patched)
	temp.Count++
	temp.Mark = goodMark
	enc := temp.encode()
	temp.CRC = blockCRC(enc)
	enc = temp.encode()

	addr := s.cur + RecordSize
	if err := s.saveBlock(enc, addr); err != nil {
		// Retry once at the first slot of the opposite page.
		addr = s.base
		if s.cur < s.base+flash.PageSize {
			addr += flash.PageSize
		}
		if err := s.saveBlock(enc, addr); err != nil {
			return err
		}
	}

	if err := s.invalidate(s.cur); err != nil {
		return err
	}
	s.cur = addr
	return nil
}

// UpdatePOff persists a single pressure offset (which is 0 or 1) to the
// store.
func (s *Store) UpdatePOff(which int, v int32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(v))
	return s.UpdateOffset(offPOff+uint32(which)*4, buf[:])
}

// UpdateCalibration persists the full 20-point flow calibration table.
func (s *Store) UpdateCalibration(table [CalPoints]float32) error {
	buf := make([]byte, 4*CalPoints)
	for i, v := range table {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return s.UpdateOffset(offPCal, buf)
}

func (s *Store) saveBlock(enc []byte, addr uint32) error {
	if addr%flash.PageSize == 0 {
		if err := s.dev.Erase(addr); err != nil {
			return fmt.Errorf("%w: %v", ErrFlash, err)
		}
	}
	if err := s.dev.Write(addr, enc); err != nil {
		return fmt.Errorf("%w: %v", ErrFlash, err)
	}
	var check [RecordSize]byte
	s.dev.Read(addr, check[:])
	for i := range enc {
		if check[i] != enc[i] {
			return ErrVerify
		}
	}
	return nil
}

// invalidate zeroes the leading 8 bytes (CRC, counter, mark, info) of the
// slot at addr, which is enough to fail both the mark check and the CRC
// check on the next scan.
func (s *Store) invalidate(addr uint32) error {
	if err := s.dev.Write(addr, make([]byte, 8)); err != nil {
		return fmt.Errorf("%w: %v", ErrFlash, err)
	}
	return nil
}
