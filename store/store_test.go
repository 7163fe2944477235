// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package store

import (
	"encoding/binary"
	"testing"

	"github.com/sglow/freeflow/flash"
)

func newDev(t *testing.T) *flash.Sim {
	t.Helper()
	return flash.NewSim(2 * flash.PageSize)
}

func TestOpenBlankCreatesRecord(t *testing.T) {
	dev := newDev(t)
	s, err := Open(dev, 0)
	if err != nil {
		t.Fatal(err)
	}
	rec := s.Current()
	if rec.Mark != goodMark {
		t.Fatalf("Mark = %#x, want %#x", rec.Mark, goodMark)
	}
	if rec.Count != 0 {
		t.Fatalf("Count = %d, want 0", rec.Count)
	}
}

func TestUpdateOffsetRoundTrips(t *testing.T) {
	dev := newDev(t)
	s, err := Open(dev, 0)
	if err != nil {
		t.Fatal(err)
	}
	var v [4]byte
	binary.LittleEndian.PutUint32(v[:], 0x78563412)
	if err := s.UpdateOffset(8, v[:]); err != nil {
		t.Fatal(err)
	}
	rec := s.Current()
	if rec.POff[0] != 0x78563412 {
		t.Fatalf("POff[0] = %#x, want 0x78563412", rec.POff[0])
	}
	if rec.Count != 1 {
		t.Fatalf("Count = %d, want 1", rec.Count)
	}
}

func TestUpdateOffsetRejectsReservedHeader(t *testing.T) {
	dev := newDev(t)
	s, err := Open(dev, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateOffset(0, []byte{1, 2, 3, 4}); err != ErrRange {
		t.Fatalf("err = %v, want ErrRange", err)
	}
}

func TestReopenAfterManyUpdatesFindsLatest(t *testing.T) {
	dev := newDev(t)
	s, err := Open(dev, 0)
	if err != nil {
		t.Fatal(err)
	}
	var last int32
	for i := int32(0); i < 40; i++ {
		var v [4]byte
		binary.LittleEndian.PutUint32(v[:], uint32(i))
		if err := s.UpdateOffset(8, v[:]); err != nil {
			t.Fatalf("update #%d: %v", i, err)
		}
		last = i
	}
	s2, err := Open(dev, 0)
	if err != nil {
		t.Fatal(err)
	}
	rec := s2.Current()
	if rec.POff[0] != last {
		t.Fatalf("POff[0] = %d, want %d", rec.POff[0], last)
	}
}

func TestUpdatePOff(t *testing.T) {
	dev := newDev(t)
	s, err := Open(dev, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.UpdatePOff(1, -42); err != nil {
		t.Fatal(err)
	}
	if got := s.Current().POff[1]; got != -42 {
		t.Fatalf("POff[1] = %d, want -42", got)
	}
}

func TestUpdateCalibration(t *testing.T) {
	dev := newDev(t)
	s, err := Open(dev, 0)
	if err != nil {
		t.Fatal(err)
	}
	var table [CalPoints]float32
	for i := range table {
		table[i] = float32(i) * 1.5
	}
	if err := s.UpdateCalibration(table); err != nil {
		t.Fatal(err)
	}
	if got := s.Current().PCal; got != table {
		t.Fatalf("PCal = %v, want %v", got, table)
	}
}

func TestOpenPicksHighestCounterAndInvalidatesOther(t *testing.T) {
	dev := newDev(t)
	s, err := Open(dev, 0)
	if err != nil {
		t.Fatal(err)
	}
	// Keep a copy of the original record (counter 0) before the update
	// below invalidates it.
	old := make([]byte, RecordSize)
	dev.Read(0, old)

	var v [4]byte
	binary.LittleEndian.PutUint32(v[:], 7)
	if err := s.UpdateOffset(8, v[:]); err != nil {
		t.Fatal(err)
	}
	// Mimic a power loss between a new-slot write and the old slot's
	// invalidation: re-write the valid but stale record, with its lower
	// counter, over a later, still-erased slot.
	if err := dev.Write(2*RecordSize, old); err != nil {
		t.Fatal(err)
	}

	s2, err := Open(dev, 0)
	if err != nil {
		t.Fatal(err)
	}
	if s2.Current().POff[0] != 7 {
		t.Fatalf("POff[0] = %d, want 7", s2.Current().POff[0])
	}
	var stale [RecordSize]byte
	dev.Read(2*RecordSize, stale[:])
	if checkValid(stale[:]) {
		t.Fatal("expected the stale, lower-counter slot to be invalidated")
	}
}

// TestOpenTwoSimultaneouslyValidSlotsIncludingAddressZero writes two valid
// records directly to flash (mimicking a crash between a new slot's write
// and the old slot's invalidation) with the base address, 0, itself one of
// the two valid slots. Open must still pick the higher modular counter and
// invalidate the other, rather than treating address 0's validity as "no
// slot found yet".
func TestOpenTwoSimultaneouslyValidSlotsIncludingAddressZero(t *testing.T) {
	dev := newDev(t)

	writeValid := func(addr uint32, count uint8, poff0 int32) {
		var r Record
		r.Mark = goodMark
		r.Count = count
		r.POff[0] = poff0
		enc := r.encode()
		r.CRC = blockCRC(enc)
		enc = r.encode()
		if err := dev.Write(addr, enc); err != nil {
			t.Fatal(err)
		}
	}

	// Address 0 (the lower, older counter) and address RecordSize (the
	// higher counter) are both valid at the same time.
	writeValid(0, 3, 11)
	writeValid(RecordSize, 4, 22)

	s, err := Open(dev, 0)
	if err != nil {
		t.Fatal(err)
	}
	if s.cur != RecordSize {
		t.Fatalf("cur = %d, want %d (the higher-counter slot)", s.cur, RecordSize)
	}
	if got := s.Current().POff[0]; got != 22 {
		t.Fatalf("POff[0] = %d, want 22", got)
	}

	var old [RecordSize]byte
	dev.Read(0, old[:])
	if checkValid(old[:]) {
		t.Fatal("expected the stale slot at address 0 to be invalidated")
	}
}
