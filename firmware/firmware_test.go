// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package firmware

import (
	"testing"

	"github.com/sglow/freeflow/crc"
	"github.com/sglow/freeflow/flash"
)

func newTestRegion(t *testing.T) (*Region, flash.Device) {
	t.Helper()
	dev := flash.NewSim(2 * flash.PageSize)
	return New(dev, 0, 2*flash.PageSize), dev
}

func TestVerifyFailsOnBlankImage(t *testing.T) {
	r, _ := newTestRegion(t)
	if r.Verify() {
		t.Fatal("a freshly erased region should not verify")
	}
}

func TestWriteThenCrcVerifies(t *testing.T) {
	r, _ := newTestRegion(t)
	if err := r.Erase(); err != nil {
		t.Fatalf("Erase: %v", err)
	}

	body := make([]byte, 64)
	for i := range body {
		body[i] = byte(i)
	}
	if err := r.WriteAt(0, body); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}
	if err := r.SetTail(uint32(len(body)), crc.Checksum(body)); err != nil {
		t.Fatalf("SetTail: %v", err)
	}
	if !r.Verify() {
		t.Fatal("expected region to verify after a matching tail write")
	}
}

func TestVerifyRejectsBadCRC(t *testing.T) {
	r, _ := newTestRegion(t)
	r.Erase()
	body := make([]byte, 32)
	r.WriteAt(0, body)
	r.SetTail(uint32(len(body)), 0xDEADBEEF)
	if r.Verify() {
		t.Fatal("expected mismatched CRC to fail verification")
	}
}

func TestVerifyRejectsLengthIntoTail(t *testing.T) {
	r, _ := newTestRegion(t)
	r.Erase()
	r.SetTail(r.Size(), 0)
	if r.Verify() {
		t.Fatal("expected a length reaching into the tail to fail verification")
	}
}

func TestVerifyRejectsLengthExactlyAtTailBoundary(t *testing.T) {
	r, _ := newTestRegion(t)
	r.Erase()
	length := r.Size() - tailSize
	body := make([]byte, length)
	r.WriteAt(0, body)
	// The CRC matches the body that would be read if length were
	// accepted; only the strict boundary check should reject this.
	if err := r.SetTail(length, crc.Checksum(body)); err != nil {
		t.Fatalf("SetTail: %v", err)
	}
	if r.Verify() {
		t.Fatal("expected a length exactly reaching the tail boundary to fail verification")
	}
}

func TestShouldJumpToMain(t *testing.T) {
	r, _ := newTestRegion(t)
	r.Erase()
	body := make([]byte, 16)
	r.WriteAt(0, body)
	r.SetTail(uint32(len(body)), crc.Checksum(body))

	var swap SwapFlag
	if !ShouldJumpToMain(r, &swap) {
		t.Fatal("expected to jump to a verified main image with no swap requested")
	}

	swap.RequestSwap()
	if ShouldJumpToMain(r, &swap) {
		t.Fatal("expected to stay in the loader when a swap was requested")
	}
	if swap.Consume() {
		t.Fatal("swap flag should have been cleared by the prior check")
	}
}

func TestEraseThenVerifyFails(t *testing.T) {
	r, _ := newTestRegion(t)
	body := make([]byte, 16)
	r.WriteAt(0, body)
	r.SetTail(uint32(len(body)), crc.Checksum(body))
	if !r.Verify() {
		t.Fatal("setup: expected region to verify before erase")
	}
	if err := r.Erase(); err != nil {
		t.Fatalf("Erase: %v", err)
	}
	if r.Verify() {
		t.Fatal("expected a freshly erased region to fail verification")
	}
}
