// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package ring implements the fixed-capacity single-producer/single-consumer
// byte ring buffer shared by the UART and USB command sessions.
//
// One side advances head, the other advances tail; no lock is required
// beyond briefly masking interrupts around a (head, tail) pair snapshot
// when producer and consumer run at different priority tiers. This package
// does not model interrupt masking itself — callers on the ISR side are
// expected to hold whatever brief critical section their platform needs
// around Push/Pop when called from a handler racing the other side.
package ring

// Capacity is the fixed buffer size used throughout the command plane.
const Capacity = 128

// Buffer is a bounded circular byte buffer. One slot is always kept empty
// to distinguish full from empty without a separate count field, matching
// the original firmware's head/tail convention.
type Buffer struct {
	buf        [Capacity]byte
	head, tail uint8
}

// Used returns the number of bytes currently stored.
func (b *Buffer) Used() int {
	d := int(b.head) - int(b.tail)
	if d < 0 {
		d += Capacity
	}
	return d
}

// Free returns the number of bytes that can still be pushed.
func (b *Buffer) Free() int {
	return Capacity - 1 - b.Used()
}

// PushByte appends one byte. It returns false if the buffer is full.
func (b *Buffer) PushByte(v byte) bool {
	newHead := b.head + 1
	if int(newHead) >= Capacity {
		newHead = 0
	}
	if newHead == b.tail {
		return false
	}
	b.buf[b.head] = v
	b.head = newHead
	return true
}

// Push appends as many bytes from p as fit and returns the count pushed.
func (b *Buffer) Push(p []byte) int {
	n := b.Free()
	if n > len(p) {
		n = len(p)
	}
	for i := 0; i < n; i++ {
		b.buf[b.head] = p[i]
		b.head++
		if int(b.head) >= Capacity {
			b.head = 0
		}
	}
	return n
}

// PopByte removes and returns the oldest byte. ok is false if the buffer is
// empty.
func (b *Buffer) PopByte() (v byte, ok bool) {
	if b.head == b.tail {
		return 0, false
	}
	v = b.buf[b.tail]
	b.tail++
	if int(b.tail) >= Capacity {
		b.tail = 0
	}
	return v, true
}

// Pop copies up to len(p) bytes out, oldest first, and returns the count
// popped.
func (b *Buffer) Pop(p []byte) int {
	n := b.Used()
	if n > len(p) {
		n = len(p)
	}
	for i := 0; i < n; i++ {
		p[i] = b.buf[b.tail]
		b.tail++
		if int(b.tail) >= Capacity {
			b.tail = 0
		}
	}
	return n
}
