// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package crc computes the CRC-32 variant shared by the persistent store
// (C3) and the firmware tail integrity check (C9): IEEE 802.3, polynomial
// 0xEDB88320 (reflected), initial value 0xFFFFFFFF, final XOR 0xFFFFFFFF.
//
// This is the same polynomial as the standard library's crc32.IEEETable,
// but the table is computed here explicitly (rather than imported from
// hash/crc32) to mirror the original firmware's boot-time table
// computation and to keep one auditable implementation shared by both
// consumers, per the design note in spec.md §9.
package crc

// polynomial is the reflected form of the CRC-32/IEEE 802.3 polynomial.
const polynomial = 0xEDB88320

var table [256]uint32

func init() {
	for i := uint32(0); i < 256; i++ {
		c := i
		for bit := 0; bit < 8; bit++ {
			if c&1 != 0 {
				c = polynomial ^ (c >> 1)
			} else {
				c >>= 1
			}
		}
		table[i] = c
	}
}

// Checksum computes the CRC-32 of data using the fixed table above.
func Checksum(data []byte) uint32 {
	c := uint32(0xFFFFFFFF)
	for _, b := range data {
		c = table[byte(c)^b] ^ (c >> 8)
	}
	return c ^ 0xFFFFFFFF
}
