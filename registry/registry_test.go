// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package registry

import (
	"testing"

	"github.com/sglow/freeflow/errcode"
)

func TestSetThenGetRoundTrips(t *testing.T) {
	r := New()
	var v int32
	get, set := Int32Accessors(&v)
	if err := r.Define(10, "poff1", 4, 0, get, set); err != nil {
		t.Fatal(err)
	}
	if err := r.HandleSet(10, []byte{0x78, 0x56, 0x34, 0x12}); err != nil {
		t.Fatal(err)
	}
	if v != 0x12345678 {
		t.Fatalf("v = %#x, want 0x12345678", v)
	}
	buf := make([]byte, 4)
	n, err := r.HandleGet(10, buf)
	if err != nil {
		t.Fatal(err)
	}
	if n != 4 || buf[0] != 0x78 || buf[3] != 0x12 {
		t.Fatalf("get = %v (n=%d)", buf, n)
	}
}

func TestReadOnlySetAlwaysFails(t *testing.T) {
	r := New()
	v := int32(42)
	get, _ := Int32Accessors(&v)
	if err := r.Define(8, "pressure1", 4, ReadOnly, get, nil); err != nil {
		t.Fatal(err)
	}
	if err := r.HandleSet(8, []byte{1, 2, 3, 4}); err != errcode.ReadOnly {
		t.Fatalf("err = %v, want ReadOnly", err)
	}
}

func TestUnknownVarID(t *testing.T) {
	r := New()
	if _, err := r.HandleGet(5, make([]byte, 4)); err != errcode.UnknownVar {
		t.Fatalf("err = %v, want UnknownVar", err)
	}
}

func TestDoubleDefineFails(t *testing.T) {
	r := New()
	v := int32(0)
	get, set := Int32Accessors(&v)
	if err := r.Define(1, "a", 4, 0, get, set); err != nil {
		t.Fatal(err)
	}
	if err := r.Define(1, "b", 4, 0, get, set); err != errcode.AlreadyDefined {
		t.Fatalf("err = %v, want AlreadyDefined", err)
	}
}

func TestRangeOutOfBounds(t *testing.T) {
	r := New()
	v := int32(0)
	get, set := Int32Accessors(&v)
	if err := r.Define(MaxID, "x", 4, 0, get, set); err != errcode.Range {
		t.Fatalf("err = %v, want Range", err)
	}
}
