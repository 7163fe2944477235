// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package errcode defines the wire-visible error taxonomy (spec.md §7):
// a small, closed set of codes that every command path resolves to and
// that serializes to a single response byte.
//
// Code is modeled as an integer type with a String method, the same shape
// conn/physic uses for its unit types, rather than as a tree of wrapped
// stdlib errors: the wire format needs exactly one byte per response, and
// every caller along the command path either returns a Code or nil, never
// an arbitrary error chain.
package errcode

import "fmt"

// Code is one of the fixed error/status codes returned by a command.
type Code uint8

const (
	OK             Code = 0
	Cksum          Code = 1
	ShortCmd       Code = 2
	BadCmd         Code = 3
	MissingData    Code = 4
	UnknownType    Code = 5
	Range          Code = 6
	AlreadyDefined Code = 7
	UnknownVar     Code = 8
	ReadOnly       Code = 9
	Flash          Code = 10
	Verify         Code = 11
)

var names = [...]string{
	"OK", "CKSUM", "SHORT_CMD", "BAD_CMD", "MISSING_DATA", "UNKNOWN_TYPE",
	"RANGE", "ALREADY_DEFINED", "UNKNOWN_VAR", "READ_ONLY", "FLASH", "VERIFY",
}

func (c Code) String() string {
	if int(c) < len(names) {
		return names[c]
	}
	return fmt.Sprintf("Code(%d)", uint8(c))
}

// Error implements the error interface so a Code can be returned and
// compared anywhere a plain error is expected.
func (c Code) Error() string {
	return c.String()
}

// FromError maps any error to a wire Code: OK for nil, the Code itself if
// err already is one, or BadCmd for anything else (a path this dispatcher
// should never actually hit, since every handler returns a Code).
func FromError(err error) Code {
	if err == nil {
		return OK
	}
	if c, ok := err.(Code); ok {
		return c
	}
	return BadCmd
}
