// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package trace

import (
	"github.com/fxamacker/cbor/v2"
)

// Snapshot is a decoded, self-describing copy of a trace capture, for
// tooling that downloads the buffer over the command plane and wants to
// archive or diff it off the wire format in §4.7/§6.
type Snapshot struct {
	_       struct{} `cbor:",toarray"`
	Ctrl    uint16
	Period  uint16
	VarID   [4]uint16
	Samples []uint16
}

// Export returns a CBOR encoding of the recorder's current state: the
// control words plus every sample collected so far. It never fails; a
// Snapshot has no field that can reject CBOR's core deterministic
// encoding.
func (t *Recorder) Export() []byte {
	s := Snapshot{
		Ctrl:    uint16(t.ctrl),
		Period:  uint16(t.period),
		Samples: append([]uint16(nil), t.Samples()...),
	}
	for i, id := range t.varID {
		s.VarID[i] = uint16(id)
	}
	enc, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	b, err := enc.Marshal(s)
	if err != nil {
		panic(err)
	}
	return b
}

// DecodeSnapshot parses an Export'd buffer back into a Snapshot, rejecting
// unknown fields so a tool reading an old capture with a newer decoder
// notices a format change instead of silently ignoring it.
func DecodeSnapshot(b []byte) (Snapshot, error) {
	mode, err := cbor.DecOptions{
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
	}.DecMode()
	if err != nil {
		return Snapshot{}, err
	}
	var s Snapshot
	if err := mode.Unmarshal(b, &s); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}
