// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package proto

import "strconv"

// Transport is the byte-level I/O a Session polls. It must never block:
// RecvByte reports no byte available by returning ok=false, and SendByte
// reports backpressure by returning false without having sent anything.
type Transport interface {
	RecvByte() (b byte, ok bool)
	SendByte(b byte) bool
	TxFree() int
}

// FrameState is the binary-mode de-stuffing state.
type FrameState uint8

const (
	// FrameIdle waits for the start of the next command.
	FrameIdle FrameState = iota
	// FrameInFrame is receiving command bytes.
	FrameInFrame
	// FrameEscaped saw an ESC and will save the next byte verbatim.
	FrameEscaped
)

// mode selects how a Session interprets incoming bytes.
type mode uint8

const (
	modeBinary mode = iota
	modeASCII
)

// sendState tracks progress of an in-flight response.
type sendState uint8

const (
	sendIdle sendState = iota
	sendASCII
	sendBinary
)

// Session owns one transport's command buffer, framing state, and
// response state. It is polled once per background-loop iteration; the
// high-priority tick never touches session state. The wire protocol
// starts in ASCII mode at power-up, matching the original firmware, and
// switches to binary mode on first use of binary framing (an EOC byte).
type Session struct {
	Transport  Transport
	Dispatcher *Dispatcher

	mode  mode
	frame FrameState

	buf  [bufSize]byte
	ndx  int
	rspLen int
	sending sendState
}

// NewSession returns a Session in the power-up default, ASCII mode,
// waiting for the start of the next command.
func NewSession(t Transport, d *Dispatcher) *Session {
	return &Session{Transport: t, Dispatcher: d, mode: modeASCII}
}

// Poll advances the session state machine by consuming as many available
// bytes as the transport currently offers and pushing as much of any
// pending response as tx_free allows. Safe to call repeatedly from the
// background loop; never blocks.
func (s *Session) Poll() {
	switch s.sending {
	case sendASCII:
		s.pumpASCII()
		return
	case sendBinary:
		s.pumpBinary()
		return
	}

	for {
		b, ok := s.Transport.RecvByte()
		if !ok {
			return
		}
		if s.handleByte(b) {
			return
		}
	}
}

// handleByte consumes one received byte and returns true if a response
// send has just been armed (so Poll should stop pulling more input this
// round).
func (s *Session) handleByte(b byte) bool {
	if s.mode == modeBinary || b == EOC || b == ESC {
		s.mode = modeBinary
		return s.handleBinaryByte(b)
	}
	return s.handleASCIIByte(b)
}

func (s *Session) handleBinaryByte(b byte) bool {
	if s.frame == FrameEscaped {
		s.frame = FrameInFrame
		s.appendByte(b)
		return false
	}
	if b == ESC {
		s.frame = FrameEscaped
		return false
	}
	if b == EOC {
		resp := s.Dispatcher.Process(s.buf[:s.ndx])
		s.ndx = 0
		s.frame = FrameIdle
		s.armBinaryResponse(resp)
		return true
	}
	s.frame = FrameInFrame
	s.appendByte(b)
	return false
}

func (s *Session) appendByte(b byte) {
	if s.ndx < len(s.buf) {
		s.buf[s.ndx] = b
		s.ndx++
	}
}

func (s *Session) armBinaryResponse(resp []byte) {
	copy(s.buf[:], resp)
	s.rspLen = len(resp)
	s.ndx = 0
	s.sending = sendBinary
	s.pumpBinary()
}

// pumpBinary stuffs and sends as much of the pending response as the
// transport currently has room for, finishing with a single EOC.
func (s *Session) pumpBinary() {
	for s.rspLen > 0 {
		ch := s.buf[s.ndx]
		if ch == ESC || ch == EOC {
			if s.Transport.TxFree() < 2 {
				return
			}
			s.Transport.SendByte(ESC)
			s.Transport.SendByte(ch)
			s.ndx++
			s.rspLen--
			continue
		}
		if !s.Transport.SendByte(ch) {
			return
		}
		s.ndx++
		s.rspLen--
	}
	if s.Transport.SendByte(EOC) {
		s.sending = sendIdle
		s.ndx = 0
	}
}

// handleASCIIByte accumulates one line of an ASCII command, discarding
// leading whitespace, and dispatches on CR/LF.
func (s *Session) handleASCIIByte(b byte) bool {
	if s.ndx == 0 {
		switch b {
		case ' ', '\t', '\n', '\r':
			return false
		}
	}
	if b == '\n' || b == '\r' {
		line := string(s.buf[:s.ndx])
		s.ndx = 0
		resp := processASCIICmd(s.Dispatcher, line)
		copy(s.buf[:], resp)
		s.rspLen = len(resp)
		s.ndx = 0
		s.sending = sendASCII
		s.pumpASCII()
		return true
	}
	s.appendByte(b)
	return false
}

func (s *Session) pumpASCII() {
	for s.rspLen > 0 {
		if !s.Transport.SendByte(s.buf[s.ndx]) {
			return
		}
		s.ndx++
		s.rspLen--
	}
	s.sending = sendIdle
	s.ndx = 0
}

// processASCIICmd implements the human-typable debugging convenience
// mode: "get <name>" and "set <name> <value>" against the variable
// registry, by name rather than numeric id. The original firmware's ASCII
// command grammar (ascii.c) was not available to ground this against, so
// this is a minimal, self-consistent supplement rather than a port.
func processASCIICmd(d *Dispatcher, line string) []byte {
	fields := splitFields(line)
	if len(fields) == 0 {
		return []byte("ERR empty\r\n")
	}
	switch fields[0] {
	case "get":
		if len(fields) != 2 {
			return []byte("ERR usage: get <name>\r\n")
		}
		c := d.Reg.Find(fields[1])
		if c == nil {
			return []byte("ERR unknown variable\r\n")
		}
		buf := make([]byte, c.Size)
		if _, err := d.Reg.HandleGet(c.ID, buf); err != nil {
			return []byte("ERR " + err.Error() + "\r\n")
		}
		return []byte(formatBytes(buf) + "\r\n")
	case "set":
		if len(fields) != 3 {
			return []byte("ERR usage: set <name> <value>\r\n")
		}
		c := d.Reg.Find(fields[1])
		if c == nil {
			return []byte("ERR unknown variable\r\n")
		}
		val, err := strconv.ParseInt(fields[2], 0, 64)
		if err != nil {
			return []byte("ERR bad value\r\n")
		}
		buf := encodeLE(val, int(c.Size))
		if err := d.Reg.HandleSet(c.ID, buf); err != nil {
			return []byte("ERR " + err.Error() + "\r\n")
		}
		return []byte("OK\r\n")
	default:
		return []byte("ERR unknown command\r\n")
	}
}

func splitFields(line string) []string {
	var out []string
	start := -1
	for i := 0; i < len(line); i++ {
		c := line[i]
		isSpace := c == ' ' || c == '\t'
		if isSpace {
			if start >= 0 {
				out = append(out, line[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		out = append(out, line[start:])
	}
	return out
}

func encodeLE(v int64, n int) []byte {
	buf := make([]byte, n)
	u := uint64(v)
	for i := 0; i < n; i++ {
		buf[i] = byte(u >> (8 * i))
	}
	return buf
}

func formatBytes(b []byte) string {
	s := ""
	for i, v := range b {
		if i > 0 {
			s += " "
		}
		s += strconv.FormatUint(uint64(v), 16)
	}
	return s
}
