// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package oled implements the display engine (C8): a RAM shadow of a
// 128x64 page-addressed OLED panel, a small bitmap-font text rasterizer,
// and the DMA-style page refresh state machine that pushes the shadow
// out over the panel's clocked serial bus.
package oled

import (
	"github.com/sglow/freeflow/conn/i2c"
)

// Panel geometry.
const (
	NumCols  = 128
	NumRows  = 64
	NumPages = NumRows / 8

	// Addr is the panel's fixed I2C address.
	Addr = 0x3C
)

// FrameBuffer is the RAM shadow of the panel: NumPages rows of NumCols+1
// bytes. The extra leading byte of each page is the I2C data-framing
// prefix (0x40) the panel requires before a data transfer; keeping it
// pre-set in the buffer lets a whole page be DMA'd out directly.
type FrameBuffer [NumPages][NumCols + 1]byte

// NewFrameBuffer returns a FrameBuffer with every page's framing prefix
// byte pre-set and all pixels clear.
func NewFrameBuffer() *FrameBuffer {
	fb := &FrameBuffer{}
	for p := range fb {
		fb[p][0] = 0x40
	}
	return fb
}

// Clear blanks every pixel without disturbing the framing prefix bytes.
func (fb *FrameBuffer) Clear() {
	for p := range fb {
		for c := 1; c <= NumCols; c++ {
			fb[p][c] = 0
		}
	}
}

func (fb *FrameBuffer) inBounds(x, y int) bool {
	return x >= 0 && x < NumCols && y >= 0 && y < NumRows
}

// SetPixel lights one pixel; out-of-bounds coordinates are ignored.
func (fb *FrameBuffer) SetPixel(x, y int) {
	if !fb.inBounds(x, y) {
		return
	}
	fb[y>>3][x+1] |= 1 << uint(y&7)
}

// ClearPixel darkens one pixel; out-of-bounds coordinates are ignored.
func (fb *FrameBuffer) ClearPixel(x, y int) {
	if !fb.inBounds(x, y) {
		return
	}
	fb[y>>3][x+1] &^= 1 << uint(y&7)
}

// DrawChar draws one glyph of font with its top-left corner at (x, y) and
// returns the horizontal advance to the next character. Characters
// outside the font's range, or that would run off the edge of the panel,
// are silently skipped (return 0).
func (fb *FrameBuffer) DrawChar(ch byte, x, y int, font *Font) int {
	fc := font.char(ch)
	if fc == nil {
		return 0
	}
	if x < 0 || y < 0 || x >= NumCols-int(fc.XAdv) || y >= NumRows-int(font.YAdv) {
		return 0
	}

	x += int(fc.XOff) + 1 // +1 for the framing-prefix column

	bpc := font.bytesPerCol()
	cols := int(fc.BitmapLen) / bpc
	p1 := y >> 3
	pgCt := bpc
	if y&7 != 0 {
		pgCt = bpc + 1
	}

	bitmap := font.Bitmap[fc.BitmapOff:]
	for c := 0; c < cols; c++ {
		var col uint32
		for p := 0; p < bpc; p++ {
			col <<= 8
			col |= uint32(bitmap[c*bpc+p])
		}
		col <<= uint(y & 7)
		for p := 0; p < pgCt; p++ {
			fb[p1+p][c+x] |= byte(col)
			col >>= 8
		}
	}
	return int(fc.XAdv)
}

// DrawString draws each byte of s in turn, left to right starting at
// (x, y), and returns the total pixel width drawn.
func (fb *FrameBuffer) DrawString(s string, x, y int, font *Font) int {
	total := 0
	for i := 0; i < len(s); i++ {
		adv := fb.DrawChar(s[i], x+total, y, font)
		total += adv
	}
	return total
}

// FillRect sets every pixel in the rectangle [x, x+w) x [y, y+h),
// clipped to the panel.
func (fb *FrameBuffer) FillRect(x, y, w, h int) {
	for row := y; row < y+h; row++ {
		for col := x; col < x+w; col++ {
			fb.SetPixel(col, row)
		}
	}
}

// Bus is the minimal transport the refresh state machine drives: one
// blocking write of a command or data block to the panel's fixed I2C
// address.
type Bus interface {
	Write(data []byte) error
}

// i2cBus adapts an i2c.Dev (already addressed at Addr) into Bus.
type i2cBus struct {
	dev *i2c.Dev
}

func (b i2cBus) Write(data []byte) error {
	return b.dev.Tx(data, nil)
}

// NewI2CBus wraps an i2c.Dev addressed at the panel's fixed address.
func NewI2CBus(dev *i2c.Dev) Bus {
	return i2cBus{dev: dev}
}

// dispInitCmd is the one-time panel initialization sequence: display off,
// page addressing mode, RAM row 0, normal polarity, segment remap,
// charge pump enabled, display on.
var dispInitCmd = []byte{
	0x00,
	0xAE,
	0x20, 0x02,
	0x40,
	0xA6,
	0xA0,
	0x8D, 0x14,
	0xAF,
}
