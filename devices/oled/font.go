// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package oled

// FontChar describes one glyph: its offset and length into the font's
// packed column bitmap, how far to skip before drawing its first column,
// and how far to advance the cursor afterwards.
type FontChar struct {
	BitmapOff uint16
	BitmapLen uint8
	XOff      uint8
	XAdv      uint8
}

// Font is a fixed-height bitmap font: bitmap is a flat array of
// column bytes (one byte per 8 rows of one column), shared by all the
// glyphs in Chars.
type Font struct {
	Bitmap    []byte
	Chars     []FontChar
	YAdv      uint8
	FirstChar byte
	LastChar  byte
}

// bytesPerCol is how many bitmap bytes make up one column of this font.
func (f *Font) bytesPerCol() int {
	return (int(f.YAdv) + 7) / 8
}

// char returns the FontChar for ch, or nil if ch falls outside the font's
// range.
func (f *Font) char(ch byte) *FontChar {
	if ch < f.FirstChar || ch > f.LastChar {
		return nil
	}
	return &f.Chars[ch-f.FirstChar]
}

// Digits7 is a minimal built-in font covering the characters the flow
// readout needs: digits, a decimal point, a minus sign, a colon and
// space. Each glyph is 5 columns wide by 7 rows tall, one byte per
// column (rows packed LSB-first), the same layout display.c's sans9p
// font uses, just much smaller.
var Digits7 = buildDigits7()

func buildDigits7() *Font {
	// One byte per column, 5 columns per glyph, rows 0 (top) .. 6 (bottom)
	// packed LSB first. The patterns below trace each character's spine;
	// deliberately plain block glyphs rather than a polished face, since
	// the OLED is 128x64 and mostly shows large digits.
	glyphs := map[byte][5]byte{
		'0': {0x3E, 0x51, 0x49, 0x45, 0x3E},
		'1': {0x00, 0x42, 0x7F, 0x40, 0x00},
		'2': {0x62, 0x51, 0x49, 0x49, 0x46},
		'3': {0x22, 0x41, 0x49, 0x49, 0x36},
		'4': {0x18, 0x14, 0x12, 0x7F, 0x10},
		'5': {0x2F, 0x49, 0x49, 0x49, 0x31},
		'6': {0x3C, 0x4A, 0x49, 0x49, 0x30},
		'7': {0x01, 0x71, 0x09, 0x05, 0x03},
		'8': {0x36, 0x49, 0x49, 0x49, 0x36},
		'9': {0x06, 0x49, 0x49, 0x29, 0x1E},
		'.': {0x00, 0x60, 0x60, 0x00, 0x00},
		'-': {0x08, 0x08, 0x08, 0x08, 0x08},
		':': {0x00, 0x36, 0x36, 0x00, 0x00},
		' ': {0x00, 0x00, 0x00, 0x00, 0x00},
	}
	order := []byte(" -.0123456789:")
	bitmap := make([]byte, 0, len(order)*5)
	chars := make([]FontChar, 'z'-' '+1)
	for _, ch := range order {
		g := glyphs[ch]
		off := uint16(len(bitmap))
		bitmap = append(bitmap, g[:]...)
		chars[ch-' '] = FontChar{BitmapOff: off, BitmapLen: 5, XOff: 0, XAdv: 6}
	}
	return &Font{Bitmap: bitmap, Chars: chars, YAdv: 7, FirstChar: ' ', LastChar: 'z'}
}
