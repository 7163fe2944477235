// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package oled

import (
	"image"
	"image/color"

	"github.com/sglow/freeflow/conn/display"
)

// snapshot is a read-only image.Image view of a FrameBuffer, used to mirror
// the panel's contents onto a secondary display.Drawer.
type snapshot struct {
	fb *FrameBuffer
}

func (s snapshot) ColorModel() color.Model { return color.GrayModel }
func (s snapshot) Bounds() image.Rectangle { return image.Rect(0, 0, NumCols, NumRows) }

func (s snapshot) At(x, y int) color.Color {
	if x < 0 || x >= NumCols || y < 0 || y >= NumRows {
		return color.Gray{Y: 0}
	}
	if s.fb[y>>3][x+1]&(1<<uint(y&7)) != 0 {
		return color.Gray{Y: 255}
	}
	return color.Gray{Y: 0}
}

// MirrorTo draws the engine's current frame buffer onto a secondary
// display.Drawer, for running a debug or remote copy of the panel
// alongside the real one.
func (e *Engine) MirrorTo(dst display.Drawer) error {
	return dst.Draw(dst.Bounds(), snapshot{fb: e.FB}, image.Point{})
}
