// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package oled

import (
	"image"
	"image/color"

	"github.com/sglow/freeflow/conn/display"
)

// ColorModel implements display.Drawer: every pixel is either lit or dark.
func (e *Engine) ColorModel() color.Model { return color.GrayModel }

// Bounds implements display.Drawer.
func (e *Engine) Bounds() image.Rectangle { return image.Rect(0, 0, NumCols, NumRows) }

// Draw implements display.Drawer: src is thresholded at gray value 128 and
// blitted into the frame buffer within dstRect, with src read starting at
// srcPts. The caller still has to call Update to push the frame buffer out
// over the bus.
func (e *Engine) Draw(dstRect image.Rectangle, src image.Image, srcPts image.Point) error {
	dstRect = dstRect.Intersect(e.Bounds())
	for y := dstRect.Min.Y; y < dstRect.Max.Y; y++ {
		sy := srcPts.Y + (y - dstRect.Min.Y)
		for x := dstRect.Min.X; x < dstRect.Max.X; x++ {
			sx := srcPts.X + (x - dstRect.Min.X)
			g := color.GrayModel.Convert(src.At(sx, sy)).(color.Gray)
			if g.Y >= 128 {
				e.FB.SetPixel(x, y)
			} else {
				e.FB.ClearPixel(x, y)
			}
		}
	}
	return nil
}

var _ display.Drawer = (*Engine)(nil)
