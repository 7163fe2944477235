// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package oled

import (
	"image"
	"image/color"

	"github.com/srwiley/rasterx"
	"golang.org/x/image/math/fixed"
)

// DrawTrend rasterizes samples as a connected polyline filling the
// rectangle (x, y, w, h), one vertical pixel column per sample (nearest
// sample is chosen when len(samples) != w), then thresholds the result
// into the frame buffer. This backs the flow/pressure history graph
// (devices/pressure.History) with a real vector rasterizer rather than
// a hand-rolled Bresenham walk, the way the display text in other
// products in this tree's lineage is stroked through rasterx.
func (fb *FrameBuffer) DrawTrend(samples []float32, x, y, w, h int) {
	if len(samples) == 0 || w <= 0 || h <= 0 {
		return
	}

	lo, hi := samples[0], samples[0]
	for _, s := range samples {
		if s < lo {
			lo = s
		}
		if s > hi {
			hi = s
		}
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	scanner := rasterx.NewScannerGV(w, h, mask, mask.Bounds())
	dasher := rasterx.NewDasher(w, h, scanner)
	dasher.SetStroke(fixed.I(1), 0, rasterx.RoundCap, rasterx.RoundCap, rasterx.RoundGap, rasterx.ArcClip, nil, 0)
	dasher.SetColor(color.Opaque)

	n := len(samples)
	started := false
	for col := 0; col < w; col++ {
		idx := col * n / w
		if idx >= n {
			idx = n - 1
		}
		yy := h - 1 - int((samples[idx]-lo)/span*float32(h-1))
		pt := rasterx.ToFixedP(float64(col), float64(yy))
		if !started {
			dasher.Start(pt)
			started = true
			continue
		}
		dasher.Line(pt)
	}
	if started {
		dasher.Stop(false)
	}
	dasher.Draw()

	drawMask(fb, mask, x, y)
}

// drawMask blits a thresholded alpha mask into the frame buffer with its
// top-left corner at (x, y).
func drawMask(fb *FrameBuffer, mask *image.Alpha, x, y int) {
	b := mask.Bounds()
	for my := b.Min.Y; my < b.Max.Y; my++ {
		for mx := b.Min.X; mx < b.Max.X; mx++ {
			if mask.AlphaAt(mx, my).A > 127 {
				fb.SetPixel(x+mx, y+my)
			} else {
				fb.ClearPixel(x+mx, y+my)
			}
		}
	}
}
