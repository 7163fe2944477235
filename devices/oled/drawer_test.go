// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package oled

import (
	"image"
	"image/color"
	"testing"
)

func TestDrawThresholdsIntoFrameBuffer(t *testing.T) {
	e, _ := newTestEngine()
	img := image.NewGray(image.Rect(0, 0, NumCols, NumRows))
	img.SetGray(5, 5, color.Gray{Y: 255})
	img.SetGray(6, 5, color.Gray{Y: 0})

	if err := e.Draw(e.Bounds(), img, image.Point{}); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if e.FB[5>>3][5+1]&(1<<uint(5&7)) == 0 {
		t.Fatal("expected lit source pixel to set the frame buffer")
	}
	if e.FB[5>>3][6+1]&(1<<uint(5&7)) != 0 {
		t.Fatal("expected dark source pixel to clear the frame buffer")
	}
}

func TestBoundsMatchesPanelGeometry(t *testing.T) {
	e, _ := newTestEngine()
	want := image.Rect(0, 0, NumCols, NumRows)
	if e.Bounds() != want {
		t.Fatalf("Bounds() = %v, want %v", e.Bounds(), want)
	}
}
