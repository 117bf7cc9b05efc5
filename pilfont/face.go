// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pilfont

import (
	"image"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// NewFace returns a font.Face drawing with f.
func (f *Font) NewFace() font.Face {
	// Line metrics are derived from the glyph boxes, absent glyphs counting
	// as empty boxes on the baseline.
	top, bottom := 0, 0
	for _, m := range f.Metrics {
		if m.Dst.Min.Y < top {
			top = m.Dst.Min.Y
		}
		if m.Dst.Max.Y > bottom {
			bottom = m.Dst.Max.Y
		}
	}
	return &face{
		f: f,
		metrics: font.Metrics{
			Height:  fixed.I(bottom - top),
			Ascent:  fixed.I(-top),
			Descent: fixed.I(bottom),
		},
	}
}

type face struct {
	f       *Font
	metrics font.Metrics
}

func (*face) Close() error {
	return nil
}

func (fc *face) Glyph(dot fixed.Point26_6, r rune) (image.Rectangle, image.Image, image.Point, fixed.Int26_6, bool) {
	if !fc.f.Has(int(r)) {
		return image.Rectangle{}, nil, image.Point{}, 0, false
	}
	m := fc.f.Metrics[r]
	dr := m.Dst.Add(image.Pt(dot.X.Round(), dot.Y.Round()))
	return dr, fc.f.Bitmap, m.Src.Min, fixed.I(m.Advance.X), true
}

func (fc *face) GlyphBounds(r rune) (fixed.Rectangle26_6, fixed.Int26_6, bool) {
	if !fc.f.Has(int(r)) {
		return fixed.Rectangle26_6{}, 0, false
	}
	m := fc.f.Metrics[r]
	return fixed.R(m.Dst.Min.X, m.Dst.Min.Y, m.Dst.Max.X, m.Dst.Max.Y), fixed.I(m.Advance.X), true
}

func (fc *face) GlyphAdvance(r rune) (fixed.Int26_6, bool) {
	if !fc.f.Has(int(r)) {
		return 0, false
	}
	return fixed.I(fc.f.Metrics[r].Advance.X), true
}

func (*face) Kern(r0, r1 rune) fixed.Int26_6 {
	return 0
}

func (fc *face) Metrics() font.Metrics {
	return fc.metrics
}
