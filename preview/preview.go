// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package preview renders monochrome frames as enlarged color images, the
// way they look on the glass.
package preview

import (
	"image"
	"image/color"
	"io"

	"github.com/fogleman/gg"
)

// Options for Render.
type Options struct {
	// Scale is the size of one panel pixel in the preview. Defaults to 4.
	Scale int
	// On and Off default to a light blue on black.
	On, Off color.Color
	// Grid leaves a one pixel gap between panel pixels when Scale is at
	// least 3.
	Grid bool
}

// DefaultOptions is used when nil is passed.
var DefaultOptions = Options{
	Scale: 4,
	On:    color.NRGBA{0x9F, 0xDF, 0xFF, 0xFF},
	Off:   color.NRGBA{0x00, 0x00, 0x00, 0xFF},
}

// Lit reports whether c is an "on" pixel.
func Lit(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return r+g+b >= 3*0x8000
}

// Render draws src enlarged by opts.Scale.
func Render(src image.Image, opts *Options) image.Image {
	o := DefaultOptions
	if opts != nil {
		if opts.Scale > 0 {
			o.Scale = opts.Scale
		}
		if opts.On != nil {
			o.On = opts.On
		}
		if opts.Off != nil {
			o.Off = opts.Off
		}
		o.Grid = opts.Grid
	}
	r := src.Bounds()
	s := float64(o.Scale)
	dot := s
	if o.Grid && o.Scale >= 3 {
		dot--
	}
	dc := gg.NewContext(r.Dx()*o.Scale, r.Dy()*o.Scale)
	dc.SetColor(o.Off)
	dc.Clear()
	dc.SetColor(o.On)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if Lit(src.At(x, y)) {
				dc.DrawRectangle(float64(x-r.Min.X)*s, float64(y-r.Min.Y)*s, dot, dot)
			}
		}
	}
	dc.Fill()
	return dc.Image()
}

// SavePNG renders src into a PNG file.
func SavePNG(path string, src image.Image, opts *Options) error {
	return gg.SavePNG(path, Render(src, opts))
}

// EncodePNG renders src as PNG into w.
func EncodePNG(w io.Writer, src image.Image, opts *Options) error {
	dc := gg.NewContextForImage(Render(src, opts))
	return dc.EncodePNG(w)
}
