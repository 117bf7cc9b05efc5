// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package surface draws text on a monochrome panel.
//
// A Surface owns one frame buffer the size of its panel. DrawText composites
// glyphs into that buffer and then sends the whole buffer to the device, so
// the panel always shows the last frame. Without clear, successive calls
// accumulate on the same frame, which lets a caller compose a screen over
// several requests.
//
// A Surface is not safe for concurrent use.
package surface

import (
	"fmt"
	"image"

	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/GermanBionicSystems/oled/glyph"
)

// Threshold is the coverage above which a glyph pixel is turned on. It is
// low so thin anti-aliased strokes survive the conversion to one bit.
const Threshold = 64

// Device is the panel a Surface writes to.
type Device interface {
	// Bounds is the drawable area, rotation included.
	Bounds() image.Rectangle
	// Clear blanks the panel.
	Clear() error
	// Display shows img as the full frame.
	Display(img image.Image) error
	// Halt turns the panel off and releases it.
	Halt() error
}

// Opener creates the Device of a Surface.
type Opener func() (Device, error)

// Surface is a text drawing surface over a Device.
type Surface struct {
	name   string
	bounds image.Rectangle
	glyphs glyph.Source
	open   Opener

	dev Device
	buf *image1bit.VerticalLSB
}

// New returns a Surface for a panel of the given bounds. The device is not
// opened until Open or the first draw.
func New(name string, bounds image.Rectangle, glyphs glyph.Source, open Opener) *Surface {
	return &Surface{name: name, bounds: bounds, glyphs: glyphs, open: open}
}

func (s *Surface) String() string {
	return fmt.Sprintf("Surface{%s, %s}", s.name, s.bounds.Max)
}

// Name returns the name given to New.
func (s *Surface) Name() string {
	return s.name
}

// Bounds returns the configured geometry.
func (s *Surface) Bounds() image.Rectangle {
	return s.bounds
}

// Buffer returns the retained frame, nil before the first draw.
//
// The returned image must not be modified.
func (s *Surface) Buffer() *image1bit.VerticalLSB {
	return s.buf
}

// Open opens the device. It does nothing if it is already open.
func (s *Surface) Open() error {
	if s.dev != nil {
		return nil
	}
	d, err := s.open()
	if err != nil {
		return fmt.Errorf("surface %s: open: %w", s.name, err)
	}
	s.dev = d
	return nil
}

// DrawText renders text with its top-left corner at (x, y) and sends the
// frame to the device.
//
// When clear is false the text is added to the retained frame. Characters
// outside 7-bit ASCII are dropped and pixels outside the panel are clipped.
// A size of 0 or less selects glyph.DefaultSize.
func (s *Surface) DrawText(x, y int, text string, clear bool, size int) error {
	if err := s.Open(); err != nil {
		return err
	}
	if size <= 0 {
		size = glyph.DefaultSize
	}
	if clear || s.buf == nil || s.buf.Bounds() != s.bounds {
		s.buf = image1bit.NewVerticalLSB(s.bounds)
	}
	pen := x
	for _, r := range glyph.ASCII(text) {
		g, ok := s.glyphs.Glyph(r, size)
		if !ok {
			continue
		}
		s.composite(g.Mask, image.Pt(pen, y))
		pen += g.Advance
	}
	return s.flush()
}

// Clear blanks the retained frame and the panel.
func (s *Surface) Clear() error {
	if err := s.Open(); err != nil {
		return err
	}
	s.buf = image1bit.NewVerticalLSB(s.bounds)
	if err := s.dev.Clear(); err != nil {
		return fmt.Errorf("surface %s: clear: %w", s.name, err)
	}
	return nil
}

// Reconfigure changes the geometry and the device. The current device is
// halted; the next call opens the new one and starts a fresh frame.
func (s *Surface) Reconfigure(bounds image.Rectangle, open Opener) error {
	err := s.Close()
	s.bounds = bounds
	s.open = open
	return err
}

// Close halts the device and drops the frame.
func (s *Surface) Close() error {
	s.buf = nil
	if s.dev == nil {
		return nil
	}
	d := s.dev
	s.dev = nil
	if err := d.Halt(); err != nil {
		return fmt.Errorf("surface %s: halt: %w", s.name, err)
	}
	return nil
}

// composite turns on the pixels of the frame where m is above Threshold. m
// is positioned with its origin at pt.
func (s *Surface) composite(m *image.Alpha, pt image.Point) {
	if m == nil {
		return
	}
	r := m.Bounds().Add(pt).Intersect(s.buf.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if m.AlphaAt(x-pt.X, y-pt.Y).A > Threshold {
				s.buf.SetBit(x, y, image1bit.On)
			}
		}
	}
}

func (s *Surface) flush() error {
	if err := s.dev.Display(s.buf); err != nil {
		return fmt.Errorf("surface %s: display: %w", s.name, err)
	}
	return nil
}
