// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package termpanel implements a monochrome panel emulator that outputs to
// the terminal.
//
// Each pixel is printed as an ANSI colored block. When the output is not a
// terminal, pixels are printed as plain ASCII so the output can be piped into
// a file.
//
// Useful while the real panel is still in the mail.
package termpanel

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"os"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"periph.io/x/conn/v3/display"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// Opts represents the options available for this display.
type Opts struct {
	W, H    int
	Palette *ansi256.Palette
	// On and Off are the pixel colors. Zero values are white and black.
	On, Off color.NRGBA
	// Out defaults to stdout.
	Out io.Writer
	// Plain selects ASCII output. It is forced when Out is nil and stdout
	// is not a terminal.
	Plain bool

	_ struct{}
}

// Dev is a monochrome panel emulator that outputs to the console.
type Dev struct {
	w       io.Writer
	plain   bool
	palette ansi256.Palette
	on, off string

	frame *image1bit.VerticalLSB
	drawn bool
	buf   bytes.Buffer
}

// New returns a Dev that displays at the console.
func New(opts *Opts) (*Dev, error) {
	if opts.W < 1 || opts.H < 1 {
		return nil, fmt.Errorf("termpanel: invalid size %dx%d", opts.W, opts.H)
	}
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	d := &Dev{
		w:       opts.Out,
		plain:   opts.Plain,
		palette: *p,
		frame:   image1bit.NewVerticalLSB(image.Rect(0, 0, opts.W, opts.H)),
	}
	if d.w == nil {
		d.w = colorable.NewColorableStdout()
		fd := os.Stdout.Fd()
		d.plain = d.plain || !(isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd))
	}
	on, off := opts.On, opts.Off
	if on == (color.NRGBA{}) {
		on = color.NRGBA{255, 255, 255, 255}
	}
	if off == (color.NRGBA{}) {
		off = color.NRGBA{0, 0, 0, 255}
	}
	d.on = d.palette.Block(on)
	d.off = d.palette.Block(off)
	return d, nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("TermPanel{%dx%d}", d.frame.Rect.Dx(), d.frame.Rect.Dy())
}

// Halt implements conn.Resource.
//
// It resets the terminal colors so the shell prompt is not corrupted.
func (d *Dev) Halt() error {
	if d.plain {
		return nil
	}
	_, err := d.w.Write([]byte("\033[0m\n"))
	return err
}

// ColorModel implements display.Drawer.
func (d *Dev) ColorModel() color.Model {
	return image1bit.BitModel
}

// Bounds implements display.Drawer.
func (d *Dev) Bounds() image.Rectangle {
	return d.frame.Rect
}

// Draw implements display.Drawer.
func (d *Dev) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	draw.Src.Draw(d.frame, r, src, sp)
	return d.refresh()
}

// Display replaces the whole frame with src.
func (d *Dev) Display(src image.Image) error {
	return d.Draw(d.frame.Rect, src, src.Bounds().Min)
}

// Clear turns every pixel off.
func (d *Dev) Clear() error {
	for i := range d.frame.Pix {
		d.frame.Pix[i] = 0
	}
	return d.refresh()
}

func (d *Dev) refresh() error {
	d.buf.Reset()
	w, h := d.frame.Rect.Dx(), d.frame.Rect.Dy()
	if d.plain {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				if d.frame.BitAt(x, y) {
					d.buf.WriteByte('#')
				} else {
					d.buf.WriteByte('.')
				}
			}
			d.buf.WriteByte('\n')
		}
		d.buf.WriteByte('\n')
	} else {
		if d.drawn {
			// Redraw over the previous frame.
			fmt.Fprintf(&d.buf, "\033[%dA", h)
		}
		for y := 0; y < h; y++ {
			_, _ = d.buf.WriteString("\r\033[0m")
			for x := 0; x < w; x++ {
				if d.frame.BitAt(x, y) {
					_, _ = d.buf.WriteString(d.on)
				} else {
					_, _ = d.buf.WriteString(d.off)
				}
			}
			_, _ = d.buf.WriteString("\033[0m\n")
		}
	}
	d.drawn = true
	_, err := d.buf.WriteTo(d.w)
	return err
}

var _ display.Drawer = &Dev{}
var _ fmt.Stringer = &Dev{}
