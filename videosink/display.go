// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package videosink provides a monochrome panel emulator implementing an HTTP
// request handler. Client requests get an initial snapshot of the panel and
// are updated further on every change.
//
// The primary use case is the development of panel layouts on a host
// machine. Additionally devices with network connectivity can use this driver
// to provide a copy of their local panel via a web interface.
//
// The protocol used is "MJPEG" (https://en.wikipedia.org/wiki/Motion_JPEG)
// which is often used by IP cameras. Frames are rendered by package preview
// and sent as PNG by default. JPEG or the raw one bit frame can be selected
// via Options.Format or using the "format" URL parameter.
package videosink

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"net/http"
	"sync"

	"periph.io/x/conn/v3/display"
	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/GermanBionicSystems/oled/preview"
)

// Options for videosink devices.
type Options struct {
	// Width and height of the panel, in panel pixels.
	Width, Height int

	// Preview controls how panel pixels are rendered. Nil uses
	// preview.DefaultOptions.
	Preview *preview.Options

	// Format specifies the image format to send to clients.
	Format ImageFormat

	// JPEGQuality ranges from 1 to 100. Zero uses jpeg.DefaultQuality.
	JPEGQuality int
}

// Display mirrors a panel to HTTP clients.
type Display struct {
	defaultFormat ImageFormat
	preview       *preview.Options
	jpegQuality   int

	mu    sync.Mutex
	frame *image1bit.VerticalLSB
	// changed is closed and replaced on every frame change, halted on every
	// Halt.
	changed chan struct{}
	halted  chan struct{}
	// encoded caches the current frame per format.
	encoded map[ImageFormat][]byte
}

var _ display.Drawer = (*Display)(nil)
var _ http.Handler = (*Display)(nil)

// New creates a new videosink device instance.
func New(opt *Options) *Display {
	return &Display{
		defaultFormat: opt.Format,
		preview:       opt.Preview,
		jpegQuality:   opt.JPEGQuality,
		frame:         image1bit.NewVerticalLSB(image.Rect(0, 0, opt.Width, opt.Height)),
		changed:       make(chan struct{}),
		halted:        make(chan struct{}),
		encoded:       map[ImageFormat][]byte{},
	}
}

// String returns the name of the device.
func (d *Display) String() string {
	return fmt.Sprintf("VideoSink{%dx%d}", d.frame.Rect.Dx(), d.frame.Rect.Dy())
}

// Halt implements conn.Resource and ends all running streams. The device
// stays usable and new clients can connect.
func (d *Display) Halt() error {
	d.mu.Lock()
	close(d.halted)
	d.halted = make(chan struct{})
	d.mu.Unlock()
	return nil
}

// ColorModel implements display.Drawer.
func (d *Display) ColorModel() color.Model {
	return image1bit.BitModel
}

// Bounds implements display.Drawer.
func (d *Display) Bounds() image.Rectangle {
	return d.frame.Rect
}

// Draw implements display.Drawer.
func (d *Display) Draw(dstRect image.Rectangle, src image.Image, srcPts image.Point) error {
	d.mu.Lock()
	draw.Draw(d.frame, dstRect, src, srcPts, draw.Src)
	d.changedLocked()
	d.mu.Unlock()
	return nil
}

// Display replaces the whole frame with src.
func (d *Display) Display(src image.Image) error {
	return d.Draw(d.frame.Rect, src, src.Bounds().Min)
}

// Clear turns every pixel off.
func (d *Display) Clear() error {
	d.mu.Lock()
	for i := range d.frame.Pix {
		d.frame.Pix[i] = 0
	}
	d.changedLocked()
	d.mu.Unlock()
	return nil
}

// Snapshot returns a copy of the current frame.
func (d *Display) Snapshot() *image1bit.VerticalLSB {
	d.mu.Lock()
	defer d.mu.Unlock()
	c := image1bit.NewVerticalLSB(d.frame.Rect)
	copy(c.Pix, d.frame.Pix)
	return c
}

func (d *Display) changedLocked() {
	for f := range d.encoded {
		delete(d.encoded, f)
	}
	close(d.changed)
	d.changed = make(chan struct{})
}

// current returns the frame encoded in format f, and the channels signalling
// the next change and the next Halt. The returned bytes must not be
// modified.
func (d *Display) current(f ImageFormat) ([]byte, <-chan struct{}, <-chan struct{}, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, ok := d.encoded[f]
	if !ok {
		var buf bytes.Buffer
		if err := f.encode(&buf, d.frame, d.preview, d.jpegQuality); err != nil {
			return nil, nil, nil, err
		}
		b = buf.Bytes()
		d.encoded[f] = b
	}
	return b, d.changed, d.halted, nil
}
