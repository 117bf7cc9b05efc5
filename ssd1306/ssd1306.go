// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ssd1306

// https://cdn-shop.adafruit.com/datasheets/SSD1306.pdf

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

type variant string

const (
	_CHARGEPUMP          = 0x8D
	_COLUMNADDR          = 0x21
	_COMSCANDEC          = 0xC8
	_DEACTIVATE_SCROLL   = 0x2E
	_DISPLAYALLON_RESUME = 0xA4
	_DISPLAYOFF          = 0xAE
	_DISPLAYON           = 0xAF
	_MEMORYMODE          = 0x20
	_NORMALDISPLAY       = 0xA6
	_PAGEADDR            = 0x22
	_PAGESTARTADDRESS    = 0xB0
	_SETCOMPINS          = 0xDA
	_SETCONTRAST         = 0x81
	_SETDISPLAYCLOCKDIV  = 0xD5
	_SETDISPLAYOFFSET    = 0xD3
	_SETHIGHCOLUMN       = 0x10
	_SETLOWCOLUMN        = 0x00
	_SETMULTIPLEX        = 0xA8
	_SETPRECHARGE        = 0xD9
	_SETSEGMENTREMAP     = 0xA1
	_SETSTARTLINE        = 0x40
	_SETVCOMDETECT       = 0xDB
)

const (
	_SSD1306 variant = "SSD1306"
	_SH1106  variant = "SH1106"
)

// Rotation is a clockwise rotation of the image in quarter turns.
type Rotation int

// Supported rotations. With Rotate90 and Rotate270 the image is taller than
// wide.
const (
	Rotate0 Rotation = iota
	Rotate90
	Rotate180
	Rotate270
)

// DefaultOpts is the recommended default options.
var DefaultOpts = Opts{
	W:    128,
	H:    64,
	Addr: 0x3c,
}

// Opts defines the options for the device.
type Opts struct {
	// W and H are the size of the panel, before rotation.
	W int
	H int
	// Rotation is applied in software to every frame sent.
	Rotation Rotation
	// Sequential corresponds to the Sequential/Alternative COM pin configuration
	// in the OLED panel hardware. Try toggling this if half the rows appear to be
	// missing on your display. Particularly on 32 pixel height displays.
	Sequential bool
	// Contrast is the initial contrast. 0 means maximum contrast.
	Contrast byte
	// The I2C address of the display.
	Addr uint16
	// Reset, when set, is pulsed low before the controller is initialized.
	Reset gpio.PinOut
}

// NewI2C returns a Dev object that communicates over I²C to a SSD1306 display
// controller.
//
// The panel is initialized and cleared.
func NewI2C(i i2c.Bus, opts *Opts) (*Dev, error) {
	o := *opts
	if o.Addr == 0x00 {
		o.Addr = DefaultOpts.Addr
	}
	// Maximum clock speed is 1/2.5µs = 400KHz.
	return newDev(&i2c.Dev{Bus: i, Addr: o.Addr}, &o)
}

// Dev is an open handle to the display controller.
//
// Every update sends the whole frame; the controller RAM is never patched.
type Dev struct {
	c conn.Conn

	// rect is the physical panel, bounds the logical one after rotation.
	rect     image.Rectangle
	bounds   image.Rectangle
	rotation Rotation

	// frame is the physical GDDRAM image. There is 8 pages, each covering an
	// horizontal band of 8 pixels high (1 byte) for W bytes.
	frame []byte
	// next is lazy initialized on the first Draw().
	next   *image1bit.VerticalLSB
	halted bool
	// The display type, _SSD1306 or _SH1106.
	variant variant
	// The SH1106 is a little funny. It's got 132 bytes wide of RAM, but 4 bytes
	// are unused, so you have to offset writes by two to account for it.
	startOffset byte
	// colStart centers panels narrower than the 128 columns of GDDRAM.
	colStart byte
}

func (d *Dev) String() string {
	return fmt.Sprintf("%s.Dev{%s, %s, rotation=%d}", d.variant, d.c, d.rect.Max, d.rotation)
}

// ColorModel implements display.Drawer.
//
// It is a one bit color model, as implemented by image1bit.Bit.
func (d *Dev) ColorModel() color.Model {
	return image1bit.BitModel
}

// Bounds implements display.Drawer. Min is guaranteed to be {0, 0}.
//
// It is the size of the image as seen by the caller, after rotation.
func (d *Dev) Bounds() image.Rectangle {
	return d.bounds
}

// Draw implements display.Drawer.
//
// The area outside r keeps what the previous Draw() put there.
func (d *Dev) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	if d.next == nil {
		d.next = image1bit.NewVerticalLSB(d.bounds)
	}
	draw.Src.Draw(d.next, r, src, sp)
	return d.Display(d.next)
}

// Display sends src as a full frame. Pixels of src outside Bounds() are
// ignored, pixels of Bounds() not covered by src are turned off.
func (d *Dev) Display(src image.Image) error {
	d.render(src)
	return d.flush()
}

// Clear turns off every pixel.
func (d *Dev) Clear() error {
	for i := range d.frame {
		d.frame[i] = 0
	}
	return d.flush()
}

// Write writes a buffer of pixels to the display, as is.
//
// The format is unsual as each byte represent 8 vertical pixels at a time. The
// format is horizontal bands of 8 pixels high, of the unrotated panel.
//
// This function accepts the content of image1bit.VerticalLSB.Pix.
func (d *Dev) Write(pixels []byte) (int, error) {
	if len(pixels) != len(d.frame) {
		return 0, fmt.Errorf("%s: invalid pixel stream length; expected %d bytes, got %d bytes", d.variant, len(d.frame), len(pixels))
	}
	copy(d.frame, pixels)
	if err := d.flush(); err != nil {
		return 0, err
	}
	return len(pixels), nil
}

// SetContrast changes the screen contrast.
func (d *Dev) SetContrast(level byte) error {
	return d.sendCommand([]byte{_SETCONTRAST, level})
}

// Halt turns off the display.
//
// Sending any other command afterward reenables the display.
func (d *Dev) Halt() error {
	d.halted = false
	err := d.sendCommand([]byte{_DISPLAYOFF})
	if err == nil {
		d.halted = true
	}
	return err
}

// newDev is the common initialization code.
func newDev(c conn.Conn, opts *Opts) (*Dev, error) {
	if opts.W < 8 || opts.W > 128 || opts.W&7 != 0 {
		return nil, fmt.Errorf("%s: invalid width %d", _SSD1306, opts.W)
	}
	if opts.H < 8 || opts.H > 64 || opts.H&7 != 0 {
		return nil, fmt.Errorf("%s: invalid height %d", _SSD1306, opts.H)
	}
	if opts.Rotation < Rotate0 || opts.Rotation > Rotate270 {
		return nil, fmt.Errorf("%s: invalid rotation %d", _SSD1306, opts.Rotation)
	}
	if opts.Reset != nil {
		if err := reset(opts.Reset); err != nil {
			return nil, fmt.Errorf("%s: reset: %w", _SSD1306, err)
		}
	}

	d := &Dev{
		c:        c,
		rect:     image.Rect(0, 0, opts.W, opts.H),
		bounds:   image.Rect(0, 0, opts.W, opts.H),
		rotation: opts.Rotation,
		frame:    make([]byte, opts.H/8*opts.W),
		colStart: colStart(opts.W),
		variant:  _SSD1306,
	}
	if opts.Rotation == Rotate90 || opts.Rotation == Rotate270 {
		d.bounds = image.Rect(0, 0, opts.H, opts.W)
	}

	// Read the variant directly from the chip.
	id, _ := d.readID()
	if id&0x0f == 0x08 {
		d.startOffset = 2
		d.variant = _SH1106
	}
	if err := d.sendCommand(getInitCmd(opts)); err != nil {
		return nil, err
	}
	if err := d.Clear(); err != nil {
		return nil, err
	}
	return d, nil
}

// colStart returns the first GDDRAM column shown by a panel w pixels wide.
// Narrow glass is wired to the middle columns.
func colStart(w int) byte {
	return byte((128 - w) / 2)
}

// reset holds the RES line low for a moment. The controller needs 3µs.
func reset(p gpio.PinOut) error {
	if err := p.Out(gpio.Low); err != nil {
		return err
	}
	time.Sleep(time.Millisecond)
	if err := p.Out(gpio.High); err != nil {
		return err
	}
	time.Sleep(10 * time.Millisecond)
	return nil
}

func getInitCmd(opts *Opts) []byte {
	// See page 40.
	hwLayout := byte(0x02)
	if !opts.Sequential {
		hwLayout |= 0x10
	}
	contrast := opts.Contrast
	if contrast == 0 {
		contrast = 0xFF
	}

	// Set the max frequency. The problem with I²C is that it creates visible
	// tear down. On SPI at high speed this is not visible. Page 23 pictures how
	// to avoid tear down. For now default to max frequency.
	freq := byte(0xF0)
	if opts.W == 96 && opts.H == 16 {
		// 96x16 modules are rated for a lower clock.
		freq = 0x60
	}
	col := colStart(opts.W)

	// Initialize the device by fully resetting all values.
	// Page 64 has the full recommended flow.
	// Page 28 lists all the commands.
	return []byte{
		_DISPLAYOFF,             // Display off
		_SETDISPLAYOFFSET, 0x00, // Set display offset; 0
		_SETSTARTLINE,         // Start display start line; 0
		_SETSEGMENTREMAP,      // Set segment remap; RESET is column 127.
		_COMSCANDEC,           //
		_SETCOMPINS, hwLayout, // Set COM pins hardware configuration; see page 40
		_SETCONTRAST, contrast, // Set contrast
		_DISPLAYALLON_RESUME,      // Set display to use GDDRAM content
		_NORMALDISPLAY,            // Set normal display (_INVERTDISPLAY for inverted 0=lit, 1=dark)
		_SETDISPLAYCLOCKDIV, freq, // Set osc frequency and divide ratio; power on reset value is 0x80.
		_CHARGEPUMP, 0x14, // Enable charge pump regulator; page 62
		_SETPRECHARGE, 0xF1, // Set pre-charge period; from adafruit driver
		_SETVCOMDETECT, 0x40, // Set Vcomh deselect level; page 32
		_DEACTIVATE_SCROLL,              // Deactivate scroll
		_SETMULTIPLEX, byte(opts.H - 1), // Set multiplex ratio (number of lines to display)
		_MEMORYMODE, 0x00, // Set memory addressing mode to horizontal
		_COLUMNADDR, col, col + uint8(opts.W-1), // Set column address (Width)
		_PAGEADDR, 0, uint8(opts.H/8 - 1), // Set page address (Pages)
		_DISPLAYON, // Display on
	}
}

// render converts src into the physical frame, applying the rotation.
func (d *Dev) render(src image.Image) {
	for i := range d.frame {
		d.frame[i] = 0
	}
	r := d.bounds.Intersect(src.Bounds())
	img, fast := src.(*image1bit.VerticalLSB)
	w := d.rect.Dx()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			var on image1bit.Bit
			if fast {
				on = img.BitAt(x, y)
			} else {
				on = image1bit.BitModel.Convert(src.At(x, y)).(image1bit.Bit)
			}
			if !on {
				continue
			}
			px, py := d.physical(x, y)
			d.frame[py/8*w+px] |= 1 << uint(py&7)
		}
	}
}

// physical maps a point of Bounds() to the panel.
func (d *Dev) physical(x, y int) (int, int) {
	w, h := d.bounds.Dx(), d.bounds.Dy()
	switch d.rotation {
	case Rotate90:
		return h - 1 - y, x
	case Rotate180:
		return w - 1 - x, h - 1 - y
	case Rotate270:
		return y, w - 1 - x
	default:
		return x, y
	}
}

// flush sends the whole frame, one page at a time since the SH1106 doesn't
// support horizontal addressing.
func (d *Dev) flush() error {
	pageSize := d.rect.Dx()
	c := d.colStart + d.startOffset
	for page := 0; page < d.rect.Dy()/8; page++ {
		err := d.sendCommand([]byte{
			_PAGESTARTADDRESS | byte(page),
			_SETLOWCOLUMN | c&0x0F,
			_SETHIGHCOLUMN | c>>4,
		})
		if err != nil {
			return err
		}
		if err = d.sendData(d.frame[page*pageSize : (page+1)*pageSize]); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dev) sendData(c []byte) error {
	if d.halted {
		// Transparently enable the display.
		if err := d.sendCommand(nil); err != nil {
			return err
		}
	}
	return d.c.Tx(append([]byte{i2cData}, c...), nil)
}

func (d *Dev) sendCommand(c []byte) error {
	if d.halted {
		// Transparently enable the display.
		c = append([]byte{_DISPLAYON}, c...)
		d.halted = false
	}
	return d.c.Tx(append([]byte{i2cCmd}, c...), nil)
}

// readID() reads the ID byte of the device. Piecing together the datasheet,
// the format is:
//
// Bits
// ----
// 0 - 5 Device ID
//
//	ID Values have been documented as:
//
//	    0x03 SSD1306 128x32
//	    0x06 SSD1306 128x64
//	    0x08: sh1106
//
// 6 Display On/Off 0=on, 1 = off
// 7 BUSY
func (d *Dev) readID() (byte, error) {
	r := make([]byte, 1)
	err := d.c.Tx([]byte{0}, r)
	return r[0], err
}

const (
	i2cCmd  = 0x00 // I²C transaction has stream of command bytes
	i2cData = 0x40 // I²C transaction has stream of data bytes
)

var _ display.Drawer = &Dev{}
