// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ssd1306

import (
	"image"
	"testing"

	"github.com/google/go-cmp/cmp"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/i2c/i2ctest"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

const addr uint16 = 0x3c

// frameOps returns the I²C transactions of a full frame flush starting at
// GDDRAM column col.
func frameOps(w int, frame []byte, col byte) []i2ctest.IO {
	var ops []i2ctest.IO
	for page := 0; page < len(frame)/w; page++ {
		ops = append(ops,
			i2ctest.IO{Addr: addr, W: []byte{i2cCmd, _PAGESTARTADDRESS | byte(page), _SETLOWCOLUMN | col&0x0F, _SETHIGHCOLUMN | col>>4}},
			i2ctest.IO{Addr: addr, W: append([]byte{i2cData}, frame[page*w:(page+1)*w]...)},
		)
	}
	return ops
}

func initOps(opts *Opts, id byte) []i2ctest.IO {
	col := byte((128 - opts.W) / 2)
	if id == 0x08 {
		col += 2
	}
	ops := []i2ctest.IO{
		{Addr: addr, W: []byte{0x00}, R: []byte{id}},
		{Addr: addr, W: append([]byte{i2cCmd}, getInitCmd(opts)...)},
	}
	return append(ops, frameOps(opts.W, make([]byte, opts.W*opts.H/8), col)...)
}

func TestNewI2C(t *testing.T) {
	opts := &Opts{W: 64, H: 32, Sequential: true}
	ops := initOps(opts, 0x03)
	frame := make([]byte, 64*32/8)
	frame[0] = 0x01
	frame[64+10] = 0x80 // x=10, y=15
	ops = append(ops, frameOps(64, frame, 32)...)

	pb := &i2ctest.Playback{Ops: ops, DontPanic: true}
	defer pb.Close()
	dev, err := NewI2C(pb, opts)
	if err != nil {
		t.Fatal(err)
	}
	if got := dev.Bounds(); got != image.Rect(0, 0, 64, 32) {
		t.Errorf("Bounds() = %v", got)
	}
	if dev.variant != _SSD1306 {
		t.Errorf("variant = %s", dev.variant)
	}
	img := image1bit.NewVerticalLSB(dev.Bounds())
	img.SetBit(0, 0, image1bit.On)
	img.SetBit(10, 15, image1bit.On)
	if err := dev.Display(img); err != nil {
		t.Fatal(err)
	}
	if err := pb.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestSH1106Offset(t *testing.T) {
	opts := &Opts{W: 128, H: 64}
	pb := &i2ctest.Playback{Ops: initOps(opts, 0x08), DontPanic: true}
	dev, err := NewI2C(pb, opts)
	if err != nil {
		t.Fatal(err)
	}
	if dev.variant != _SH1106 || dev.startOffset != 2 {
		t.Errorf("got %s offset %d", dev.variant, dev.startOffset)
	}
	if err := pb.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestNewI2CInvalid(t *testing.T) {
	for _, opts := range []Opts{
		{W: 0, H: 64},
		{W: 130, H: 64},
		{W: 128, H: 12},
		{W: 128, H: 128},
		{W: 128, H: 64, Rotation: 4},
	} {
		rec := &i2ctest.Record{}
		if _, err := NewI2C(rec, &opts); err == nil {
			t.Errorf("NewI2C(%+v) succeeded", opts)
		}
		if len(rec.Ops) != 0 {
			t.Errorf("NewI2C(%+v) did I/O before validating", opts)
		}
	}
}

func TestRotation(t *testing.T) {
	for _, tc := range []struct {
		rotation Rotation
		bounds   image.Rectangle
		// Physical position of logical (0, 0) and (1, 0).
		origin, next image.Point
	}{
		{Rotate0, image.Rect(0, 0, 64, 32), image.Pt(0, 0), image.Pt(1, 0)},
		{Rotate90, image.Rect(0, 0, 32, 64), image.Pt(63, 0), image.Pt(63, 1)},
		{Rotate180, image.Rect(0, 0, 64, 32), image.Pt(63, 31), image.Pt(62, 31)},
		{Rotate270, image.Rect(0, 0, 32, 64), image.Pt(0, 31), image.Pt(0, 30)},
	} {
		rec := &i2ctest.Record{}
		dev, err := NewI2C(rec, &Opts{W: 64, H: 32, Rotation: tc.rotation})
		if err != nil {
			t.Fatal(err)
		}
		if got := dev.Bounds(); got != tc.bounds {
			t.Errorf("rotation %d: Bounds() = %v, want %v", tc.rotation, got, tc.bounds)
		}
		img := image1bit.NewVerticalLSB(dev.Bounds())
		img.SetBit(0, 0, image1bit.On)
		img.SetBit(1, 0, image1bit.On)
		if err := dev.Display(img); err != nil {
			t.Fatal(err)
		}
		want := image1bit.NewVerticalLSB(image.Rect(0, 0, 64, 32))
		want.SetBit(tc.origin.X, tc.origin.Y, image1bit.On)
		want.SetBit(tc.next.X, tc.next.Y, image1bit.On)
		if diff := cmp.Diff(want.Pix, dev.frame); diff != "" {
			t.Errorf("rotation %d: frame (-want +got):\n%s", tc.rotation, diff)
		}
	}
}

func TestDisplayAlwaysFullFrame(t *testing.T) {
	rec := &i2ctest.Record{}
	dev, err := NewI2C(rec, &Opts{W: 32, H: 16})
	if err != nil {
		t.Fatal(err)
	}
	img := image1bit.NewVerticalLSB(dev.Bounds())
	for i := 0; i < 2; i++ {
		rec.Ops = nil
		// Sending the same image twice still writes every page.
		if err := dev.Display(img); err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(frameOps(32, make([]byte, 64), 48), rec.Ops); diff != "" {
			t.Errorf("ops (-want +got):\n%s", diff)
		}
	}
}

func TestDrawKeepsOutside(t *testing.T) {
	rec := &i2ctest.Record{}
	dev, err := NewI2C(rec, &Opts{W: 32, H: 16})
	if err != nil {
		t.Fatal(err)
	}
	on := &image.Uniform{image1bit.On}
	if err := dev.Draw(image.Rect(0, 0, 1, 1), on, image.Point{}); err != nil {
		t.Fatal(err)
	}
	if err := dev.Draw(image.Rect(5, 0, 6, 1), on, image.Point{}); err != nil {
		t.Fatal(err)
	}
	if dev.frame[0] != 0x01 || dev.frame[5] != 0x01 {
		t.Errorf("frame = %#v", dev.frame[:8])
	}
}

func TestClearWriteHalt(t *testing.T) {
	rec := &i2ctest.Record{}
	dev, err := NewI2C(rec, &Opts{W: 32, H: 16})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := dev.Write(make([]byte, 3)); err == nil {
		t.Error("Write() accepted a short buffer")
	}
	px := make([]byte, 64)
	px[7] = 0xFF
	if n, err := dev.Write(px); err != nil || n != 64 {
		t.Fatalf("Write() = %d, %v", n, err)
	}
	if err := dev.Clear(); err != nil {
		t.Fatal(err)
	}
	if dev.frame[7] != 0 {
		t.Error("Clear() left pixels on")
	}
	if err := dev.Halt(); err != nil {
		t.Fatal(err)
	}
	rec.Ops = nil
	if err := dev.SetContrast(0x20); err != nil {
		t.Fatal(err)
	}
	want := []i2ctest.IO{{Addr: addr, W: []byte{i2cCmd, _DISPLAYON, _SETCONTRAST, 0x20}}}
	if diff := cmp.Diff(want, rec.Ops); diff != "" {
		t.Errorf("ops after Halt (-want +got):\n%s", diff)
	}
}

func TestReset(t *testing.T) {
	p := &gpiotest.Pin{N: "GPIO24", L: gpio.Low}
	rec := &i2ctest.Record{}
	if _, err := NewI2C(rec, &Opts{W: 32, H: 16, Reset: p}); err != nil {
		t.Fatal(err)
	}
	if p.L != gpio.High {
		t.Error("reset pin left low")
	}
}

func TestInitCmdContrast(t *testing.T) {
	got := getInitCmd(&Opts{W: 128, H: 64, Contrast: 0x7F})
	for i := 0; i < len(got)-1; i++ {
		if got[i] == _SETCONTRAST {
			if got[i+1] != 0x7F {
				t.Errorf("contrast = %#x", got[i+1])
			}
			return
		}
	}
	t.Error("no contrast command")
}

func TestNarrowPanelColumns(t *testing.T) {
	for _, tc := range []struct {
		w, h int
		col  byte
		freq byte
	}{
		{128, 64, 0, 0xF0},
		{128, 32, 0, 0xF0},
		{64, 48, 32, 0xF0},
		{64, 32, 32, 0xF0},
		{96, 16, 16, 0x60},
	} {
		opts := &Opts{W: tc.w, H: tc.h}
		cmd := getInitCmd(opts)
		for i := 0; i < len(cmd)-2; i++ {
			switch cmd[i] {
			case _COLUMNADDR:
				if got := cmd[i+1 : i+3]; got[0] != tc.col || got[1] != tc.col+byte(tc.w-1) {
					t.Errorf("%dx%d: column address % x", tc.w, tc.h, got)
				}
			case _SETDISPLAYCLOCKDIV:
				if cmd[i+1] != tc.freq {
					t.Errorf("%dx%d: clock %#x, want %#x", tc.w, tc.h, cmd[i+1], tc.freq)
				}
			}
		}

		frame := make([]byte, tc.w*tc.h/8)
		frame[0] = 0x01
		ops := append(initOps(opts, 0x03), frameOps(tc.w, frame, tc.col)...)
		pb := &i2ctest.Playback{Ops: ops, DontPanic: true}
		dev, err := NewI2C(pb, opts)
		if err != nil {
			t.Fatalf("%dx%d: %v", tc.w, tc.h, err)
		}
		img := image1bit.NewVerticalLSB(dev.Bounds())
		img.SetBit(0, 0, image1bit.On)
		if err := dev.Display(img); err != nil {
			t.Fatalf("%dx%d: %v", tc.w, tc.h, err)
		}
		if err := pb.Close(); err != nil {
			t.Errorf("%dx%d: %v", tc.w, tc.h, err)
		}
	}
}
