// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package surface

import (
	"errors"
	"image"
	"image/draw"
	"testing"

	"github.com/google/go-cmp/cmp"
	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/GermanBionicSystems/oled/glyph"
)

type fakeDevice struct {
	bounds  image.Rectangle
	frames  [][]byte
	clears  int
	halted  bool
	failing error
}

func (f *fakeDevice) Bounds() image.Rectangle {
	return f.bounds
}

func (f *fakeDevice) Clear() error {
	f.clears++
	return f.failing
}

func (f *fakeDevice) Display(img image.Image) error {
	if f.failing != nil {
		return f.failing
	}
	c := image1bit.NewVerticalLSB(f.bounds)
	draw.Draw(c, f.bounds, img, image.Point{}, draw.Src)
	f.frames = append(f.frames, c.Pix)
	return nil
}

func (f *fakeDevice) Halt() error {
	f.halted = true
	return nil
}

var panel = image.Rect(0, 0, 128, 64)

func newTest(t *testing.T) (*Surface, *fakeDevice, *int) {
	t.Helper()
	src, err := glyph.Bitmap8x8()()
	if err != nil {
		t.Fatal(err)
	}
	dev := &fakeDevice{bounds: panel}
	opened := 0
	s := New("test", panel, src, func() (Device, error) {
		opened++
		return dev, nil
	})
	return s, dev, &opened
}

type call struct {
	x, y  int
	text  string
	clear bool
}

// render returns the frame after the calls.
func render(t *testing.T, calls ...call) []byte {
	t.Helper()
	s, _, _ := newTest(t)
	for _, c := range calls {
		if err := s.DrawText(c.x, c.y, c.text, c.clear, 0); err != nil {
			t.Fatal(err)
		}
	}
	return append([]byte(nil), s.Buffer().Pix...)
}

func lit(pix []byte) int {
	n := 0
	for _, b := range pix {
		for ; b != 0; b &= b - 1 {
			n++
		}
	}
	return n
}

func TestOpenIdempotent(t *testing.T) {
	s, _, opened := newTest(t)
	for i := 0; i < 3; i++ {
		if err := s.Open(); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.DrawText(0, 0, "x", true, 0); err != nil {
		t.Fatal(err)
	}
	if *opened != 1 {
		t.Errorf("opened %d times", *opened)
	}
}

func TestOpenError(t *testing.T) {
	boom := errors.New("no such bus")
	s := New("broken", panel, nil, func() (Device, error) {
		return nil, boom
	})
	if err := s.DrawText(0, 0, "A", true, 0); !errors.Is(err, boom) {
		t.Fatalf("DrawText() = %v, want %v", err, boom)
	}
	if s.Buffer() != nil {
		t.Error("buffer allocated without a device")
	}
}

func TestNonASCIIDropped(t *testing.T) {
	for _, text := range []string{"22°C", "Température", "✓ ok", "日本 x"} {
		got := render(t, call{0, 0, text, true})
		want := render(t, call{0, 0, glyph.ASCII(text), true})
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("%q (-ascii +got):\n%s", text, diff)
		}
	}
}

func TestIdempotentClear(t *testing.T) {
	once := render(t, call{3, 5, "A", true})
	twice := render(t, call{3, 5, "A", true}, call{3, 5, "A", true})
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("(-once +twice):\n%s", diff)
	}
	if lit(once) == 0 {
		t.Error("nothing drawn")
	}
}

func TestAccumulate(t *testing.T) {
	a := render(t, call{0, 0, "A", true})
	b := render(t, call{40, 0, "B", true})
	both := render(t, call{0, 0, "A", true}, call{40, 0, "B", false})
	want := make([]byte, len(a))
	for i := range want {
		want[i] = a[i] | b[i]
	}
	if diff := cmp.Diff(want, both); diff != "" {
		t.Errorf("accumulated (-want +got):\n%s", diff)
	}
	onlyB := render(t, call{0, 0, "A", true}, call{40, 0, "B", true})
	if diff := cmp.Diff(b, onlyB); diff != "" {
		t.Errorf("cleared (-want +got):\n%s", diff)
	}
}

func TestBufferReuse(t *testing.T) {
	s, _, _ := newTest(t)
	if err := s.DrawText(0, 0, "A", true, 0); err != nil {
		t.Fatal(err)
	}
	first := s.Buffer()
	if err := s.DrawText(10, 0, "B", false, 0); err != nil {
		t.Fatal(err)
	}
	if s.Buffer() != first {
		t.Error("buffer reallocated without geometry change")
	}
	if err := s.DrawText(10, 0, "B", true, 0); err != nil {
		t.Fatal(err)
	}
	if s.Buffer() == first {
		t.Error("clear reused the buffer")
	}

	second := s.Buffer()
	small := image.Rect(0, 0, 64, 32)
	dev := &fakeDevice{bounds: small}
	if err := s.Reconfigure(small, func() (Device, error) { return dev, nil }); err != nil {
		t.Fatal(err)
	}
	if err := s.DrawText(0, 20, "C", false, 0); err != nil {
		t.Fatal(err)
	}
	if s.Buffer() == second || s.Buffer().Bounds() != small {
		t.Fatalf("buffer not reallocated after geometry change: %v", s.Buffer().Bounds())
	}
	want := render(t, call{0, 20, "C", true})
	// Only "C" is present, at the same place as on a fresh 128x64 frame.
	if lit(s.Buffer().Pix) != lit(want) {
		t.Errorf("lit = %d, want %d", lit(s.Buffer().Pix), lit(want))
	}
	if len(dev.frames) != 1 {
		t.Errorf("new device got %d frames", len(dev.frames))
	}
}

func TestFlushEveryCall(t *testing.T) {
	s, dev, _ := newTest(t)
	for i, c := range []call{{0, 0, "A", true}, {0, 0, "", false}, {500, 500, "far", false}, {0, 0, "€", true}} {
		if err := s.DrawText(c.x, c.y, c.text, c.clear, 0); err != nil {
			t.Fatal(err)
		}
		if len(dev.frames) != i+1 {
			t.Fatalf("after call %d: %d frames", i, len(dev.frames))
		}
		if diff := cmp.Diff(s.Buffer().Pix, dev.frames[i]); diff != "" {
			t.Errorf("call %d: device frame differs from buffer:\n%s", i, diff)
		}
	}
	if dev.clears != 0 {
		t.Errorf("DrawText() cleared the device %d times", dev.clears)
	}
}

func TestClipping(t *testing.T) {
	if n := lit(render(t, call{200, 0, "A", true})); n != 0 {
		t.Errorf("x beyond width lit %d pixels", n)
	}
	if n := lit(render(t, call{0, 100, "A", true})); n != 0 {
		t.Errorf("y beyond height lit %d pixels", n)
	}
	full := lit(render(t, call{0, 0, "A", true}))
	partial := lit(render(t, call{125, 0, "A", true}))
	if partial == 0 || partial >= full {
		t.Errorf("partial glyph lit %d pixels, full glyph %d", partial, full)
	}
	if n := lit(render(t, call{-3, -2, "A", true})); n == 0 || n >= full {
		t.Errorf("negative origin lit %d pixels", n)
	}
}

func TestAdvance(t *testing.T) {
	s, _, _ := newTest(t)
	if err := s.DrawText(0, 0, "II", true, 0); err != nil {
		t.Fatal(err)
	}
	// The bar of 'I' is in column 2 of its cell, cells are 6 pixels apart.
	for _, x := range []int{2, 8} {
		if !s.Buffer().BitAt(x, 3) {
			t.Errorf("pixel (%d, 3) is off", x)
		}
	}
	if s.Buffer().BitAt(5, 3) {
		t.Error("gap between glyphs is on")
	}
}

func TestTransportError(t *testing.T) {
	s, dev, _ := newTest(t)
	dev.failing = errors.New("i2c: nack")
	if err := s.DrawText(0, 0, "A", true, 0); !errors.Is(err, dev.failing) {
		t.Fatalf("DrawText() = %v", err)
	}
	// The frame is kept, the next call may succeed.
	dev.failing = nil
	if err := s.DrawText(0, 0, "B", false, 0); err != nil {
		t.Fatal(err)
	}
}

func TestClearClose(t *testing.T) {
	s, dev, opened := newTest(t)
	if err := s.DrawText(0, 0, "A", true, 0); err != nil {
		t.Fatal(err)
	}
	if err := s.Clear(); err != nil {
		t.Fatal(err)
	}
	if dev.clears != 1 || lit(s.Buffer().Pix) != 0 {
		t.Errorf("clears=%d lit=%d", dev.clears, lit(s.Buffer().Pix))
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if !dev.halted || s.Buffer() != nil {
		t.Error("Close() did not release the device")
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.DrawText(0, 0, "A", true, 0); err != nil {
		t.Fatal(err)
	}
	if *opened != 2 {
		t.Errorf("opened %d times", *opened)
	}
}
