// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package panel

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2ctest"

	"github.com/GermanBionicSystems/oled/config"
)

const doc = `
ssd1306_i2c:
  - name: oled
    address: 0x3D
    model: 128x32
    reset_pin: 24
    fonts: ["builtin:8x8"]
  - name: term
    driver: terminal
    model: 64x32
    fonts: ["builtin:8x8"]
  - name: web
    driver: videosink
    model: 64x32
    rotate: 1
    scale: 2
    fonts: ["builtin:8x8"]
`

type recBus struct {
	i2ctest.Record
	closed bool
}

func (r *recBus) Close() error {
	r.closed = true
	return nil
}

type fixture struct {
	set  *Set
	bus  *recBus
	pin  *gpiotest.Pin
	term bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	f, err := config.Parse([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	fx := &fixture{bus: &recBus{}, pin: &gpiotest.Pin{N: "GPIO24", Num: 24}}
	fx.set, err = Build(f, &Options{
		OpenBus: func(bus int) (i2c.BusCloser, error) {
			if bus != 1 {
				t.Errorf("opened bus %d", bus)
			}
			return fx.bus, nil
		},
		Pin: func(name string) gpio.PinIO {
			if name == "24" {
				return fx.pin
			}
			return nil
		},
		Out: &fx.term,
	})
	if err != nil {
		t.Fatal(err)
	}
	return fx
}

func TestBuild(t *testing.T) {
	fx := newFixture(t)
	if diff := cmp.Diff([]string{"oled", "term", "web"}, fx.set.Keys()); diff != "" {
		t.Errorf("Keys() (-want +got):\n%s", diff)
	}
	if got := len(fx.set.Targets()); got != 3 {
		t.Errorf("Targets() has %d entries", got)
	}
	sinks := fx.set.Sinks()
	if len(sinks) != 1 || sinks["web"] == nil {
		t.Fatalf("Sinks() = %v", sinks)
	}
	// Rotated a quarter turn.
	if got := sinks["web"].Bounds().Size(); got.X != 32 || got.Y != 64 {
		t.Errorf("sink size = %v", got)
	}
	if got := fx.set.Panels["oled"].Surface.Bounds().Size(); got.X != 128 || got.Y != 32 {
		t.Errorf("oled size = %v", got)
	}
}

func TestOpenDrawClose(t *testing.T) {
	fx := newFixture(t)
	if err := fx.set.Open(); err != nil {
		t.Fatal(err)
	}
	if len(fx.bus.Ops) == 0 {
		t.Fatal("no I²C traffic")
	}
	for _, op := range fx.bus.Ops {
		if op.Addr != 0x3D {
			t.Fatalf("I²C op to %#x", op.Addr)
		}
	}
	if fx.pin.L != gpio.High {
		t.Error("reset pin left low")
	}

	fx.bus.Ops = nil
	for _, n := range fx.set.Keys() {
		if err := fx.set.Panels[n].Surface.DrawText(0, 0, "Hi", true, 0); err != nil {
			t.Fatalf("%s: %v", n, err)
		}
	}
	if len(fx.bus.Ops) == 0 {
		t.Error("oled was not drawn")
	}
	if fx.term.Len() == 0 {
		t.Error("terminal was not drawn")
	}
	if !fx.set.Sinks()["web"].Snapshot().BitAt(0, 1) {
		t.Error("web mirror was not drawn")
	}

	if err := fx.set.Close(); err != nil {
		t.Fatal(err)
	}
	if !fx.bus.closed {
		t.Error("bus was not closed")
	}
}

func TestOpenErrors(t *testing.T) {
	f, err := config.Parse([]byte("ssd1306_i2c:\n  - name: a\n  - name: b\n    reset_pin: 5\n"))
	if err != nil {
		t.Fatal(err)
	}
	boom := errors.New("no such bus")
	s, err := Build(f, &Options{
		OpenBus: func(int) (i2c.BusCloser, error) { return nil, boom },
		Pin:     func(string) gpio.PinIO { return nil },
	})
	if err != nil {
		t.Fatal(err)
	}
	err = s.Open()
	if !errors.Is(err, boom) {
		t.Errorf("Open() = %v, want %v", err, boom)
	}
	if err == nil || !strings.Contains(err.Error(), "reset pin 5 not found") {
		t.Errorf("Open() = %v, want a reset pin error", err)
	}
}

func TestBuildBadFont(t *testing.T) {
	f, err := config.Parse([]byte("ssd1306_i2c:\n  - fonts: [font.woff]\n"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Build(f, nil); err == nil {
		t.Error("Build() succeeded")
	}
}
