// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package panel builds the display surfaces described by a configuration.
//
// Each configured display gets a surface.Surface whose device is opened on
// first use by the driver the configuration selects: a real SSD1306 on an
// I²C bus, a terminal emulator or an HTTP video sink.
package panel

import (
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"sort"
	"strconv"
	"strings"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"

	"github.com/GermanBionicSystems/oled/config"
	"github.com/GermanBionicSystems/oled/dispatch"
	"github.com/GermanBionicSystems/oled/glyph"
	"github.com/GermanBionicSystems/oled/preview"
	"github.com/GermanBionicSystems/oled/ssd1306"
	"github.com/GermanBionicSystems/oled/surface"
	"github.com/GermanBionicSystems/oled/termpanel"
	"github.com/GermanBionicSystems/oled/videosink"
)

// Options for Build. Nil fields use the host's registries.
type Options struct {
	// OpenBus opens an I²C bus by number. Defaults to i2creg.Open.
	OpenBus func(bus int) (i2c.BusCloser, error)
	// Pin looks up a GPIO by name or number. Defaults to gpioreg.ByName.
	Pin func(name string) gpio.PinIO
	// Out receives the terminal driver output. Defaults to stdout.
	Out io.Writer
}

// Panel is one configured display.
type Panel struct {
	Config  config.Display
	Surface *surface.Surface
	// Sink is set when the display uses the videosink driver.
	Sink *videosink.Display
}

// Set is the collection of configured displays, by registry key.
type Set struct {
	Panels map[string]*Panel
}

// sequential lists the panel sizes wired with sequential COM pins.
var sequential = map[image.Point]bool{
	{128, 32}: true,
	{96, 16}:  true,
}

// Build creates a Panel per display of f. No device is opened.
func Build(f *config.File, opts *Options) (*Set, error) {
	o := Options{}
	if opts != nil {
		o = *opts
	}
	if o.OpenBus == nil {
		o.OpenBus = func(bus int) (i2c.BusCloser, error) {
			return i2creg.Open(strconv.Itoa(bus))
		}
	}
	if o.Pin == nil {
		o.Pin = gpioreg.ByName
	}

	s := &Set{Panels: make(map[string]*Panel, len(f.Displays))}
	sources := map[string]glyph.Source{}
	for _, d := range f.Displays {
		key := strings.Join(d.Fonts, "\x00")
		src, ok := sources[key]
		if !ok {
			var err error
			if src, err = fonts(d.Fonts); err != nil {
				return nil, fmt.Errorf("panel: %s: %w", d.Key(), err)
			}
			sources[key] = src
		}
		p := &Panel{Config: d}
		var open surface.Opener
		switch d.Driver {
		case config.DriverSSD1306:
			open = o.ssd1306(d)
		case config.DriverTerminal:
			open = o.terminal(d)
		case config.DriverVideoSink:
			b := d.Bounds()
			p.Sink = videosink.New(&videosink.Options{
				Width:   b.Dx(),
				Height:  b.Dy(),
				Preview: &preview.Options{Scale: d.Scale, Grid: d.Scale >= 3},
			})
			sink := p.Sink
			open = func() (surface.Device, error) { return sink, nil }
		default:
			return nil, fmt.Errorf("panel: %s: unknown driver %q", d.Key(), d.Driver)
		}
		p.Surface = surface.New(d.Key(), d.Bounds(), src, open)
		s.Panels[d.Key()] = p
	}
	return s, nil
}

// fonts returns the first usable source among specs, falling back to the
// default chain.
func fonts(specs []string) (glyph.Source, error) {
	loaders, err := glyph.FromSpecs(specs)
	if err != nil {
		return nil, err
	}
	if len(specs) != 0 {
		loaders = append(loaders, glyph.Defaults()...)
	}
	src, err := glyph.First(loaders...)
	if err != nil {
		return nil, err
	}
	log.Printf("panel: using font %s", src)
	return src, nil
}

// Keys returns the sorted registry keys.
func (s *Set) Keys() []string {
	k := make([]string, 0, len(s.Panels))
	for n := range s.Panels {
		k = append(k, n)
	}
	sort.Strings(k)
	return k
}

// Targets returns the dispatcher registry.
func (s *Set) Targets() map[string]dispatch.Target {
	t := make(map[string]dispatch.Target, len(s.Panels))
	for n, p := range s.Panels {
		t[n] = p.Surface
	}
	return t
}

// Sinks returns the displays using the videosink driver.
func (s *Set) Sinks() map[string]*videosink.Display {
	m := map[string]*videosink.Display{}
	for n, p := range s.Panels {
		if p.Sink != nil {
			m[n] = p.Sink
		}
	}
	return m
}

// Open opens every device. A display that fails is reported and left
// closed; the next draw retries.
func (s *Set) Open() error {
	var errs []error
	for _, n := range s.Keys() {
		if err := s.Panels[n].Surface.Open(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close halts every open device.
func (s *Set) Close() error {
	var errs []error
	for _, n := range s.Keys() {
		if err := s.Panels[n].Surface.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (o *Options) ssd1306(d config.Display) surface.Opener {
	return func() (surface.Device, error) {
		size := d.Size()
		opts := ssd1306.Opts{
			W:          size.X,
			H:          size.Y,
			Rotation:   ssd1306.Rotation(d.Rotate),
			Sequential: sequential[size],
			Contrast:   byte(d.Contrast),
			Addr:       uint16(d.Address),
		}
		var reset gpio.PinIO
		if d.ResetPin >= 0 {
			if reset = o.Pin(strconv.Itoa(d.ResetPin)); reset == nil {
				return nil, fmt.Errorf("reset pin %d not found", d.ResetPin)
			}
			opts.Reset = reset
		}
		bus, err := o.OpenBus(d.Bus)
		if err != nil {
			return nil, fmt.Errorf("i2c bus %d: %w", d.Bus, err)
		}
		dev, err := ssd1306.NewI2C(bus, &opts)
		if err != nil {
			_ = bus.Close()
			return nil, err
		}
		return &busDevice{Dev: dev, bus: bus}, nil
	}
}

func (o *Options) terminal(d config.Display) surface.Opener {
	return func() (surface.Device, error) {
		b := d.Bounds()
		dev, err := termpanel.New(&termpanel.Opts{W: b.Dx(), H: b.Dy(), Out: o.Out})
		if err != nil {
			return nil, err
		}
		return dev, nil
	}
}

// busDevice releases the bus when the panel is halted.
type busDevice struct {
	*ssd1306.Dev
	bus io.Closer
}

func (b *busDevice) Halt() error {
	return errors.Join(b.Dev.Halt(), b.bus.Close())
}
