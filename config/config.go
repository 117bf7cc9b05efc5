// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package config loads and validates the display configuration.
//
// The configuration is a YAML document. Displays are listed under the
// ssd1306_i2c key, either as a list or as a single mapping:
//
//	listen: ":8126"
//	ssd1306_i2c:
//	  - name: hall
//	    i2c_bus: 1
//	    address: 0x3C
//	    model: 128x32
//	    rotate: 2
//	  - i2c_bus: 1
//	    address: 0x3D
//
// Unknown keys are ignored so the file can be shared with other tools.
package config

import (
	"errors"
	"fmt"
	"image"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Domain is the configuration key holding the displays.
const Domain = "ssd1306_i2c"

// Defaults applied to missing fields.
const (
	DefaultModel    = "128x64"
	DefaultAddress  = 0x3C
	DefaultBus      = 1
	DefaultRotate   = 0
	DefaultDriver   = DriverSSD1306
	DefaultScale    = 4
	DefaultListen   = ":8126"
	defaultFallback = DefaultModel
)

// Drivers.
const (
	DriverSSD1306   = "ssd1306"
	DriverTerminal  = "terminal"
	DriverVideoSink = "videosink"
)

// Models maps each supported panel model to its width and height.
var Models = map[string]image.Point{
	"128x64": {128, 64},
	"128x32": {128, 32},
	"96x16":  {96, 16},
	"64x48":  {64, 48},
	"64x32":  {64, 32},
}

// aliases are the model names used by older configurations.
var aliases = map[string]string{
	"SSD1306 128x64": "128x64",
	"SSD1306 128x32": "128x32",
}

// Geometry returns the size of a panel model. Unknown models get the size
// of DefaultModel.
func Geometry(model string) image.Point {
	if a, ok := aliases[model]; ok {
		model = a
	}
	if p, ok := Models[model]; ok {
		return p
	}
	return Models[defaultFallback]
}

// Display is the configuration of one panel.
type Display struct {
	Name    string
	Bus     int
	Address int
	Model   string
	// Rotate is the number of clockwise quarter turns, 0 to 3.
	Rotate int
	Driver string
	// Contrast is 1 to 255; 0 keeps the driver default.
	Contrast int
	// ResetPin is the GPIO number wired to RES, -1 when not wired.
	ResetPin int
	// Fonts is the ordered list of font specifications to try.
	Fonts []string
	// Scale is the preview pixel size of the videosink driver.
	Scale int
}

// Key returns the registry key of the display: its name, or the bus and
// address when unnamed.
func (d *Display) Key() string {
	if d.Name != "" {
		return d.Name
	}
	return fmt.Sprintf("%d_%d", d.Bus, d.Address)
}

// Size returns the panel size before rotation.
func (d *Display) Size() image.Point {
	return Geometry(d.Model)
}

// Bounds returns the drawable area, rotation included.
func (d *Display) Bounds() image.Rectangle {
	p := d.Size()
	if d.Rotate == 1 || d.Rotate == 3 {
		p.X, p.Y = p.Y, p.X
	}
	return image.Rectangle{Max: p}
}

// File is a loaded configuration.
type File struct {
	// Listen is the HTTP address of the service.
	Listen   string
	Displays []Display
}

// Keys returns the sorted display keys.
func (f *File) Keys() []string {
	k := make([]string, 0, len(f.Displays))
	for i := range f.Displays {
		k = append(k, f.Displays[i].Key())
	}
	sort.Strings(k)
	return k
}

// Load reads and validates a configuration file.
func Load(path string) (*File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	f, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse decodes and validates a YAML configuration.
func Parse(b []byte) (*File, error) {
	var raw rawFile
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if len(raw.Displays) == 0 {
		return nil, fmt.Errorf("config: no '%s' displays configured", Domain)
	}
	f := &File{Listen: raw.Listen, Displays: make([]Display, 0, len(raw.Displays))}
	if f.Listen == "" {
		f.Listen = DefaultListen
	}
	var errs []error
	seen := map[string]int{}
	for i, r := range raw.Displays {
		d, err := r.resolve()
		if err != nil {
			errs = append(errs, fmt.Errorf("config: %s[%d]: %w", Domain, i, err))
			continue
		}
		if j, ok := seen[d.Key()]; ok {
			errs = append(errs, fmt.Errorf("config: %s[%d]: display %q already defined at index %d", Domain, i, d.Key(), j))
			continue
		}
		seen[d.Key()] = i
		f.Displays = append(f.Displays, d)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return f, nil
}

type rawFile struct {
	Listen   string      `yaml:"listen"`
	Displays displayList `yaml:"ssd1306_i2c"`
}

// displayList accepts a single mapping as a list of one.
type displayList []rawDisplay

func (l *displayList) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.MappingNode {
		var d rawDisplay
		if err := n.Decode(&d); err != nil {
			return err
		}
		*l = displayList{d}
		return nil
	}
	var s []rawDisplay
	if err := n.Decode(&s); err != nil {
		return err
	}
	*l = s
	return nil
}

// rawDisplay tells missing fields apart from zero values.
type rawDisplay struct {
	Name     string   `yaml:"name"`
	Bus      *int     `yaml:"i2c_bus"`
	Address  *int     `yaml:"address"`
	Model    *string  `yaml:"model"`
	Rotate   *int     `yaml:"rotate"`
	Driver   string   `yaml:"driver"`
	Contrast *int     `yaml:"contrast"`
	ResetPin *int     `yaml:"reset_pin"`
	Fonts    []string `yaml:"fonts"`
	Scale    *int     `yaml:"scale"`
}

func (r *rawDisplay) resolve() (Display, error) {
	d := Display{
		Name:     r.Name,
		Bus:      intOr(r.Bus, DefaultBus),
		Address:  intOr(r.Address, DefaultAddress),
		Model:    DefaultModel,
		Rotate:   intOr(r.Rotate, DefaultRotate),
		Driver:   r.Driver,
		Contrast: intOr(r.Contrast, 0),
		ResetPin: intOr(r.ResetPin, -1),
		Fonts:    r.Fonts,
		Scale:    intOr(r.Scale, DefaultScale),
	}
	if r.Model != nil {
		d.Model = *r.Model
	}
	if a, ok := aliases[d.Model]; ok {
		d.Model = a
	}
	if d.Driver == "" {
		d.Driver = DefaultDriver
	}

	if _, ok := Models[d.Model]; !ok {
		return d, fmt.Errorf("model %q is not one of %s", d.Model, strings.Join(modelNames(), ", "))
	}
	if d.Rotate < 0 || d.Rotate > 3 {
		return d, fmt.Errorf("rotate %d is not one of 0, 1, 2, 3", d.Rotate)
	}
	if d.Bus < 0 {
		return d, fmt.Errorf("i2c_bus %d must be positive", d.Bus)
	}
	if d.Address < 0 || d.Address > 0x7F {
		return d, fmt.Errorf("address %#x is not a 7-bit I²C address", d.Address)
	}
	if r.Contrast != nil && (d.Contrast < 1 || d.Contrast > 255) {
		return d, fmt.Errorf("contrast %d must be between 1 and 255", d.Contrast)
	}
	if r.ResetPin != nil && d.ResetPin < 0 {
		return d, fmt.Errorf("reset_pin %d must be positive", d.ResetPin)
	}
	if d.Scale < 1 {
		return d, fmt.Errorf("scale %d must be at least 1", d.Scale)
	}
	switch d.Driver {
	case DriverSSD1306, DriverTerminal, DriverVideoSink:
	default:
		return d, fmt.Errorf("driver %q is not one of %s, %s, %s", d.Driver, DriverSSD1306, DriverTerminal, DriverVideoSink)
	}
	return d, nil
}

func intOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

func modelNames() []string {
	n := make([]string, 0, len(Models))
	for k := range Models {
		n = append(n, k)
	}
	sort.Strings(n)
	return n
}
