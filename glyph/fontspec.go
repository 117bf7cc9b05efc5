// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package glyph

import (
	"fmt"
	"path/filepath"
	"strings"
)

// SystemFonts lists the TrueType fonts commonly present on Raspberry Pi OS
// and Debian derivatives.
var SystemFonts = []string{
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/liberation/LiberationSans-Regular.ttf",
}

// Defaults returns the loaders tried when no font is configured: the
// system fonts, then Go Regular, then the 7x13 bitmap font.
func Defaults() []Loader {
	l := make([]Loader, 0, len(SystemFonts)+2)
	for _, p := range SystemFonts {
		l = append(l, TrueTypeFile(p))
	}
	return append(l, GoRegular(), Basic())
}

// FromSpec returns the Loader described by a font specification.
//
// A specification is either one of "builtin:8x8", "builtin:7x13" and
// "builtin:goregular", or a path whose extension selects the format: .ttf,
// .otf, .ttc, .otc, .bdf or .pil.
func FromSpec(spec string) (Loader, error) {
	switch spec {
	case "builtin:8x8":
		return Bitmap8x8(), nil
	case "builtin:7x13":
		return Basic(), nil
	case "builtin:goregular":
		return GoRegular(), nil
	}
	if strings.HasPrefix(spec, "builtin:") {
		return nil, fmt.Errorf("glyph: unknown builtin font %q", spec)
	}
	switch strings.ToLower(filepath.Ext(spec)) {
	case ".ttf":
		return TrueTypeFile(spec), nil
	case ".otf", ".ttc", ".otc":
		return OpenTypeFile(spec), nil
	case ".bdf":
		return BDFFile(spec), nil
	case ".pil":
		return PILFile(spec), nil
	}
	return nil, fmt.Errorf("glyph: unsupported font format %q", spec)
}

// FromSpecs converts a list of font specifications. An empty list yields
// Defaults.
func FromSpecs(specs []string) ([]Loader, error) {
	if len(specs) == 0 {
		return Defaults(), nil
	}
	l := make([]Loader, 0, len(specs))
	for _, s := range specs {
		ld, err := FromSpec(s)
		if err != nil {
			return nil, err
		}
		l = append(l, ld)
	}
	return l, nil
}
