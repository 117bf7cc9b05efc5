// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package glyph

import (
	"errors"
	"fmt"
	"image"
	"strings"
	"unicode/utf8"
)

// DefaultSize is the font size used when the caller doesn't specify one.
const DefaultSize = 10

// Glyph is the rendering of a single character.
type Glyph struct {
	// Mask holds the coverage of each pixel, 0 being empty. Its bounds are
	// relative to the pen position, which is the top-left corner of the text
	// line. The mask may be shared between calls and must not be modified.
	Mask *image.Alpha
	// Advance is the number of pixels the pen moves right after this glyph.
	Advance int
}

// Source renders characters.
//
// The result must only depend on the arguments. Sources backed by bitmap
// fonts ignore size.
type Source interface {
	Glyph(r rune, size int) (Glyph, bool)
}

// Loader creates a Source. It fails when the backing font is not available.
type Loader func() (Source, error)

// ErrNoSource is returned by First when no loader succeeded.
var ErrNoSource = errors.New("glyph: no usable glyph source")

// First tries each loader in order and returns the first Source that loads.
func First(loaders ...Loader) (Source, error) {
	var errs []string
	for _, l := range loaders {
		s, err := l()
		if err == nil {
			return s, nil
		}
		errs = append(errs, err.Error())
	}
	if len(errs) == 0 {
		return nil, ErrNoSource
	}
	return nil, fmt.Errorf("%w: %s", ErrNoSource, strings.Join(errs, "; "))
}

// ASCII returns s with every character outside of 7-bit ASCII removed.
//
// Invalid UTF-8 sequences are dropped as well.
func ASCII(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return strings.Map(func(r rune) rune {
				if r >= utf8.RuneSelf {
					return -1
				}
				return r
			}, s)
		}
	}
	return s
}
