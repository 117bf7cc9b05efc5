// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package glyph

import (
	"fmt"
	"image"
	"image/draw"
	"os"
	"sync"

	"github.com/golang/freetype/truetype"
	"github.com/zachomedia/go-bdf"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/GermanBionicSystems/oled/pilfont"
)

// faceSource adapts a font.Face to Source.
//
// Faces are created on demand per size and kept. A font.Face is not safe for
// concurrent use, hence the lock.
type faceSource struct {
	name     string
	scalable bool
	newFace  func(size int) (font.Face, error)

	mu    sync.Mutex
	faces map[int]font.Face
}

func newFaceSource(name string, scalable bool, newFace func(size int) (font.Face, error)) *faceSource {
	return &faceSource{
		name:     name,
		scalable: scalable,
		newFace:  newFace,
		faces:    map[int]font.Face{},
	}
}

func (s *faceSource) String() string {
	return s.name
}

func (s *faceSource) Glyph(r rune, size int) (Glyph, bool) {
	if size <= 0 {
		size = DefaultSize
	}
	if !s.scalable {
		size = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.faces[size]
	if f == nil {
		var err error
		if f, err = s.newFace(size); err != nil {
			return Glyph{}, false
		}
		s.faces[size] = f
	}
	// The pen is the top-left of the line, the face draws relative to the
	// baseline.
	dot := fixed.P(0, f.Metrics().Ascent.Ceil())
	dr, mask, mp, adv, ok := f.Glyph(dot, r)
	if !ok {
		return Glyph{}, false
	}
	// Faces reuse their mask buffer between calls, copy it out.
	m := image.NewAlpha(dr)
	draw.Draw(m, dr, mask, mp, draw.Src)
	return Glyph{Mask: m, Advance: adv.Round()}, true
}

// Basic returns a Loader for the 7x13 bitmap font of golang.org/x/image.
//
// It cannot fail and ignores size.
func Basic() Loader {
	return func() (Source, error) {
		return newFaceSource("builtin:7x13", false, func(int) (font.Face, error) {
			return basicfont.Face7x13, nil
		}), nil
	}
}

// GoRegular returns a Loader for the embedded Go Regular TrueType font.
func GoRegular() Loader {
	return func() (Source, error) {
		return trueType("builtin:goregular", goregular.TTF)
	}
}

// TrueTypeFile returns a Loader reading a TrueType font file.
func TrueTypeFile(path string) Loader {
	return func() (Source, error) {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("glyph: %w", err)
		}
		return trueType(path, b)
	}
}

func trueType(name string, b []byte) (Source, error) {
	f, err := truetype.Parse(b)
	if err != nil {
		return nil, fmt.Errorf("glyph: %s: %w", name, err)
	}
	return newFaceSource(name, true, func(size int) (font.Face, error) {
		return truetype.NewFace(f, &truetype.Options{
			Size:    float64(size),
			DPI:     72,
			Hinting: font.HintingFull,
		}), nil
	}), nil
}

// OpenTypeFile returns a Loader reading an OpenType font or the first font
// of a font collection.
func OpenTypeFile(path string) Loader {
	return func() (Source, error) {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("glyph: %w", err)
		}
		c, err := opentype.ParseCollection(b)
		if err != nil {
			return nil, fmt.Errorf("glyph: %s: %w", path, err)
		}
		f, err := c.Font(0)
		if err != nil {
			return nil, fmt.Errorf("glyph: %s: %w", path, err)
		}
		return newFaceSource(path, true, func(size int) (font.Face, error) {
			return opentype.NewFace(f, &opentype.FaceOptions{
				Size:    float64(size),
				DPI:     72,
				Hinting: font.HintingFull,
			})
		}), nil
	}
}

// BDFFile returns a Loader reading a BDF bitmap font. The size is ignored.
func BDFFile(path string) Loader {
	return func() (Source, error) {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("glyph: %w", err)
		}
		f, err := bdf.Parse(b)
		if err != nil {
			return nil, fmt.Errorf("glyph: %s: %w", path, err)
		}
		face := f.NewFace()
		return newFaceSource(path, false, func(int) (font.Face, error) {
			return face, nil
		}), nil
	}
}

// PILFile returns a Loader reading a PIL raster font pair, as written by
// pilfont.Font.Save. The size is ignored.
func PILFile(path string) Loader {
	return func() (Source, error) {
		f, err := pilfont.Load(path)
		if err != nil {
			return nil, err
		}
		face := f.NewFace()
		return newFaceSource(path, false, func(int) (font.Face, error) {
			return face, nil
		}), nil
	}
}
