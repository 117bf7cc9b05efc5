// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package glyph provides the character sources used to put text on a
// monochrome panel.
//
// A Source turns one character at a requested size into a coverage mask
// and an advance width. Sources are backed either by a fixed bitmap table
// or by a font.Face from golang.org/x/image: basicfont, TrueType files
// through github.com/golang/freetype, OpenType files, the embedded Go
// Regular font and BDF files through github.com/zachomedia/go-bdf.
//
// Which source is used is decided by probing an ordered list of Loader
// values with First; the first one that loads is kept. Defaults returns the
// usual list: system DejaVu and Liberation fonts, then Go Regular, then the
// 7x13 bitmap font which cannot fail.
package glyph
