// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package pilfont converts BDF bitmap fonts to the raster font format of
// the Python Imaging Library and reads such fonts back.
//
// A PIL font is a pair of files sharing a base name. The .pil file holds a
// short text header followed by 256 metric records of ten big-endian int16:
// advance (dx, dy), destination box relative to the baseline pen position
// (x0, y0, x1, y1) and source box in the bitmap (x0, y0, x1, y1). The .pbm
// file holds every glyph packed in a single strip image, encoded as PNG.
//
// Only character codes 0 to 255 can be represented.
package pilfont

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/zachomedia/go-bdf"
)

// stripWidth is the width at which glyphs wrap to a new row in the bitmap.
const stripWidth = 800

const magic = "PILfont\n"

// Metric describes one glyph.
type Metric struct {
	// Advance is the pen movement after the glyph.
	Advance image.Point
	// Dst is the glyph box relative to the pen on the baseline.
	Dst image.Rectangle
	// Src is the glyph box in Font.Bitmap.
	Src image.Rectangle
}

// Font is a PIL raster font held in memory.
type Font struct {
	// YSize is the height of a bitmap row as stored in the header.
	YSize   int
	Metrics [256]Metric
	// Bitmap holds the glyph coverage; any non-zero value is a set pixel.
	Bitmap *image.Alpha
}

// ErrEmpty is returned when a font has no glyph in the 0-255 range.
var ErrEmpty = errors.New("pilfont: no glyph in range 0-255")

// Has reports whether the font defines character code c.
func (f *Font) Has(c int) bool {
	return c >= 0 && c < len(f.Metrics) && f.Metrics[c] != (Metric{})
}

// Convert packs the glyphs of a parsed BDF font into a Font.
//
// When several characters share a code the last one wins.
func Convert(src *bdf.Font) (*Font, error) {
	var glyphs [256]*bdf.Character
	for i := range src.Characters {
		c := &src.Characters[i]
		if c.Encoding >= 0 && int(c.Encoding) < len(glyphs) && c.Alpha != nil {
			glyphs[c.Encoding] = c
		}
	}

	// First pass sizes the strip.
	h, w, maxW, lines := 0, 0, 0, 1
	found := false
	for _, c := range glyphs {
		if c == nil {
			continue
		}
		found = true
		b := c.Alpha.Bounds()
		if b.Dy() > h {
			h = b.Dy()
		}
		w += b.Dx()
		if w > stripWidth {
			lines++
			w = b.Dx()
		}
		if w > maxW {
			maxW = w
		}
	}
	if !found {
		return nil, ErrEmpty
	}

	f := &Font{
		YSize:  h,
		Bitmap: image.NewAlpha(image.Rect(0, 0, maxW, lines*h)),
	}
	x, y := 0, 0
	for code, c := range glyphs {
		if c == nil {
			continue
		}
		b := c.Alpha.Bounds()
		xx := b.Dx()
		x0, y0 := x, y
		x += xx
		if x > stripWidth {
			x, y = 0, y+h
			x0, y0 = x, y
			x = xx
		}
		s := image.Rect(x0, y0, x0+xx, y0+b.Dy())
		draw.Draw(f.Bitmap, s, c.Alpha, b.Min, draw.Src)
		left, bottom := c.LowerPoint[0], c.LowerPoint[1]
		f.Metrics[code] = Metric{
			Advance: image.Pt(c.Advance[0], c.Advance[1]),
			Dst:     image.Rect(left, -bottom-b.Dy(), left+xx, -bottom),
			Src:     s,
		}
	}
	return f, nil
}

// ConvertFile reads a BDF file and writes the PIL pair next to dst, which
// defaults to src without its extension. It returns the written paths.
func ConvertFile(src, dst string) (string, string, error) {
	b, err := os.ReadFile(src)
	if err != nil {
		return "", "", err
	}
	bf, err := bdf.Parse(b)
	if err != nil {
		return "", "", fmt.Errorf("pilfont: %s: %w", src, err)
	}
	f, err := Convert(bf)
	if err != nil {
		return "", "", fmt.Errorf("%w in %s", err, src)
	}
	if dst == "" {
		dst = src
	}
	return f.Save(dst)
}

// paths returns the .pil and .pbm names for name, whatever its extension.
func paths(name string) (string, string) {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	return base + ".pil", base + ".pbm"
}

// Save writes the font as a .pil/.pbm pair. The extension of name, if any,
// is replaced.
func (f *Font) Save(name string) (string, string, error) {
	pilPath, pbmPath := paths(name)
	var img bytes.Buffer
	if err := png.Encode(&img, f.grayBitmap()); err != nil {
		return "", "", fmt.Errorf("pilfont: encoding bitmap: %w", err)
	}
	if err := os.WriteFile(pbmPath, img.Bytes(), 0o644); err != nil {
		return "", "", err
	}
	var m bytes.Buffer
	if err := f.writeMetrics(&m); err != nil {
		return "", "", err
	}
	if err := os.WriteFile(pilPath, m.Bytes(), 0o644); err != nil {
		return "", "", err
	}
	return pilPath, pbmPath, nil
}

func (f *Font) grayBitmap() *image.Gray {
	g := image.NewGray(f.Bitmap.Bounds())
	for i, a := range f.Bitmap.Pix {
		if a != 0 {
			g.Pix[i] = 0xFF
		}
	}
	return g
}

func (f *Font) writeMetrics(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "%s;;;;;;%d;\nDATA\n", magic, f.YSize); err != nil {
		return err
	}
	var rec [10]int16
	for _, m := range f.Metrics {
		rec = [10]int16{
			int16(m.Advance.X), int16(m.Advance.Y),
			int16(m.Dst.Min.X), int16(m.Dst.Min.Y), int16(m.Dst.Max.X), int16(m.Dst.Max.Y),
			int16(m.Src.Min.X), int16(m.Src.Min.Y), int16(m.Src.Max.X), int16(m.Src.Max.Y),
		}
		if err := binary.Write(w, binary.BigEndian, rec); err != nil {
			return err
		}
	}
	return nil
}

// Load reads a .pil file and the .pbm bitmap next to it.
func Load(name string) (*Font, error) {
	pilPath, pbmPath := paths(name)
	pf, err := os.Open(pilPath)
	if err != nil {
		return nil, err
	}
	defer pf.Close()
	f := &Font{}
	if err := f.readMetrics(bufio.NewReader(pf)); err != nil {
		return nil, fmt.Errorf("pilfont: %s: %w", pilPath, err)
	}

	bf, err := os.Open(pbmPath)
	if err != nil {
		return nil, err
	}
	defer bf.Close()
	img, _, err := image.Decode(bf)
	if err != nil {
		return nil, fmt.Errorf("pilfont: %s: %w", pbmPath, err)
	}
	r := img.Bounds()
	f.Bitmap = image.NewAlpha(image.Rect(0, 0, r.Dx(), r.Dy()))
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			g := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
			f.Bitmap.Pix[f.Bitmap.PixOffset(x-r.Min.X, y-r.Min.Y)] = g.Y
		}
	}
	return f, nil
}

func (f *Font) readMetrics(r *bufio.Reader) error {
	line, err := r.ReadString('\n')
	if err != nil || line != magic {
		return errors.New("not a PIL font file")
	}
	if line, err = r.ReadString('\n'); err != nil {
		return err
	}
	if fields := strings.Split(strings.TrimSpace(line), ";"); len(fields) > 6 {
		f.YSize, _ = strconv.Atoi(fields[6])
	}
	for {
		if line, err = r.ReadString('\n'); err != nil {
			return fmt.Errorf("missing DATA section: %w", err)
		}
		if line == "DATA\n" {
			break
		}
	}
	var rec [10]int16
	for i := range f.Metrics {
		if err := binary.Read(r, binary.BigEndian, &rec); err != nil {
			return fmt.Errorf("reading metric %d: %w", i, err)
		}
		f.Metrics[i] = Metric{
			Advance: image.Pt(int(rec[0]), int(rec[1])),
			Dst:     image.Rect(int(rec[2]), int(rec[3]), int(rec[4]), int(rec[5])),
			Src:     image.Rect(int(rec[6]), int(rec[7]), int(rec[8]), int(rec[9])),
		}
	}
	return nil
}
