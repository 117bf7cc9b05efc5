// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package videosink

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/GermanBionicSystems/oled/preview"
)

// ImageFormat selects how frames are encoded for clients.
type ImageFormat int

const (
	// PNG sends the enlarged preview as PNG.
	PNG ImageFormat = iota
	// JPEG sends the enlarged preview as JPEG.
	JPEG
	// Raw sends the frame as a black and white PNG, one image pixel per panel
	// pixel.
	Raw

	// DefaultFormat is the format used when not set explicitly in options or
	// as a URL parameter.
	DefaultFormat = PNG
)

func (f ImageFormat) String() string {
	switch f {
	case PNG:
		return "PNG"
	case JPEG:
		return "JPEG"
	case Raw:
		return "Raw"
	default:
		return fmt.Sprint(int(f))
	}
}

func (f ImageFormat) mimeType() string {
	switch f {
	case PNG, Raw:
		return "image/png"
	case JPEG:
		return "image/jpeg"
	}
	return "application/octet-stream"
}

// encode writes frame in format f. opts and quality only apply to the
// preview formats.
func (f ImageFormat) encode(w io.Writer, frame image.Image, opts *preview.Options, quality int) error {
	switch f {
	case PNG:
		return preview.EncodePNG(w, frame, opts)
	case JPEG:
		if quality == 0 {
			quality = jpeg.DefaultQuality
		}
		return jpeg.Encode(w, preview.Render(frame, opts), &jpeg.Options{Quality: quality})
	case Raw:
		return png.Encode(w, monochrome(frame))
	}
	return fmt.Errorf("videosink: unhandled image format %s", f)
}

var bw = color.Palette{color.Black, color.White}

// monochrome converts frame to a paletted black and white image, the
// smallest PNG encoding of a panel.
func monochrome(frame image.Image) *image.Paletted {
	r := frame.Bounds()
	m := image.NewPaletted(image.Rect(0, 0, r.Dx(), r.Dy()), bw)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if preview.Lit(frame.At(x, y)) {
				m.Pix[m.PixOffset(x-r.Min.X, y-r.Min.Y)] = 1
			}
		}
	}
	return m
}

// ParseImageFormat returns the ImageFormat value for the given format
// abbreviation.
func ParseImageFormat(value string) (ImageFormat, error) {
	switch value {
	case "png":
		return PNG, nil
	case "jpg", "jpeg":
		return JPEG, nil
	case "raw":
		return Raw, nil
	}
	return DefaultFormat, fmt.Errorf("unrecognized image format %q", value)
}
