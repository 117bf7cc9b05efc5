// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// bdf2pil converts a BDF bitmap font into a PIL raster font, a .pil metrics
// file and its .pbm glyph bitmap.
//
// Usage:
//
//	bdf2pil <font.bdf> [output_basename]
//
// The output defaults to the input path without its extension.
package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/GermanBionicSystems/oled/pilfont"
)

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 || len(args) > 2 {
		fmt.Fprintln(stderr, "Usage: bdf2pil <font.bdf> [output_basename]")
		return 2
	}
	src := args[0]
	if _, err := os.Stat(src); errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(stderr, "BDF file not found: %s\n", src)
		return 1
	}
	dst := ""
	if len(args) == 2 {
		dst = args[1]
	}
	pil, pbm, err := pilfont.ConvertFile(src, dst)
	if err != nil {
		fmt.Fprintf(stderr, "bdf2pil: %s.\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "Wrote: %s\n", pil)
	fmt.Fprintf(stdout, "Wrote: %s\n", pbm)
	return 0
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
