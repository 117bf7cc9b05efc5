// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// oledprint prints text once on the configured displays.
//
// Usage:
//
//	oledprint [-display name] [-x 0] [-y 0] [-size 10] [-clear=false] [-png out.png] text...
//
// With -png, the frame of every drawn display is also saved as an enlarged
// preview image. When several displays are drawn, the display name is
// appended to the file name.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"periph.io/x/host/v3"

	"github.com/GermanBionicSystems/oled/config"
	"github.com/GermanBionicSystems/oled/dispatch"
	"github.com/GermanBionicSystems/oled/glyph"
	"github.com/GermanBionicSystems/oled/panel"
	"github.com/GermanBionicSystems/oled/preview"
)

// snapshotPath returns the preview file of display name.
func snapshotPath(path, name string, several bool) string {
	if !several {
		return path
	}
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "-" + name + ext
}

func mainImpl() error {
	if err := config.LoadEnv(); err != nil {
		return err
	}
	cfgPath := flag.String("config", config.Getenv(config.EnvConfig, config.DefaultPath), "configuration file")
	name := flag.String("display", "", "display to draw on, all when empty")
	x := flag.Int("x", 0, "left edge of the text")
	y := flag.Int("y", 0, "top edge of the text")
	size := flag.Int("size", glyph.DefaultSize, "font size")
	blank := flag.Bool("clear", true, "start from a blank frame")
	png := flag.String("png", "", "save a preview of the frame to this PNG file")
	scale := flag.Int("scale", preview.DefaultOptions.Scale, "preview pixel size")
	flag.Parse()
	if flag.NArg() == 0 {
		return errors.New("specify the text to print, try -help")
	}
	if *x < 0 || *y < 0 || *size <= 0 || *scale < 1 {
		return errors.New("-x and -y must be at least 0, -size and -scale positive")
	}

	f, err := config.Load(*cfgPath)
	if err != nil {
		return err
	}
	if _, err := host.Init(); err != nil {
		return err
	}
	set, err := panel.Build(f, nil)
	if err != nil {
		return err
	}
	d := dispatch.New(set.Targets())
	defer d.Close()
	err = d.PrintText(context.Background(), dispatch.Request{
		X:        *x,
		Y:        *y,
		Text:     strings.Join(flag.Args(), " "),
		Clear:    *blank,
		FontSize: *size,
		Display:  *name,
	})
	if err != nil {
		return err
	}

	if *png != "" {
		names := set.Keys()
		if *name != "" {
			names = []string{*name}
		}
		for _, n := range names {
			buf := set.Panels[n].Surface.Buffer()
			if buf == nil {
				continue
			}
			p := snapshotPath(*png, n, len(names) > 1)
			if err := preview.SavePNG(p, buf, &preview.Options{Scale: *scale}); err != nil {
				return err
			}
			fmt.Printf("Wrote: %s\n", p)
		}
	}
	return nil
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "oledprint: %s.\n", err)
		os.Exit(1)
	}
}
