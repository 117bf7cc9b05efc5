// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Environment variables providing defaults for the command line flags.
const (
	EnvConfig = "OLED_CONFIG"
	EnvListen = "OLED_LISTEN"
)

// DefaultPath is the configuration file used when none is given.
const DefaultPath = "/etc/oled/config.yaml"

// LoadEnv loads the given dotenv files, or ".env" when none is given.
// Missing files are skipped; variables already set are kept.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// Getenv returns the value of key, or def when it is unset or empty.
func Getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
