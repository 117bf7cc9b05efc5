// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package ssd1306 controls a monochrome OLED display via a SSD1306 or SH1106
// controller over I²C. The driver automatically detects the variant and
// adjusts accordingly.
//
// Unlike a differential driver, every update sends the full frame. Partial
// writes are not relied upon, so the panel always shows exactly the last
// image given to Display, Draw or Write.
//
// The image can be rotated by quarter turns. The rotation happens in
// software when the frame is built, Bounds reports the rotated size.
//
// Some boards expose a RES / Reset pin. If present, it must be normally be
// High. Passing it in Opts pulses it before the controller is initialized.
//
// # Datasheets
//
//   - SSD1306: https://cdn-shop.adafruit.com/datasheets/SSD1306.pdf
//   - SH1106: https://cdn.velleman.eu/downloads/29/infosheets/sh1106_datasheet.pdf
package ssd1306
