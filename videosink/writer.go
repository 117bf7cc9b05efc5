// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package videosink

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"mime"
	"net/http"
	"strconv"
)

// randomBoundary generates a MIME multipart boundary compatible with RFC 2046
// (section 5.1.1).
func randomBoundary() string {
	var buf [30]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(buf[:])
}

// stream sends frames as a never ending multipart/x-mixed-replace response.
//
// mime/multipart.Writer only writes the boundary line that ends a part when
// the next part starts, so a client would always be one frame late.
type stream struct {
	w        http.ResponseWriter
	flusher  http.Flusher
	boundary string
	frames   int
}

// newStream sets the response headers. Nothing is written until the first
// frame.
func newStream(w http.ResponseWriter) *stream {
	s := &stream{w: w, boundary: randomBoundary()}
	s.flusher, _ = w.(http.Flusher)
	h := w.Header()
	h.Set("Content-Type", mime.FormatMediaType("multipart/x-mixed-replace", map[string]string{"boundary": s.boundary}))
	h.Set("Cache-Control", "no-store")
	return s
}

// frame sends body as the next part, followed by the boundary, and flushes it
// to the client.
func (s *stream) frame(mimeType string, body []byte) error {
	var b bytes.Buffer
	if s.frames == 0 {
		fmt.Fprintf(&b, "--%s\r\n", s.boundary)
	}
	fmt.Fprintf(&b, "Content-Type: %s\r\nContent-Length: %d\r\n\r\n", mimeType, len(body))
	b.Write(body)
	fmt.Fprintf(&b, "\r\n--%s\r\n", s.boundary)
	if _, err := b.WriteTo(s.w); err != nil {
		return err
	}
	s.frames++
	if s.flusher != nil {
		s.flusher.Flush()
	}
	return nil
}

// writeImage sends body as a single image response.
func writeImage(w http.ResponseWriter, mimeType string, body []byte) error {
	h := w.Header()
	h.Set("Content-Type", mimeType)
	h.Set("Content-Length", strconv.Itoa(len(body)))
	h.Set("Cache-Control", "no-store")
	_, err := w.Write(body)
	return err
}
