// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package videosink

import (
	"log"
	"net/http"
	"net/url"
)

func (d *Display) formatFromQuery(values url.Values) (ImageFormat, error) {
	if value := values.Get("format"); value != "" {
		return ParseImageFormat(value)
	}
	return d.defaultFormat, nil
}

// request validates r and returns the requested format. It replies to the
// client and returns false when r is not acceptable.
func (d *Display) request(w http.ResponseWriter, r *http.Request) (ImageFormat, bool) {
	if err := r.Body.Close(); err != nil {
		log.Printf("videosink: closing request body failed: %v", err)
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "", http.StatusMethodNotAllowed)
		return 0, false
	}
	f, err := d.formatFromQuery(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return 0, false
	}
	return f, true
}

// ServeHTTP handles HTTP GET requests and sends a stream of images
// representing the panel in response. The display options control the
// default format and clients can explicitly request an encoding using the
// "format" parameter ("?format=png", "?format=jpeg", "?format=raw").
func (d *Display) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f, ok := d.request(w, r)
	if !ok {
		return
	}
	s := newStream(w)
	for {
		b, changed, halted, err := d.current(f)
		if err != nil {
			log.Printf("videosink: encoding %s failed: %v", f, err)
			if s.frames == 0 {
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
			return
		}
		if r.Method == http.MethodHead {
			return
		}
		// Errors end the request silently. There's no good way to deliver an
		// error message to the client within an image stream.
		if err := s.frame(f.mimeType(), b); err != nil {
			return
		}
		select {
		case <-changed:
		case <-halted:
			return
		case <-r.Context().Done():
			return
		}
	}
}

// ServeSnapshot replies with a single image of the current frame.
func (d *Display) ServeSnapshot(w http.ResponseWriter, r *http.Request) {
	f, ok := d.request(w, r)
	if !ok {
		return
	}
	b, _, _, err := d.current(f)
	if err != nil {
		log.Printf("videosink: encoding %s failed: %v", f, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if r.Method == http.MethodHead {
		w.Header().Set("Content-Type", f.mimeType())
		return
	}
	if err := writeImage(w, f.mimeType(), b); err != nil {
		log.Printf("videosink: snapshot: %v", err)
	}
}
