// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package service exposes the print_text and clear operations over HTTP.
//
// Endpoints:
//
//	POST /services/print_text      draw text, see Request
//	POST /services/clear           blank displays, see ClearRequest
//	GET  /displays                 list the display names
//	GET  /displays/{name}/stream   MJPEG mirror of a videosink display
//	GET  /displays/{name}/snapshot single image of a videosink display
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/GermanBionicSystems/oled/dispatch"
	"github.com/GermanBionicSystems/oled/glyph"
)

// Printer executes print requests. *dispatch.Dispatcher implements it.
type Printer interface {
	PrintText(ctx context.Context, req dispatch.Request) error
	Clear(ctx context.Context, display string) error
	Names() []string
}

// Mirror serves the live image of a display. *videosink.Display implements
// it.
type Mirror interface {
	// ServeHTTP streams every frame.
	http.Handler
	// ServeSnapshot replies with the current frame.
	ServeSnapshot(w http.ResponseWriter, r *http.Request)
}

// Request is the JSON body of print_text. Pointer fields are required or
// have a default. Numbers and booleans may also be sent as strings.
type Request struct {
	X           *Int    `json:"x"`
	Y           *Int    `json:"y"`
	Text        *String `json:"text"`
	Clear       *Bool   `json:"clear"`
	FontSize    *Int    `json:"font_size"`
	DisplayName String  `json:"display_name"`
}

// ClearRequest is the JSON body of clear.
type ClearRequest struct {
	DisplayName String `json:"display_name"`
}

// maxBody bounds the size of a request body.
const maxBody = 64 << 10

// Timeout bounds the wait for the dispatcher.
var Timeout = 30 * time.Second

// Validate checks r and converts it to a dispatch request.
func (r *Request) Validate() (dispatch.Request, error) {
	var errs []error
	if r.X == nil {
		errs = append(errs, errors.New("x is required"))
	} else if *r.X < 0 {
		errs = append(errs, fmt.Errorf("x must be at least 0, got %d", *r.X))
	}
	if r.Y == nil {
		errs = append(errs, errors.New("y is required"))
	} else if *r.Y < 0 {
		errs = append(errs, fmt.Errorf("y must be at least 0, got %d", *r.Y))
	}
	if r.Text == nil {
		errs = append(errs, errors.New("text is required"))
	}
	if r.FontSize != nil && *r.FontSize <= 0 {
		errs = append(errs, fmt.Errorf("font_size must be positive, got %d", *r.FontSize))
	}
	if err := errors.Join(errs...); err != nil {
		return dispatch.Request{}, err
	}
	d := dispatch.Request{
		X:        int(*r.X),
		Y:        int(*r.Y),
		Text:     string(*r.Text),
		Clear:    true,
		FontSize: glyph.DefaultSize,
		Display:  string(r.DisplayName),
	}
	if r.Clear != nil {
		d.Clear = bool(*r.Clear)
	}
	if r.FontSize != nil {
		d.FontSize = int(*r.FontSize)
	}
	return d, nil
}

// Server is the HTTP handler of the service.
type Server struct {
	p       Printer
	mirrors map[string]Mirror
	mux     *http.ServeMux
}

var _ http.Handler = (*Server)(nil)

// New returns a Server. mirrors maps display names to their mirror, it may
// be nil.
func New(p Printer, mirrors map[string]Mirror) *Server {
	s := &Server{p: p, mirrors: mirrors, mux: http.NewServeMux()}
	s.mux.HandleFunc("/services/print_text", s.printText)
	s.mux.HandleFunc("/services/clear", s.clear)
	s.mux.HandleFunc("/displays", s.displays)
	s.mux.HandleFunc("/displays/", s.mirror)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// decode reads the JSON body of a POST into v. It replies to the client and
// returns false on failure.
func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "", http.StatusMethodNotAllowed)
		return false
	}
	b, err := io.ReadAll(io.LimitReader(r.Body, maxBody+1))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	if len(b) > maxBody {
		http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
		return false
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// reply maps the result of a dispatcher call to a status code.
func reply(w http.ResponseWriter, op string, err error) {
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, dispatch.ErrUnknownDisplay):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		http.Error(w, err.Error(), http.StatusGatewayTimeout)
	case errors.Is(err, dispatch.ErrClosed):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		log.Printf("service: %s: %v", op, err)
		http.Error(w, err.Error(), http.StatusBadGateway)
	}
}

func (s *Server) printText(w http.ResponseWriter, r *http.Request) {
	var req Request
	if !decode(w, r, &req) {
		return
	}
	d, err := req.Validate()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), Timeout)
	defer cancel()
	reply(w, "print_text", s.p.PrintText(ctx, d))
}

func (s *Server) clear(w http.ResponseWriter, r *http.Request) {
	var req ClearRequest
	if !decode(w, r, &req) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), Timeout)
	defer cancel()
	reply(w, "clear", s.p.Clear(ctx, string(req.DisplayName)))
}

func (s *Server) displays(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string][]string{"displays": s.p.Names()}); err != nil {
		log.Printf("service: displays: %v", err)
	}
}

// mirror serves /displays/{name}/stream and /displays/{name}/snapshot.
func (s *Server) mirror(w http.ResponseWriter, r *http.Request) {
	name, rest, ok := strings.Cut(strings.TrimPrefix(r.URL.Path, "/displays/"), "/")
	if !ok || name == "" || (rest != "stream" && rest != "snapshot") {
		http.NotFound(w, r)
		return
	}
	m := s.mirrors[name]
	if m == nil {
		http.Error(w, fmt.Sprintf("display %q has no mirror", name), http.StatusNotFound)
		return
	}
	if rest == "snapshot" {
		m.ServeSnapshot(w, r)
		return
	}
	m.ServeHTTP(w, r)
}
