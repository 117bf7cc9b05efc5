// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package dispatch routes print and clear requests to named displays.
//
// A Dispatcher owns a single worker goroutine. Every request is executed by
// it, so a display is never drawn on from two goroutines and the caller
// doesn't block on the bus beyond waiting for its own result. A request
// without a display name is sent to every display one after the other; a
// failing display doesn't prevent the next ones from being drawn.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
)

// ErrUnknownDisplay is returned when a request names a display that is not
// registered.
var ErrUnknownDisplay = errors.New("dispatch: unknown display")

// ErrClosed is returned by PrintText and Clear after Close.
var ErrClosed = errors.New("dispatch: closed")

// Target is a display that can draw text. *surface.Surface implements it.
type Target interface {
	DrawText(x, y int, text string, clear bool, size int) error
	Clear() error
}

// Request is one print_text call.
type Request struct {
	X, Y     int
	Text     string
	Clear    bool
	FontSize int
	// Display selects one display by name. Empty means every display.
	Display string
}

// job runs do on one display, or on every display when display is empty.
type job struct {
	display string
	do      func(Target) error
	res     chan error
}

// Dispatcher serializes print requests onto its displays.
type Dispatcher struct {
	targets map[string]Target
	names   []string

	jobs chan job
	done chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// New starts a Dispatcher over targets. The map must not be modified
// afterward.
func New(targets map[string]Target) *Dispatcher {
	d := &Dispatcher{
		targets: targets,
		names:   make([]string, 0, len(targets)),
		jobs:    make(chan job),
		done:    make(chan struct{}),
	}
	for n := range targets {
		d.names = append(d.names, n)
	}
	sort.Strings(d.names)
	d.wg.Add(1)
	go d.run()
	return d
}

// Names returns the sorted display names.
func (d *Dispatcher) Names() []string {
	return append([]string(nil), d.names...)
}

// PrintText executes req on the worker and waits for its result.
//
// An unknown display name is logged and nothing is drawn. When several
// displays fail, the returned error joins all their errors. ctx only bounds
// the wait; a request already handed to the worker runs to completion.
func (d *Dispatcher) PrintText(ctx context.Context, req Request) error {
	return d.submit(ctx, req.Display, func(t Target) error {
		return t.DrawText(req.X, req.Y, req.Text, req.Clear, req.FontSize)
	})
}

// Clear blanks the named display, or every display when display is empty.
// Errors are reported like PrintText's.
func (d *Dispatcher) Clear(ctx context.Context, display string) error {
	return d.submit(ctx, display, Target.Clear)
}

func (d *Dispatcher) submit(ctx context.Context, display string, do func(Target) error) error {
	if display != "" {
		if _, ok := d.targets[display]; !ok {
			log.Printf("dispatch: display %q not found. Available displays: %s", display, strings.Join(d.names, ", "))
			return fmt.Errorf("%w %q", ErrUnknownDisplay, display)
		}
	}
	j := job{display: display, do: do, res: make(chan error, 1)}
	select {
	case d.jobs <- j:
	case <-d.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-j.res:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the worker once the current request is done.
func (d *Dispatcher) Close() error {
	d.once.Do(func() { close(d.done) })
	d.wg.Wait()
	return nil
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for {
		select {
		case j := <-d.jobs:
			j.res <- d.fanOut(j)
		case <-d.done:
			return
		}
	}
}

func (d *Dispatcher) fanOut(j job) error {
	names := d.names
	if j.display != "" {
		names = []string{j.display}
	}
	var errs []error
	for _, n := range names {
		if err := j.do(d.targets[n]); err != nil {
			log.Printf("dispatch: %s: %v", n, err)
			errs = append(errs, fmt.Errorf("%s: %w", n, err))
		}
	}
	return errors.Join(errs...)
}
