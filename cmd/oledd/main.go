// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// oledd serves the print_text operation over HTTP for the displays listed in
// its configuration file.
//
// The configuration path and the listen address default to $OLED_CONFIG and
// $OLED_LISTEN, which can also be set in a .env file in the working
// directory. Flags override both.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"periph.io/x/host/v3"

	"github.com/GermanBionicSystems/oled/config"
	"github.com/GermanBionicSystems/oled/dispatch"
	"github.com/GermanBionicSystems/oled/panel"
	"github.com/GermanBionicSystems/oled/service"
)

func mainImpl() error {
	if err := config.LoadEnv(); err != nil {
		return err
	}
	cfgPath := flag.String("config", config.Getenv(config.EnvConfig, config.DefaultPath), "configuration file")
	listen := flag.String("listen", "", "HTTP listen address, overrides the configuration")
	flag.Parse()
	if flag.NArg() != 0 {
		return errors.New("unexpected argument, try -help")
	}
	log.SetFlags(log.Ldate | log.Lmicroseconds)

	f, err := config.Load(*cfgPath)
	if err != nil {
		return err
	}
	addr := *listen
	if addr == "" {
		addr = config.Getenv(config.EnvListen, f.Listen)
	}
	if _, err := host.Init(); err != nil {
		return err
	}

	set, err := panel.Build(f, nil)
	if err != nil {
		return err
	}
	// A display missing at startup is retried on its first draw.
	if err := set.Open(); err != nil {
		log.Printf("oledd: %v", err)
	}
	d := dispatch.New(set.Targets())
	mirrors := map[string]service.Mirror{}
	for n, s := range set.Sinks() {
		mirrors[n] = s
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           service.New(d, mirrors),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	log.Printf("oledd: serving %s on %s", set.Keys(), addr)

	select {
	case err = <-errc:
	case <-ctx.Done():
		log.Printf("oledd: shutting down")
		// Halting the sinks ends their streams so Shutdown doesn't wait on
		// them.
		for _, s := range set.Sinks() {
			_ = s.Halt()
		}
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = srv.Shutdown(sctx)
		cancel()
	}
	if errors.Is(err, http.ErrServerClosed) {
		err = nil
	}
	return errors.Join(err, d.Close(), set.Close())
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "oledd: %s.\n", err)
		os.Exit(1)
	}
}
