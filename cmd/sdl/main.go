/*
 *   Copyright (c) 2024 Gustavo Lopez <git.gustavolopez.xyz@gmail.com>
 *   All rights reserved.
 */
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/guslan/chip8/launcher"
	"github.com/guslan/chip8/sdlwindow"
)

func init() {
	// SDL has to stay on the main thread
	runtime.LockOSThread()
}

func main() {
	opts := launcher.NewOptions()
	opts.Register(flag.CommandLine)
	scale := flag.Int("scale", sdlwindow.DefaultScale, "Size in screen pixels of a single CHIP-8 pixel.")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := launcher.Run(ctx, opts, flag.Args(), func(m *launcher.Machine) (launcher.Frontend, error) {
		w := sdlwindow.New(func(config *sdlwindow.Config) {
			config.Scale = int32(*scale)
			config.Tone = m.Tone
			config.Logger = m.Logger
		})

		return launcher.Frontend{
			Display:  w,
			Keyboard: w,
			Buzzer:   w,
			Close:    w.Close,
		}, nil
	})
	stop()

	os.Exit(code)
}
