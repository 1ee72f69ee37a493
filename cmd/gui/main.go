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

	"github.com/guslan/chip8/gui"
	"github.com/guslan/chip8/launcher"
)

func init() {
	// raylib has to stay on the main thread
	runtime.LockOSThread()
}

func main() {
	opts := launcher.NewOptions()
	opts.Register(flag.CommandLine)
	fps := flag.Int("fps", gui.DefaultFrameRate, "How many times per second the window is repainted.")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := launcher.Run(ctx, opts, flag.Args(), func(m *launcher.Machine) (launcher.Frontend, error) {
		app := gui.NewApp(func(config *gui.AppConfig) {
			config.FrameRate = *fps
			config.Tone = m.Tone
			config.Logger = m.Logger
		})

		return launcher.Frontend{
			Display:  app,
			Keyboard: app,
			Buzzer:   app,
			Stats:    app,
			Close:    app.Close,
			OnError: func(err error) {
				app.ShowError(ctx, err)
			},
		}, nil
	})
	stop()

	os.Exit(code)
}
