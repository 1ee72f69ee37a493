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
	"syscall"

	"github.com/guslan/chip8/launcher"
	"github.com/guslan/chip8/terminal"
)

func main() {
	opts := launcher.NewOptions()
	opts.Register(flag.CommandLine)
	device := flag.String("tty", terminal.DefaultDevice, "The terminal keys are read from.")
	hold := flag.Duration("hold", terminal.DefaultHoldWindow, "How long a key stays down after the terminal last reported it.")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := launcher.Run(ctx, opts, flag.Args(), func(m *launcher.Machine) (launcher.Frontend, error) {
		term := terminal.New(func(config *terminal.Config) {
			config.Device = *device
			config.HoldWindow = *hold
		})

		return launcher.Frontend{
			Display:  term,
			Keyboard: term,
			Buzzer:   term,
			Close:    term.Close,
		}, nil
	})
	stop()

	os.Exit(code)
}
