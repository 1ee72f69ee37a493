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
	"time"

	"github.com/guslan/chip8/launcher"
	"github.com/guslan/chip8/web"
)

func main() {
	opts := launcher.NewOptions()
	opts.Register(flag.CommandLine)
	addr := flag.String("addr", web.DefaultAddr, "The address the server listens on.")
	static := flag.String("static", "", "A directory with the page that connects to /display.")
	debugger := flag.Bool("debugger", false, "Stream the state of the machine at /debugger.")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := launcher.Run(ctx, opts, flag.Args(), func(m *launcher.Machine) (launcher.Frontend, error) {
		server := web.NewServer(m.Cpu, func(config *web.ServerConfig) {
			config.Addr = *addr
			config.StaticDir = *static
			config.UseDebugger = *debugger
			config.Logger = m.Logger
		})

		return launcher.Frontend{
			Display:  server,
			Keyboard: server,
			Buzzer:   server,
			Close: func() error {
				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()

				return server.Close(ctx)
			},
		}, nil
	})
	stop()

	os.Exit(code)
}
