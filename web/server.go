// Package web exposes the machine to a browser: the frame buffer and the tone
// go out over a websocket, the keypad comes back over the same socket.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/guslan/chip8"
)

const DefaultAddr = "localhost:8080"

type ServerConfig struct {
	Addr string
	// StaticDir is served at / when set
	StaticDir   string
	UseDebugger bool
	Logger      *slog.Logger
}
type ServerConfigCb func(config *ServerConfig)

// Server is the Display, Keyboard and Buzzer of a browser session
type Server struct {
	config   ServerConfig
	logger   *slog.Logger
	debugger *HttpDebugger

	keys atomic.Uint32
	quit atomic.Bool

	socket  *websocket.Conn
	wsMutex sync.Mutex

	mux    *http.ServeMux
	srv    *http.Server
	booted bool
}

// NewServer builds the routes. The cpu is only used when the debugger is enabled.
func NewServer(cpu *chip8.Cpu, configs ...ServerConfigCb) *Server {
	config := ServerConfig{
		Addr:        DefaultAddr,
		UseDebugger: false,
	}
	for _, cb := range configs {
		cb(&config)
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		config: config,
		logger: logger,
		mux:    http.NewServeMux(),
	}

	if config.UseDebugger && cpu != nil {
		s.debugger = NewHttpDebugger(cpu, logger)
		s.mux.Handle("/debugger", s.debugger)
	}
	if config.StaticDir != "" {
		s.mux.Handle("/", http.FileServer(http.Dir(config.StaticDir)))
	}
	s.mux.HandleFunc("/display", s.handleDisplay)
	s.mux.HandleFunc("/quit", s.handleQuit)

	return s
}

func (server *Server) Handler() http.Handler {
	return server.mux
}

func (server *Server) Debugger() *HttpDebugger {
	return server.debugger
}

// Boot starts listening. It is safe to call once per role the server plays.
func (server *Server) Boot() error {
	if server.booted {
		return nil
	}

	ln, err := net.Listen("tcp", server.config.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", server.config.Addr, err)
	}

	server.srv = &http.Server{
		Handler:           server.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			server.logger.Error("http server stopped", slog.Any("error", err))
			server.quit.Store(true)
		}
	}()

	server.logger.Info("listening", slog.String("addr", ln.Addr().String()))
	server.booted = true

	return nil
}

// Close stops accepting connections and drops the open ones
func (server *Server) Close(ctx context.Context) error {
	server.wsMutex.Lock()
	if server.socket != nil {
		server.socket.Close()
		server.socket = nil
	}
	server.wsMutex.Unlock()

	if server.srv == nil {
		return nil
	}

	return server.srv.Shutdown(ctx)
}

func (server *Server) handleQuit(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Cache-Control", "no-cache")

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	server.logger.Info("quit requested from the browser")
	server.quit.Store(true)
	w.WriteHeader(http.StatusNoContent)
}

// Poll implements chip8.Keyboard.
func (server *Server) Poll() bool {
	return server.quit.Load()
}

// State implements chip8.Keyboard.
func (server *Server) State() chip8.KeypadState {
	return chip8.KeypadStateFromMask(uint16(server.keys.Load()))
}
