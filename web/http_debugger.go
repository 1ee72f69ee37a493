package web

import (
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/guslan/chip8"
)

const debuggerBacklog = 64

// HttpDebugger streams the registers after every SendEvery cycles.
// Snapshots are dropped while no client keeps up, the cpu never waits.
type HttpDebugger struct {
	SendEvery uint

	logger  *slog.Logger
	send    chan chip8.State
	dropped atomic.Uint64
}

// NewHttpDebugger registers an after-cycle hook on the cpu
func NewHttpDebugger(cpu *chip8.Cpu, logger *slog.Logger) *HttpDebugger {
	deb := &HttpDebugger{
		SendEvery: 1,
		logger:    logger,
		send:      make(chan chip8.State, debuggerBacklog),
	}

	cpu.AddAfterCycleHook(deb.afterCycle)

	return deb
}

func (d *HttpDebugger) afterCycle(cpu *chip8.Cpu) {
	if d.SendEvery > 1 && cpu.Cycles()%d.SendEvery != 0 {
		return
	}

	select {
	case d.send <- cpu.State():
	default:
		d.dropped.Add(1)
	}
}

// Dropped counts the snapshots nobody was there to receive
func (d *HttpDebugger) Dropped() uint64 {
	return d.dropped.Load()
}

func (d *HttpDebugger) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		d.logger.Warn("upgrade failed", slog.Any("error", err))
		return
	}
	defer conn.Close()

	d.logger.Info("connecting to debugger", slog.String("remote", r.RemoteAddr))

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case state := <-d.send:
			if err := conn.WriteMessage(websocket.BinaryMessage, formatAsEvent(state)); err != nil {
				d.logger.Warn("error writing debugger message", slog.Any("error", err))
				return
			}

		case <-closed:
			d.logger.Info("disconnecting from debugger", slog.String("remote", r.RemoteAddr))
			return

		case <-r.Context().Done():
			return
		}
	}
}

// formatAsEvent lays the registers out big endian:
// opcode, pc, V0..VF, I, sp, stack, dt, st, screen width, screen height
func formatAsEvent(s chip8.State) []byte {
	buf := make([]byte, 0, 2+2+16+2+1+2*chip8.StackSize+2+2)

	buf = append(buf, byte(s.OpCode>>8), byte(s.OpCode))
	buf = append(buf, byte(s.Pc>>8), byte(s.Pc))
	buf = append(buf, s.V[:]...)
	buf = append(buf, byte(s.I>>8), byte(s.I))
	buf = append(buf, s.Sp)
	for _, addr := range s.Stack {
		buf = append(buf, byte(addr>>8), byte(addr))
	}
	buf = append(buf, s.Dt, s.St)
	buf = append(buf, chip8.ScreenWidth, chip8.ScreenHeight)

	return buf
}
