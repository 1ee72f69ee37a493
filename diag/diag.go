// Package diag holds optional diagnostics: a live runtime dashboard and a
// graphviz dump of the machine state.
package diag

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/bradleyjkemp/memviz"
	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
	"github.com/guslan/chip8"
)

const (
	StatsViewAddr = "localhost:12600"
	statsViewURL  = "/debug/statsview"
)

// LaunchStatsView serves the go runtime charts in a new goroutine
func LaunchStatsView(addr string, logger *slog.Logger) {
	if addr == "" {
		addr = StatsViewAddr
	}
	if logger == nil {
		logger = slog.Default()
	}

	go func() {
		viewer.SetConfiguration(viewer.WithAddr(addr))
		mgr := statsview.New()
		mgr.Start()
	}()

	logger.Info("stats server available", slog.String("url", fmt.Sprintf("http://%s%s", addr, statsViewURL)))
}

// snapshot is what gets drawn. Memory is left out, four thousand nodes
// make an unreadable graph.
type snapshot struct {
	Instruction string
	State       *chip8.State
	Keys        *chip8.KeypadState
}

// WriteStateGraph writes the registers of the cpu as a graphviz digraph
func WriteStateGraph(w io.Writer, cpu *chip8.Cpu) {
	state := cpu.State()
	keys := cpu.Keys

	memviz.Map(w, &snapshot{
		Instruction: state.Instruction().String(),
		State:       &state,
		Keys:        &keys,
	})
}

func WriteStateGraphFile(path string, cpu *chip8.Cpu) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	WriteStateGraph(f, cpu)

	return f.Close()
}
