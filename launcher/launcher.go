// Package launcher is the part of every command that does not depend on the
// front-end: flags, logging, the ROM, the tone, the scheduler and exit codes.
package launcher

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/guslan/chip8"
	"github.com/guslan/chip8/diag"
	"github.com/guslan/chip8/tone"
	"github.com/guslan/chip8/wavrec"
)

// Exit codes
const (
	ExitOk = iota
	// ExitUsage covers bad flags, a missing or unreadable ROM and a ROM too large
	ExitUsage
	// ExitFrontend is a front-end that could not be created or booted
	ExitFrontend
	// ExitRuntime is a cycle that failed while running
	ExitRuntime
)

type Options struct {
	Speed       uint
	StatsPeriod time.Duration
	Debug       bool
	Trace       bool
	// Beep is a .wav or .mp3 played instead of the square wave
	Beep string
	// Record is a .wav file the session's tone is written to
	Record string
	// MemViz is a graphviz file the final registers are written to
	MemViz    string
	StatsView bool

	// LogOutput defaults to os.Stderr
	LogOutput io.Writer
}

func NewOptions() *Options {
	return &Options{
		Speed:       chip8.DefaultSpeed,
		StatsPeriod: chip8.DefaultStatsPeriod,
	}
}

// Register adds the flags shared by every command
func (o *Options) Register(fs *flag.FlagSet) {
	fs.UintVar(&o.Speed, "speed", o.Speed, fmt.Sprintf("The speed of the CPU in Hz. It has to be in the range [%d, %d].", chip8.MinSpeed, chip8.MaxSpeed))
	fs.DurationVar(&o.StatsPeriod, "stats", o.StatsPeriod, "How often the measured clock rates are reported.")
	fs.BoolVar(&o.Debug, "debug", o.Debug, "Show debug information.")
	fs.BoolVar(&o.Trace, "trace", o.Trace, "Log every executed instruction, implies -debug.")
	fs.StringVar(&o.Beep, "beep", o.Beep, "A .wav or .mp3 file to play instead of the square wave.")
	fs.StringVar(&o.Record, "record", o.Record, "Write the tone of the session to this .wav file.")
	fs.StringVar(&o.MemViz, "memviz", o.MemViz, "Write the final registers to this graphviz file.")
	fs.BoolVar(&o.StatsView, "statsview", o.StatsView, fmt.Sprintf("Serve runtime charts at %s.", diag.StatsViewAddr))
}

// Frontend is what a command plugs into the scheduler
type Frontend struct {
	Display  chip8.Display
	Keyboard chip8.Keyboard
	Buzzer   chip8.Buzzer

	// Optional
	Stats   chip8.StatsReporter
	Close   func() error
	OnError func(error)
}

// Machine is handed to the front-end factory
type Machine struct {
	Cpu    *chip8.Cpu
	Tone   tone.Source
	Logger *slog.Logger
}

type FrontendFactory func(m *Machine) (Frontend, error)

// NewLogger writes text logs, at debug level when asked for
func NewLogger(o *Options) *slog.Logger {
	out := o.LogOutput
	if out == nil {
		out = os.Stderr
	}

	level := slog.LevelInfo
	if o.Debug || o.Trace {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
}

// LoadTone returns the configured beep, a fresh source on every call
func LoadTone(o *Options) (tone.Source, error) {
	if o.Beep == "" {
		return tone.NewDefaultSquareWave(), nil
	}

	return tone.LoadSample(o.Beep, tone.SampleRate)
}

// Run runs one session and returns the process exit code
func Run(ctx context.Context, o *Options, args []string, factory FrontendFactory) int {
	logger := NewLogger(o)
	slog.SetDefault(logger)

	config := chip8.NewConfig(
		chip8.WithSpeed(o.Speed),
		chip8.WithStatsPeriod(o.StatsPeriod),
		chip8.WithLogger(logger),
	)
	if err := config.Validate(); err != nil {
		logger.Error("invalid options", slog.Any("error", err))
		return ExitUsage
	}

	if len(args) != 1 {
		logger.Error("invalid arguments", slog.Any("error", chip8.ErrMissingRom), slog.Int("args", len(args)))
		return ExitUsage
	}

	program, err := chip8.ReadRom(args[0])
	if err != nil {
		logger.Error("error loading program", slog.String("path", args[0]), slog.Any("error", err))
		return ExitUsage
	}

	cpu := chip8.NewCpu(nil)
	if err := cpu.LoadProgram(program); err != nil {
		logger.Error("error loading program", slog.String("path", args[0]), slog.Any("error", err))
		return ExitUsage
	}
	logger.Info("program loaded", slog.String("path", args[0]), slog.Int("size", len(program)))

	if o.Trace {
		cpu.AddAfterCycleHook(func(cpu *chip8.Cpu) {
			logger.Debug("cycle", slog.String("state", cpu.State().String()))
		})
	}

	source, err := LoadTone(o)
	if err != nil {
		logger.Error("error loading beep", slog.Any("error", err))
		return ExitUsage
	}
	// the recorder gets its own source so both keep their own phase
	var recSource tone.Source
	if o.Record != "" {
		if recSource, err = LoadTone(o); err != nil {
			logger.Error("error loading beep for the recording", slog.Any("error", err))
			return ExitUsage
		}
	}

	fe, err := factory(&Machine{Cpu: cpu, Tone: source, Logger: logger})
	if err != nil {
		logger.Error("error creating front-end", slog.Any("error", err))
		return ExitFrontend
	}
	if fe.Close != nil {
		defer func() {
			if err := fe.Close(); err != nil {
				logger.Warn("error closing front-end", slog.Any("error", err))
			}
		}()
	}

	buzzer := fe.Buzzer
	var recorder *wavrec.Recorder
	if o.Record != "" {
		recorder = wavrec.NewRecorder(recSource, tone.SampleRate)
		buzzer = chip8.MultiBuzzer{fe.Buzzer, recorder}
	}

	scheduler, err := chip8.NewScheduler(cpu, fe.Display, fe.Keyboard, buzzer,
		chip8.WithSpeed(o.Speed),
		chip8.WithStatsPeriod(o.StatsPeriod),
		chip8.WithLogger(logger),
	)
	if err != nil {
		logger.Error("invalid options", slog.Any("error", err))
		return ExitUsage
	}
	if fe.Stats != nil {
		scheduler.Stats = chip8.MultiStatsReporter{scheduler.Stats, fe.Stats}
	}

	if err := scheduler.Boot(); err != nil {
		logger.Error("error booting front-end", slog.Any("error", err))
		return ExitFrontend
	}

	if o.StatsView {
		diag.LaunchStatsView(diag.StatsViewAddr, logger)
	}

	err = scheduler.Run(ctx)

	if recorder != nil {
		if err := recorder.WriteFile(o.Record); err != nil {
			logger.Warn("error writing recording", slog.Any("error", err))
		} else {
			logger.Info("tone recorded", slog.String("path", o.Record), slog.Int("beeps", recorder.Beeps()))
		}
	}
	if o.MemViz != "" {
		if err := diag.WriteStateGraphFile(o.MemViz, cpu); err != nil {
			logger.Warn("error writing state graph", slog.Any("error", err))
		}
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("machine stopped", slog.Any("error", err), slog.String("state", cpu.State().String()))
		logger.Debug("memory at failure", slog.String("memory", cpu.Memory.String()))
		if fe.OnError != nil {
			fe.OnError(err)
		}
		return ExitRuntime
	}

	logger.Info("bye", slog.Uint64("cycles", uint64(cpu.Cycles())))

	return ExitOk
}
