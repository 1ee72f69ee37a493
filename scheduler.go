package chip8

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

var ErrSchedulerIsNotBooted = errors.New("the scheduler has not been booted properly")

// clock is a deadline that moves forward by a fixed period every time it fires.
// Advancing from the old deadline rather than from now keeps long runs from drifting.
type clock struct {
	deadline time.Time
	period   time.Duration
}

func (c clock) due(now time.Time) bool {
	return now.After(c.deadline)
}

func (c *clock) advance() {
	c.deadline = c.deadline.Add(c.period)
}

// Scheduler drives the CPU, the timers and the statistics from a single
// wall clock. It owns the Cpu; nothing else may mutate it while Run is active.
type Scheduler struct {
	Cpu      *Cpu
	Display  Display
	Keyboard Keyboard
	Buzzer   Buzzer
	Stats    StatsReporter

	// Now and Sleep are replaced in tests
	Now   func() time.Time
	Sleep func(time.Duration)

	config Config
	logger *slog.Logger

	isBooted bool
	started  bool

	cpuClock   clock
	timerClock clock
	statsClock clock

	playing    bool
	cpuCycles  uint
	timerTicks uint

	lastUnknown *ErrOpCodeUnknown
}

func NewScheduler(cpu *Cpu, display Display, keyboard Keyboard, buzzer Buzzer, configs ...ConfigCb) (*Scheduler, error) {
	config := NewConfig(configs...)
	if err := config.Validate(); err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		Cpu:      cpu,
		Display:  display,
		Keyboard: keyboard,
		Buzzer:   buzzer,
		Stats:    NewSlogStatsReporter(logger),

		Now:   time.Now,
		Sleep: time.Sleep,

		config: config,
		logger: logger,
	}, nil
}

func (s Scheduler) Config() Config {
	return s.config
}

// Boot initializes all the collaborators.
// If the scheduler was already booted, this method is a noop
func (s *Scheduler) Boot() error {
	if s.isBooted {
		return nil
	}

	if err := s.Display.Boot(); err != nil {
		return fmt.Errorf("booting display: %w", err)
	}

	if err := s.Keyboard.Boot(); err != nil {
		return fmt.Errorf("booting keyboard: %w", err)
	}

	if err := s.Buzzer.Boot(); err != nil {
		return fmt.Errorf("booting buzzer: %w", err)
	}

	s.isBooted = true

	return nil
}

// Start sets every clock relative to now. Step calls it on first use.
func (s *Scheduler) Start(now time.Time) {
	s.cpuClock = clock{deadline: now, period: s.config.CpuPeriod()}
	s.timerClock = clock{deadline: now, period: s.config.TimerPeriod()}
	s.statsClock = clock{deadline: now.Add(s.config.StatsPeriod), period: s.config.StatsPeriod}
	s.cpuCycles = 0
	s.timerTicks = 0
	s.started = true
}

// Step runs one iteration of the loop at the given time.
// It returns true when the keyboard asked to quit.
func (s *Scheduler) Step(now time.Time) (bool, error) {
	if !s.started {
		s.Start(now)
	}

	if s.Keyboard.Poll() {
		return true, nil
	}

	if s.cpuClock.due(now) {
		if err := s.cycle(); err != nil {
			return false, err
		}
		s.cpuClock.advance()
		s.cpuCycles++
	}

	if s.timerClock.due(now) {
		s.Cpu.TickTimers()
		s.timerClock.advance()
		s.timerTicks++
	}

	if s.Cpu.ShouldRedraw() {
		if err := s.Display.Render(s.Cpu.Screen); err != nil {
			return false, fmt.Errorf("rendering: %w", err)
		}
		s.Cpu.ClearRedraw()
	}

	s.Cpu.Keys = s.Keyboard.State()

	s.updateTone()

	if s.statsClock.due(now) {
		s.Stats.Report(Stats{
			CpuCycles:  s.cpuCycles,
			TimerTicks: s.timerTicks,
			Period:     s.statsClock.period,
		})
		s.cpuCycles = 0
		s.timerTicks = 0
		s.statsClock.advance()
	}

	return false, nil
}

func (s *Scheduler) cycle() error {
	err := s.Cpu.Cycle()
	if err == nil {
		return nil
	}

	var unknown ErrOpCodeUnknown
	if !errors.As(err, &unknown) {
		return fmt.Errorf("cycle at PC=%03X: %w", s.Cpu.Pc, err)
	}

	// The PC does not move past unknown opcodes so the same one comes back
	// every cycle; only the first occurrence is worth a warning.
	if s.lastUnknown != nil && *s.lastUnknown == unknown {
		s.logger.Debug("unknown opcode", slog.Any("error", err))
	} else {
		s.logger.Warn("unknown opcode", slog.Any("error", err))
		s.lastUnknown = &unknown
	}

	return nil
}

// updateTone forwards only the edges of the sound timer being positive
func (s *Scheduler) updateTone() {
	active := s.Cpu.IsSoundTimerActive()

	if active && !s.playing {
		s.Buzzer.Play()
		s.playing = true
	}
	if !active && s.playing {
		s.Buzzer.Stop()
		s.playing = false
	}
}

// nextDeadline is the earliest moment the CPU or the timers need attention
func (s Scheduler) nextDeadline() time.Time {
	next := s.cpuClock.deadline
	if s.timerClock.deadline.Before(next) {
		next = s.timerClock.deadline
	}
	return next
}

// Run loops until the keyboard asks to quit, the context is done or a cycle fails.
// A quit request returns nil; a done context returns its error.
func (s *Scheduler) Run(ctx context.Context) error {
	if !s.isBooted {
		return ErrSchedulerIsNotBooted
	}

	defer func() {
		if s.playing {
			s.Buzzer.Stop()
			s.playing = false
		}
	}()

	s.logger.Info("starting scheduler",
		slog.Uint64("speed_hz", uint64(s.config.Speed)),
		slog.Uint64("timer_hz", uint64(TimerFrequency)),
		slog.Duration("stats_period", s.config.StatsPeriod),
	)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		now := s.Now()
		quit, err := s.Step(now)
		if err != nil {
			return err
		}
		if quit {
			s.logger.Info("quit requested")
			return nil
		}

		if s.config.MaxIdle > 0 {
			if wait := s.nextDeadline().Sub(s.Now()); wait > 0 {
				s.Sleep(min(wait, s.config.MaxIdle))
			}
		}
	}
}
