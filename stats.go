package chip8

import (
	"log/slog"
	"time"
)

// Stats counts what happened during one statistics period
type Stats struct {
	CpuCycles  uint
	TimerTicks uint
	Period     time.Duration
}

func (s Stats) CpuHz() float64 {
	return rate(s.CpuCycles, s.Period)
}

func (s Stats) TimerHz() float64 {
	return rate(s.TimerTicks, s.Period)
}

func rate(n uint, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(n) / d.Seconds()
}

type StatsReporter interface {
	Report(Stats)
}

type StatsReporterFunc func(Stats)

func (f StatsReporterFunc) Report(s Stats) {
	f(s)
}

// SlogStatsReporter writes one log line per period
type SlogStatsReporter struct {
	Logger *slog.Logger
}

func NewSlogStatsReporter(logger *slog.Logger) *SlogStatsReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogStatsReporter{Logger: logger}
}

func (r *SlogStatsReporter) Report(s Stats) {
	r.Logger.Info("clock rates",
		slog.Int("sound_delay_hz", int(s.TimerHz())),
		slog.Int("cpu_hz", int(s.CpuHz())),
		slog.Duration("period", s.Period),
	)
}

type MultiStatsReporter []StatsReporter

func (m MultiStatsReporter) Report(s Stats) {
	for _, r := range m {
		r.Report(s)
	}
}
