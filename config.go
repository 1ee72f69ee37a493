package chip8

import (
	"fmt"
	"log/slog"
	"time"
)

const (
	DefaultSpeed uint = 500
	MaxSpeed     uint = 2000
	MinSpeed     uint = 5

	// TimerFrequency is the rate of the delay and sound timers in Hz
	TimerFrequency uint = 60

	DefaultStatsPeriod = 5 * time.Second
	// DefaultMaxIdle bounds how long Run sleeps between iterations
	DefaultMaxIdle = time.Millisecond
)

// Config for the scheduler
type Config struct {
	// Speed of the CPU clock in Hz
	Speed uint
	// StatsPeriod is how often statistics are reported
	StatsPeriod time.Duration
	// MaxIdle is the longest sleep between two iterations of Run.
	// Zero disables sleeping.
	MaxIdle time.Duration
	// Logger used by the scheduler, slog.Default() when nil
	Logger *slog.Logger
}

type ConfigCb func(config *Config)

// NewConfig returns the default configuration with the callbacks applied in order
func NewConfig(configs ...ConfigCb) Config {
	config := Config{
		Speed:       DefaultSpeed,
		StatsPeriod: DefaultStatsPeriod,
		MaxIdle:     DefaultMaxIdle,
	}
	for _, cb := range configs {
		cb(&config)
	}

	return config
}

func (c Config) Validate() error {
	if c.Speed < MinSpeed || c.Speed > MaxSpeed {
		return fmt.Errorf("speed %d Hz is outside [%d, %d]", c.Speed, MinSpeed, MaxSpeed)
	}
	if c.StatsPeriod <= 0 {
		return fmt.Errorf("stats period must be positive, got %s", c.StatsPeriod)
	}
	if c.MaxIdle < 0 {
		return fmt.Errorf("max idle must not be negative, got %s", c.MaxIdle)
	}

	return nil
}

// CpuPeriod is the time between two CPU cycles
func (c Config) CpuPeriod() time.Duration {
	return time.Second / time.Duration(c.Speed)
}

// TimerPeriod is the time between two timer decrements
func (c Config) TimerPeriod() time.Duration {
	return time.Second / time.Duration(TimerFrequency)
}

func WithSpeed(hz uint) ConfigCb {
	return func(config *Config) {
		config.Speed = hz
	}
}

func WithStatsPeriod(d time.Duration) ConfigCb {
	return func(config *Config) {
		config.StatsPeriod = d
	}
}

func WithLogger(logger *slog.Logger) ConfigCb {
	return func(config *Config) {
		config.Logger = logger
	}
}
