package gui

import (
	"testing"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/guslan/chip8"
)

func TestDefaultLayoutCoversTheKeypad(t *testing.T) {
	m := keyboardLookupMap(chip8.DefaultKeyboardLayout)

	if len(m) != 16 {
		t.Fatalf(`lookup map has %d keys, expected 16`, len(m))
	}

	checks := map[ScanCode]byte{
		rl.KeyOne:  0x1,
		rl.KeyFour: 0xC,
		rl.KeyQ:    0x4,
		rl.KeyX:    0x0,
		rl.KeyV:    0xF,
	}
	for code, expected := range checks {
		if k, ok := m[code]; !ok || k != expected {
			t.Fatalf(`key %d maps to %X, expected %X`, code, k, expected)
		}
	}
}

func TestUppercaseLayout(t *testing.T) {
	layout := chip8.DefaultKeyboardLayout
	layout[0x0] = 'X'

	m := keyboardLookupMap(layout)
	if k, ok := m[rl.KeyX]; !ok || k != 0x0 {
		t.Fatalf(`uppercase rune was not mapped`)
	}
}

func TestUnknownRunesAreSkipped(t *testing.T) {
	layout := chip8.DefaultKeyboardLayout
	layout[0x0] = '!'

	if m := keyboardLookupMap(layout); len(m) != 15 {
		t.Fatalf(`lookup map has %d keys, expected 15`, len(m))
	}
}

func TestStatsMessage(t *testing.T) {
	msg := statsMessage(chip8.Stats{CpuCycles: 2500, TimerTicks: 300, Period: 5 * time.Second})

	if msg != "sound/delay: 60Hz, cpu: 500Hz" {
		t.Fatalf(`statsMessage() = %q`, msg)
	}
}

func TestNewAppDefaults(t *testing.T) {
	app := NewApp(func(config *AppConfig) {
		config.FrameRate = 0
	})

	if app.frameInterval != time.Second/DefaultFrameRate {
		t.Fatalf(`frame interval = %s, expected %s`, app.frameInterval, time.Second/DefaultFrameRate)
	}
	if app.config.Tone == nil {
		t.Fatalf(`expected a default tone`)
	}

	// nothing was opened, so nothing needs closing
	if err := app.Close(); err != nil {
		t.Fatalf(`Close() returned an error %v`, err)
	}
	app.Play()
	app.Stop()
}
