package launcher_test

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-audio/wav"
	"github.com/guslan/chip8"
	"github.com/guslan/chip8/launcher"
)

// quitAfter asks to quit after a number of polls
type quitAfter struct {
	chip8.DummyKeyboard
	polls int
}

func (kb *quitAfter) Poll() bool {
	kb.polls--
	return kb.polls < 0
}

func writeRom(t *testing.T, opCodes ...uint16) string {
	t.Helper()

	program := make([]byte, 0, len(opCodes)*2)
	for _, op := range opCodes {
		program = append(program, byte(op>>8), byte(op))
	}

	path := filepath.Join(t.TempDir(), "test.ch8")
	if err := os.WriteFile(path, program, 0o644); err != nil {
		t.Fatalf(`os.WriteFile() returned an error %v`, err)
	}

	return path
}

func testOptions(logs *bytes.Buffer) *launcher.Options {
	o := launcher.NewOptions()
	o.LogOutput = logs

	return o
}

type fakeFrontend struct {
	display *chip8.DummyDisplay
	buzzer  *chip8.DummyBuzzer
	polls   int
	closed  bool
	errs    []error
}

func (f *fakeFrontend) factory(m *launcher.Machine) (launcher.Frontend, error) {
	f.display = chip8.NewDummyDisplay()
	f.buzzer = chip8.NewDummyBuzzer()

	return launcher.Frontend{
		Display:  f.display,
		Keyboard: &quitAfter{polls: f.polls},
		Buzzer:   f.buzzer,
		Close: func() error {
			f.closed = true
			return nil
		},
		OnError: func(err error) {
			f.errs = append(f.errs, err)
		},
	}, nil
}

func TestRunQuitsCleanly(t *testing.T) {
	logs := &bytes.Buffer{}
	// draw glyph 0 then spin
	rom := writeRom(t, 0xA080, 0xD015, 0x1204)
	fe := &fakeFrontend{polls: 200}

	code := launcher.Run(context.Background(), testOptions(logs), []string{rom}, fe.factory)

	if code != launcher.ExitOk {
		t.Fatalf("Run() = %d, expected %d\n%s", code, launcher.ExitOk, logs)
	}
	if !fe.closed {
		t.Fatalf(`the front-end was not closed`)
	}
	if fe.display.Renders == 0 {
		t.Fatalf(`nothing was rendered`)
	}
	if !strings.Contains(logs.String(), "program loaded") {
		t.Fatalf("expected a log line for the program\n%s", logs)
	}
}

func TestRunUsageErrors(t *testing.T) {
	rom := writeRom(t, 0x1200)
	tooLarge := filepath.Join(t.TempDir(), "large.ch8")
	if err := os.WriteFile(tooLarge, make([]byte, chip8.MaxProgramSize+1), 0o644); err != nil {
		t.Fatalf(`os.WriteFile() returned an error %v`, err)
	}

	tests := map[string]struct {
		args   []string
		modify func(o *launcher.Options)
	}{
		"no rom":        {args: nil},
		"two roms":      {args: []string{rom, rom}},
		"missing rom":   {args: []string{filepath.Join(t.TempDir(), "nope.ch8")}},
		"rom too large": {args: []string{tooLarge}},
		"slow cpu":      {args: []string{rom}, modify: func(o *launcher.Options) { o.Speed = 1 }},
		"bad beep":      {args: []string{rom}, modify: func(o *launcher.Options) { o.Beep = "beep.ogg" }},
		"bad beep while recording": {args: []string{rom}, modify: func(o *launcher.Options) {
			o.Beep = "beep.ogg"
			o.Record = filepath.Join(t.TempDir(), "out.wav")
		}},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			logs := &bytes.Buffer{}
			o := testOptions(logs)
			if tt.modify != nil {
				tt.modify(o)
			}

			factoryCalled := false
			code := launcher.Run(context.Background(), o, tt.args, func(m *launcher.Machine) (launcher.Frontend, error) {
				factoryCalled = true
				return launcher.Frontend{}, errors.New("unreachable")
			})

			if code != launcher.ExitUsage {
				t.Fatalf("Run() = %d, expected %d\n%s", code, launcher.ExitUsage, logs)
			}
			if factoryCalled {
				t.Fatalf(`the front-end was created despite a usage error`)
			}
		})
	}
}

func TestRunFrontendError(t *testing.T) {
	logs := &bytes.Buffer{}
	rom := writeRom(t, 0x1200)

	code := launcher.Run(context.Background(), testOptions(logs), []string{rom}, func(m *launcher.Machine) (launcher.Frontend, error) {
		return launcher.Frontend{}, errors.New("no display")
	})

	if code != launcher.ExitFrontend {
		t.Fatalf("Run() = %d, expected %d\n%s", code, launcher.ExitFrontend, logs)
	}
}

type failingDisplay struct {
	chip8.DummyDisplay
}

func (d *failingDisplay) Boot() error {
	return errors.New("no window")
}

func TestRunBootError(t *testing.T) {
	logs := &bytes.Buffer{}
	rom := writeRom(t, 0x1200)

	code := launcher.Run(context.Background(), testOptions(logs), []string{rom}, func(m *launcher.Machine) (launcher.Frontend, error) {
		return launcher.Frontend{
			Display:  &failingDisplay{},
			Keyboard: chip8.NewDummyKeyboard(),
			Buzzer:   chip8.NewDummyBuzzer(),
		}, nil
	})

	if code != launcher.ExitFrontend {
		t.Fatalf("Run() = %d, expected %d\n%s", code, launcher.ExitFrontend, logs)
	}
}

func TestRunFatalCycle(t *testing.T) {
	logs := &bytes.Buffer{}
	// RET with an empty stack
	rom := writeRom(t, 0x00EE)
	fe := &fakeFrontend{polls: 1000}
	o := testOptions(logs)
	o.Debug = true

	code := launcher.Run(context.Background(), o, []string{rom}, fe.factory)

	if code != launcher.ExitRuntime {
		t.Fatalf("Run() = %d, expected %d\n%s", code, launcher.ExitRuntime, logs)
	}
	if len(fe.errs) != 1 || !errors.Is(fe.errs[0], chip8.ErrStackUnderflow) {
		t.Fatalf(`front-end got errors %v, expected %v`, fe.errs, chip8.ErrStackUnderflow)
	}
	if !fe.closed {
		t.Fatalf(`the front-end was not closed after a failure`)
	}
	// RET is the first byte of the program row
	if !strings.Contains(logs.String(), "memory at failure") || !strings.Contains(logs.String(), "[ 0 EE ") {
		t.Fatalf("expected a memory dump in the debug logs\n%s", logs)
	}
}

func TestRunCancelledIsClean(t *testing.T) {
	logs := &bytes.Buffer{}
	rom := writeRom(t, 0x1200)
	fe := &fakeFrontend{polls: 1 << 30}

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	code := launcher.Run(ctx, testOptions(logs), []string{rom}, fe.factory)
	if code != launcher.ExitOk {
		t.Fatalf("Run() = %d, expected %d\n%s", code, launcher.ExitOk, logs)
	}
}

func TestRunRecordsAndDumps(t *testing.T) {
	logs := &bytes.Buffer{}
	dir := t.TempDir()
	// ST = 0xFF, then spin
	rom := writeRom(t, 0x60FF, 0xF018, 0x1204)
	fe := &fakeFrontend{polls: 100}

	o := testOptions(logs)
	o.Record = filepath.Join(dir, "tone.wav")
	o.MemViz = filepath.Join(dir, "state.dot")
	o.Trace = true

	code := launcher.Run(context.Background(), o, []string{rom}, fe.factory)
	if code != launcher.ExitOk {
		t.Fatalf("Run() = %d, expected %d\n%s", code, launcher.ExitOk, logs)
	}

	if fe.buzzer.Plays != 1 || fe.buzzer.IsPlaying {
		t.Fatalf(`buzzer plays=%d playing=%v, expected one beep stopped at exit`, fe.buzzer.Plays, fe.buzzer.IsPlaying)
	}

	f, err := os.Open(o.Record)
	if err != nil {
		t.Fatalf(`os.Open() returned an error %v`, err)
	}
	defer f.Close()
	if !wav.NewDecoder(f).IsValidFile() {
		t.Fatalf(`the recording is not a valid wav file`)
	}

	if _, err := os.Stat(o.MemViz); err != nil {
		t.Fatalf(`the state graph was not written: %v`, err)
	}
	if !strings.Contains(logs.String(), "LD ST, V0") {
		t.Fatalf("expected traced instructions in the logs\n%s", logs)
	}
}

func TestRegisterFlags(t *testing.T) {
	o := launcher.NewOptions()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	o.Register(fs)

	err := fs.Parse([]string{"-speed", "700", "-stats", "2s", "-trace", "-record", "out.wav", "rom.ch8"})
	if err != nil {
		t.Fatalf(`Parse() returned an error %v`, err)
	}

	if o.Speed != 700 || o.StatsPeriod != 2*time.Second || !o.Trace || o.Record != "out.wav" {
		t.Fatalf(`unexpected options %+v`, o)
	}
	if fs.NArg() != 1 || fs.Arg(0) != "rom.ch8" {
		t.Fatalf(`unexpected arguments %v`, fs.Args())
	}
}
