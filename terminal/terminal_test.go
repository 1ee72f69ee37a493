package terminal_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/guslan/chip8"
	"github.com/guslan/chip8/terminal"
)

var (
	_ chip8.Display  = (*terminal.Terminal)(nil)
	_ chip8.Keyboard = (*terminal.Terminal)(nil)
	_ chip8.Buzzer   = (*terminal.Terminal)(nil)
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func newTerminal(out *bytes.Buffer) (*terminal.Terminal, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	t := terminal.New(func(config *terminal.Config) {
		config.Output = out
		config.HoldWindow = 100 * time.Millisecond
	})
	t.Now = clock.Now

	return t, clock
}

func TestKeysAreHeldForAWindow(t *testing.T) {
	term, clock := newTerminal(&bytes.Buffer{})

	term.HandleInput([]byte("w"))
	if ks := term.State(); !ks[0x5] {
		t.Fatalf(`expected key 5 to be pressed after 'w'`)
	}

	clock.now = clock.now.Add(50 * time.Millisecond)
	if ks := term.State(); !ks[0x5] {
		t.Fatalf(`expected key 5 to still be held`)
	}

	clock.now = clock.now.Add(60 * time.Millisecond)
	if ks := term.State(); ks[0x5] {
		t.Fatalf(`expected key 5 to be released after the hold window`)
	}
}

func TestUppercaseKeys(t *testing.T) {
	term, _ := newTerminal(&bytes.Buffer{})

	term.HandleInput([]byte("XV"))
	ks := term.State()
	if !ks[0x0] || !ks[0xF] {
		t.Fatalf(`expected keys 0 and F to be pressed, got %v`, ks)
	}
	if term.Poll() {
		t.Fatalf(`regular keys requested a quit`)
	}
}

func TestUnmappedKeysAreIgnored(t *testing.T) {
	term, _ := newTerminal(&bytes.Buffer{})

	term.HandleInput([]byte("pm9"))
	if ks := term.State(); ks.Mask() != 0 {
		t.Fatalf(`expected no keys, got %016b`, ks.Mask())
	}
}

func TestQuitKeys(t *testing.T) {
	for name, in := range map[string][]byte{
		"escape": {chip8.ESC},
		"ctrl-c": {'w', 0x03},
	} {
		t.Run(name, func(t *testing.T) {
			term, _ := newTerminal(&bytes.Buffer{})
			term.HandleInput(in)
			if !term.Poll() {
				t.Fatalf(`expected %v to request a quit`, in)
			}
		})
	}
}

func TestEscapeSequencesAreIgnored(t *testing.T) {
	term, _ := newTerminal(&bytes.Buffer{})

	// arrow up
	term.HandleInput([]byte{chip8.ESC, '[', 'A'})
	if term.Poll() {
		t.Fatalf(`an escape sequence requested a quit`)
	}
	if ks := term.State(); ks.Mask() != 0 {
		t.Fatalf(`an escape sequence pressed keys %016b`, ks.Mask())
	}
}

func TestRenderWritesRows(t *testing.T) {
	out := &bytes.Buffer{}
	term, _ := newTerminal(out)

	fb := chip8.FrameBuffer{}
	fb[0] = 1
	if err := term.Render(fb); err != nil {
		t.Fatalf(`Render() returned an error %v`, err)
	}

	s := out.String()
	if !strings.HasPrefix(s, "\x1b[1H##  ") {
		t.Fatalf(`unexpected start of frame %q`, s[:min(len(s), 16)])
	}
	if rows := strings.Count(s, "|\r\n"); rows != chip8.ScreenHeight {
		t.Fatalf(`got %d rows, expected %d`, rows, chip8.ScreenHeight)
	}
}

func TestCloseWithoutBoot(t *testing.T) {
	term, _ := newTerminal(&bytes.Buffer{})
	if err := term.Close(); err != nil {
		t.Fatalf(`Close() returned an error %v`, err)
	}
}

func TestPlayRingsTheBell(t *testing.T) {
	out := &bytes.Buffer{}
	term, _ := newTerminal(out)

	term.Play()
	term.Stop()

	if out.String() != "\a" {
		t.Fatalf(`Play() wrote %q, expected a bell`, out.String())
	}
}
