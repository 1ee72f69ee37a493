// Package terminal runs the machine inside a text terminal.
//
// Terminals only report key presses, never releases, so a key counts as
// held for a short window after its last press or auto-repeat.
package terminal

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
	"unicode"

	"github.com/guslan/chip8"
	"github.com/pkg/term"
)

const (
	DefaultDevice      = "/dev/tty"
	DefaultHoldWindow  = 250 * time.Millisecond
	defaultReadTimeout = 100 * time.Millisecond

	ctrlC = 0x03
	bell  = 0x07
)

type Config struct {
	Device     string
	HoldWindow time.Duration
	Layout     chip8.KeyboardLayout
	Output     io.Writer
}

type ConfigCb func(*Config)

// Terminal is the Display, Keyboard and Buzzer of a session
type Terminal struct {
	*chip8.TerminalDisplay

	// Now is replaced in tests
	Now func() time.Time

	config Config
	lookup map[rune]byte
	tty    *term.Term

	mu       sync.Mutex
	lastSeen [16]time.Time
	quit     bool

	booted bool
	done   chan struct{}
	wg     sync.WaitGroup
}

func New(configs ...ConfigCb) *Terminal {
	config := Config{
		Device:     DefaultDevice,
		HoldWindow: DefaultHoldWindow,
		Layout:     chip8.DefaultKeyboardLayout,
		Output:     os.Stdout,
	}
	for _, cb := range configs {
		cb(&config)
	}

	return &Terminal{
		TerminalDisplay: chip8.NewTerminalDisplayWithOutput(config.Output),
		Now:             time.Now,
		config:          config,
		lookup:          chip8.LookupMap(config.Layout),
		done:            make(chan struct{}),
	}
}

// Boot puts the terminal in raw mode and starts reading keys.
// It is safe to call once as a Display and once as a Keyboard.
func (t *Terminal) Boot() error {
	if t.booted {
		return nil
	}

	tty, err := term.Open(t.config.Device, term.RawMode)
	if err != nil {
		return fmt.Errorf("opening %s: %w", t.config.Device, err)
	}
	if err := tty.SetReadTimeout(defaultReadTimeout); err != nil {
		tty.Restore()
		tty.Close()
		return fmt.Errorf("configuring %s: %w", t.config.Device, err)
	}
	t.tty = tty

	if err := t.TerminalDisplay.Boot(); err != nil {
		t.Close()
		return err
	}

	t.wg.Add(1)
	go t.readKeys()
	t.booted = true

	return nil
}

func (t *Terminal) readKeys() {
	defer t.wg.Done()

	buf := make([]byte, 32)
	for {
		select {
		case <-t.done:
			return
		default:
		}

		n, err := t.tty.Read(buf)
		if n > 0 {
			t.HandleInput(buf[:n])
		}
		if err != nil && !errors.Is(err, io.EOF) {
			// the terminal went away, nothing else will come from it
			t.mu.Lock()
			t.quit = true
			t.mu.Unlock()
			return
		}
	}
}

// HandleInput processes one chunk of bytes read from the terminal.
// A lone ESC or Ctrl-C requests a quit; escape sequences are ignored.
func (t *Terminal) HandleInput(in []byte) {
	now := t.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	if len(in) == 1 && in[0] == chip8.ESC {
		t.quit = true
		return
	}
	if len(in) > 0 && in[0] == chip8.ESC {
		return
	}

	for _, b := range in {
		if b == ctrlC {
			t.quit = true
			return
		}

		if k, ok := t.lookup[unicode.ToLower(rune(b))]; ok {
			t.lastSeen[k] = now
		}
	}
}

// Poll implements chip8.Keyboard.
func (t *Terminal) Poll() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.quit
}

// State implements chip8.Keyboard.
func (t *Terminal) State() chip8.KeypadState {
	now := t.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	ks := chip8.KeypadState{}
	for k, seen := range t.lastSeen {
		ks[k] = !seen.IsZero() && now.Sub(seen) < t.config.HoldWindow
	}

	return ks
}

// Play implements chip8.Buzzer. Terminals only ring once, so nothing
// else happens until the tone stops.
func (t *Terminal) Play() {
	t.config.Output.Write([]byte{bell})
}

// Stop implements chip8.Buzzer.
func (t *Terminal) Stop() {}

// Close stops the reader and gives the terminal back in the state it was found
func (t *Terminal) Close() error {
	if t.tty == nil {
		return nil
	}

	close(t.done)
	t.wg.Wait()

	err := errors.Join(t.tty.Restore(), t.tty.Close())
	t.tty = nil

	return err
}
