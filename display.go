package chip8

import (
	"io"
	"os"
)

// Display abstraction for a display
type Display interface {
	// Boot initializes the component
	Boot() error
	// Render receives a copy of the frame buffer every time it changed
	Render(FrameBuffer) error
}

// DummyDisplay keeps the last frame it was handed
type DummyDisplay struct {
	Last    FrameBuffer
	Renders int
}

func NewDummyDisplay() *DummyDisplay {
	return &DummyDisplay{}
}

func (d *DummyDisplay) Boot() error {
	return nil
}

func (d *DummyDisplay) Render(fb FrameBuffer) error {
	d.Last = fb
	d.Renders++
	return nil
}

const ESC = 0x1B

// TerminalDisplay draws the frame buffer with ANSI escapes
type TerminalDisplay struct {
	terminal        io.Writer
	OnChar, OffChar string
}

func NewTerminalDisplay() *TerminalDisplay {
	return NewTerminalDisplayWithOutput(os.Stdout)
}

func NewTerminalDisplayWithOutput(out io.Writer) *TerminalDisplay {
	return &TerminalDisplay{
		terminal: out,
		OnChar:   "##",
		OffChar:  "  ",
	}
}

// Boot implements Display.
func (disp *TerminalDisplay) Boot() error {
	_, err := disp.terminal.Write([]byte{
		// Move cursor do start
		ESC, '[', '1', 'H',
		// clear the terminal
		ESC, '[', '0', 'J',
	})

	return err
}

func (disp *TerminalDisplay) Render(fb FrameBuffer) error {
	buff := make([]byte, 0, ScreenSize*len(disp.OnChar)+2*ScreenHeight+8)
	buff = append(buff, ESC, '[', '1', 'H')
	for i, px := range fb {
		if px != 0 {
			buff = append(buff, disp.OnChar...)
		} else {
			buff = append(buff, disp.OffChar...)
		}

		if (i+1)%ScreenWidth == 0 {
			buff = append(buff, '|', '\r', '\n')
		}
	}

	_, err := disp.terminal.Write(buff)
	return err
}
