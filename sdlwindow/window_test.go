package sdlwindow

import (
	"testing"

	"github.com/guslan/chip8"
	"github.com/veandco/go-sdl2/sdl"
)

var (
	_ chip8.Display  = (*Window)(nil)
	_ chip8.Keyboard = (*Window)(nil)
	_ chip8.Buzzer   = (*Window)(nil)
)

func TestScancodeLookupMap(t *testing.T) {
	m := scancodeLookupMap(chip8.DefaultKeyboardLayout)

	if len(m) != 16 {
		t.Fatalf(`lookup map has %d keys, expected 16`, len(m))
	}
	if m[sdl.SCANCODE_4] != 0xC || m[sdl.SCANCODE_Z] != 0xA || m[sdl.SCANCODE_X] != 0x0 {
		t.Fatalf(`unexpected mapping %v`, m)
	}
}

func TestPixelRects(t *testing.T) {
	fb := chip8.FrameBuffer{}
	fb[0] = 1
	fb[2*chip8.ScreenWidth+3] = 1

	rects := pixelRects(fb, 10)
	if len(rects) != 2 {
		t.Fatalf(`got %d rects, expected 2`, len(rects))
	}
	if rects[0] != (sdl.Rect{X: 0, Y: 0, W: 10, H: 10}) {
		t.Fatalf(`first rect = %+v`, rects[0])
	}
	if rects[1] != (sdl.Rect{X: 30, Y: 20, W: 10, H: 10}) {
		t.Fatalf(`second rect = %+v`, rects[1])
	}
}

func TestBlankFrameHasNoRects(t *testing.T) {
	if rects := pixelRects(chip8.FrameBuffer{}, DefaultScale); len(rects) != 0 {
		t.Fatalf(`got %d rects for a blank frame`, len(rects))
	}
}

func TestSilentWithoutAudioDevice(t *testing.T) {
	w := New()
	w.Play()
	w.Stop()

	if w.playing {
		t.Fatalf(`a window without audio started playing`)
	}
	if err := w.Close(); err != nil {
		t.Fatalf(`Close() returned an error %v`, err)
	}
}
