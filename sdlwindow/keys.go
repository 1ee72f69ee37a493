package sdlwindow

import (
	"unicode"

	"github.com/guslan/chip8"
	"github.com/veandco/go-sdl2/sdl"
)

// Scancodes follow the physical position of a key, so the default layout
// stays a 4x4 block on non-QWERTY keyboards too.
var runeToScancode = map[rune]sdl.Scancode{
	'0': sdl.SCANCODE_0, '1': sdl.SCANCODE_1, '2': sdl.SCANCODE_2, '3': sdl.SCANCODE_3, '4': sdl.SCANCODE_4,
	'5': sdl.SCANCODE_5, '6': sdl.SCANCODE_6, '7': sdl.SCANCODE_7, '8': sdl.SCANCODE_8, '9': sdl.SCANCODE_9,

	'a': sdl.SCANCODE_A, 'b': sdl.SCANCODE_B, 'c': sdl.SCANCODE_C, 'd': sdl.SCANCODE_D, 'e': sdl.SCANCODE_E,
	'f': sdl.SCANCODE_F, 'g': sdl.SCANCODE_G, 'h': sdl.SCANCODE_H, 'i': sdl.SCANCODE_I, 'j': sdl.SCANCODE_J,
	'k': sdl.SCANCODE_K, 'l': sdl.SCANCODE_L, 'm': sdl.SCANCODE_M, 'n': sdl.SCANCODE_N, 'o': sdl.SCANCODE_O,
	'p': sdl.SCANCODE_P, 'q': sdl.SCANCODE_Q, 'r': sdl.SCANCODE_R, 's': sdl.SCANCODE_S, 't': sdl.SCANCODE_T,
	'u': sdl.SCANCODE_U, 'v': sdl.SCANCODE_V, 'w': sdl.SCANCODE_W, 'x': sdl.SCANCODE_X, 'y': sdl.SCANCODE_Y,
	'z': sdl.SCANCODE_Z,
}

func scancodeLookupMap(layout chip8.KeyboardLayout) map[sdl.Scancode]byte {
	m := map[sdl.Scancode]byte{}
	for r, k := range chip8.LookupMap(layout) {
		if sc, ok := runeToScancode[unicode.ToLower(r)]; ok {
			m[sc] = k
		}
	}

	return m
}
