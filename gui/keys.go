package gui

import (
	"unicode"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/guslan/chip8"
)

// ScanCode is a raylib key code
type ScanCode = int32

var runeToKey = map[rune]ScanCode{
	'0': rl.KeyZero, '1': rl.KeyOne, '2': rl.KeyTwo, '3': rl.KeyThree, '4': rl.KeyFour,
	'5': rl.KeyFive, '6': rl.KeySix, '7': rl.KeySeven, '8': rl.KeyEight, '9': rl.KeyNine,

	'a': rl.KeyA, 'b': rl.KeyB, 'c': rl.KeyC, 'd': rl.KeyD, 'e': rl.KeyE, 'f': rl.KeyF,
	'g': rl.KeyG, 'h': rl.KeyH, 'i': rl.KeyI, 'j': rl.KeyJ, 'k': rl.KeyK, 'l': rl.KeyL,
	'm': rl.KeyM, 'n': rl.KeyN, 'o': rl.KeyO, 'p': rl.KeyP, 'q': rl.KeyQ, 'r': rl.KeyR,
	's': rl.KeyS, 't': rl.KeyT, 'u': rl.KeyU, 'v': rl.KeyV, 'w': rl.KeyW, 'x': rl.KeyX,
	'y': rl.KeyY, 'z': rl.KeyZ,
}

// keyboardLookupMap goes from raylib keys to keypad indexes.
// Runes without a raylib key are skipped.
func keyboardLookupMap(layout chip8.KeyboardLayout) map[ScanCode]byte {
	m := map[ScanCode]byte{}
	for r, k := range chip8.LookupMap(layout) {
		if code, ok := runeToKey[unicode.ToLower(r)]; ok {
			m[code] = k
		}
	}

	return m
}
