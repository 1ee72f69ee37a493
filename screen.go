package chip8

import "strings"

const (
	ScreenWidth  = 64
	ScreenHeight = 32
	ScreenSize   = ScreenWidth * ScreenHeight

	spriteWidth = 8
)

// FrameBuffer holds one byte per pixel (0 or 1) in row-major order
type FrameBuffer [ScreenSize]byte

// Pixel reports whether the pixel at column x, row y is set
func (fb FrameBuffer) Pixel(x, y int) bool {
	return fb[y*ScreenWidth+x] != 0
}

func (fb FrameBuffer) IsBlank() bool {
	return fb == FrameBuffer{}
}

// String renders the buffer as rows of '#' and '.'
func (fb FrameBuffer) String() string {
	sb := strings.Builder{}
	sb.Grow(ScreenSize + ScreenHeight)

	for y := 0; y < ScreenHeight; y++ {
		for x := 0; x < ScreenWidth; x++ {
			if fb.Pixel(x, y) {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}

	return sb.String()
}

func (cpu *Cpu) clearScreen() {
	cpu.Screen = FrameBuffer{}
	cpu.redraw = true
}

// drawSprite XORs the sprite rows onto the frame buffer starting at (x, y).
// Pixel addresses wrap modulo the buffer length, so a sprite crossing the
// right edge continues on the next row and one crossing the bottom continues
// at the top.
// Returns whether any set pixel was cleared.
func (cpu *Cpu) drawSprite(x, y byte, sprite []byte) bool {
	collision := false

	for row, bits := range sprite {
		for col := 0; col < spriteWidth; col++ {
			bit := (bits >> (7 - col)) & 0b1
			t := (int(x) + (int(y)+row)*ScreenWidth + col) % ScreenSize

			if cpu.Screen[t]&bit != 0 {
				collision = true
			}
			cpu.Screen[t] ^= bit
		}
	}

	cpu.redraw = true

	return collision
}
