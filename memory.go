package chip8

import (
	"errors"
	"fmt"
	"strings"
)

var ErrProgramDoesNotFitIntoMemory = errors.New("the program does not fit into memory")

const (
	MemorySize = 4096
	// StartOfProgram is where ROMs are loaded and where the PC starts
	StartOfProgram = 0x200
	// MaxProgramSize is the largest ROM that fits after StartOfProgram
	MaxProgramSize = MemorySize - StartOfProgram

	FontOffset     = 0x80
	FontGlyphSize  = 5
	FontGlyphCount = 16
)

type Memory [MemorySize]byte

// NewMemory creates a memory of 4096 bytes with the font glyphs already in place
func NewMemory() *Memory {
	m := &Memory{}
	loadCharactersInto(m)

	return m
}

// String dumps the reserved area and the program area as two hex rows
func (mem Memory) String() string {
	sb := strings.Builder{}

	sb.WriteString("[ ")
	for _, b := range mem[:StartOfProgram] {
		sb.WriteString(fmt.Sprintf("%X ", b))
	}
	sb.WriteString("]\n")
	sb.WriteString("[ ")
	for _, b := range mem[StartOfProgram:] {
		sb.WriteString(fmt.Sprintf("%X ", b))
	}
	sb.WriteString("]")

	return sb.String()
}

// LoadProgram copies the program at the start-of-program address.
// Nothing is written if the program is too large.
func (mem *Memory) LoadProgram(program []byte) error {
	if len(program) > MaxProgramSize {
		return fmt.Errorf("%w: %d bytes, %d available", ErrProgramDoesNotFitIntoMemory, len(program), MaxProgramSize)
	}

	copy(mem[StartOfProgram:], program)

	return nil
}

// Font returns the 80 bytes of glyph data as stored in memory
func (mem *Memory) Font() []byte {
	return mem[FontOffset : FontOffset+FontGlyphCount*FontGlyphSize]
}

func loadCharactersInto(mem *Memory) {
	copy(mem[FontOffset:], fontSet[:])
}

var fontSet = [FontGlyphCount * FontGlyphSize]byte{
	// 0
	0xF0, 0x90, 0x90, 0x90, 0xF0,
	// 1
	0x20, 0x60, 0x20, 0x20, 0x70,
	// 2
	0xF0, 0x10, 0xF0, 0x80, 0xF0,
	// 3
	0xF0, 0x10, 0xF0, 0x10, 0xF0,
	// 4
	0x90, 0x90, 0xF0, 0x10, 0x10,
	// 5
	0xF0, 0x80, 0xF0, 0x10, 0xF0,
	// 6
	0xF0, 0x80, 0xF0, 0x90, 0xF0,
	// 7
	0xF0, 0x10, 0x20, 0x40, 0x40,
	// 8
	0xF0, 0x90, 0xF0, 0x90, 0xF0,
	// 9
	0xF0, 0x90, 0xF0, 0x10, 0xF0,
	// A
	0xF0, 0x90, 0xF0, 0x90, 0x90,
	// B
	0xE0, 0x90, 0xE0, 0x90, 0xE0,
	// C
	0xF0, 0x80, 0x80, 0x80, 0xF0,
	// D
	0xE0, 0x90, 0x90, 0x90, 0xE0,
	// E
	0xF0, 0x80, 0xF0, 0x80, 0xF0,
	// F
	0xF0, 0x80, 0xF0, 0x80, 0x80,
}
