package chip8

import (
	"errors"
	"fmt"
	"io"
	"os"
)

var ErrMissingRom = errors.New("must provide the path to a rom as an argument")

// ReadRom reads a ROM file and rejects it if it does not fit after the start-of-program address
func ReadRom(path string) ([]byte, error) {
	if path == "" {
		return nil, ErrMissingRom
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	program, err := ReadRomFrom(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return program, nil
}

// ReadRomFrom reads at most one byte more than fits in memory
func ReadRomFrom(r io.Reader) ([]byte, error) {
	program, err := io.ReadAll(io.LimitReader(r, MaxProgramSize+1))
	if err != nil {
		return nil, err
	}

	if len(program) > MaxProgramSize {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrProgramDoesNotFitIntoMemory, MaxProgramSize)
	}

	return program, nil
}
