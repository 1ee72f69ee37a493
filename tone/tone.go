// Package tone produces the waveform played while the sound timer is active.
package tone

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
)

const (
	SampleRate = 44100
	// Frequency of the default beep, a B flat
	Frequency = 233.082
	Volume    = 0.25
)

var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Source fills buffers with mono samples in [-1, 1]. It keeps its position
// between calls so consecutive buffers join without clicks.
type Source interface {
	Fill(out []float32)
}

type SquareWave struct {
	phaseInc float32
	phase    float32
	volume   float32
}

func NewSquareWave(freq float64, sampleRate int, volume float32) *SquareWave {
	return &SquareWave{
		phaseInc: float32(freq / float64(sampleRate)),
		volume:   volume,
	}
}

// NewDefaultSquareWave is the usual CHIP-8 beep
func NewDefaultSquareWave() *SquareWave {
	return NewSquareWave(Frequency, SampleRate, Volume)
}

func (w *SquareWave) Fill(out []float32) {
	for i := range out {
		if w.phase <= 0.5 {
			out[i] = w.volume
		} else {
			out[i] = -w.volume
		}
		w.phase += w.phaseInc
		for w.phase >= 1 {
			w.phase -= 1
		}
	}
}

// Sample loops a recorded sound
type Sample struct {
	data []float32
	pos  int
}

func NewSample(data []float32) *Sample {
	return &Sample{data: data}
}

func (s *Sample) Len() int {
	return len(s.data)
}

func (s *Sample) Fill(out []float32) {
	if len(s.data) == 0 {
		clear(out)
		return
	}

	for i := range out {
		out[i] = s.data[s.pos]
		s.pos = (s.pos + 1) % len(s.data)
	}
}

// LoadSample decodes a .wav or .mp3 file into a mono sample at the given rate
func LoadSample(path string, sampleRate int) (*Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var data []float32
	var rate int

	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		data, rate, err = decodeWav(f)
	case ".mp3":
		data, rate, err = decodeMp3(f)
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return NewSample(Resample(data, rate, sampleRate)), nil
}

// decodeWav keeps the first channel only
func decodeWav(r io.ReadSeeker) ([]float32, int, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("wav: not a valid wav file")
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("wav: %w", err)
	}

	chans := int(dec.NumChans)
	if chans < 1 {
		chans = 1
	}
	scale := float32(int(1) << (dec.BitDepth - 1))

	data := make([]float32, 0, len(buf.Data)/chans)
	for i := 0; i < len(buf.Data); i += chans {
		data = append(data, float32(buf.Data[i])/scale)
	}

	return data, int(dec.SampleRate), nil
}

// decodeMp3 keeps the left channel only. The decoder always produces 16 bit
// little endian stereo, four bytes per sample.
func decodeMp3(r io.Reader) ([]float32, int, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, 0, fmt.Errorf("mp3: %w", err)
	}

	data := make([]float32, 0)
	chunk := make([]byte, 4096)
	for {
		n, err := io.ReadFull(dec, chunk)
		for i := 0; i+1 < n; i += 4 {
			v := int16(uint16(chunk[i]) | uint16(chunk[i+1])<<8)
			data = append(data, float32(v)/32768)
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("mp3: %w", err)
		}
	}

	return data, dec.SampleRate(), nil
}

// Resample converts between rates by picking the nearest earlier sample
func Resample(data []float32, from, to int) []float32 {
	if from == to || from <= 0 || to <= 0 || len(data) == 0 {
		return data
	}

	n := int(int64(len(data)) * int64(to) / int64(from))
	out := make([]float32, n)
	for i := range out {
		out[i] = data[int64(i)*int64(from)/int64(to)]
	}

	return out
}

// ToUnsigned8 converts samples to unsigned 8 bit PCM centred on silence
func ToUnsigned8(in []float32, out []byte, silence byte) {
	for i, v := range in {
		v = max(-1, min(1, v))
		out[i] = byte(int(silence) + int(v*127))
	}
}
