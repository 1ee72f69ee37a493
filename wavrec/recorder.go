// Package wavrec records the tone edges of a session and renders them to a WAV file.
package wavrec

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/guslan/chip8/tone"
)

const (
	BitDepth    = 16
	chunkFrames = 4096
)

type segment struct {
	from, to time.Duration
}

// Recorder is a chip8.Buzzer that remembers when the tone played.
// Nothing is synthesized until the recording is written.
type Recorder struct {
	// Now is replaced in tests
	Now func() time.Time

	source     tone.Source
	sampleRate int

	mu       sync.Mutex
	start    time.Time
	booted   bool
	playing  bool
	from     time.Duration
	segments []segment
}

func NewRecorder(source tone.Source, sampleRate int) *Recorder {
	if source == nil {
		source = tone.NewDefaultSquareWave()
	}
	if sampleRate <= 0 {
		sampleRate = tone.SampleRate
	}

	return &Recorder{
		Now:        time.Now,
		source:     source,
		sampleRate: sampleRate,
	}
}

// Boot marks the beginning of the recording
func (r *Recorder) Boot() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.booted {
		r.start = r.Now()
		r.booted = true
	}

	return nil
}

func (r *Recorder) Play() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.playing {
		return
	}
	r.playing = true
	r.from = r.Now().Sub(r.start)
}

func (r *Recorder) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.playing {
		return
	}
	r.playing = false
	r.segments = append(r.segments, segment{from: r.from, to: r.Now().Sub(r.start)})
}

// Beeps is how many times the tone started
func (r *Recorder) Beeps() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.segments)
	if r.playing {
		n++
	}

	return n
}

// WriteFile renders the recording up to now into a mono WAV file
func (r *Recorder) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := r.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}

	return f.Close()
}

// WriteTo renders the recording up to now. A tone still playing is cut at now.
func (r *Recorder) WriteTo(w io.WriteSeeker) error {
	r.mu.Lock()
	end := r.Now().Sub(r.start)
	segments := append([]segment(nil), r.segments...)
	if r.playing {
		segments = append(segments, segment{from: r.from, to: end})
	}
	r.mu.Unlock()

	enc := wav.NewEncoder(w, r.sampleRate, BitDepth, 1, 1)

	total := r.frameAt(end)
	tones := make([]float32, chunkFrames)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: r.sampleRate},
		Data:           make([]int, chunkFrames),
		SourceBitDepth: BitDepth,
	}

	// the header is only written along with the first buffer
	if total == 0 {
		buf.Data = buf.Data[:0]
		if err := enc.Write(buf); err != nil {
			return err
		}
	}

	next := 0
	for pos := 0; pos < total; pos += chunkFrames {
		n := min(chunkFrames, total-pos)
		buf.Data = buf.Data[:n]
		clear(buf.Data)

		for next < len(segments) && r.frameAt(segments[next].to) <= pos {
			next++
		}
		for i := next; i < len(segments) && r.frameAt(segments[i].from) < pos+n; i++ {
			lo := max(r.frameAt(segments[i].from), pos) - pos
			hi := min(r.frameAt(segments[i].to), pos+n) - pos
			if hi <= lo {
				continue
			}
			r.source.Fill(tones[:hi-lo])
			for j, v := range tones[:hi-lo] {
				buf.Data[lo+j] = int(v * 32767)
			}
		}

		if err := enc.Write(buf); err != nil {
			return err
		}
	}

	return enc.Close()
}

func (r *Recorder) frameAt(d time.Duration) int {
	if d < 0 {
		return 0
	}
	return int(d * time.Duration(r.sampleRate) / time.Second)
}
