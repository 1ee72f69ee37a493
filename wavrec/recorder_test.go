package wavrec_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/wav"
	"github.com/guslan/chip8"
	"github.com/guslan/chip8/tone"
	"github.com/guslan/chip8/wavrec"
)

var _ chip8.Buzzer = (*wavrec.Recorder)(nil)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

// constant is a source that always produces the same value
type constant float32

func (c constant) Fill(out []float32) {
	for i := range out {
		out[i] = float32(c)
	}
}

func newRecorder(t *testing.T, clock *fakeClock) *wavrec.Recorder {
	t.Helper()

	r := wavrec.NewRecorder(constant(0.5), 1000)
	r.Now = clock.Now
	if err := r.Boot(); err != nil {
		t.Fatalf(`Boot() returned an error %v`, err)
	}

	return r
}

func readBack(t *testing.T, path string) []int {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf(`os.Open() returned an error %v`, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		t.Fatalf(`%s is not a valid wav file`, path)
	}
	if dec.SampleRate != 1000 || dec.NumChans != 1 || dec.BitDepth != wavrec.BitDepth {
		t.Fatalf(`unexpected format: %d Hz, %d channels, %d bits`, dec.SampleRate, dec.NumChans, dec.BitDepth)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf(`FullPCMBuffer() returned an error %v`, err)
	}

	return buf.Data
}

func TestRecorderRendersSegments(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	r := newRecorder(t, clock)

	clock.Advance(100 * time.Millisecond)
	r.Play()
	clock.Advance(50 * time.Millisecond)
	r.Stop()
	clock.Advance(50 * time.Millisecond)

	path := filepath.Join(t.TempDir(), "session.wav")
	if err := r.WriteFile(path); err != nil {
		t.Fatalf(`WriteFile() returned an error %v`, err)
	}

	data := readBack(t, path)
	if len(data) != 200 {
		t.Fatalf(`recording has %d frames, expected 200`, len(data))
	}

	half := float32(0.5)
	loud := int(half * 32767)
	for i, v := range data {
		inTone := i >= 100 && i < 150
		if inTone && v != loud {
			t.Fatalf(`frame %d = %d, expected %d`, i, v, loud)
		}
		if !inTone && v != 0 {
			t.Fatalf(`frame %d = %d, expected silence`, i, v)
		}
	}
}

func TestRecorderCutsOpenSegment(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	r := newRecorder(t, clock)

	r.Play()
	r.Play()
	clock.Advance(20 * time.Millisecond)

	if r.Beeps() != 1 {
		t.Fatalf(`Beeps() = %d, expected 1`, r.Beeps())
	}

	path := filepath.Join(t.TempDir(), "open.wav")
	if err := r.WriteFile(path); err != nil {
		t.Fatalf(`WriteFile() returned an error %v`, err)
	}

	data := readBack(t, path)
	if len(data) != 20 {
		t.Fatalf(`recording has %d frames, expected 20`, len(data))
	}
	for i, v := range data {
		if v == 0 {
			t.Fatalf(`frame %d is silent, expected the tone`, i)
		}
	}
}

func TestRecorderSpansChunks(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	r := newRecorder(t, clock)

	for range 3 {
		clock.Advance(2 * time.Second)
		r.Play()
		clock.Advance(3 * time.Second)
		r.Stop()
	}
	clock.Advance(time.Second)

	path := filepath.Join(t.TempDir(), "long.wav")
	if err := r.WriteFile(path); err != nil {
		t.Fatalf(`WriteFile() returned an error %v`, err)
	}

	data := readBack(t, path)
	if len(data) != 16000 {
		t.Fatalf(`recording has %d frames, expected 16000`, len(data))
	}

	loud := 0
	for _, v := range data {
		if v != 0 {
			loud++
		}
	}
	if loud != 9000 {
		t.Fatalf(`%d frames carry the tone, expected 9000`, loud)
	}
}

func TestRecorderDefaults(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	r := wavrec.NewRecorder(nil, 0)
	r.Now = clock.Now
	if err := r.Boot(); err != nil {
		t.Fatalf(`Boot() returned an error %v`, err)
	}
	r.Stop()

	if r.Beeps() != 0 {
		t.Fatalf(`Beeps() = %d, expected 0`, r.Beeps())
	}
	clock.Advance(10 * time.Millisecond)

	path := filepath.Join(t.TempDir(), "empty.wav")
	if err := r.WriteFile(path); err != nil {
		t.Fatalf(`WriteFile() returned an error %v`, err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf(`os.Open() returned an error %v`, err)
	}
	defer f.Close()

	if dec := wav.NewDecoder(f); !dec.IsValidFile() || dec.SampleRate != tone.SampleRate {
		t.Fatalf(`expected a valid %d Hz wav file`, tone.SampleRate)
	}
}
