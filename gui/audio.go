package gui

import (
	"errors"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/guslan/chip8/tone"
)

const audioBufferSize = 1024

// audioStream pushes the tone into raylib whenever it has consumed a buffer.
// A nil *audioStream is silent.
type audioStream struct {
	stream  rl.AudioStream
	source  tone.Source
	buf     []float32
	playing bool
}

func newAudioStream(source tone.Source) (*audioStream, error) {
	rl.InitAudioDevice()
	if !rl.IsAudioDeviceReady() {
		return nil, errors.New("raylib could not open an audio device")
	}

	rl.SetAudioStreamBufferSizeDefault(audioBufferSize)
	a := &audioStream{
		// 32 bit float mono
		stream: rl.LoadAudioStream(tone.SampleRate, 32, 1),
		source: source,
		buf:    make([]float32, audioBufferSize),
	}

	return a, nil
}

func (a *audioStream) play() {
	if a == nil || a.playing {
		return
	}

	a.playing = true
	a.feed()
	rl.PlayAudioStream(a.stream)
}

func (a *audioStream) stop() {
	if a == nil || !a.playing {
		return
	}

	a.playing = false
	rl.PauseAudioStream(a.stream)
}

func (a *audioStream) feed() {
	if a == nil || !a.playing {
		return
	}

	for rl.IsAudioStreamProcessed(a.stream) {
		a.source.Fill(a.buf)
		rl.UpdateAudioStream(a.stream, a.buf)
	}
}

func (a *audioStream) close() {
	if a == nil {
		return
	}

	rl.UnloadAudioStream(a.stream)
	rl.CloseAudioDevice()
}
