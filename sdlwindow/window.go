// Package sdlwindow is an SDL2 window for the machine. Like every SDL
// front-end it must be driven from the thread that booted it.
package sdlwindow

import (
	"fmt"
	"log/slog"

	"github.com/guslan/chip8"
	"github.com/guslan/chip8/tone"
	"github.com/veandco/go-sdl2/sdl"
)

const (
	DefaultScale = 15

	audioBufferLength = 512
)

var (
	PixelColor      = sdl.Color{R: 50, G: 90, B: 255, A: 255}
	BackgroundColor = sdl.Color{R: 0, G: 0, B: 0, A: 255}
)

type Config struct {
	Title          string
	Scale          int32
	KeyboardLayout chip8.KeyboardLayout
	Tone           tone.Source
	Logger         *slog.Logger
}

type ConfigCb func(*Config)

// Window is the Display, Keyboard and Buzzer of an SDL session
type Window struct {
	config Config
	logger *slog.Logger
	keys   map[sdl.Scancode]byte

	window   *sdl.Window
	renderer *sdl.Renderer

	audio       sdl.AudioDeviceID
	hasAudio    bool
	silence     uint8
	samples     []float32
	audioBuffer []byte
	playing     bool

	quit   bool
	booted bool
}

func New(configs ...ConfigCb) *Window {
	config := Config{
		Title:          "chip8",
		Scale:          DefaultScale,
		KeyboardLayout: chip8.DefaultKeyboardLayout,
	}
	for _, cb := range configs {
		cb(&config)
	}
	if config.Tone == nil {
		config.Tone = tone.NewDefaultSquareWave()
	}
	if config.Scale <= 0 {
		config.Scale = DefaultScale
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Window{
		config:      config,
		logger:      logger,
		keys:        scancodeLookupMap(config.KeyboardLayout),
		samples:     make([]float32, audioBufferLength),
		audioBuffer: make([]byte, audioBufferLength),
	}
}

// Boot opens the window and the audio device. Only the first call does anything.
func (w *Window) Boot() error {
	if w.booted {
		return nil
	}

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_AUDIO); err != nil {
		return fmt.Errorf("initializing sdl: %w", err)
	}

	var err error
	w.window, err = sdl.CreateWindow(w.config.Title,
		int32(sdl.WINDOWPOS_CENTERED), int32(sdl.WINDOWPOS_CENTERED),
		chip8.ScreenWidth*w.config.Scale, chip8.ScreenHeight*w.config.Scale,
		uint32(sdl.WINDOW_SHOWN))
	if err != nil {
		sdl.Quit()
		return fmt.Errorf("creating window: %w", err)
	}

	w.renderer, err = sdl.CreateRenderer(w.window, -1, uint32(sdl.RENDERER_ACCELERATED))
	if err != nil {
		w.window.Destroy()
		sdl.Quit()
		return fmt.Errorf("creating renderer: %w", err)
	}

	if err := w.openAudio(); err != nil {
		// a missing audio device only costs the beep
		w.logger.Warn("audio disabled", slog.Any("error", err))
	}

	w.booted = true
	w.logger.Info("window opened", slog.Int("scale", int(w.config.Scale)))

	return w.Render(chip8.FrameBuffer{})
}

func (w *Window) openAudio() error {
	spec := &sdl.AudioSpec{
		Freq:     tone.SampleRate,
		Format:   sdl.AUDIO_U8,
		Channels: 1,
		Samples:  audioBufferLength,
	}

	var actualSpec sdl.AudioSpec
	id, err := sdl.OpenAudioDevice("", false, spec, &actualSpec, 0)
	if err != nil {
		return err
	}

	w.audio = id
	w.hasAudio = true
	w.silence = actualSpec.Silence

	return nil
}

// Close releases everything Boot acquired
func (w *Window) Close() error {
	if !w.booted {
		return nil
	}
	w.booted = false

	if w.hasAudio {
		sdl.CloseAudioDevice(w.audio)
	}
	w.renderer.Destroy()
	w.window.Destroy()
	sdl.Quit()

	return nil
}

// Render implements chip8.Display.
func (w *Window) Render(fb chip8.FrameBuffer) error {
	r := w.renderer

	r.SetDrawColor(BackgroundColor.R, BackgroundColor.G, BackgroundColor.B, BackgroundColor.A)
	if err := r.Clear(); err != nil {
		return err
	}

	r.SetDrawColor(PixelColor.R, PixelColor.G, PixelColor.B, PixelColor.A)
	for _, rect := range pixelRects(fb, w.config.Scale) {
		if err := r.FillRect(&rect); err != nil {
			return err
		}
	}

	r.Present()

	return nil
}

// pixelRects returns one scaled rectangle per lit pixel
func pixelRects(fb chip8.FrameBuffer, scale int32) []sdl.Rect {
	rects := make([]sdl.Rect, 0, 64)
	for y := 0; y < chip8.ScreenHeight; y++ {
		for x := 0; x < chip8.ScreenWidth; x++ {
			if fb.Pixel(x, y) {
				rects = append(rects, sdl.Rect{X: int32(x) * scale, Y: int32(y) * scale, W: scale, H: scale})
			}
		}
	}

	return rects
}

// Poll implements chip8.Keyboard.
func (w *Window) Poll() bool {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch ev := event.(type) {
		case *sdl.QuitEvent:
			w.quit = true

		case *sdl.KeyboardEvent:
			if ev.Type == sdl.KEYDOWN && ev.Keysym.Scancode == sdl.SCANCODE_ESCAPE {
				w.quit = true
			}
		}
	}

	w.feedAudio()

	return w.quit
}

// State implements chip8.Keyboard.
func (w *Window) State() chip8.KeypadState {
	ks := chip8.KeypadState{}
	state := sdl.GetKeyboardState()
	for sc, k := range w.keys {
		if int(sc) < len(state) && state[sc] != 0 {
			ks[k] = true
		}
	}

	return ks
}

// Play implements chip8.Buzzer.
func (w *Window) Play() {
	if !w.hasAudio || w.playing {
		return
	}

	w.playing = true
	w.feedAudio()
	sdl.PauseAudioDevice(w.audio, false)
}

// Stop implements chip8.Buzzer.
func (w *Window) Stop() {
	if !w.hasAudio || !w.playing {
		return
	}

	w.playing = false
	sdl.PauseAudioDevice(w.audio, true)
	sdl.ClearQueuedAudio(w.audio)
}

// feedAudio keeps about two buffers queued while the tone plays
func (w *Window) feedAudio() {
	if !w.playing {
		return
	}

	for sdl.GetQueuedAudioSize(w.audio) < 2*audioBufferLength {
		w.config.Tone.Fill(w.samples)
		tone.ToUnsigned8(w.samples, w.audioBuffer, w.silence)
		if err := sdl.QueueAudio(w.audio, w.audioBuffer); err != nil {
			w.logger.Warn("queueing audio", slog.Any("error", err))
			return
		}
	}
}
