// Package gui is a raylib window for the machine.
//
// Every raylib call must come from the goroutine that called Boot, which
// is the goroutine running the scheduler. The main package locks it to
// the main OS thread.
package gui

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/guslan/chip8"
	"github.com/guslan/chip8/tone"
)

const (
	ScreenPixelSize = 15
	ScreenPositionX = 0
	ScreenPositionY = 0

	MessageBarGap   = 5
	MessageBarHeigh = 30

	// DefaultFrameRate bounds how often the window is repainted and its events pumped
	DefaultFrameRate = 60
)

var MessageBarBgColor = rl.DarkGray
var MessageBarInfoColor = rl.SkyBlue
var MessageBarErrorColor = rl.Red

type AppConfig struct {
	Title          string
	FrameRate      int
	KeyboardLayout chip8.KeyboardLayout
	// Tone is played while the sound timer is active, a square wave when nil
	Tone   tone.Source
	Logger *slog.Logger
}
type AppConfigCb func(config *AppConfig)

// App is the Display, Keyboard, Buzzer and StatsReporter of a windowed session
type App struct {
	config AppConfig
	logger *slog.Logger

	// Last frame handed by the scheduler
	screen chip8.FrameBuffer

	keyboardLookupMap map[ScanCode]byte

	// Window width and height
	winW, winH int

	frameInterval time.Duration
	lastFrame     time.Time

	audio *audioStream

	lastMessage      string
	lastMessageColor rl.Color

	// raylib calls ShowError keeps making, replaced in tests
	closeRequested func() bool
	repaint        func()
	sleep          func(time.Duration)

	booted bool
	closed bool
}

func NewApp(configs ...AppConfigCb) *App {
	config := AppConfig{
		Title:          "chip8",
		FrameRate:      DefaultFrameRate,
		KeyboardLayout: chip8.DefaultKeyboardLayout,
	}
	for _, cb := range configs {
		cb(&config)
	}
	if config.Tone == nil {
		config.Tone = tone.NewDefaultSquareWave()
	}
	if config.FrameRate <= 0 {
		config.FrameRate = DefaultFrameRate
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	app := &App{
		config:            config,
		logger:            logger,
		keyboardLookupMap: keyboardLookupMap(config.KeyboardLayout),
		frameInterval:     time.Second / time.Duration(config.FrameRate),
		winW:              chip8.ScreenWidth * ScreenPixelSize,
		winH:              chip8.ScreenHeight*ScreenPixelSize + MessageBarHeigh,
		lastMessageColor:  MessageBarInfoColor,
		sleep:             time.Sleep,
	}
	app.closeRequested = func() bool {
		return rl.WindowShouldClose() || rl.IsKeyDown(rl.KeyEscape)
	}
	app.repaint = app.draw

	return app
}

// Boot opens the window and the audio device.
// The scheduler boots the app once per role, only the first call does anything.
func (app *App) Boot() error {
	if app.booted {
		return nil
	}

	rl.SetTraceLogLevel(rl.LogWarning)
	rl.InitWindow(int32(app.winW), int32(app.winH), app.config.Title)
	if !rl.IsWindowReady() {
		return fmt.Errorf("raylib could not open a window")
	}
	// ESC is handled by Poll
	rl.SetExitKey(rl.KeyNull)

	app.logger.Info("window opened", slog.Int("width", app.winW), slog.Int("height", app.winH))

	audio, err := newAudioStream(app.config.Tone)
	if err != nil {
		// a missing audio device only costs the beep
		app.logger.Warn("audio disabled", slog.Any("error", err))
	}
	app.audio = audio
	app.booted = true

	return nil
}

// Close releases the audio device and the window
func (app *App) Close() error {
	if !app.booted || app.closed {
		return nil
	}
	app.closed = true

	app.audio.close()
	rl.CloseWindow()

	return nil
}

// Poll implements chip8.Keyboard. It repaints the window at most FrameRate
// times per second; raylib processes input while ending a frame.
func (app *App) Poll() bool {
	now := time.Now()
	if now.Sub(app.lastFrame) >= app.frameInterval {
		app.draw()
		app.lastFrame = now
	}

	app.audio.feed()

	return app.closeRequested()
}

// State implements chip8.Keyboard.
func (app *App) State() chip8.KeypadState {
	ks := chip8.KeypadState{}
	for scanCode, key := range app.keyboardLookupMap {
		if rl.IsKeyDown(scanCode) {
			ks[key] = true
		}
	}

	return ks
}

// Play implements chip8.Buzzer.
func (app *App) Play() {
	app.audio.play()
}

// Stop implements chip8.Buzzer.
func (app *App) Stop() {
	app.audio.stop()
}

// Report implements chip8.StatsReporter.
func (app *App) Report(s chip8.Stats) {
	app.showMessage(statsMessage(s), MessageBarInfoColor)
}

// ShowError puts the error on the message bar and keeps the window open
// until it is closed, Escape is pressed or ctx is done.
func (app *App) ShowError(ctx context.Context, err error) {
	app.showMessage(err.Error(), MessageBarErrorColor)
	if !app.booted || app.closed {
		return
	}

	app.audio.stop()
	for ctx.Err() == nil && !app.closeRequested() {
		app.repaint()
		app.sleep(app.frameInterval)
	}
}

func statsMessage(s chip8.Stats) string {
	return fmt.Sprintf("sound/delay: %dHz, cpu: %dHz", int(s.TimerHz()), int(s.CpuHz()))
}

func (app *App) showMessage(msg string, color rl.Color) {
	app.lastMessage = msg
	app.lastMessageColor = color
}

func (app *App) draw() {
	rl.BeginDrawing()

	rl.ClearBackground(ScreenBgColor)
	app.drawScreen()
	app.drawMessageBar()

	rl.EndDrawing()
}

func (app *App) drawMessageBar() {
	rl.DrawRectangle(
		0,
		int32(app.winH)-MessageBarHeigh,
		int32(app.winW),
		MessageBarHeigh,
		MessageBarBgColor,
	)

	// errors stand out in their own color, everything else uses the label style
	rl.DrawRectangle(0, int32(app.winH)-MessageBarHeigh, MessageBarGap/2, MessageBarHeigh, app.lastMessageColor)
	gui.Label(
		rl.NewRectangle(
			MessageBarGap,
			float32(app.winH-MessageBarHeigh+MessageBarGap),
			float32(app.winW-2*MessageBarGap),
			MessageBarHeigh-2*MessageBarGap,
		),
		app.lastMessage,
	)
}
