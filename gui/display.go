package gui

import (
	"github.com/guslan/chip8"

	rl "github.com/gen2brain/raylib-go/raylib"
)

var ScreenBgColor = rl.Black
var ScreenPixelColor = rl.NewColor(50, 90, 255, 255)

// Render implements chip8.Display. The frame is kept until the next repaint.
func (app *App) Render(fb chip8.FrameBuffer) error {
	app.screen = fb

	return nil
}

func (app *App) drawScreen() {
	for y := 0; y < chip8.ScreenHeight; y++ {
		for x := 0; x < chip8.ScreenWidth; x++ {
			if app.screen.Pixel(x, y) {
				rl.DrawRectangle(
					ScreenPositionX+ScreenPixelSize*int32(x),
					ScreenPositionY+ScreenPixelSize*int32(y),
					ScreenPixelSize,
					ScreenPixelSize,
					ScreenPixelColor)
			}
		}
	}
}
