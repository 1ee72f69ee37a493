package gui

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeWindow stands in for raylib, asking to close after a number of checks
type fakeWindow struct {
	checksBeforeClose int
	repaints          int
	sleeps            int
}

func newFakeApp(w *fakeWindow) *App {
	app := NewApp()
	app.booted = true
	app.closeRequested = func() bool {
		w.checksBeforeClose--
		return w.checksBeforeClose < 0
	}
	app.repaint = func() { w.repaints++ }
	app.sleep = func(time.Duration) { w.sleeps++ }

	return app
}

func TestShowErrorKeepsTheWindowOpen(t *testing.T) {
	w := &fakeWindow{checksBeforeClose: 3}
	app := newFakeApp(w)

	app.ShowError(context.Background(), errors.New("stack underflow"))

	if w.repaints != 3 || w.sleeps != 3 {
		t.Fatalf(`repaints=%d sleeps=%d, expected 3 of each before the window closed`, w.repaints, w.sleeps)
	}
	if app.lastMessage != "stack underflow" || app.lastMessageColor != MessageBarErrorColor {
		t.Fatalf(`message bar shows %q`, app.lastMessage)
	}
}

func TestShowErrorStopsWhenCancelled(t *testing.T) {
	w := &fakeWindow{checksBeforeClose: 1 << 30}
	app := newFakeApp(w)

	ctx, cancel := context.WithCancel(context.Background())
	app.sleep = func(time.Duration) {
		w.sleeps++
		if w.sleeps == 2 {
			cancel()
		}
	}

	app.ShowError(ctx, errors.New("boom"))

	if w.repaints != 2 {
		t.Fatalf(`repaints=%d, expected the loop to end after cancellation`, w.repaints)
	}
}

func TestShowErrorWithoutWindow(t *testing.T) {
	w := &fakeWindow{checksBeforeClose: 1 << 30}
	app := newFakeApp(w)
	app.booted = false

	app.ShowError(context.Background(), errors.New("boom"))

	if w.repaints != 0 {
		t.Fatalf(`repainted %d times without a window`, w.repaints)
	}
	if app.lastMessage != "boom" {
		t.Fatalf(`message bar shows %q`, app.lastMessage)
	}
}
