package video

import (
	"context"

	"gocv.io/x/gocv"
)

// QuitKey stops the run when pressed in the preview window.
const QuitKey = 'q'

// Display shows every frame in a window. Pressing QuitKey requests cancellation; the run then
// stops after the current frame.
type Display struct {
	window *gocv.Window
	cancel context.CancelFunc
}

// NewDisplay opens a preview window. cancel is called when QuitKey is pressed.
func NewDisplay(title string, cancel context.CancelFunc) *Display {
	return &Display{
		window: gocv.NewWindow(title),
		cancel: cancel,
	}
}

// Write shows frame and polls the keyboard for 1ms.
func (d *Display) Write(frame gocv.Mat) error {
	d.window.IMShow(frame)
	if key := d.window.WaitKey(1); key&0xFF == QuitKey && d.cancel != nil {
		d.cancel()
	}
	return nil
}

// Close destroys the window.
func (d *Display) Close() error {
	return d.window.Close()
}
