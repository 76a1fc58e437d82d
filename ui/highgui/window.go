package highgui

// OpenCV HighGUI implementation of the annotation surface. All calls must
// happen on the goroutine that created the window.

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"strconv"

	"github.com/soocke/hitlabel-go/domain/dataset"
	"github.com/soocke/hitlabel-go/domain/inference"
	"github.com/soocke/hitlabel-go/domain/labeling"
	"github.com/soocke/hitlabel-go/ui/theme"
	"gocv.io/x/gocv"
)

const (
	lineThickness = 2
	fontScale     = 1.0
	lineHeight    = 30
)

// Window is a named HighGUI window holding the image under annotation.
type Window struct {
	win     *gocv.Window
	canvas  gocv.Mat
	palette theme.Palette
	logger  *slog.Logger
}

// NewWindow opens a resizable window called name.
func NewWindow(name string, palette theme.Palette, logger *slog.Logger) *Window {
	w := gocv.NewWindow(name)
	w.SetWindowProperty(gocv.WindowPropertyAutosize, gocv.WindowNormal)
	return &Window{win: w, canvas: gocv.NewMat(), palette: palette, logger: logger}
}

// Show reads path from disk and displays it without overlay.
func (w *Window) Show(path string) error {
	img := gocv.IMRead(path, gocv.IMReadColor)
	if img.Empty() {
		img.Close()
		return fmt.Errorf("highgui: cannot read %s", path)
	}
	w.canvas.Close()
	w.canvas = img
	w.refresh()
	return nil
}

// ShowMat displays a copy of m.
func (w *Window) ShowMat(m gocv.Mat) error {
	if m.Empty() {
		return errors.New("highgui: empty frame")
	}
	w.canvas.Close()
	w.canvas = m.Clone()
	w.refresh()
	return nil
}

// Annotate overlays the running count followed by the help lines.
func (w *Window) Annotate(committed int, instructions []string) {
	if w.canvas.Empty() {
		return
	}
	y := lineHeight
	w.putText("Count: "+strconv.Itoa(committed), y)
	for _, line := range instructions {
		y += lineHeight
		w.putText(line, y)
	}
	w.refresh()
}

func (w *Window) putText(text string, y int) {
	gocv.PutText(&w.canvas, text, image.Pt(10, y), gocv.FontHersheySimplex, fontScale, w.palette.Text, lineThickness)
}

// DrawBox outlines b in the colour of c.
func (w *Window) DrawBox(b dataset.Box, c dataset.Class) {
	if w.canvas.Empty() {
		return
	}
	gocv.Rectangle(&w.canvas, b.Rect(), w.palette.ForClass(c), lineThickness)
	w.refresh()
}

// DrawRect outlines r with a caption above it.
func (w *Window) DrawRect(r image.Rectangle, caption string) {
	if w.canvas.Empty() {
		return
	}
	gocv.Rectangle(&w.canvas, r, w.palette.Predicted, lineThickness)
	if caption != "" {
		gocv.PutText(&w.canvas, caption, image.Pt(r.Min.X, r.Min.Y-4), gocv.FontHersheyPlain, fontScale, w.palette.Predicted, 1)
	}
	w.refresh()
}

// Present shows frame with every detection outlined and captioned.
func (w *Window) Present(frame image.Image, dets []inference.Detection) {
	m, err := gocv.ImageToMatRGB(frame)
	if err != nil {
		if w.logger != nil {
			w.logger.Warn("convert frame", "error", err)
		}
		return
	}
	defer m.Close()
	if err := w.ShowMat(m); err != nil {
		return
	}
	for _, d := range dets {
		w.DrawRect(d.Box.Image(), d.Label())
	}
}

// SelectBox lets the operator drag one rectangle. A cancelled or
// zero-area selection reports ok=false.
func (w *Window) SelectBox() (dataset.Box, bool) {
	if w.canvas.Empty() {
		return dataset.Box{}, false
	}
	r := w.win.SelectROI(w.canvas)
	// selectROI leaves its own overlay behind.
	w.refresh()
	b := dataset.BoxFromRect(r)
	if b.Empty() {
		return dataset.Box{}, false
	}
	return b, true
}

// WaitKey blocks until a key is pressed. It returns labeling.KeyClosed once
// the operator has closed the window.
func (w *Window) WaitKey() int {
	for {
		if k := w.Poll(0); k >= 0 {
			return k
		}
		if !w.Visible() {
			return labeling.KeyClosed
		}
	}
}

// Visible reports whether the window is still shown on screen.
func (w *Window) Visible() bool {
	return w.win.GetWindowProperty(gocv.WindowPropertyVisible) >= 1
}

// Poll waits up to delay milliseconds for a key; 0 waits forever. It
// returns -1 when no key was pressed.
func (w *Window) Poll(delay int) int {
	k := w.win.WaitKey(delay)
	if k < 0 {
		return -1
	}
	return k & 0xff
}

// Close destroys the window and releases the canvas.
func (w *Window) Close() error {
	w.canvas.Close()
	return w.win.Close()
}

func (w *Window) refresh() {
	if w.canvas.Empty() {
		if w.logger != nil {
			w.logger.Debug("refresh skipped, empty canvas")
		}
		return
	}
	w.win.IMShow(w.canvas)
}
