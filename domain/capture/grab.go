package capture

import (
	"errors"
	"fmt"
	"image"
	"strconv"
	"strings"

	"github.com/vova616/screenshot"
)

// GrabFunc returns one freshly captured frame.
type GrabFunc func() (*image.RGBA, error)

// Grab returns a capture of the primary screen.
func Grab() (*image.RGBA, error) {
	return screenshot.CaptureScreen()
}

// GrabRegion captures region of the screen.
func GrabRegion(region image.Rectangle) (*image.RGBA, error) {
	if region.Empty() {
		return nil, errors.New("capture: empty region")
	}
	return screenshot.CaptureRect(region)
}

// ScreenGrabber returns a GrabFunc for region, or for the whole screen when
// region is nil or empty.
func ScreenGrabber(region *image.Rectangle) GrabFunc {
	if region == nil || region.Empty() {
		return Grab
	}
	r := *region
	return func() (*image.RGBA, error) { return GrabRegion(r) }
}

// ScreenBounds reports the primary screen rectangle.
func ScreenBounds() (image.Rectangle, error) {
	return screenshot.ScreenRect()
}

// ParseRegion parses "x0,y0,x1,y1". An empty string means the full screen
// and yields nil.
func ParseRegion(s string) (*image.Rectangle, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("region %q: want x0,y0,x1,y1", s)
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("region %q: %w", s, err)
		}
		v[i] = n
	}
	r := image.Rect(v[0], v[1], v[2], v[3])
	if r.Empty() {
		return nil, fmt.Errorf("region %q is empty", s)
	}
	return &r, nil
}
