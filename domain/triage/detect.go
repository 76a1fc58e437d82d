package triage

import (
	"image"
	"image/color"
	"sync/atomic"

	"github.com/anthonynsimon/bild/clone"
	"github.com/anthonynsimon/bild/parallel"
	"github.com/soocke/hitlabel-go/config"
)

// State is the triage verdict for one frame. The string form is the name of
// the output directory.
type State int

const (
	StateUncategorised State = iota
	StateNoTargets
	StateTargets
)

func (s State) String() string {
	switch s {
	case StateNoTargets:
		return "no_targets"
	case StateTargets:
		return "targets"
	default:
		return "uncategorised"
	}
}

// ColorDetector flags frames containing a pixel close to a target colour
// outside a set of ignored regions.
type ColorDetector struct {
	target    color.RGBA
	tolerance float64
	ignored   []config.Region
}

// NewColorDetector returns a detector matching target within tolerance (a
// fraction of each target channel). Regions have inclusive bounds.
func NewColorDetector(target color.RGBA, tolerance float64, ignored []config.Region) *ColorDetector {
	return &ColorDetector{target: target, tolerance: tolerance, ignored: ignored}
}

func (d *ColorDetector) ignoredAt(x, y int) bool {
	for _, r := range d.ignored {
		if x >= r.X0 && x <= r.X1 && y >= r.Y0 && y <= r.Y1 {
			return true
		}
	}
	return false
}

func within(v, target uint8, tol float64) bool {
	diff := float64(v) - float64(target)
	if diff < 0 {
		diff = -diff
	}
	return diff < tol*float64(target)
}

// Matches reports whether c is within tolerance of the target colour.
func (d *ColorDetector) Matches(c color.RGBA) bool {
	return within(c.R, d.target.R, d.tolerance) &&
		within(c.G, d.target.G, d.tolerance) &&
		within(c.B, d.target.B, d.tolerance)
}

// Classify scans img and returns StateTargets on the first matching pixel.
func (d *ColorDetector) Classify(img image.Image) State {
	if img == nil {
		return StateUncategorised
	}
	rgba := clone.AsRGBA(img)
	b := rgba.Bounds()
	var found atomic.Bool
	parallel.Line(b.Dy(), func(start, end int) {
		for y := start; y < end; y++ {
			if found.Load() {
				return
			}
			py := b.Min.Y + y
			for x := b.Min.X; x < b.Max.X; x++ {
				if d.ignoredAt(x, py) {
					continue
				}
				if d.Matches(rgba.RGBAAt(x, py)) {
					found.Store(true)
					return
				}
			}
		}
	})
	if found.Load() {
		return StateTargets
	}
	return StateNoTargets
}
