package inference

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/soocke/hitlabel-go/domain/dataset"
)

// ErrOutputShape is returned when a network output matches neither the
// row-per-candidate nor the transposed layout.
var ErrOutputShape = errors.New("inference: unexpected output shape")

// Rect is a float box in corner form.
type Rect struct {
	X1, Y1, X2, Y2 float32
}

// RectFromCenter converts centre/size form into corner form.
func RectFromCenter(cx, cy, w, h float32) Rect {
	return Rect{X1: cx - w/2, Y1: cy - h/2, X2: cx + w/2, Y2: cy + h/2}
}

func (r Rect) Width() float32  { return r.X2 - r.X1 }
func (r Rect) Height() float32 { return r.Y2 - r.Y1 }

func (r Rect) Area() float32 {
	if r.X2 <= r.X1 || r.Y2 <= r.Y1 {
		return 0
	}
	return r.Width() * r.Height()
}

// IoU returns the intersection over union of r and o.
func (r Rect) IoU(o Rect) float32 {
	w := min(r.X2, o.X2) - max(r.X1, o.X1)
	h := min(r.Y2, o.Y2) - max(r.Y1, o.Y1)
	if w <= 0 || h <= 0 {
		return 0
	}
	inter := w * h
	union := r.Area() + o.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// Scale multiplies x coordinates by sx and y coordinates by sy.
func (r Rect) Scale(sx, sy float32) Rect {
	return Rect{X1: r.X1 * sx, Y1: r.Y1 * sy, X2: r.X2 * sx, Y2: r.Y2 * sy}
}

// Image rounds r to an integer rectangle.
func (r Rect) Image() image.Rectangle {
	return image.Rect(
		int(math.Round(float64(r.X1))), int(math.Round(float64(r.Y1))),
		int(math.Round(float64(r.X2))), int(math.Round(float64(r.Y2))),
	)
}

// Detection is one decoded object.
type Detection struct {
	Class      int
	Confidence float32
	Box        Rect
}

// Label renders the class name and confidence.
func (d Detection) Label() string {
	name := fmt.Sprintf("class_%d", d.Class)
	if d.Class >= 0 && d.Class < len(dataset.Classes) {
		name = dataset.Class(d.Class).String()
	}
	return fmt.Sprintf("%s %.2f", name, d.Confidence)
}

// Uncertain reports whether any detection scored below threshold.
func Uncertain(dets []Detection, threshold float32) bool {
	for _, d := range dets {
		if d.Confidence < threshold {
			return true
		}
	}
	return false
}

// ScaleAll maps detections from a model input of inW x inH onto a source
// image of srcW x srcH.
func ScaleAll(dets []Detection, inW, inH, srcW, srcH int) []Detection {
	if inW <= 0 || inH <= 0 {
		return dets
	}
	sx := float32(srcW) / float32(inW)
	sy := float32(srcH) / float32(inH)
	out := make([]Detection, len(dets))
	for i, d := range dets {
		d.Box = d.Box.Scale(sx, sy)
		out[i] = d
	}
	return out
}
