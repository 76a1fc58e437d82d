package images

import (
	"image"
	"image/color"
	"testing"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestStretch_FillsDestination(t *testing.T) {
	src := solid(300, 100, color.RGBA{0, 0, 255, 255})
	dst := image.NewRGBA(image.Rect(0, 0, 64, 64))
	Stretch(dst, src)
	for _, p := range []image.Point{{0, 0}, {63, 63}, {32, 10}} {
		if c := dst.RGBAAt(p.X, p.Y); c.B != 255 || c.A != 255 {
			t.Fatalf("pixel %v not filled: %v", p, c)
		}
	}
	Stretch(nil, src)
}
