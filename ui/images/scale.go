package images

import (
	"image"

	"golang.org/x/image/draw"
)

// Stretch resizes src to exactly fill dst, ignoring aspect ratio. This is
// the square model input used for inference.
func Stretch(dst *image.RGBA, src image.Image) {
	if dst == nil || src == nil {
		return
	}
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
}
