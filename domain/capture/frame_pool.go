package capture

import (
	"image"
	"sync"
)

// Reusable RGBA buffers for the fixed-size model input of the live loop.
// Frames from the screenshot library are always freshly allocated; the pool
// only avoids allocating a new square input per live iteration.

var framePool sync.Pool // stores *image.RGBA

// AcquireFrame returns a reusable RGBA image sized to rect. The returned Pix
// length exactly matches rect area * 4, and Stride is width*4. Pixel content
// is undefined.
func AcquireFrame(rect image.Rectangle) *image.RGBA {
	w, h := rect.Dx(), rect.Dy()
	if w <= 0 || h <= 0 {
		return &image.RGBA{Rect: rect}
	}
	needed := w * h * 4
	var img *image.RGBA
	if v := framePool.Get(); v != nil {
		img = v.(*image.RGBA)
	}
	if img == nil || cap(img.Pix) < needed {
		img = &image.RGBA{Pix: make([]byte, needed), Stride: w * 4, Rect: rect}
	} else {
		img.Stride = w * 4
		img.Rect = rect
		img.Pix = img.Pix[:needed]
	}
	return img
}

// RecycleFrame returns the frame to the pool for potential reuse. The frame
// must no longer be accessed by the caller after invoking RecycleFrame.
func RecycleFrame(img *image.RGBA) {
	if img == nil || img.Pix == nil {
		return
	}
	framePool.Put(img)
}
