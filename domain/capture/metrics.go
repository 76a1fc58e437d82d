package capture

import (
	"image"
	"time"
)

// FrameSnapshot is one published screen grab.
type FrameSnapshot struct {
	Image      *image.RGBA
	CapturedAt time.Time
	Sequence   uint64 // strictly increasing; 0 means no frame yet
}

// CaptureStats reports the capture loop's throughput.
type CaptureStats struct {
	Captures       uint64 // frames published
	Failed         uint64 // grabs that returned no frame
	AvgCapture     time.Duration
	LastCapture    time.Time
	LatestFrameAge time.Duration
	Sequence       uint64
}
