package capture

import "image"

// FrameSource provides read-only access to captured frames.
// LatestFrame returns the freshest snapshot while Running reports activity.
type FrameSource interface {
	LatestFrame() FrameSnapshot
	Running() bool
}

// FrameWriter persists frames asynchronously.
type FrameWriter interface {
	Enqueue(img image.Image, name string) bool
}
