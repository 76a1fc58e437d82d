package capture

import (
	"context"
	"image"
	"log/slog"
	"time"

	"github.com/soocke/hitlabel-go/domain/inference"
	"github.com/soocke/hitlabel-go/ui/images"
)

const keyEsc = 27

// Detector runs object detection on one frame.
type Detector interface {
	Detect(img image.Image) ([]inference.Detection, error)
}

// Preview displays a model input with its detections and polls for a key.
type Preview interface {
	Present(frame image.Image, dets []inference.Detection)
	// Poll waits up to delay milliseconds and returns the pressed key or -1.
	Poll(delay int) int
}

// LiveOptions configures a LiveLoop.
type LiveOptions struct {
	InputSize     int
	SaveThreshold float32
	FrameBudget   time.Duration
	Ext           string
}

// LiveStats summarises a live session.
type LiveStats struct {
	Frames    int
	Uncertain int
	Errors    int
}

// LiveLoop feeds screen frames through a detector, previews the result and
// saves frames the detector is unsure about.
type LiveLoop struct {
	src     FrameSource
	det     Detector
	preview Preview
	out     FrameWriter
	opts    LiveOptions
	logger  *slog.Logger
}

// NewLiveLoop constructs a LiveLoop.
func NewLiveLoop(src FrameSource, det Detector, preview Preview, out FrameWriter, opts LiveOptions, logger *slog.Logger) *LiveLoop {
	if opts.InputSize <= 0 {
		opts.InputSize = 640
	}
	if opts.FrameBudget <= 0 {
		opts.FrameBudget = time.Second / 60
	}
	if opts.Ext == "" {
		opts.Ext = ".png"
	}
	return &LiveLoop{src: src, det: det, preview: preview, out: out, opts: opts, logger: logger}
}

// Run processes frames until ctx is cancelled or Esc is pressed.
func (l *LiveLoop) Run(ctx context.Context) LiveStats {
	var stats LiveStats
	var last uint64
	rect := image.Rect(0, 0, l.opts.InputSize, l.opts.InputSize)
	for ctx.Err() == nil {
		started := time.Now()
		snap, ok := WaitFrame(l.src, last, l.opts.FrameBudget)
		if !ok {
			if l.poll(started) {
				break
			}
			continue
		}
		last = snap.Sequence
		stats.Frames++

		input := AcquireFrame(rect)
		images.Stretch(input, snap.Image)
		dets, err := l.det.Detect(input)
		if err != nil {
			stats.Errors++
			if l.logger != nil {
				l.logger.Error("live detection", "error", err)
			}
		}
		if inference.Uncertain(dets, l.opts.SaveThreshold) {
			stats.Uncertain++
			l.out.Enqueue(snap.Image, FrameName(snap.CapturedAt, l.opts.Ext))
		}
		l.preview.Present(input, dets)
		RecycleFrame(input)
		if l.poll(started) {
			break
		}
	}
	if l.logger != nil {
		l.logger.Info("live session ended", "frames", stats.Frames, "uncertain", stats.Uncertain, "errors", stats.Errors)
	}
	return stats
}

// poll waits out the rest of the frame budget and reports whether the
// operator asked to stop.
func (l *LiveLoop) poll(started time.Time) bool {
	wait := l.opts.FrameBudget - time.Since(started)
	ms := max(int(wait/time.Millisecond), 1)
	return l.preview.Poll(ms) == keyEsc
}
