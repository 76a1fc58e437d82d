package capture

import (
	"context"
	"log/slog"
	"path/filepath"
	"strconv"
	"time"
)

// SessionDir returns a fresh per-run directory under root.
func SessionDir(root string, now time.Time) string {
	return filepath.Join(root, now.Format("20060102_150405"))
}

// FrameName names a frame by its capture time.
func FrameName(t time.Time, ext string) string {
	return strconv.FormatInt(t.UnixMilli(), 10) + ext
}

// Recorder saves the latest frame of a source at a fixed interval.
type Recorder struct {
	src      FrameSource
	out      FrameWriter
	interval time.Duration
	ext      string
	logger   *slog.Logger
}

// NewRecorder constructs a Recorder writing frames with extension ext.
func NewRecorder(src FrameSource, out FrameWriter, interval time.Duration, ext string, logger *slog.Logger) *Recorder {
	if interval <= 0 {
		interval = time.Second
	}
	if ext == "" {
		ext = ".png"
	}
	return &Recorder{src: src, out: out, interval: interval, ext: ext, logger: logger}
}

// Run records until ctx is cancelled and returns the number of frames
// enqueued. A frame is never written twice.
func (r *Recorder) Run(ctx context.Context) int {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	var last uint64
	n := 0
	for {
		select {
		case <-ctx.Done():
			if r.logger != nil {
				r.logger.Info("recording stopped", "frames", n)
			}
			return n
		case <-ticker.C:
			snap := r.src.LatestFrame()
			if snap.Image == nil || snap.Sequence == last {
				continue
			}
			last = snap.Sequence
			if r.out.Enqueue(snap.Image, FrameName(snap.CapturedAt, r.ext)) {
				n++
			}
		}
	}
}
