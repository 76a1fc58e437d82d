package capture

import (
	"log/slog"
	"sync/atomic"
	"time"
)

const captureStatsLogInterval = 5 * time.Second

// CaptureService acquires screen frames in the background and exposes the
// latest capture alongside instrumentation data. Use NewCaptureService to
// construct an instance.
type CaptureService interface {
	Start()
	Stop()
	LatestFrame() FrameSnapshot
	Running() bool
	Stats() CaptureStats
}

type captureService struct {
	running      atomic.Bool
	latest       atomic.Pointer[FrameSnapshot]
	grab         GrabFunc
	pause        time.Duration
	logger       *slog.Logger
	captures     atomic.Uint64
	failed       atomic.Uint64
	captureNanos atomic.Uint64
	sequence     atomic.Uint64
}

func newCaptureService(logger *slog.Logger, grab GrabFunc, pause time.Duration) *captureService {
	if grab == nil {
		grab = Grab
	}
	if pause <= 0 {
		pause = 200 * time.Microsecond
	}
	return &captureService{grab: grab, pause: pause, logger: logger}
}

// NewCaptureService constructs a capture service. grab defaults to a full
// screen capture; pause is the idle time between two grabs.
func NewCaptureService(logger *slog.Logger, grab GrabFunc, pause time.Duration) CaptureService {
	return newCaptureService(logger, grab, pause)
}

func (s *captureService) LatestFrame() FrameSnapshot {
	snap := s.latest.Load()
	if snap == nil {
		return FrameSnapshot{}
	}
	return *snap
}

func (s *captureService) Running() bool { return s.running.Load() }

func (s *captureService) Stats() CaptureStats {
	captures := s.captures.Load()
	var avg time.Duration
	if total := s.captureNanos.Load(); captures > 0 {
		avg = time.Duration(total / captures)
	}
	snapshot := s.LatestFrame()
	age := time.Duration(0)
	if !snapshot.CapturedAt.IsZero() {
		age = time.Since(snapshot.CapturedAt)
	}
	return CaptureStats{
		Captures:       captures,
		Failed:         s.failed.Load(),
		AvgCapture:     avg,
		LastCapture:    snapshot.CapturedAt,
		LatestFrameAge: age,
		Sequence:       snapshot.Sequence,
	}
}

func (s *captureService) Start() {
	if !s.running.CompareAndSwap(false, true) {
		return
	}
	go s.loop()
}

func (s *captureService) Stop() { s.running.Store(false) }

func (s *captureService) loop() {
	defer func() {
		if r := recover(); r != nil {
			s.running.Store(false)
			if s.logger != nil {
				s.logger.Error("capture loop panic", "panic", r)
			}
		}
	}()
	logTicker := time.NewTicker(captureStatsLogInterval)
	defer logTicker.Stop()
	for s.running.Load() {
		start := time.Now()
		img, err := s.grab()
		if err != nil && s.logger != nil {
			s.logger.Error("capture", "error", err)
		}
		if img == nil {
			s.failed.Add(1)
			time.Sleep(1 * time.Millisecond)
			continue
		}

		elapsed := time.Since(start)
		s.captureNanos.Add(uint64(elapsed.Nanoseconds()))
		s.captures.Add(1)
		seq := s.sequence.Add(1)
		s.latest.Store(&FrameSnapshot{Image: img, CapturedAt: time.Now(), Sequence: seq})

		select {
		case <-logTicker.C:
			s.logStats()
		default:
		}

		time.Sleep(s.pause)
	}
}

func (s *captureService) logStats() {
	if s.logger == nil {
		return
	}
	stats := s.Stats()
	s.logger.Debug("capture.stats",
		"captures", stats.Captures,
		"failed", stats.Failed,
		"avg_capture", stats.AvgCapture,
		"age", stats.LatestFrameAge,
	)
}

// WaitFrame polls src until a frame newer than after is available or
// timeout elapses.
func WaitFrame(src FrameSource, after uint64, timeout time.Duration) (FrameSnapshot, bool) {
	deadline := time.Now().Add(timeout)
	for {
		snap := src.LatestFrame()
		if snap.Image != nil && snap.Sequence > after {
			return snap, true
		}
		if time.Now().After(deadline) {
			return snap, false
		}
		time.Sleep(time.Millisecond)
	}
}

var _ FrameSource = (*captureService)(nil)
