package capture

import (
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/disintegration/imaging"
)

type saveJob struct {
	img  image.Image
	name string
}

// Saver writes frames to a directory on a background goroutine. Enqueue
// never blocks; frames are dropped when the queue is full.
type Saver struct {
	dir     string
	queue   chan saveJob
	logger  *slog.Logger
	wg      sync.WaitGroup
	once    sync.Once
	saved   atomic.Uint64
	dropped atomic.Uint64
	failed  atomic.Uint64
}

// NewSaver creates dir and starts the writer goroutine.
func NewSaver(dir string, depth int, logger *slog.Logger) (*Saver, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create save dir: %w", err)
	}
	if depth <= 0 {
		depth = 16
	}
	s := &Saver{dir: dir, queue: make(chan saveJob, depth), logger: logger}
	s.wg.Add(1)
	go s.loop()
	return s, nil
}

// Enqueue schedules img to be written as name inside the save directory.
func (s *Saver) Enqueue(img image.Image, name string) bool {
	select {
	case s.queue <- saveJob{img: img, name: name}:
		return true
	default:
		s.dropped.Add(1)
		if s.logger != nil {
			s.logger.Warn("save queue full, frame dropped", "name", name)
		}
		return false
	}
}

func (s *Saver) loop() {
	defer s.wg.Done()
	for job := range s.queue {
		path := filepath.Join(s.dir, job.name)
		if err := imaging.Save(job.img, path); err != nil {
			s.failed.Add(1)
			if s.logger != nil {
				s.logger.Error("save frame", "path", path, "error", err)
			}
			continue
		}
		s.saved.Add(1)
		if s.logger != nil {
			s.logger.Debug("saved frame", "path", path)
		}
	}
}

// Close drains the queue and waits for pending writes.
func (s *Saver) Close() {
	s.once.Do(func() { close(s.queue) })
	s.wg.Wait()
}

// Counts reports saved, dropped and failed frames.
func (s *Saver) Counts() (saved, dropped, failed uint64) {
	return s.saved.Load(), s.dropped.Load(), s.failed.Load()
}

// Dir is the save directory.
func (s *Saver) Dir() string { return s.dir }

var _ FrameWriter = (*Saver)(nil)
