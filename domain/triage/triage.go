package triage

import (
	"context"
	"fmt"
	"image"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/disintegration/imaging"
)

// Options configures a Triager.
type Options struct {
	FramesDir string
	OutDir    string
	ImageExt  string
	Workers   int
}

// Frame is one raw frame and its verdict.
type Frame struct {
	Path  string
	State State
	Err   error
}

// Report summarises a triage run.
type Report struct {
	Targets   int
	NoTargets int
	Failed    int
	Elapsed   time.Duration
}

// Classifier decides the state of a decoded frame.
type Classifier interface {
	Classify(img image.Image) State
}

// Triager sorts raw frames into target and no-target directories.
type Triager struct {
	opts       Options
	classifier Classifier
	logger     *slog.Logger
	open       func(path string) (image.Image, error)
}

// New constructs a Triager.
func New(opts Options, classifier Classifier, logger *slog.Logger) *Triager {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Triager{opts: opts, classifier: classifier, logger: logger, open: func(p string) (image.Image, error) { return imaging.Open(p) }}
}

// Discover walks FramesDir and returns every frame in path order.
func (t *Triager) Discover() ([]Frame, error) {
	var frames []Frame
	err := filepath.WalkDir(t.opts.FramesDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if t.opts.ImageExt != "" && !strings.EqualFold(filepath.Ext(path), t.opts.ImageExt) {
			return nil
		}
		frames = append(frames, Frame{Path: path})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discover frames: %w", err)
	}
	sort.Slice(frames, func(i, j int) bool { return frames[i].Path < frames[j].Path })
	return frames, nil
}

// OutputPath returns <OutDir>/<parent>/<state>/<file> for a frame.
func (t *Triager) OutputPath(f Frame) string {
	parent := filepath.Base(filepath.Dir(f.Path))
	return filepath.Join(t.opts.OutDir, parent, f.State.String(), filepath.Base(f.Path))
}

// Run classifies and copies every discovered frame using a bounded worker
// pool. Per-frame failures are logged and counted, not returned.
func (t *Triager) Run(ctx context.Context) (Report, error) {
	started := time.Now()
	frames, err := t.Discover()
	if err != nil {
		return Report{}, err
	}
	total := len(frames)
	if t.logger != nil {
		t.logger.Info("triage started", "frames", total, "workers", t.opts.Workers)
	}

	jobs := make(chan int)
	var done atomic.Int64
	var wg sync.WaitGroup
	for w := 0; w < t.opts.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				frames[i] = t.process(frames[i])
				n := done.Add(1)
				if t.logger != nil {
					t.logger.Debug("processed frame", "n", n, "total", total, "state", frames[i].State.String())
				}
			}
		}()
	}
feed:
	for i := range frames {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	var rep Report
	for _, f := range frames {
		switch {
		case f.Err != nil:
			rep.Failed++
		case f.State == StateTargets:
			rep.Targets++
		case f.State == StateNoTargets:
			rep.NoTargets++
		}
	}
	rep.Elapsed = time.Since(started)
	if t.logger != nil {
		t.logger.Info("triage finished", "targets", rep.Targets, "no_targets", rep.NoTargets, "failed", rep.Failed, "took", rep.Elapsed)
	}
	return rep, ctx.Err()
}

// process classifies and copies one frame. A panic in the classifier is
// recorded on the frame so the worker keeps draining jobs.
func (t *Triager) process(f Frame) (out Frame) {
	out = f
	defer func() {
		if r := recover(); r != nil {
			out.State = StateUncategorised
			out.Err = fmt.Errorf("classify %s: panic: %v", f.Path, r)
			if t.logger != nil {
				t.logger.Error("panic recovered", "where", "triage worker", "frame", f.Path, "panic", r)
			}
		}
	}()
	img, err := t.open(f.Path)
	if err != nil {
		out.Err = fmt.Errorf("decode %s: %w", f.Path, err)
		t.warn(out)
		return out
	}
	out.State = t.classifier.Classify(img)
	if err := copyFile(f.Path, t.OutputPath(out)); err != nil {
		out.Err = err
		t.warn(out)
	}
	return out
}

func (t *Triager) warn(f Frame) {
	if t.logger != nil {
		t.logger.Warn("frame skipped", "frame", f.Path, "error", f.Err)
	}
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(dst), err)
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return out.Close()
}
