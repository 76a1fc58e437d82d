package training

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"
)

// ErrNoManifest is returned when the dataset manifest does not exist.
var ErrNoManifest = errors.New("dataset manifest not found")

// Options configures a training run.
type Options struct {
	Bin       string // trainer executable, e.g. "yolo"
	Manifest  string // dataset.yaml
	BaseModel string
	Epochs    int
	ImageSize int
	// Extra holds additional key=value arguments.
	Extra []string
}

// Args returns the trainer arguments without the executable.
func (o Options) Args() []string {
	args := []string{
		"detect", "train",
		"data=" + o.Manifest,
		"model=" + o.BaseModel,
		"epochs=" + strconv.Itoa(o.Epochs),
		"imgsz=" + strconv.Itoa(o.ImageSize),
	}
	return append(args, o.Extra...)
}

// Trainer runs the external trainer and forwards its output to the logger.
type Trainer struct {
	opts   Options
	logger *slog.Logger
	// command builds the process; replaced in tests.
	command func(ctx context.Context, name string, args ...string) *exec.Cmd
}

// New constructs a Trainer.
func New(opts Options, logger *slog.Logger) *Trainer {
	return &Trainer{opts: opts, logger: logger, command: exec.CommandContext}
}

// Run starts the trainer and blocks until it exits or ctx is cancelled.
func (t *Trainer) Run(ctx context.Context) error {
	if _, err := os.Stat(t.opts.Manifest); err != nil {
		return fmt.Errorf("%w: %s", ErrNoManifest, t.opts.Manifest)
	}
	args := t.opts.Args()
	cmd := t.command(ctx, t.opts.Bin, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("trainer stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("trainer stderr: %w", err)
	}
	started := time.Now()
	if t.logger != nil {
		t.logger.Info("training started", "bin", t.opts.Bin, "args", args)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start trainer: %w", err)
	}
	var wg sync.WaitGroup
	wg.Add(2)
	go t.forward(&wg, stdout, "stdout")
	go t.forward(&wg, stderr, "stderr")
	wg.Wait()
	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("trainer exited: %w", err)
	}
	if t.logger != nil {
		t.logger.Info("training finished", "took", time.Since(started))
	}
	return nil
}

func (t *Trainer) forward(wg *sync.WaitGroup, r io.Reader, stream string) {
	defer wg.Done()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		if t.logger != nil {
			t.logger.Info("trainer", "stream", stream, "line", sc.Text())
		}
	}
}
