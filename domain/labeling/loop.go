package labeling

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/soocke/hitlabel-go/domain/dataset"
)

// Options configures a Runner.
type Options struct {
	// InitialCount seeds the running committed count shown on the overlay.
	InitialCount int
	Instructions []string
	Keys         KeyMap
}

// Runner drives the interactive annotation loop over a sequence of images.
// It is single-threaded and blocks on the surface for every operator input.
type Runner struct {
	repo      dataset.Repository
	surface   Surface
	logger    *slog.Logger
	opts      Options
	state     ImageState
	outcome   Outcome
	count     int
	listeners []StateListener
}

// NewRunner constructs a Runner. Zero-valued options fall back to the
// default key map and instructions.
func NewRunner(repo dataset.Repository, surface Surface, logger *slog.Logger, opts Options) *Runner {
	if opts.Keys == nil {
		opts.Keys = DefaultKeyMap()
	}
	if opts.Instructions == nil {
		opts.Instructions = DefaultInstructions()
	}
	return &Runner{repo: repo, surface: surface, logger: logger, opts: opts, count: opts.InitialCount}
}

// AddListener registers l for every per-image state transition.
func (r *Runner) AddListener(l StateListener) { r.listeners = append(r.listeners, l) }

// Current returns the per-image state.
func (r *Runner) Current() ImageState { return r.state }

// Count returns the running committed count.
func (r *Runner) Count() int { return r.count }

// draft holds the boxes drawn for the image under annotation.
type draft struct {
	enemy []dataset.Box
	ally  []dataset.Box
	base  *dataset.Box
}

func (d *draft) add(c dataset.Class, b dataset.Box) {
	switch c {
	case dataset.ClassEnemyRobot:
		d.enemy = append(d.enemy, b)
	case dataset.ClassAllyRobot:
		d.ally = append(d.ally, b)
	case dataset.ClassEnemyBase:
		d.base = &b
	}
}

func (d *draft) record(image string) dataset.Record {
	return dataset.Record{Image: image, Enemy: d.enemy, Ally: d.ally, Base: d.base}
}

// Run annotates images in order. It returns when every image has been
// handled or the operator aborts. Only persistence failures are returned as
// errors.
func (r *Runner) Run(images []string) (Summary, error) {
	sum := Summary{Outcome: OutcomeRunning}
	r.outcome = OutcomeRunning
	for i, img := range images {
		if r.repo.HasRecord(img) {
			if r.logger != nil {
				r.logger.Info("skipping image, record already exists", "image", img)
			}
			r.transition(img, StateSkipped)
			sum.Skipped++
			continue
		}
		var prev string
		if i > 0 {
			prev = images[i-1]
		}
		next, err := r.annotate(img, prev, &sum)
		if err != nil {
			sum.Count = r.count
			return sum, err
		}
		switch next {
		case StateCommitted:
			sum.Committed++
		case StateSkipped:
			sum.Skipped++
		}
		if r.outcome == OutcomeAborted {
			sum.Outcome = OutcomeAborted
			sum.Count = r.count
			if r.logger != nil {
				r.logger.Info("labeling aborted", "image", img, "committed", sum.Committed)
			}
			return sum, nil
		}
	}
	r.outcome = OutcomeFinished
	sum.Outcome = OutcomeFinished
	sum.Count = r.count
	return sum, nil
}

// annotate runs the inner command loop for one image. prev is the image
// before it in the sequence, or "" for the first one.
func (r *Runner) annotate(img, prev string, sum *Summary) (ImageState, error) {
	r.transition(img, StateIdle)
	if err := r.display(img); err != nil {
		if r.logger != nil {
			r.logger.Warn("cannot display image", "image", img, "error", err)
		}
		r.transition(img, StateSkipped)
		return StateSkipped, nil
	}
	if r.logger != nil {
		r.logger.Info("showing image", "image", img, "count", r.count)
	}
	var d draft
	r.transition(img, StateAwaitingInput)
	for {
		key := r.surface.WaitKey()
		ev := r.opts.Keys.Lookup(key)
		switch ev {
		case EventAbort:
			r.outcome = OutcomeAborted
			return r.state, nil
		case EventCommit:
			started := time.Now()
			if err := r.repo.SaveRecord(d.record(img)); err != nil {
				return r.state, fmt.Errorf("commit %s: %w", img, err)
			}
			r.count++
			r.transition(img, StateCommitted)
			if r.logger != nil {
				r.logger.Debug("record committed", "image", img, "count", r.count, "took", time.Since(started))
			}
			return StateCommitted, nil
		case EventDrawEnemy, EventDrawAlly, EventDrawBase:
			class, _ := ev.drawClass()
			r.transition(img, StateDrawingBox)
			if b, ok := r.surface.SelectBox(); ok && !b.Empty() {
				d.add(class, b)
				r.surface.DrawBox(b, class)
				if r.logger != nil {
					r.logger.Info("bounding box", "class", class.String(), "x", b.X, "y", b.Y, "w", b.Width, "h", b.Height)
				}
			} else if r.logger != nil {
				r.logger.Debug("selection cancelled", "class", class.String())
			}
			r.transition(img, StateAwaitingInput)
		case EventClear:
			d = draft{}
			r.transition(img, StateCleared)
			r.transition(img, StateIdle)
			if err := r.display(img); err != nil && r.logger != nil {
				r.logger.Warn("cannot redraw image", "image", img, "error", err)
			}
			r.transition(img, StateAwaitingInput)
		case EventUndoPrevious:
			if prev == "" {
				continue
			}
			removed, err := r.repo.DeleteRecord(prev)
			if err != nil && r.logger != nil {
				r.logger.Warn("undo previous failed", "image", prev, "error", err)
			}
			if removed {
				r.count--
				sum.Undone++
				r.redraw(img, &d)
			}
		default:
			if r.logger != nil {
				r.logger.Debug("key pressed", "key", key)
			}
		}
	}
}

func (r *Runner) display(img string) error {
	if err := r.surface.Show(img); err != nil {
		return err
	}
	r.surface.Annotate(r.count, r.opts.Instructions)
	return nil
}

// redraw shows img again with the current overlay and the draft boxes.
func (r *Runner) redraw(img string, d *draft) {
	if err := r.display(img); err != nil {
		if r.logger != nil {
			r.logger.Warn("cannot redraw image", "image", img, "error", err)
		}
		return
	}
	for _, lb := range d.record(img).Boxes() {
		r.surface.DrawBox(lb.Box, lb.Class)
	}
}

func (r *Runner) transition(img string, next ImageState) {
	prev := r.state
	r.state = next
	if r.logger != nil {
		r.logger.Debug("labeling state transition", "image", img, "from", prev.String(), "to", next.String())
	}
	for _, l := range r.listeners {
		l(img, prev, next)
	}
}

// Candidates returns the target images lacking a record in shuffled order.
// A zero seed shuffles non-deterministically.
func Candidates(targets []dataset.Image, repo dataset.Repository, seed int64) []string {
	out := make([]string, 0, len(targets))
	for _, img := range targets {
		if !repo.HasRecord(img.Path) {
			out = append(out, img.Path)
		}
	}
	var rng *rand.Rand
	if seed == 0 {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	} else {
		rng = rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
	}
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}
