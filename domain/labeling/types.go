package labeling

import "github.com/soocke/hitlabel-go/domain/dataset"

// ImageState enumerates the per-image states of the annotation loop.
type ImageState int

const (
	StateIdle ImageState = iota
	StateAwaitingInput
	StateDrawingBox
	StateCommitted
	StateSkipped
	StateCleared
)

func (s ImageState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingInput:
		return "awaiting_input"
	case StateDrawingBox:
		return "drawing_box"
	case StateCommitted:
		return "committed"
	case StateSkipped:
		return "skipped"
	case StateCleared:
		return "cleared"
	default:
		return "unknown"
	}
}

// Outcome is the terminal state of a whole labeling run.
type Outcome int

const (
	OutcomeRunning Outcome = iota
	OutcomeFinished
	OutcomeAborted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRunning:
		return "running"
	case OutcomeFinished:
		return "finished"
	case OutcomeAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// StateListener is called on each per-image state transition.
type StateListener func(image string, prev, next ImageState)

// ImageView renders the image under annotation.
type ImageView interface {
	// Show loads the image at path and displays it without any overlay.
	Show(path string) error
	// Annotate overlays the committed count and the help lines.
	Annotate(committed int, instructions []string)
	// DrawBox renders a finished box in its class colour.
	DrawBox(b dataset.Box, c dataset.Class)
}

// BoxSelector blocks until the operator finishes one drag gesture. ok is
// false when the gesture was cancelled.
type BoxSelector interface {
	SelectBox() (b dataset.Box, ok bool)
}

// KeyReader blocks until the operator presses a key and returns its code,
// or KeyClosed when the surface has been closed.
type KeyReader interface {
	WaitKey() int
}

// Surface aggregates the display, selection and key primitives.
type Surface interface {
	ImageView
	BoxSelector
	KeyReader
}

// Summary reports what a run did.
type Summary struct {
	Outcome   Outcome
	Committed int
	Skipped   int
	Undone    int
	Count     int // running committed count at exit
}
