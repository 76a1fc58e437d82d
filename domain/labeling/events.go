package labeling

import "github.com/soocke/hitlabel-go/domain/dataset"

// InputEvent is an operator command decoded from a raw key code.
type InputEvent int

const (
	EventUnknown InputEvent = iota
	EventAbort
	EventCommit
	EventDrawEnemy
	EventDrawAlly
	EventDrawBase
	EventClear
	EventUndoPrevious
)

func (e InputEvent) String() string {
	switch e {
	case EventAbort:
		return "abort"
	case EventCommit:
		return "commit"
	case EventDrawEnemy:
		return "draw_enemy"
	case EventDrawAlly:
		return "draw_ally"
	case EventDrawBase:
		return "draw_base"
	case EventClear:
		return "clear"
	case EventUndoPrevious:
		return "undo_previous"
	default:
		return "unknown"
	}
}

// drawClass maps the draw events to the class they produce.
func (e InputEvent) drawClass() (dataset.Class, bool) {
	switch e {
	case EventDrawEnemy:
		return dataset.ClassEnemyRobot, true
	case EventDrawAlly:
		return dataset.ClassAllyRobot, true
	case EventDrawBase:
		return dataset.ClassEnemyBase, true
	}
	return 0, false
}

// Raw key codes as reported by a blocking key read. KeyClosed is not a
// key: a KeyReader returns it once its window is gone.
const (
	KeyClosed = -2
	KeyEsc    = 27
	KeyEnter  = 13
	KeySpace  = 32
)

// KeyMap translates raw key codes into input events.
type KeyMap map[int]InputEvent

// DefaultKeyMap returns the stock bindings. Enemy boxes are bound to both
// "1" and "b"; commit is bound to both Enter and Space.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		KeyEsc:   EventAbort,
		KeyEnter: EventCommit,
		KeySpace: EventCommit,
		'1':      EventDrawEnemy,
		'b':      EventDrawEnemy,
		'2':      EventDrawAlly,
		'3':      EventDrawBase,
		'c':      EventClear,
		'z':      EventUndoPrevious,
	}
}

// Lookup returns the event bound to key, or EventUnknown. A closed surface
// always aborts.
func (m KeyMap) Lookup(key int) InputEvent {
	if key == KeyClosed {
		return EventAbort
	}
	if ev, ok := m[key]; ok {
		return ev
	}
	return EventUnknown
}

// DefaultInstructions is the static help overlaid on every image.
func DefaultInstructions() []string {
	return []string{
		"Press 1 to draw enemy robot bounding box",
		"Press 2 to draw ally robot bounding box",
		"Press 3 to draw enemy base bounding box",
		"C clears boxes, Z deletes the previous record",
		"Enter/Space saves, Esc quits",
	}
}
