package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
)

var (
	// ErrUnclassified is returned when an image path matches neither the
	// target nor the no-target naming convention.
	ErrUnclassified = errors.New("image does not have a target or no_target label")
	// ErrNoRecord reports a missing record file.
	ErrNoRecord = errors.New("no record for image")
)

// Class enumerates the labeled object classes. The numeric value is the
// YOLO class id written into training labels.
type Class int

const (
	ClassEnemyRobot Class = iota
	ClassAllyRobot
	ClassEnemyBase
)

// Classes lists every class in id order.
var Classes = []Class{ClassEnemyRobot, ClassAllyRobot, ClassEnemyBase}

func (c Class) String() string {
	switch c {
	case ClassEnemyRobot:
		return "enemy_robot"
	case ClassAllyRobot:
		return "ally_robot"
	case ClassEnemyBase:
		return "enemy_base"
	default:
		return "unknown"
	}
}

// Box is an axis-aligned rectangle in source image pixels. It serializes as
// the four element array [x, y, width, height].
type Box struct {
	X      int
	Y      int
	Width  int
	Height int
}

// BoxFromRect converts an image.Rectangle into a Box.
func BoxFromRect(r image.Rectangle) Box {
	r = r.Canon()
	return Box{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}

// Rect returns the box as an image.Rectangle.
func (b Box) Rect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height)
}

// Empty reports whether the box has no area.
func (b Box) Empty() bool { return b.Width <= 0 || b.Height <= 0 }

func (b Box) MarshalJSON() ([]byte, error) {
	return json.Marshal([4]int{b.X, b.Y, b.Width, b.Height})
}

func (b *Box) UnmarshalJSON(data []byte) error {
	var v []float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if len(v) != 4 {
		return fmt.Errorf("box: expected 4 values, got %d", len(v))
	}
	b.X, b.Y, b.Width, b.Height = int(v[0]), int(v[1]), int(v[2]), int(v[3])
	return nil
}

// Record is the persisted annotation of one image.
type Record struct {
	Image string
	Enemy []Box
	Ally  []Box
	Base  *Box
}

// Boxes returns every box of the record tagged with its class, enemies first,
// then allies, then the base.
func (r Record) Boxes() []LabeledBox {
	out := make([]LabeledBox, 0, len(r.Enemy)+len(r.Ally)+1)
	for _, b := range r.Enemy {
		out = append(out, LabeledBox{Class: ClassEnemyRobot, Box: b})
	}
	for _, b := range r.Ally {
		out = append(out, LabeledBox{Class: ClassAllyRobot, Box: b})
	}
	if r.Base != nil {
		out = append(out, LabeledBox{Class: ClassEnemyBase, Box: *r.Base})
	}
	return out
}

// LabeledBox pairs a box with its class.
type LabeledBox struct {
	Class Class
	Box   Box
}

// recordJSON is the on-disk layout. The base box is an empty array when unset.
type recordJSON struct {
	Image string `json:"image"`
	Enemy []Box  `json:"enemy_robot_bounding_boxes"`
	Ally  []Box  `json:"ally_robot_bounding_boxes"`
	Base  []int  `json:"enemy_base_bounding_box"`
}

func (r Record) MarshalJSON() ([]byte, error) {
	out := recordJSON{Image: r.Image, Enemy: r.Enemy, Ally: r.Ally, Base: []int{}}
	if out.Enemy == nil {
		out.Enemy = []Box{}
	}
	if out.Ally == nil {
		out.Ally = []Box{}
	}
	if r.Base != nil {
		out.Base = []int{r.Base.X, r.Base.Y, r.Base.Width, r.Base.Height}
	}
	return json.Marshal(out)
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var in recordJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	r.Image, r.Enemy, r.Ally, r.Base = in.Image, in.Enemy, in.Ally, nil
	switch len(in.Base) {
	case 0:
	case 4:
		r.Base = &Box{X: in.Base[0], Y: in.Base[1], Width: in.Base[2], Height: in.Base[3]}
	default:
		return fmt.Errorf("record: base box expects 0 or 4 values, got %d", len(in.Base))
	}
	return nil
}

// Image is a discovered image file.
type Image struct {
	Path      string
	HasTarget bool
}
