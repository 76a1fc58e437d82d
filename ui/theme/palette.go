package theme

// Class and overlay colours for the annotation window. Colours are
// configured as hex strings and resolved once into RGBA values.

import (
	"fmt"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/soocke/hitlabel-go/domain/dataset"
)

// Default hex colours.
const (
	ColorEnemy = "#ff0000"
	ColorAlly  = "#00ff00"
	ColorBase  = "#0000ff"
	ColorText  = "#ff0000"
	ColorPred  = "#00ff00"
)

// Palette holds resolved overlay colours.
type Palette struct {
	Enemy     color.RGBA
	Ally      color.RGBA
	Base      color.RGBA
	Text      color.RGBA
	Predicted color.RGBA
}

// DefaultPalette returns the stock colours.
func DefaultPalette() Palette {
	p, _ := NewPalette(ColorEnemy, ColorAlly, ColorBase, ColorText)
	return p
}

// NewPalette parses the given hex colours. Predicted boxes reuse the ally
// colour.
func NewPalette(enemy, ally, base, text string) (Palette, error) {
	var p Palette
	var err error
	if p.Enemy, err = ParseHex(enemy); err != nil {
		return Palette{}, fmt.Errorf("enemy colour: %w", err)
	}
	if p.Ally, err = ParseHex(ally); err != nil {
		return Palette{}, fmt.Errorf("ally colour: %w", err)
	}
	if p.Base, err = ParseHex(base); err != nil {
		return Palette{}, fmt.Errorf("base colour: %w", err)
	}
	if p.Text, err = ParseHex(text); err != nil {
		return Palette{}, fmt.Errorf("text colour: %w", err)
	}
	p.Predicted = p.Ally
	return p, nil
}

// ForClass returns the box colour of c.
func (p Palette) ForClass(c dataset.Class) color.RGBA {
	switch c {
	case dataset.ClassAllyRobot:
		return p.Ally
	case dataset.ClassEnemyBase:
		return p.Base
	default:
		return p.Enemy
	}
}

// ParseHex converts "#rrggbb" into an opaque RGBA colour.
func ParseHex(s string) (color.RGBA, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return color.RGBA{}, err
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}, nil
}
