package packaging

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/soocke/hitlabel-go/domain/dataset"
)

// OutputName flattens an image path into "<grandparent>_<parent>_<file>"
// so images from different sessions cannot collide.
func OutputName(img string) string {
	parent := filepath.Dir(img)
	grand := filepath.Dir(parent)
	return filepath.Base(grand) + "_" + filepath.Base(parent) + "_" + filepath.Base(img)
}

// LabelName is OutputName with the extension replaced by ".txt".
func LabelName(img string) string {
	name := OutputName(img)
	return strings.TrimSuffix(name, filepath.Ext(name)) + ".txt"
}

// Label is one YOLO training row, normalised to the source dimensions.
type Label struct {
	Class  dataset.Class
	CX, CY float64
	W, H   float64
}

// Labels converts every box of rec into centre-format labels. srcW and
// srcH are the dimensions of the image the boxes were drawn on.
func Labels(rec dataset.Record, srcW, srcH int) ([]Label, error) {
	if srcW <= 0 || srcH <= 0 {
		return nil, fmt.Errorf("invalid source size %dx%d", srcW, srcH)
	}
	boxes := rec.Boxes()
	out := make([]Label, 0, len(boxes))
	fw, fh := float64(srcW), float64(srcH)
	for _, lb := range boxes {
		b := lb.Box
		out = append(out, Label{
			Class: lb.Class,
			CX:    (float64(b.X) + float64(b.Width)/2) / fw,
			CY:    (float64(b.Y) + float64(b.Height)/2) / fh,
			W:     float64(b.Width) / fw,
			H:     float64(b.Height) / fh,
		})
	}
	return out, nil
}

// String renders l as "class cx cy w h".
func (l Label) String() string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }
	return strconv.Itoa(int(l.Class)) + " " + f(l.CX) + " " + f(l.CY) + " " + f(l.W) + " " + f(l.H)
}

// FormatLabels renders one line per label.
func FormatLabels(labels []Label) string {
	var sb strings.Builder
	for _, l := range labels {
		sb.WriteString(l.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}
