package packaging

import (
	"github.com/soocke/hitlabel-go/domain/dataset"
	"gonum.org/v1/gonum/stat"
)

// ClassStats summarises the normalised box sizes of one class.
type ClassStats struct {
	Count       int
	MeanW, StdW float64
	MeanH, StdH float64
}

// Stats accumulates labels per class.
type Stats struct {
	widths  map[dataset.Class][]float64
	heights map[dataset.Class][]float64
}

// NewStats returns an empty accumulator.
func NewStats() *Stats {
	return &Stats{widths: map[dataset.Class][]float64{}, heights: map[dataset.Class][]float64{}}
}

// Add records labels.
func (s *Stats) Add(labels []Label) {
	for _, l := range labels {
		s.widths[l.Class] = append(s.widths[l.Class], l.W)
		s.heights[l.Class] = append(s.heights[l.Class], l.H)
	}
}

// Class returns the summary for c. Std is zero with fewer than two boxes.
func (s *Stats) Class(c dataset.Class) ClassStats {
	ws, hs := s.widths[c], s.heights[c]
	cs := ClassStats{Count: len(ws)}
	switch len(ws) {
	case 0:
	case 1:
		cs.MeanW, cs.MeanH = ws[0], hs[0]
	default:
		cs.MeanW, cs.StdW = stat.MeanStdDev(ws, nil)
		cs.MeanH, cs.StdH = stat.MeanStdDev(hs, nil)
	}
	return cs
}

// Total returns the number of labels seen.
func (s *Stats) Total() int {
	n := 0
	for _, ws := range s.widths {
		n += len(ws)
	}
	return n
}
