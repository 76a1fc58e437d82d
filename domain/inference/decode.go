package inference

import (
	"fmt"
	"sort"
)

// Layout selects how a flattened network output is laid out.
type Layout int

const (
	// LayoutAuto picks a layout from the output dimensions.
	LayoutAuto Layout = iota
	// LayoutRows has one candidate per row: cx, cy, w, h, objectness, class scores.
	LayoutRows
	// LayoutColumns has one candidate per column: cx, cy, w, h, class scores.
	LayoutColumns
)

func (l Layout) String() string {
	switch l {
	case LayoutRows:
		return "rows"
	case LayoutColumns:
		return "columns"
	default:
		return "auto"
	}
}

// DecodeParams configures Decode.
type DecodeParams struct {
	NumClasses    int
	ConfThreshold float32
	Layout        Layout
}

// resolveLayout matches rows x cols against the known layouts.
func resolveLayout(rows, cols int, p DecodeParams) (Layout, error) {
	if p.Layout != LayoutAuto {
		return p.Layout, nil
	}
	switch {
	case cols == 5+p.NumClasses:
		return LayoutRows, nil
	case rows == 4+p.NumClasses:
		return LayoutColumns, nil
	}
	return LayoutAuto, fmt.Errorf("%w: %dx%d for %d classes", ErrOutputShape, rows, cols, p.NumClasses)
}

// Decode converts a rows x cols output matrix into detections whose
// confidence is at least p.ConfThreshold. Boxes are in model input pixels.
func Decode(data []float32, rows, cols int, p DecodeParams) ([]Detection, error) {
	if rows*cols != len(data) {
		return nil, fmt.Errorf("%w: %d values for %dx%d", ErrOutputShape, len(data), rows, cols)
	}
	layout, err := resolveLayout(rows, cols, p)
	if err != nil {
		return nil, err
	}
	var out []Detection
	switch layout {
	case LayoutRows:
		if cols < 5+p.NumClasses {
			return nil, fmt.Errorf("%w: %d columns", ErrOutputShape, cols)
		}
		for i := 0; i < rows; i++ {
			row := data[i*cols : (i+1)*cols]
			obj := row[4]
			if obj < p.ConfThreshold {
				continue
			}
			cls, score := argmax(row[5 : 5+p.NumClasses])
			conf := obj * score
			if conf < p.ConfThreshold {
				continue
			}
			out = append(out, Detection{Class: cls, Confidence: conf, Box: RectFromCenter(row[0], row[1], row[2], row[3])})
		}
	case LayoutColumns:
		if rows < 4+p.NumClasses {
			return nil, fmt.Errorf("%w: %d rows", ErrOutputShape, rows)
		}
		at := func(r, c int) float32 { return data[r*cols+c] }
		for c := 0; c < cols; c++ {
			best, score := 0, at(4, c)
			for k := 1; k < p.NumClasses; k++ {
				if v := at(4+k, c); v > score {
					best, score = k, v
				}
			}
			if score < p.ConfThreshold {
				continue
			}
			out = append(out, Detection{Class: best, Confidence: score, Box: RectFromCenter(at(0, c), at(1, c), at(2, c), at(3, c))})
		}
	}
	return out, nil
}

func argmax(v []float32) (int, float32) {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	if len(v) == 0 {
		return 0, 0
	}
	return best, v[best]
}

// NMS performs greedy per-class non-maximum suppression. Detections are
// returned in descending confidence; at most maxDet are kept when maxDet > 0.
func NMS(dets []Detection, iouThreshold float32, maxDet int) []Detection {
	sorted := make([]Detection, len(dets))
	copy(sorted, dets)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Confidence > sorted[j].Confidence })

	suppressed := make([]bool, len(sorted))
	keep := make([]Detection, 0, len(sorted))
	for i := range sorted {
		if suppressed[i] {
			continue
		}
		keep = append(keep, sorted[i])
		if maxDet > 0 && len(keep) == maxDet {
			break
		}
		for j := i + 1; j < len(sorted); j++ {
			if suppressed[j] || sorted[j].Class != sorted[i].Class {
				continue
			}
			if sorted[i].Box.IoU(sorted[j].Box) > iouThreshold {
				suppressed[j] = true
			}
		}
	}
	return keep
}
