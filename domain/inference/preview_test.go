package inference

import (
	"errors"
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
)

type fixedDetector struct {
	err   error
	sizes []image.Point
}

func (d *fixedDetector) Detect(img image.Image) ([]Detection, error) {
	d.sizes = append(d.sizes, img.Bounds().Size())
	if d.err != nil {
		return nil, d.err
	}
	return []Detection{{Class: 2, Confidence: 0.5, Box: Rect{1, 1, 5, 5}}}, nil
}

type keyViewer struct {
	keys    []int
	present int
}

func (v *keyViewer) Present(image.Image, []Detection) { v.present++ }

func (v *keyViewer) Poll(int) int {
	if len(v.keys) == 0 {
		return -1
	}
	k := v.keys[0]
	v.keys = v.keys[1:]
	return k
}

func writeImages(t *testing.T, names ...string) []string {
	t.Helper()
	dir := t.TempDir()
	var out []string
	for _, n := range names {
		p := filepath.Join(dir, n)
		if err := imaging.Save(imaging.New(40, 20, color.NRGBA{1, 2, 3, 255}), p); err != nil {
			t.Fatal(err)
		}
		out = append(out, p)
	}
	return out
}

func TestPreviewAll_StopsOnEsc(t *testing.T) {
	paths := writeImages(t, "a.png", "b.png", "c.png")
	det := &fixedDetector{}
	view := &keyViewer{keys: []int{'x', keyEsc}}
	shown, err := PreviewAll(paths, SquareLoader(32), det, view, nil)
	if err != nil {
		t.Fatal(err)
	}
	if shown != 2 || view.present != 2 {
		t.Fatalf("expected 2 shown, got %d", shown)
	}
	for _, s := range det.sizes {
		if s != (image.Point{32, 32}) {
			t.Fatalf("detector got %v, want 32x32", s)
		}
	}
}

func TestPreviewAll_SkipsUnreadableAndReportsDetectorErrors(t *testing.T) {
	paths := append([]string{filepath.Join(t.TempDir(), "missing.png")}, writeImages(t, "a.png")...)
	det := &fixedDetector{err: errors.New("boom")}
	shown, err := PreviewAll(paths, SquareLoader(16), det, &keyViewer{}, nil)
	if err == nil || shown != 0 {
		t.Fatalf("expected detector error, got shown=%d err=%v", shown, err)
	}
	if len(det.sizes) != 1 {
		t.Fatalf("missing image must be skipped before detection")
	}
}
