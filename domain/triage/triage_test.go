package triage

import (
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/soocke/hitlabel-go/config"
)

var healthBar = color.RGBA{222, 35, 28, 255}

func frameWith(w, h int, at image.Point, c color.RGBA) *image.NRGBA {
	img := imaging.New(w, h, color.NRGBA{10, 10, 10, 255})
	if at.X >= 0 {
		img.Set(at.X, at.Y, c)
	}
	return img
}

func TestColorDetector_Tolerance(t *testing.T) {
	d := NewColorDetector(healthBar, 0.10, nil)
	tests := []struct {
		name string
		c    color.RGBA
		want bool
	}{
		{"exact", healthBar, true},
		{"within", color.RGBA{230, 37, 30, 255}, true},
		{"red too far", color.RGBA{199, 35, 28, 255}, false},
		{"blue edge excluded", color.RGBA{222, 35, 31, 255}, false},
		{"black", color.RGBA{0, 0, 0, 255}, false},
	}
	for _, tc := range tests {
		if got := d.Matches(tc.c); got != tc.want {
			t.Errorf("%s: got %v want %v", tc.name, got, tc.want)
		}
	}
}

func TestColorDetector_IgnoredRegionsInclusive(t *testing.T) {
	regions := []config.Region{{X0: 0, Y0: 0, X1: 9, Y1: 9}}
	d := NewColorDetector(healthBar, 0.10, regions)

	if got := d.Classify(frameWith(40, 30, image.Pt(9, 9), healthBar)); got != StateNoTargets {
		t.Fatalf("pixel on region edge must be ignored, got %v", got)
	}
	if got := d.Classify(frameWith(40, 30, image.Pt(10, 9), healthBar)); got != StateTargets {
		t.Fatalf("pixel outside region must match, got %v", got)
	}
	if got := d.Classify(frameWith(40, 30, image.Pt(-1, 0), healthBar)); got != StateNoTargets {
		t.Fatalf("blank frame, got %v", got)
	}
	if got := d.Classify(nil); got != StateUncategorised {
		t.Fatalf("nil frame, got %v", got)
	}
}

func TestTriager_RunCopiesIntoStateDirectories(t *testing.T) {
	root := t.TempDir()
	frames := filepath.Join(root, "frames")
	session := filepath.Join(frames, "session1")
	if err := os.MkdirAll(session, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := imaging.Save(frameWith(20, 20, image.Pt(15, 15), healthBar), filepath.Join(session, "a.png")); err != nil {
		t.Fatal(err)
	}
	if err := imaging.Save(frameWith(20, 20, image.Pt(-1, 0), healthBar), filepath.Join(session, "b.png")); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(session, "broken.png"), []byte("not a png"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(session, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(root, "processed")
	tr := New(Options{FramesDir: frames, OutDir: out, ImageExt: ".png", Workers: 3}, NewColorDetector(healthBar, 0.1, nil), nil)
	rep, err := tr.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if rep.Targets != 1 || rep.NoTargets != 1 || rep.Failed != 1 {
		t.Fatalf("unexpected report %+v", rep)
	}
	for _, p := range []string{
		filepath.Join(out, "session1", "targets", "a.png"),
		filepath.Join(out, "session1", "no_targets", "b.png"),
	} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("expected %s: %v", p, err)
		}
	}
	if _, err := os.Stat(filepath.Join(out, "session1", "uncategorised", "broken.png")); !os.IsNotExist(err) {
		t.Errorf("undecodable frames must not be copied")
	}
}

func TestTriager_DiscoverMissingDir(t *testing.T) {
	tr := New(Options{FramesDir: filepath.Join(t.TempDir(), "nope")}, NewColorDetector(healthBar, 0.1, nil), nil)
	if _, err := tr.Discover(); err == nil {
		t.Fatalf("expected error for missing frames dir")
	}
}

type panickingClassifier struct{}

func (panickingClassifier) Classify(image.Image) State { panic("corrupt frame") }

func TestTriager_RunSurvivesClassifierPanics(t *testing.T) {
	frames := filepath.Join(t.TempDir(), "frames", "s1")
	if err := os.MkdirAll(frames, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, n := range []string{"a.png", "b.png", "c.png"} {
		if err := imaging.Save(frameWith(8, 8, image.Pt(-1, 0), healthBar), filepath.Join(frames, n)); err != nil {
			t.Fatal(err)
		}
	}
	out := filepath.Join(t.TempDir(), "processed")
	tr := New(Options{FramesDir: filepath.Dir(frames), OutDir: out, ImageExt: ".png", Workers: 1}, panickingClassifier{}, nil)

	type result struct {
		rep Report
		err error
	}
	done := make(chan result, 1)
	go func() {
		rep, err := tr.Run(context.Background())
		done <- result{rep, err}
	}()
	select {
	case res := <-done:
		if res.err != nil {
			t.Fatal(res.err)
		}
		if res.rep.Failed != 3 || res.rep.Targets != 0 || res.rep.NoTargets != 0 {
			t.Fatalf("unexpected report %+v", res.rep)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run blocked after classifier panics")
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Errorf("no frame should be copied when classification panics")
	}
}
