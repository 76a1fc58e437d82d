package packaging

import (
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/soocke/hitlabel-go/domain/dataset"
)

func TestOutputName(t *testing.T) {
	img := filepath.Join("data", "processed_frames", "session1", "targets", "0001.png")
	if got := OutputName(img); got != "session1_targets_0001.png" {
		t.Fatalf("OutputName: %q", got)
	}
	if got := LabelName(img); got != "session1_targets_0001.txt" {
		t.Fatalf("LabelName: %q", got)
	}
}

func TestLabels_NormalisedCentreFormat(t *testing.T) {
	base := dataset.Box{X: 2000, Y: 1000, Width: 200, Height: 100}
	rec := dataset.Record{
		Enemy: []dataset.Box{{X: 1280, Y: 720, Width: 256, Height: 144}},
		Ally:  []dataset.Box{{X: 0, Y: 0, Width: 2560, Height: 1440}},
		Base:  &base,
	}
	labels, err := Labels(rec, 2560, 1440)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"0 0.550000 0.550000 0.100000 0.100000",
		"1 0.500000 0.500000 1.000000 1.000000",
		"2 0.820312 0.729167 0.078125 0.069444",
	}
	got := strings.Split(strings.TrimSpace(FormatLabels(labels)), "\n")
	if len(got) != len(want) {
		t.Fatalf("got %d lines: %q", len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d: got %q want %q", i, got[i], want[i])
		}
	}
	if _, err := Labels(rec, 0, 10); err == nil {
		t.Fatalf("expected error for zero width")
	}
}

func TestManifest_RoundTrip(t *testing.T) {
	file := filepath.Join(t.TempDir(), "dataset.yaml")
	if err := WriteManifest(file, NewManifest("../ds")); err != nil {
		t.Fatal(err)
	}
	m, err := ReadManifest(file)
	if err != nil {
		t.Fatal(err)
	}
	if m.Path != "../ds" || m.Train != "images" || m.Val != "images" {
		t.Fatalf("unexpected manifest %+v", m)
	}
	if m.Names[0] != "enemy_robot" || m.Names[1] != "ally_robot" || m.Names[2] != "enemy_base" {
		t.Fatalf("names: %v", m.Names)
	}
}

func TestStats_MeanStd(t *testing.T) {
	s := NewStats()
	s.Add([]Label{
		{Class: dataset.ClassEnemyRobot, W: 0.1, H: 0.2},
		{Class: dataset.ClassEnemyRobot, W: 0.3, H: 0.2},
		{Class: dataset.ClassEnemyBase, W: 0.5, H: 0.5},
	})
	e := s.Class(dataset.ClassEnemyRobot)
	if e.Count != 2 || math.Abs(e.MeanW-0.2) > 1e-9 || e.StdH != 0 {
		t.Fatalf("enemy stats %+v", e)
	}
	if math.Abs(e.StdW-math.Sqrt(0.02)) > 1e-9 {
		t.Fatalf("sample std: %v", e.StdW)
	}
	if b := s.Class(dataset.ClassEnemyBase); b.Count != 1 || b.MeanW != 0.5 || b.StdW != 0 {
		t.Fatalf("base stats %+v", b)
	}
	if s.Class(dataset.ClassAllyRobot).Count != 0 || s.Total() != 3 {
		t.Fatalf("totals")
	}
}

func TestPackager_Build(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "frames", "s1", "targets")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	repo := dataset.NewFSRepository(dataset.Layout{Root: root, ImageExt: ".png", RecordExt: ".json", TargetMarker: "target", NoTargetMarker: "no_targets"}, nil)

	labeled := filepath.Join(dir, "a.png")
	if err := imaging.Save(imaging.New(200, 100, color.NRGBA{255, 0, 0, 255}), labeled); err != nil {
		t.Fatal(err)
	}
	if err := repo.SaveRecord(dataset.Record{Image: labeled, Enemy: []dataset.Box{{X: 50, Y: 25, Width: 100, Height: 50}}}); err != nil {
		t.Fatal(err)
	}
	unlabeled := filepath.Join(dir, "b.png")
	if err := imaging.Save(imaging.New(10, 10, color.NRGBA{0, 0, 0, 255}), unlabeled); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(root, "yaml_dataset")
	p := New(Options{OutDir: out, ManifestPath: out, ImageSize: 64}, repo, nil)
	res, err := p.Build([]dataset.Image{{Path: labeled, HasTarget: true}, {Path: unlabeled, HasTarget: true}})
	if err != nil {
		t.Fatal(err)
	}
	if res.Images != 1 || res.Skipped != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	img, err := imaging.Open(filepath.Join(out, "images", "s1_targets_a.png"))
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 64 || img.Bounds().Dy() != 64 {
		t.Fatalf("image not resized: %v", img.Bounds())
	}
	data, err := os.ReadFile(filepath.Join(out, "labels", "s1_targets_a.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(string(data)) != "0 0.500000 0.500000 0.500000 0.500000" {
		t.Fatalf("label file: %q", data)
	}
	if _, err := os.Stat(filepath.Join(out, "dataset.yaml")); err != nil {
		t.Fatalf("manifest missing: %v", err)
	}
}
