package dataset

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testLayout(root string) Layout {
	return Layout{Root: root, ImageExt: ".png", RecordExt: ".json", TargetMarker: "target", NoTargetMarker: "no_targets"}
}

// touch creates an empty file and any missing parents.
func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestRecordPath_SwapsExtension(t *testing.T) {
	r := NewFSRepository(testLayout("x"), nil)
	got := r.RecordPath(filepath.Join("a", "run.1", "targets", "f.png"))
	want := filepath.Join("a", "run.1", "targets", "f.json")
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestSaveLoadDelete(t *testing.T) {
	dir := t.TempDir()
	r := NewFSRepository(testLayout(dir), nil)
	img := filepath.Join(dir, "targets", "001.png")
	touch(t, img)

	if r.HasRecord(img) {
		t.Fatalf("fresh image must not be labeled")
	}
	rec := Record{
		Image: img,
		Enemy: []Box{{1, 2, 3, 4}, {5, 6, 7, 8}},
		Ally:  []Box{{9, 10, 11, 12}},
		Base:  &Box{13, 14, 15, 16},
	}
	if err := r.SaveRecord(rec); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !r.HasRecord(img) {
		t.Fatalf("record should exist after save")
	}
	got, err := r.LoadRecord(img)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got.Enemy) != 2 || got.Enemy[1] != (Box{5, 6, 7, 8}) || len(got.Ally) != 1 || got.Base == nil || *got.Base != (Box{13, 14, 15, 16}) {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	removed, err := r.DeleteRecord(img)
	if err != nil || !removed {
		t.Fatalf("delete: removed=%v err=%v", removed, err)
	}
	removed, err = r.DeleteRecord(img)
	if err != nil || removed {
		t.Fatalf("second delete must be a no-op: removed=%v err=%v", removed, err)
	}
	if _, err := r.LoadRecord(img); !errors.Is(err, ErrNoRecord) {
		t.Fatalf("expected ErrNoRecord, got %v", err)
	}
}

func TestRecordJSON_Layout(t *testing.T) {
	data, err := json.Marshal(Record{Image: "a.png", Enemy: []Box{{1, 2, 3, 4}}})
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)
	for _, want := range []string{
		`"image":"a.png"`,
		`"enemy_robot_bounding_boxes":[[1,2,3,4]]`,
		`"ally_robot_bounding_boxes":[]`,
		`"enemy_base_bounding_box":[]`,
	} {
		if !strings.Contains(s, want) {
			t.Errorf("missing %s in %s", want, s)
		}
	}
}

func TestRecordJSON_RejectsMalformedBase(t *testing.T) {
	var rec Record
	err := json.Unmarshal([]byte(`{"image":"a.png","enemy_robot_bounding_boxes":[],"ally_robot_bounding_boxes":[],"enemy_base_bounding_box":[1,2]}`), &rec)
	if err == nil {
		t.Fatalf("expected error for 2-element base box")
	}
}

func TestClassify(t *testing.T) {
	r := NewFSRepository(testLayout("."), nil)
	tests := []struct {
		path    string
		target  bool
		wantErr bool
	}{
		{"frames/run1/targets/a.png", true, false},
		{"frames/run1/no_targets/a.png", false, false},
		{"frames/run1/uncategorised/a.png", false, true},
	}
	for _, tc := range tests {
		img, err := r.Classify(tc.path)
		if tc.wantErr {
			if !errors.Is(err, ErrUnclassified) {
				t.Errorf("%s: expected ErrUnclassified, got %v", tc.path, err)
			}
			continue
		}
		if err != nil || img.HasTarget != tc.target {
			t.Errorf("%s: target=%v err=%v", tc.path, img.HasTarget, err)
		}
	}
}

func TestScan_SplitsAndFailsOnUnclassified(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "run1", "targets", "a.png"))
	touch(t, filepath.Join(dir, "run1", "targets", "b.png"))
	touch(t, filepath.Join(dir, "run1", "targets", "b.json"))
	touch(t, filepath.Join(dir, "run1", "no_targets", "c.png"))
	r := NewFSRepository(testLayout(dir), nil)

	inv, err := r.Scan()
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(inv.Targets) != 2 || len(inv.NoTargets) != 1 {
		t.Fatalf("unexpected split: %d targets, %d no-targets", len(inv.Targets), len(inv.NoTargets))
	}
	if labeled := inv.Labeled(r); len(labeled) != 1 || filepath.Base(labeled[0].Path) != "b.png" {
		t.Fatalf("unexpected labeled set: %+v", labeled)
	}

	touch(t, filepath.Join(dir, "run1", "other", "d.png"))
	if _, err := r.Scan(); !errors.Is(err, ErrUnclassified) {
		t.Fatalf("expected ErrUnclassified, got %v", err)
	}
}

func TestPrune_RemovesOnlyUnlabeledTargets(t *testing.T) {
	dir := t.TempDir()
	keep := filepath.Join(dir, "run1", "targets", "keep.png")
	drop := filepath.Join(dir, "run1", "targets", "drop.png")
	neg := filepath.Join(dir, "run1", "no_targets", "neg.png")
	touch(t, keep)
	touch(t, filepath.Join(dir, "run1", "targets", "keep.json"))
	touch(t, drop)
	touch(t, neg)
	r := NewFSRepository(testLayout(dir), nil)
	inv, err := r.Scan()
	if err != nil {
		t.Fatal(err)
	}

	removed, err := r.Prune(inv, true)
	if err != nil || len(removed) != 1 {
		t.Fatalf("dry run: removed=%v err=%v", removed, err)
	}
	if _, err := os.Stat(drop); err != nil {
		t.Fatalf("dry run must not delete: %v", err)
	}

	removed, err = r.Prune(inv, false)
	if err != nil || len(removed) != 1 || removed[0] != drop {
		t.Fatalf("prune: removed=%v err=%v", removed, err)
	}
	if _, err := os.Stat(drop); !os.IsNotExist(err) {
		t.Fatalf("unlabeled target should be gone")
	}
	for _, p := range []string{keep, neg} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("%s should survive: %v", p, err)
		}
	}
}
