package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Repository is the narrow record store consumed by the labeling loop.
type Repository interface {
	HasRecord(img string) bool
	SaveRecord(rec Record) error
	// DeleteRecord removes the record of img. A missing or unreadable record
	// is reported as (false, nil).
	DeleteRecord(img string) (bool, error)
}

// Layout names the file conventions of a frame directory.
type Layout struct {
	Root           string
	ImageExt       string
	RecordExt      string
	TargetMarker   string
	NoTargetMarker string
}

// FSRepository stores one JSON record next to each image.
type FSRepository struct {
	layout Layout
	logger *slog.Logger
}

// NewFSRepository constructs a repository rooted at layout.Root.
func NewFSRepository(layout Layout, logger *slog.Logger) *FSRepository {
	return &FSRepository{layout: layout, logger: logger}
}

// RecordPath maps an image path to its record path by swapping the extension.
func (r *FSRepository) RecordPath(img string) string {
	return strings.TrimSuffix(img, filepath.Ext(img)) + r.layout.RecordExt
}

func (r *FSRepository) HasRecord(img string) bool {
	_, err := os.Stat(r.RecordPath(img))
	return err == nil
}

func (r *FSRepository) SaveRecord(rec Record) error {
	if rec.Image == "" {
		return errors.New("save record: empty image path")
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	path := r.RecordPath(rec.Image)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	if r.logger != nil {
		r.logger.Info("saved bounding boxes", "record", path, "enemy", len(rec.Enemy), "ally", len(rec.Ally), "base", rec.Base != nil)
	}
	return nil
}

func (r *FSRepository) DeleteRecord(img string) (bool, error) {
	path := r.RecordPath(img)
	if err := os.Remove(path); err != nil {
		if r.logger != nil && !errors.Is(err, fs.ErrNotExist) {
			r.logger.Warn("delete record skipped", "record", path, "error", err)
		}
		return false, nil
	}
	if r.logger != nil {
		r.logger.Info("deleted record", "record", path)
	}
	return true, nil
}

// LoadRecord reads the record of img.
func (r *FSRepository) LoadRecord(img string) (Record, error) {
	path := r.RecordPath(img)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Record{}, fmt.Errorf("%w: %s", ErrNoRecord, img)
		}
		return Record{}, fmt.Errorf("read record: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("decode record %s: %w", path, err)
	}
	return rec, nil
}

// Discover recursively collects every image under the root, sorted by path.
func (r *FSRepository) Discover() ([]string, error) {
	var images []string
	err := filepath.WalkDir(r.layout.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), r.layout.ImageExt) {
			images = append(images, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discover images: %w", err)
	}
	sort.Strings(images)
	return images, nil
}

// Classify decides whether path belongs to the target set. The no-target
// marker is checked first since it contains the target marker.
func (r *FSRepository) Classify(path string) (Image, error) {
	switch {
	case strings.Contains(path, r.layout.NoTargetMarker):
		return Image{Path: path}, nil
	case strings.Contains(path, r.layout.TargetMarker):
		return Image{Path: path, HasTarget: true}, nil
	default:
		return Image{}, fmt.Errorf("%w: %s", ErrUnclassified, path)
	}
}

// Split partitions paths into target and no-target images. Any unclassified
// path aborts the split.
func (r *FSRepository) Split(paths []string) (targets, noTargets []Image, err error) {
	for _, p := range paths {
		img, err := r.Classify(p)
		if err != nil {
			return nil, nil, err
		}
		if img.HasTarget {
			targets = append(targets, img)
		} else {
			noTargets = append(noTargets, img)
		}
	}
	return targets, noTargets, nil
}

// Inventory is the result of discovery and classification.
type Inventory struct {
	Targets   []Image
	NoTargets []Image
}

// Labeled returns the target images with an existing record.
func (inv Inventory) Labeled(repo Repository) []Image {
	var out []Image
	for _, img := range inv.Targets {
		if repo.HasRecord(img.Path) {
			out = append(out, img)
		}
	}
	return out
}

// Scan discovers and classifies every image under the root.
func (r *FSRepository) Scan() (Inventory, error) {
	paths, err := r.Discover()
	if err != nil {
		return Inventory{}, err
	}
	targets, noTargets, err := r.Split(paths)
	if err != nil {
		return Inventory{}, err
	}
	if r.logger != nil {
		r.logger.Info("scanned images", "targets", len(targets), "no_targets", len(noTargets))
	}
	return Inventory{Targets: targets, NoTargets: noTargets}, nil
}

// Prune deletes target images that have no record. With dryRun set it only
// reports what would be removed.
func (r *FSRepository) Prune(inv Inventory, dryRun bool) ([]string, error) {
	var removed []string
	for _, img := range inv.Targets {
		if r.HasRecord(img.Path) {
			continue
		}
		if !dryRun {
			if err := os.Remove(img.Path); err != nil {
				return removed, fmt.Errorf("remove unlabeled image: %w", err)
			}
		}
		removed = append(removed, img.Path)
	}
	if r.logger != nil {
		r.logger.Info("pruned unlabeled images", "count", len(removed), "dry_run", dryRun)
	}
	return removed, nil
}

var _ Repository = (*FSRepository)(nil)
