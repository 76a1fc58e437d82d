package packaging

import (
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	"github.com/soocke/hitlabel-go/domain/dataset"
)

const (
	imagesDir    = "images"
	labelsDir    = "labels"
	manifestFile = "dataset.yaml"
)

// RecordLoader reads the record of a labeled image.
type RecordLoader interface {
	LoadRecord(img string) (dataset.Record, error)
}

// Options configures a Packager.
type Options struct {
	OutDir string
	// ManifestPath is the dataset root written into dataset.yaml.
	ManifestPath string
	ImageSize    int
}

// Result summarises a packaging run.
type Result struct {
	Images   int
	Skipped  int
	Manifest string
	Stats    *Stats
	Elapsed  time.Duration
}

// Packager builds a YOLO dataset directory from labeled images.
type Packager struct {
	opts   Options
	loader RecordLoader
	logger *slog.Logger
}

// New constructs a Packager.
func New(opts Options, loader RecordLoader, logger *slog.Logger) *Packager {
	if opts.ImageSize <= 0 {
		opts.ImageSize = 640
	}
	return &Packager{opts: opts, loader: loader, logger: logger}
}

// Build writes dataset.yaml, a resized copy of every image under images/
// and its label file under labels/. Images whose record or pixels cannot be
// read are skipped and logged.
func (p *Packager) Build(images []dataset.Image) (Result, error) {
	started := time.Now()
	res := Result{Stats: NewStats()}
	for _, dir := range []string{p.opts.OutDir, filepath.Join(p.opts.OutDir, imagesDir), filepath.Join(p.opts.OutDir, labelsDir)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return res, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	res.Manifest = filepath.Join(p.opts.OutDir, manifestFile)
	if err := WriteManifest(res.Manifest, NewManifest(p.opts.ManifestPath)); err != nil {
		return res, err
	}
	if p.logger != nil {
		p.logger.Info("packaging dataset", "images", len(images), "out", p.opts.OutDir)
	}
	for _, img := range images {
		labels, err := p.packageOne(img.Path)
		if err != nil {
			res.Skipped++
			if p.logger != nil {
				p.logger.Warn("image skipped", "image", img.Path, "error", err)
			}
			continue
		}
		res.Stats.Add(labels)
		res.Images++
	}
	res.Elapsed = time.Since(started)
	if p.logger != nil {
		for _, c := range dataset.Classes {
			cs := res.Stats.Class(c)
			p.logger.Info("class summary", "class", c.String(), "boxes", cs.Count,
				"mean_w", cs.MeanW, "std_w", cs.StdW, "mean_h", cs.MeanH, "std_h", cs.StdH)
		}
		p.logger.Info("dataset packaged", "images", res.Images, "skipped", res.Skipped, "took", res.Elapsed)
	}
	return res, nil
}

func (p *Packager) packageOne(path string) ([]Label, error) {
	rec, err := p.loader.LoadRecord(path)
	if err != nil {
		return nil, err
	}
	src, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	labels, err := Labels(rec, src.Bounds().Dx(), src.Bounds().Dy())
	if err != nil {
		return nil, err
	}
	if err := p.writeImage(src, OutputName(path)); err != nil {
		return nil, err
	}
	dst := filepath.Join(p.opts.OutDir, labelsDir, LabelName(path))
	if err := os.WriteFile(dst, []byte(FormatLabels(labels)), 0o644); err != nil {
		return nil, fmt.Errorf("write labels: %w", err)
	}
	return labels, nil
}

func (p *Packager) writeImage(src image.Image, name string) error {
	size := p.opts.ImageSize
	resized := imaging.Resize(src, size, size, imaging.Linear)
	if err := imaging.Save(resized, filepath.Join(p.opts.OutDir, imagesDir, name)); err != nil {
		return fmt.Errorf("save image: %w", err)
	}
	return nil
}
