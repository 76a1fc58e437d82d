package app

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"time"

	"github.com/soocke/hitlabel-go/debug"
	"github.com/soocke/hitlabel-go/domain/capture"
	"github.com/soocke/hitlabel-go/domain/inference"
	"github.com/soocke/hitlabel-go/domain/inference/dnn"
	"github.com/soocke/hitlabel-go/domain/labeling"
	"github.com/soocke/hitlabel-go/domain/packaging"
	"github.com/soocke/hitlabel-go/domain/training"
	"github.com/soocke/hitlabel-go/domain/triage"
	"github.com/soocke/hitlabel-go/ui/highgui"
	"github.com/soocke/hitlabel-go/ui/theme"
)

const debugLogInterval = 5 * time.Second

// Label runs the interactive labeling loop over the unlabeled target images.
func (c *AppContainer) Label() (labeling.Summary, error) {
	inv, err := c.Repo.Scan()
	if err != nil {
		return labeling.Summary{}, err
	}
	labeled := len(inv.Labeled(c.Repo))
	candidates := labeling.Candidates(inv.Targets, c.Repo, c.Config.Seed)
	c.Logger.Info("labeling",
		"targets", len(inv.Targets),
		"no_targets", len(inv.NoTargets),
		"labeled", labeled,
		"remaining", len(candidates))

	win := highgui.NewWindow(c.Config.WindowName, c.Palette, c.Logger)
	defer win.Close()

	runner := labeling.NewRunner(c.Repo, win, c.Logger, labeling.Options{InitialCount: labeled})
	sum, err := runner.Run(candidates)
	c.Logger.Info("labeling finished",
		"outcome", sum.Outcome.String(),
		"committed", sum.Committed,
		"skipped", sum.Skipped,
		"undone", sum.Undone,
		"count", sum.Count)
	return sum, err
}

// Cleanup deletes target images that never received a record.
func (c *AppContainer) Cleanup(dryRun bool) ([]string, error) {
	inv, err := c.Repo.Scan()
	if err != nil {
		return nil, err
	}
	return c.Repo.Prune(inv, dryRun)
}

// Triage sorts raw frames into targets and no_targets.
func (c *AppContainer) Triage(ctx context.Context) (triage.Report, error) {
	target, err := theme.ParseHex(c.Config.TargetColor)
	if err != nil {
		return triage.Report{}, fmt.Errorf("target colour: %w", err)
	}
	det := triage.NewColorDetector(target, c.Config.ColorTolerance, c.Config.IgnoredRegions)
	t := triage.New(triage.Options{
		FramesDir: c.Config.FramesDir,
		OutDir:    c.Config.SourceDir,
		ImageExt:  c.Config.ImageExt,
		Workers:   c.Config.TriageWorkers,
	}, det, c.Logger)
	return t.Run(ctx)
}

// Package builds the YOLO dataset from every labeled target image.
func (c *AppContainer) Package() (packaging.Result, error) {
	inv, err := c.Repo.Scan()
	if err != nil {
		return packaging.Result{}, err
	}
	p := packaging.New(packaging.Options{
		OutDir:       c.Config.DatasetDir,
		ManifestPath: c.Config.DatasetPath,
		ImageSize:    c.Config.ImageSize,
	}, c.Repo, c.Logger)
	return p.Build(inv.Labeled(c.Repo))
}

// Train runs the external trainer on the packaged dataset.
func (c *AppContainer) Train(ctx context.Context, extra []string) error {
	t := training.New(training.Options{
		Bin:       c.Config.TrainerBin,
		Manifest:  c.manifestPath(),
		BaseModel: c.Config.BaseModel,
		Epochs:    c.Config.Epochs,
		ImageSize: c.Config.ImageSize,
		Extra:     extra,
	}, c.Logger)
	return t.Run(ctx)
}

func (c *AppContainer) manifestPath() string {
	return filepath.Join(c.Config.DatasetDir, "dataset.yaml")
}

func (c *AppContainer) openDetector() (*dnn.Detector, error) {
	return dnn.Open(c.Config.ModelPath, dnn.Options{
		InputSize:     c.Config.ImageSize,
		ConfThreshold: float32(c.Config.ConfThreshold),
		NMSThreshold:  float32(c.Config.NMSThreshold),
	}, c.Logger)
}

// Predict previews detections on every target image.
func (c *AppContainer) Predict() (int, error) {
	inv, err := c.Repo.Scan()
	if err != nil {
		return 0, err
	}
	det, err := c.openDetector()
	if err != nil {
		return 0, err
	}
	defer det.Close()
	win := highgui.NewWindow(c.Config.WindowName, c.Palette, c.Logger)
	defer win.Close()

	paths := make([]string, len(inv.Targets))
	for i, img := range inv.Targets {
		paths[i] = img.Path
	}
	return inference.PreviewAll(paths, inference.SquareLoader(c.Config.ImageSize), det, win, c.Logger)
}

// Record saves screen frames into a new session directory until ctx ends.
func (c *AppContainer) Record(ctx context.Context, region *image.Rectangle) (int, error) {
	if err := checkRegion(region); err != nil {
		return 0, err
	}
	c.startDebug(ctx)
	dir := capture.SessionDir(c.Config.RecordDir, time.Now())
	saver, err := capture.NewSaver(dir, 8, c.Logger)
	if err != nil {
		return 0, err
	}
	defer saver.Close()

	svc := capture.NewCaptureService(c.Logger, capture.ScreenGrabber(region), c.Config.RecordEvery()/4)
	svc.Start()
	defer svc.Stop()

	c.Logger.Info("recording", "dir", dir, "interval", c.Config.RecordEvery())
	return capture.NewRecorder(svc, saver, c.Config.RecordEvery(), c.Config.ImageExt, c.Logger).Run(ctx), nil
}

// Live runs screen inference and saves frames with uncertain detections.
func (c *AppContainer) Live(ctx context.Context, region *image.Rectangle) (capture.LiveStats, error) {
	if err := checkRegion(region); err != nil {
		return capture.LiveStats{}, err
	}
	c.startDebug(ctx)
	det, err := c.openDetector()
	if err != nil {
		return capture.LiveStats{}, err
	}
	defer det.Close()
	saver, err := capture.NewSaver(c.Config.SaveDir, 32, c.Logger)
	if err != nil {
		return capture.LiveStats{}, err
	}
	defer saver.Close()

	svc := capture.NewCaptureService(c.Logger, capture.ScreenGrabber(region), 0)
	svc.Start()
	defer svc.Stop()

	win := highgui.NewWindow(c.Config.WindowName, c.Palette, c.Logger)
	defer win.Close()

	loop := capture.NewLiveLoop(svc, det, win, saver, capture.LiveOptions{
		InputSize:     c.Config.ImageSize,
		SaveThreshold: float32(c.Config.SaveThreshold),
		FrameBudget:   c.Config.FrameBudget(),
		Ext:           c.Config.ImageExt,
	}, c.Logger)
	stats := loop.Run(ctx)
	saver.Close()
	saved, dropped, failed := saver.Counts()
	cs := svc.Stats()
	c.Logger.Info("live capture",
		"saved", saved,
		"dropped", dropped,
		"save_failed", failed,
		"captures", cs.Captures,
		"grab_failed", cs.Failed,
		"avg_capture", cs.AvgCapture)
	return stats, nil
}

// checkRegion rejects a capture region that leaves the primary screen.
func checkRegion(region *image.Rectangle) error {
	if region == nil {
		return nil
	}
	screen, err := capture.ScreenBounds()
	if err != nil {
		return fmt.Errorf("screen bounds: %w", err)
	}
	if !region.In(screen) {
		return fmt.Errorf("region %v outside screen %v", *region, screen)
	}
	return nil
}

func (c *AppContainer) startDebug(ctx context.Context) {
	if !c.Config.Debug {
		return
	}
	debug.StartGoroutineLogger(ctx, debugLogInterval, c.Logger)
	debug.StartMemLogger(ctx, debugLogInterval, c.Logger)
}
