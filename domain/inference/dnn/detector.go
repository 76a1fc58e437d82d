package dnn

// OpenCV DNN runner for an exported ONNX detector. Output decoding and
// suppression live in the parent inference package.

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/soocke/hitlabel-go/domain/dataset"
	"github.com/soocke/hitlabel-go/domain/inference"
	"gocv.io/x/gocv"
)

const maxDetections = 300

// Options configures a Detector.
type Options struct {
	InputSize     int
	ConfThreshold float32
	NMSThreshold  float32
	Layout        inference.Layout
}

// Detector runs a network loaded from an ONNX file. It is safe for
// concurrent use; calls are serialised.
type Detector struct {
	mu     sync.Mutex
	net    gocv.Net
	opts   Options
	logger *slog.Logger
}

// Open loads the network at path.
func Open(path string, opts Options, logger *slog.Logger) (*Detector, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("model file: %w", err)
	}
	net := gocv.ReadNetFromONNX(path)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load network %s", path)
	}
	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)
	if opts.InputSize <= 0 {
		opts.InputSize = 640
	}
	if logger != nil {
		logger.Info("detection network loaded", "model", path, "input", opts.InputSize)
	}
	return &Detector{net: net, opts: opts, logger: logger}, nil
}

// Detect runs the network on img. Boxes are returned in img pixels.
func (d *Detector) Detect(img image.Image) ([]inference.Detection, error) {
	if img == nil {
		return nil, errors.New("nil image")
	}
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("convert frame: %w", err)
	}
	defer mat.Close()
	return d.DetectMat(mat)
}

// DetectMat runs the network on a BGR matrix. Boxes are returned in mat
// pixels.
func (d *Detector) DetectMat(mat gocv.Mat) ([]inference.Detection, error) {
	if mat.Empty() {
		return nil, errors.New("empty frame")
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	started := time.Now()
	size := d.opts.InputSize
	blob := gocv.BlobFromImage(mat, 1.0/255.0, image.Pt(size, size), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	out := d.net.Forward("")
	defer out.Close()

	rows, cols, data, err := flatten(out)
	if err != nil {
		return nil, err
	}
	dets, err := inference.Decode(data, rows, cols, inference.DecodeParams{
		NumClasses:    len(dataset.Classes),
		ConfThreshold: d.opts.ConfThreshold,
		Layout:        d.opts.Layout,
	})
	if err != nil {
		return nil, err
	}
	dets = inference.NMS(dets, d.opts.NMSThreshold, maxDetections)
	dets = inference.ScaleAll(dets, size, size, mat.Cols(), mat.Rows())
	if d.logger != nil {
		d.logger.Debug("inference", "detections", len(dets), "took", time.Since(started))
	}
	return dets, nil
}

// flatten copies a [1, rows, cols] or [rows, cols] output into a slice.
func flatten(out gocv.Mat) (int, int, []float32, error) {
	dims := out.Size()
	var rows, cols int
	switch len(dims) {
	case 3:
		rows, cols = dims[1], dims[2]
	case 2:
		rows, cols = dims[0], dims[1]
	default:
		return 0, 0, nil, fmt.Errorf("%w: dims %v", inference.ErrOutputShape, dims)
	}
	m := out.Reshape(1, rows)
	defer m.Close()
	data := make([]float32, 0, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			data = append(data, m.GetFloatAt(r, c))
		}
	}
	return rows, cols, data, nil
}

// Close releases the network.
func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}
