package inference

import (
	"fmt"
	"image"
	"log/slog"

	"github.com/disintegration/imaging"
)

const keyEsc = 27

// ImageDetector runs detection on a decoded image.
type ImageDetector interface {
	Detect(img image.Image) ([]Detection, error)
}

// Viewer shows an image with detections and waits for a key. Poll(0) blocks
// until a key is pressed.
type Viewer interface {
	Present(frame image.Image, dets []Detection)
	Poll(delay int) int
}

// SquareLoader returns a loader that decodes a file and stretches it to a
// size x size square.
func SquareLoader(size int) func(path string) (image.Image, error) {
	return func(path string) (image.Image, error) {
		img, err := imaging.Open(path)
		if err != nil {
			return nil, err
		}
		return imaging.Resize(img, size, size, imaging.Linear), nil
	}
}

// PreviewAll detects objects on each image and shows the result, one image
// per key press. Esc stops early. It returns the number of images shown.
func PreviewAll(paths []string, load func(string) (image.Image, error), det ImageDetector, view Viewer, logger *slog.Logger) (int, error) {
	shown := 0
	for _, p := range paths {
		img, err := load(p)
		if err != nil {
			if logger != nil {
				logger.Warn("cannot load image", "image", p, "error", err)
			}
			continue
		}
		dets, err := det.Detect(img)
		if err != nil {
			return shown, fmt.Errorf("detect %s: %w", p, err)
		}
		if logger != nil {
			logger.Info("predicted", "image", p, "detections", len(dets))
		}
		view.Present(img, dets)
		shown++
		if view.Poll(0) == keyEsc {
			break
		}
	}
	return shown, nil
}
