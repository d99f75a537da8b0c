package faceid

import (
	"fmt"
	"image"

	pigo "github.com/esimov/pigo/core"
)

// Detection parameters for the pigo cascade. MinFaceSize filters out
// background faces; the quality floor maps low-confidence detections to
// "no face found" rather than a low-confidence face.
const (
	minFaceSize       = 60
	cascadeShift      = 0.1
	cascadeScale      = 1.1
	clusterIoU        = 0.2
	defaultMinQuality = 5.0
)

// Detector locates the primary face in a raster image. Implementations must
// return ErrNoFace when nothing clears their internal quality floor.
type Detector interface {
	// Detect returns the bounding box of the single most confident face,
	// clamped to image bounds, or ErrNoFace.
	Detect(img image.Image) (image.Rectangle, error)
}

// PigoDetector detects faces with the pigo pixel-intensity cascade. It is
// stateless after construction and safe for concurrent use.
type PigoDetector struct {
	classifier *pigo.Pigo
	minQuality float32
}

// NewPigoDetector unpacks a binary cascade (the stock pigo "facefinder"
// cascade works) into a ready detector. A non-positive minQuality falls back
// to the default floor.
func NewPigoDetector(cascade []byte, minQuality float64) (*PigoDetector, error) {
	classifier, err := unpackCascade(cascade)
	if err != nil {
		return nil, fmt.Errorf("unpacking face cascade: %w", err)
	}
	return &PigoDetector{classifier: classifier, minQuality: qualityFloor(minQuality)}, nil
}

// qualityFloor maps a configured detection quality floor to the cascade's
// score scale, defaulting when unset.
func qualityFloor(minQuality float64) float32 {
	if minQuality <= 0 {
		return defaultMinQuality
	}
	return float32(minQuality)
}

// unpackCascade wraps pigo's Unpack, which panics on truncated or corrupt
// cascade data instead of returning an error.
func unpackCascade(cascade []byte) (classifier *pigo.Pigo, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed cascade data: %v", r)
		}
	}()
	return pigo.NewPigo().Unpack(cascade)
}

// Detect runs the cascade over the grayscale image and returns the primary
// face region. Multiple detections resolve to the highest-quality one; the
// engine is built for one-subject-at-a-time capture, not crowds.
func (d *PigoDetector) Detect(img image.Image) (image.Rectangle, error) {
	src := pigo.ImgToNRGBA(img)
	pixels := pigo.RgbToGrayscale(src)
	cols, rows := src.Bounds().Dx(), src.Bounds().Dy()

	maxSize := cols
	if rows < cols {
		maxSize = rows
	}
	if maxSize < minFaceSize {
		return image.Rectangle{}, ErrNoFace
	}

	params := pigo.CascadeParams{
		MinSize:     minFaceSize,
		MaxSize:     maxSize,
		ShiftFactor: cascadeShift,
		ScaleFactor: cascadeScale,
		ImageParams: pigo.ImageParams{
			Pixels: pixels,
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	dets := d.classifier.RunCascade(params, 0.0)
	dets = d.classifier.ClusterDetections(dets, clusterIoU)

	primary, ok := selectPrimary(dets, d.minQuality)
	if !ok {
		return image.Rectangle{}, ErrNoFace
	}

	box := detectionBox(primary).Intersect(image.Rect(0, 0, cols, rows))
	if box.Empty() {
		return image.Rectangle{}, ErrNoFace
	}
	return box, nil
}

// selectPrimary picks the highest-quality detection at or above the quality
// floor. Returns false when no detection qualifies.
func selectPrimary(dets []pigo.Detection, minQuality float32) (pigo.Detection, bool) {
	var best pigo.Detection
	found := false
	for _, det := range dets {
		if det.Q < minQuality {
			continue
		}
		if !found || det.Q > best.Q {
			best = det
			found = true
		}
	}
	return best, found
}

// detectionBox converts pigo's center+scale representation to a rectangle.
func detectionBox(det pigo.Detection) image.Rectangle {
	half := det.Scale / 2
	return image.Rect(det.Col-half, det.Row-half, det.Col+half, det.Row+half)
}
