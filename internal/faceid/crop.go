package faceid

import (
	"fmt"
	"image"
	stddraw "image/draw"

	"golang.org/x/image/draw"
)

// Canonical crop geometry. The margin widens the detector box so the crop
// keeps chin and forehead context; minCropSpan rejects boxes that clamping
// reduced to a sliver.
const (
	DefaultCropMargin   = 0.2
	DefaultTemplateSize = 64
	minCropSpan         = 8
)

// Cropper produces canonical fixed-size face crops from a raster image and a
// detection box. The same image and box always produce the same bytes.
type Cropper struct {
	margin float64
	size   int
}

// NewCropper creates a cropper with the given fractional margin per side and
// canonical output size. A negative margin or non-positive size falls back to
// the default; margin 0 is a valid setting and means no expansion.
func NewCropper(margin float64, size int) *Cropper {
	if margin < 0 {
		margin = DefaultCropMargin
	}
	if size <= 0 {
		size = DefaultTemplateSize
	}
	return &Cropper{margin: margin, size: size}
}

// Size returns the canonical output width/height.
func (c *Cropper) Size() int {
	return c.size
}

// Crop expands box by the margin, clamps the result to the image bounds,
// and scales the region to the canonical size. The detection box itself must
// overlap the image; a box outside the bounds, or one that clamps to a
// near-zero area, yields ErrUnusableRegion. The margin expansion alone never
// legitimizes a box the detector placed off-image.
func (c *Cropper) Crop(img image.Image, box image.Rectangle) (*image.RGBA, error) {
	bounds := img.Bounds()
	visible := box.Intersect(bounds)
	if visible.Dx() < minCropSpan || visible.Dy() < minCropSpan {
		return nil, fmt.Errorf("%w: box %v overlaps image %v by %dx%d",
			ErrUnusableRegion, box, bounds, visible.Dx(), visible.Dy())
	}

	expanded := expandBox(box, c.margin).Intersect(bounds)
	if expanded.Dx() < minCropSpan || expanded.Dy() < minCropSpan {
		return nil, fmt.Errorf("%w: %dx%d after clamping", ErrUnusableRegion, expanded.Dx(), expanded.Dy())
	}

	region := image.NewRGBA(image.Rect(0, 0, expanded.Dx(), expanded.Dy()))
	stddraw.Draw(region, region.Bounds(), img, expanded.Min, stddraw.Src)

	canonical := image.NewRGBA(image.Rect(0, 0, c.size, c.size))
	draw.BiLinear.Scale(canonical, canonical.Bounds(), region, region.Bounds(), draw.Src, nil)
	return canonical, nil
}

// expandBox grows the box by a fraction of its own span on every side.
func expandBox(box image.Rectangle, margin float64) image.Rectangle {
	dx := int(float64(box.Dx()) * margin)
	dy := int(float64(box.Dy()) * margin)
	return image.Rect(box.Min.X-dx, box.Min.Y-dy, box.Max.X+dx, box.Max.Y+dy)
}
