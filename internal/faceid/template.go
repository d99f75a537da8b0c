package faceid

import (
	"image"
	"math"
)

// TemplateModel names the extraction scheme stored alongside each template.
// Bump this when the normalization changes so stored templates from an older
// scheme are never compared against new captures.
const TemplateModel = "pixelgray-v1"

// Template is a fixed-length numeric face representation used for both
// storage and matching.
type Template []float32

// Extractor converts a canonical face crop into a Template. Implementations
// must be stateless and deterministic.
type Extractor interface {
	Extract(crop *image.RGBA) Template
}

// PixelExtractor produces templates from normalized grayscale pixel
// statistics: BT.601 luma per pixel, then z-score normalization so the cosine
// score between two templates is a correlation of pixel patterns rather than
// of overall brightness. A flat (zero-variance) crop yields the zero vector,
// which can never clear a match threshold.
type PixelExtractor struct{}

// NewPixelExtractor returns the pixel-statistics extractor.
func NewPixelExtractor() *PixelExtractor {
	return &PixelExtractor{}
}

// Extract converts the crop to a z-normalized luma vector of length
// width*height.
func (e *PixelExtractor) Extract(crop *image.RGBA) Template {
	bounds := crop.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	vec := make([]float64, 0, width*height)

	var sum float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := crop.At(x, y).RGBA()
			// ITU-R BT.601 luma formula.
			luma := 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)
			vec = append(vec, luma)
			sum += luma
		}
	}

	n := float64(len(vec))
	mean := sum / n

	var variance float64
	for _, v := range vec {
		d := v - mean
		variance += d * d
	}
	std := math.Sqrt(variance / n)

	template := make(Template, len(vec))
	if std == 0 {
		return template
	}
	for i, v := range vec {
		template[i] = float32((v - mean) / std)
	}
	return template
}
