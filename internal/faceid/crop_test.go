package faceid

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"
)

// gradientImage builds a deterministic test image with per-pixel variation.
func gradientImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 3), uint8(y * 5), uint8((x + y) * 2), 255})
		}
	}
	return img
}

func TestCrop_CanonicalSize(t *testing.T) {
	cropper := NewCropper(DefaultCropMargin, 64)
	img := gradientImage(320, 240)

	crop, err := cropper.Crop(img, image.Rect(100, 60, 200, 160))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if crop.Bounds().Dx() != 64 || crop.Bounds().Dy() != 64 {
		t.Errorf("expected 64x64 crop, got %dx%d", crop.Bounds().Dx(), crop.Bounds().Dy())
	}
}

func TestCrop_Deterministic(t *testing.T) {
	cropper := NewCropper(DefaultCropMargin, 64)
	img := gradientImage(320, 240)
	box := image.Rect(80, 40, 220, 180)

	first, err := cropper.Crop(img, box)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := cropper.Crop(img, box)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !bytes.Equal(first.Pix, second.Pix) {
		t.Error("expected identical bytes for identical input")
	}
}

func TestCrop_ClampsToImageBounds(t *testing.T) {
	cropper := NewCropper(0.5, 32)
	img := gradientImage(100, 100)

	// Box near the corner; the expanded region would extend past the origin.
	crop, err := cropper.Crop(img, image.Rect(0, 0, 40, 40))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if crop.Bounds().Dx() != 32 {
		t.Errorf("expected canonical 32px crop, got %d", crop.Bounds().Dx())
	}
}

func TestCrop_UnusableRegion(t *testing.T) {
	cropper := NewCropper(DefaultCropMargin, 64)
	img := gradientImage(100, 100)

	// Box entirely outside the visible area clamps to nothing.
	_, err := cropper.Crop(img, image.Rect(-80, -80, -4, -4))
	if !errors.Is(err, ErrUnusableRegion) {
		t.Errorf("expected ErrUnusableRegion, got %v", err)
	}
}

func TestCrop_SliverRegion(t *testing.T) {
	cropper := NewCropper(0, 64)
	img := gradientImage(100, 100)

	// A box hugging the right edge leaves fewer than minCropSpan pixels.
	_, err := cropper.Crop(img, image.Rect(97, 10, 130, 90))
	if !errors.Is(err, ErrUnusableRegion) {
		t.Errorf("expected ErrUnusableRegion, got %v", err)
	}
}

func TestCrop_MarginCannotRescueOffImageBox(t *testing.T) {
	cropper := NewCropper(DefaultCropMargin, 64)
	img := gradientImage(100, 100)

	// The expanded box would clip a corner sliver of the image, but the
	// detection itself lies off-image, so no margin makes it usable.
	box := image.Rect(-80, -80, -4, -4)
	if !expandBox(box, DefaultCropMargin).Intersect(img.Bounds()).Empty() {
		// Geometry precondition: the expansion alone reaches into the image.
		_, err := cropper.Crop(img, box)
		if !errors.Is(err, ErrUnusableRegion) {
			t.Errorf("expected ErrUnusableRegion for off-image box, got %v", err)
		}
	} else {
		t.Fatal("test geometry no longer exercises the margin-rescue case")
	}
}

func TestCrop_BarelyVisibleBox(t *testing.T) {
	cropper := NewCropper(DefaultCropMargin, 64)
	img := gradientImage(100, 100)

	// Most of the box is outside; only a 5px strip is visible.
	_, err := cropper.Crop(img, image.Rect(-60, 20, 5, 80))
	if !errors.Is(err, ErrUnusableRegion) {
		t.Errorf("expected ErrUnusableRegion for a barely visible box, got %v", err)
	}
}

func TestExpandBox_Margin(t *testing.T) {
	box := image.Rect(100, 100, 200, 200)

	expanded := expandBox(box, 0.2)

	want := image.Rect(80, 80, 220, 220)
	if expanded != want {
		t.Errorf("expected %v, got %v", want, expanded)
	}
}

func TestNewCropper_Defaults(t *testing.T) {
	cropper := NewCropper(-1, 0)
	if cropper.Size() != DefaultTemplateSize {
		t.Errorf("expected default size %d, got %d", DefaultTemplateSize, cropper.Size())
	}
	if cropper.margin != DefaultCropMargin {
		t.Errorf("expected default margin %v for negative input, got %v", DefaultCropMargin, cropper.margin)
	}
}

func TestNewCropper_ZeroMarginHonored(t *testing.T) {
	cropper := NewCropper(0, 64)
	if cropper.margin != 0 {
		t.Errorf("expected margin 0 to be kept, got %v", cropper.margin)
	}
}
