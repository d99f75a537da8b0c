// Package faceid implements the face recognition engine: decoding captured
// frames, locating the primary face, producing canonical crops, extracting
// fixed-length templates, and ranking candidate templates by similarity.
//
// Detection and template extraction are capability interfaces so the
// implementations can be swapped (e.g. a learned embedding model instead of
// the pixel-statistics extractor) without touching the rest of the pipeline.
package faceid

import "errors"

// Sentinel errors for the recognition pipeline. Decode and crop failures are
// terminal for a request; no-face is an expected outcome the caller turns
// into a "not recognized" response.
var (
	// ErrDecode indicates the transmitted image could not be decoded.
	ErrDecode = errors.New("invalid image data")

	// ErrNoFace indicates no face was found above the detector's quality floor.
	ErrNoFace = errors.New("no face detected")

	// ErrUnusableRegion indicates the detected box, after margin expansion and
	// clamping to image bounds, degenerated to a near-zero area.
	ErrUnusableRegion = errors.New("unusable face region")
)
