package faceid

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	_ "golang.org/x/image/bmp"
)

// DecodeBase64Image decodes a text-safe encoded capture into a raster image.
// Browser captures arrive as data URLs ("data:image/png;base64,..."), so an
// optional prefix up to the first comma is stripped before decoding.
// Any malformed input is reported as ErrDecode.
func DecodeBase64Image(data string) (image.Image, error) {
	if idx := strings.IndexByte(data, ','); idx >= 0 && strings.HasPrefix(data, "data:") {
		data = data[idx+1:]
	}
	data = strings.TrimSpace(data)
	if data == "" {
		return nil, fmt.Errorf("%w: empty payload", ErrDecode)
	}

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, nil
}
