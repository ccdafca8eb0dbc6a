// Package media re-encodes attachment images into a bounded-width JPEG
// suitable for the webhook payload.
package media

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/disintegration/imaging"
)

// ErrDecode marks input that could not be decoded as an image.
var ErrDecode = errors.New("image decode failed")

// PDFPlaceholder is the fixed preview glyph for PDF attachments, which
// bypass transcoding entirely.
const PDFPlaceholder = "data:image/svg+xml;base64,PHN2ZyB3aWR0aD0iMjAwIiBoZWlnaHQ9IjI1MCIgeG1sbnM9Imh0dHA6Ly93d3cudzMub3JnLzIwMDAvc3ZnIj48cmVjdCB3aWR0aD0iMjAwIiBoZWlnaHQ9IjI1MCIgZmlsbD0iI2YzZjRmNiIvPjx0ZXh0IHg9IjUwJSIgeT0iNDAlIiBmb250LXNpemU9IjQ4IiBmaWxsPSIjZWY0NDQ0IiB0ZXh0LWFuY2hvcj0ibWlkZGxlIiBmb250LWZhbWlseT0iQXJpYWwiPvCfk4Q8L3RleHQ+PHRleHQgeD0iNTAlIiB5PSI2MCUiIGZvbnQtc2l6ZT0iMTYiIGZpbGw9IiM2YjcyODAiIHRleHQtYW5jaG9yPSJtaWRkbGUiIGZvbnQtZmFtaWx5PSJBcmlhbCI+UERGIFNlbGVjaW9uYWRvPC90ZXh0Pjwvc3ZnPg=="

// Transcoder converts arbitrary-resolution images into bounded-width
// JPEG data URLs.
type Transcoder struct {
	maxWidth int
	quality  int
}

func NewTranscoder(maxWidth, quality int) *Transcoder {
	return &Transcoder{maxWidth: maxWidth, quality: quality}
}

// Resize decodes data, scales it down to the width bound when it is
// wider (aspect ratio preserved), and returns the result re-encoded as
// a JPEG data URL. Images at or under the bound keep their dimensions.
func (t *Transcoder) Resize(data []byte) (string, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecode, err)
	}

	if img.Bounds().Dx() > t.maxWidth {
		// height 0 lets imaging keep the aspect ratio
		img = imaging.Resize(img, t.maxWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(t.quality)); err != nil {
		return "", fmt.Errorf("encode jpeg: %w", err)
	}

	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
