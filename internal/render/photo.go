package render

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/disintegration/imaging"
)

var ErrUnsupportedImage = errors.New("unsupported image")

// NormalizePhoto decodes an uploaded image, applies EXIF orientation, bounds the
// longest edge to maxEdge and re-encodes it as JPEG.
func NormalizePhoto(content []byte, maxEdge int) ([]byte, error) {
	source, err := imaging.Decode(bytes.NewReader(content), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}

	bounds := source.Bounds()
	if maxEdge > 0 && (bounds.Dx() > maxEdge || bounds.Dy() > maxEdge) {
		source = imaging.Fit(source, maxEdge, maxEdge, imaging.Lanczos)
	}

	var encoded bytes.Buffer
	if err := imaging.Encode(&encoded, source, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("encode photo: %w", err)
	}
	return encoded.Bytes(), nil
}
