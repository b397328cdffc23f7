package photo

import (
	"bytes"
	"errors"

	"github.com/disintegration/imaging"
)

const (
	DefaultMaxEdge = 1000
	DefaultQuality = 80
)

var (
	ErrEmptyImage   = errors.New("empty_image")
	ErrInvalidImage = errors.New("invalid_image")
)

// Compress decodes an uploaded image, shrinks it so the longest edge is at
// most maxEdge pixels and re-encodes it as JPEG. Smaller images keep their
// dimensions.
func Compress(data []byte, maxEdge, quality int) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}
	if maxEdge <= 0 {
		maxEdge = DefaultMaxEdge
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, ErrInvalidImage
	}

	bounds := img.Bounds()
	if bounds.Dx() > maxEdge || bounds.Dy() > maxEdge {
		img = imaging.Fit(img, maxEdge, maxEdge, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
