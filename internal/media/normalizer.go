package media

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

const (
	MaxDimension = 1600
	JPEGQuality  = 90
)

var (
	ErrDecode   = errors.New("failed to decode image")
	ErrNoImages = errors.New("no images to combine")
	ErrBase64   = errors.New("invalid base64 content")
)

// Image is a normalized JPEG ready for storage or extraction.
type Image struct {
	Data   []byte
	Width  int
	Height int
}

// Normalize decodes any supported raster format and re-encodes it as an RGB
// JPEG whose larger side is at most MaxDimension. Smaller images keep their size.
func Normalize(raw []byte) (*Image, error) {
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	img := flatten(fit(src))

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}

	b := img.Bounds()
	return &Image{Data: buf.Bytes(), Width: b.Dx(), Height: b.Dy()}, nil
}

func fit(src image.Image) *image.NRGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	switch {
	case w <= MaxDimension && h <= MaxDimension:
		return imaging.Clone(src)
	case w >= h:
		return imaging.Resize(src, MaxDimension, 0, imaging.Lanczos)
	default:
		return imaging.Resize(src, 0, MaxDimension, imaging.Lanczos)
	}
}

// flatten drops the alpha channel, keeping the stored colour of each pixel.
func flatten(img *image.NRGBA) *image.NRGBA {
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}
	return img
}

func EncodeBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// DecodeBase64 accepts plain base64 or a data URL.
func DecodeBase64(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		if i := strings.Index(s, ","); i >= 0 {
			s = s[i+1:]
		}
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBase64, err)
	}
	return data, nil
}
