package storage

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"

	"github.com/disintegration/imaging"
)

const (
	PhotoMaxWidth      = 1280
	PhotoMaxHeight     = 960
	ThumbnailMaxWidth  = 200
	ThumbnailMaxHeight = 200
	jpegQuality        = 80
)

// ErrNotAnImage is returned when the upload cannot be decoded as JPEG or PNG.
var ErrNotAnImage = errors.New("uploaded content is not a supported image")

// ProcessedImage holds the normalised photo and its thumbnail, both JPEG.
type ProcessedImage struct {
	Photo     []byte
	Thumbnail []byte
}

// ImageProcessor turns uploaded pictures into bounded JPEG renditions.
type ImageProcessor struct{}

func NewImageProcessor() *ImageProcessor {
	return &ImageProcessor{}
}

// Process decodes content once and produces the photo and thumbnail renditions.
// EXIF orientation is applied before resizing.
func (p *ImageProcessor) Process(content io.Reader) (*ProcessedImage, error) {
	img, err := imaging.Decode(content, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAnImage, err)
	}

	photo, err := encodeJPEG(fitWithin(img, PhotoMaxWidth, PhotoMaxHeight))
	if err != nil {
		return nil, err
	}
	thumb, err := encodeJPEG(imaging.Fit(img, ThumbnailMaxWidth, ThumbnailMaxHeight, imaging.Lanczos))
	if err != nil {
		return nil, err
	}

	return &ProcessedImage{Photo: photo, Thumbnail: thumb}, nil
}

// fitWithin only ever scales down.
func fitWithin(img image.Image, maxWidth, maxHeight int) image.Image {
	b := img.Bounds()
	if b.Dx() <= maxWidth && b.Dy() <= maxHeight {
		return img
	}
	return imaging.Fit(img, maxWidth, maxHeight, imaging.Lanczos)
}

func encodeJPEG(img image.Image) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
