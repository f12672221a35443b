// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package imaging turns uploaded poster images into fixed-width JPEG
// thumbnails for video listings.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp" // WebP decoder

	"github.com/cohesion-education/api/internal/model"
)

// Poster defaults.
const (
	PosterWidth   = 640
	PosterQuality = 85
)

// ErrUnsupportedImage is returned for data that is not JPEG, PNG, GIF or WebP.
var ErrUnsupportedImage = errors.New("unsupported image format")

// Thumbnail is an encoded JPEG and its dimensions.
type Thumbnail struct {
	Data   []byte
	Width  int
	Height int
}

// Processor resizes poster images.
type Processor struct {
	width   int
	quality int
}

// NewProcessor creates a Processor producing width-pixel wide thumbnails.
// Zero values select PosterWidth and PosterQuality.
func NewProcessor(width, quality int) *Processor {
	if width <= 0 {
		width = PosterWidth
	}
	if quality <= 0 || quality > 100 {
		quality = PosterQuality
	}
	return &Processor{width: width, quality: quality}
}

// Thumbnail decodes r, applies the EXIF orientation, scales the image down to
// the configured width keeping its aspect ratio and encodes it as JPEG.
// Narrower images keep their size.
func (p *Processor) Thumbnail(r io.Reader) (*Thumbnail, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}
	if !IsImage(DetectMimeType(data)) {
		return nil, ErrUnsupportedImage
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	img = applyOrientation(img, readExifOrientation(bytes.NewReader(data)))

	if img.Bounds().Dx() > p.width {
		img = imaging.Resize(img, p.width, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: p.quality}); err != nil {
		return nil, fmt.Errorf("encoding thumbnail: %w", err)
	}
	b := img.Bounds()
	return &Thumbnail{Data: buf.Bytes(), Width: b.Dx(), Height: b.Dy()}, nil
}

// DetectMimeType sniffs data and returns the bare MIME type.
func DetectMimeType(data []byte) string {
	contentType := http.DetectContentType(data)
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = contentType[:idx]
	}
	return contentType
}

// IsImage reports whether mimeType is an accepted poster type.
func IsImage(mimeType string) bool {
	switch mimeType {
	case model.MimeTypeJPEG, model.MimeTypePNG, model.MimeTypeGIF, model.MimeTypeWebP:
		return true
	default:
		return false
	}
}

func readExifOrientation(r io.Reader) int {
	x, err := exif.Decode(r)
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	orientation, err := tag.Int(0)
	if err != nil {
		return 1
	}
	return orientation
}

// applyOrientation maps EXIF orientations 2-8 onto flips and rotations.
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}
