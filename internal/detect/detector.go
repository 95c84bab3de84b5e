// Package detect locates document regions within a page image.
package detect

import (
	"context"
	"errors"
	"image"
)

// ErrNoDetection is returned when the model finds no regions in an image.
var ErrNoDetection = errors.New("no regions detected")

// Detection is one model-reported region.
type Detection struct {
	Box        image.Rectangle
	Label      string
	Confidence float64
}

// Detector finds labeled regions in a page image. Implementations are
// black-box models called through this interface only.
type Detector interface {
	Detect(ctx context.Context, img image.Image) ([]Detection, error)
}
