package utils

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// RotateClockwise rotates img clockwise by a quarter-turn angle in
// {0, 90, 180, 270}. An angle of 0 returns the original image unchanged.
func RotateClockwise(img image.Image, angle int) (image.Image, error) {
	switch angle {
	case 0:
		return img, nil
	case 90:
		// imaging rotates counter-clockwise.
		return imaging.Rotate270(img), nil
	case 180:
		return imaging.Rotate180(img), nil
	case 270:
		return imaging.Rotate90(img), nil
	default:
		return nil, fmt.Errorf("rotate: unsupported angle %d", angle)
	}
}

// EnhanceForOCR produces a grayscale, contrast-boosted and lightly sharpened
// variant of img for a second recognition pass on noisy scans.
func EnhanceForOCR(img image.Image) image.Image {
	out := imaging.Grayscale(img)
	out = imaging.AdjustContrast(out, 20)
	return imaging.Sharpen(out, 1.0)
}
