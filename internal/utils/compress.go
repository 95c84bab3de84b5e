package utils

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

const (
	compressStartQuality = 95
	// Floors below which compression stops rather than destroy legibility:
	// attestation stamps become unreadable under heavier degradation.
	compressMinQuality = 35
	compressMinWidth   = 600
)

// CompressJPEG writes img to path as a JPEG no larger than maxKB kilobytes,
// first stepping quality down to a floor, then shrinking dimensions. When the
// budget cannot be met without dropping below the quality and width floors,
// the smallest achievable file is written and a warning is logged.
func CompressJPEG(img image.Image, path string, maxKB int) error {
	if maxKB <= 0 {
		maxKB = 250
	}
	budget := maxKB * 1024

	quality := compressStartQuality
	data, err := encodeJPEG(img, quality)
	if err != nil {
		return err
	}

	for len(data) > budget && quality > compressMinQuality {
		quality -= 5
		if data, err = encodeJPEG(img, quality); err != nil {
			return err
		}
	}

	// Still over budget: shrink conservatively, preserving readability.
	if len(data) > budget {
		working := img
		width := working.Bounds().Dx()
		for len(data) > budget && width > compressMinWidth {
			width = width * 9 / 10
			working = imaging.Resize(working, width, 0, imaging.Lanczos)
			if data, err = encodeJPEG(working, quality); err != nil {
				return err
			}
		}
	}

	if len(data) > budget {
		slog.Warn("could not compress image under budget",
			"path", filepath.Base(path), "size_kb", len(data)/1024, "budget_kb", maxKB)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("compress jpeg: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("compress jpeg: %w", err)
	}
	return nil
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
