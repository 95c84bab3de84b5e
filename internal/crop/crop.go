// Package crop extracts the document region from a page image using
// detector output.
package crop

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/intakehq/docintake/internal/detect"
	"github.com/intakehq/docintake/internal/utils"
)

// jpegQuality for persisted crops. Crops feed OCR, so quality stays high;
// size budgets apply only to final output images.
const jpegQuality = 95

// Cropper cuts the detected document region out of page images and persists
// each crop under ScratchDir.
type Cropper struct {
	detector   detect.Detector
	scratchDir string
}

// New returns a Cropper writing crops to scratchDir.
func New(detector detect.Detector, scratchDir string) *Cropper {
	return &Cropper{detector: detector, scratchDir: scratchDir}
}

// Crop detects the document region in the image at imagePath, cuts it out and
// writes it to a fresh file in the scratch directory. The returned path points
// at the crop. When the detector finds nothing the error wraps
// detect.ErrNoDetection and the caller drops the page.
func (c *Cropper) Crop(ctx context.Context, imagePath string) (string, error) {
	img, _, err := utils.LoadImage(imagePath)
	if err != nil {
		return "", fmt.Errorf("crop %s: %w", imagePath, err)
	}

	dets, err := c.detector.Detect(ctx, img)
	if err != nil {
		return "", fmt.Errorf("crop %s: %w", imagePath, err)
	}

	chosen := Pick(dets)
	cropped := imaging.Crop(img, chosen.Box)

	outPath := filepath.Join(c.scratchDir, uuid.NewString()+".jpg")
	if err := utils.SaveJPEG(cropped, outPath, jpegQuality); err != nil {
		return "", fmt.Errorf("crop %s: %w", imagePath, err)
	}

	slog.Debug("cropped document region",
		"file", imagePath,
		"label", chosen.Label,
		"confidence", chosen.Confidence,
		"box", chosen.Box.String(),
		"crop", outPath)
	return outPath, nil
}

// Pick selects which detection to crop. A box whose label mentions an
// attestation sticker wins over everything else because the sticker carries
// the numbers later stages validate; otherwise the first (highest-confidence)
// box is used with its exact bounds.
func Pick(dets []detect.Detection) detect.Detection {
	for _, d := range dets {
		if strings.Contains(strings.ToLower(d.Label), "attestation") {
			return d
		}
	}
	return dets[0]
}
