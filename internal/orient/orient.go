// Package orient detects and corrects page rotation before recognition.
package orient

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/intakehq/docintake/internal/document"
	"github.com/intakehq/docintake/internal/utils"
)

// ErrUndecided signals the judge produced no usable rotation decision. The
// caller recovers by falling back to the text-length heuristic.
var ErrUndecided = errors.New("rotation judgment undecided")

// Judge decides whether a page image needs rotation and by how much. The
// label steers the judgment prompt toward the document kind's visual cues.
type Judge interface {
	Judge(ctx context.Context, img image.Image, label document.Label) (document.RotationDecision, error)
}

// TextMeasurer returns the amount of machine-readable text found in img.
// Used by the fallback heuristic to compare candidate rotations.
type TextMeasurer func(ctx context.Context, img image.Image) (int, error)

// Corrector applies rotation correction to pages whose label participates in
// orientation handling. Pages outside the whitelist pass through untouched.
type Corrector struct {
	judge   Judge
	measure TextMeasurer
}

// NewCorrector builds a Corrector. judge may be nil, in which case the
// text-length fallback decides instead. measure may be nil to disable the
// fallback.
func NewCorrector(judge Judge, measure TextMeasurer) *Corrector {
	return &Corrector{judge: judge, measure: measure}
}

// Correct decides and applies the rotation for page, updating page.ImagePath
// to the corrected image when a rotation was written. Labels outside the
// rotation whitelist are returned untouched. Judge failures are recoverable:
// the page keeps its current orientation. The text-length fallback is a
// separate strategy used only when no judge is configured, never chained
// after one.
func (c *Corrector) Correct(ctx context.Context, page *document.Page) error {
	if !page.Label.Rotatable() {
		slog.Debug("label exempt from rotation", "file", page.SourceFile, "label", string(page.Label))
		return nil
	}

	img, _, err := utils.LoadImage(page.ImagePath)
	if err != nil {
		return fmt.Errorf("orient %s: %w", page.SourceFile, err)
	}

	angle, err := c.decide(ctx, img, page)
	if err != nil {
		return err
	}
	if angle == 0 {
		return nil
	}

	rotated, err := utils.RotateClockwise(img, angle)
	if err != nil {
		return fmt.Errorf("orient %s: %w", page.SourceFile, err)
	}

	outPath := rotatedPath(page.ImagePath, angle)
	if err := utils.SaveJPEG(rotated, outPath, 95); err != nil {
		return fmt.Errorf("orient %s: %w", page.SourceFile, err)
	}

	slog.Info("corrected page rotation", "file", page.SourceFile, "angle", angle, "path", outPath)
	page.ImagePath = outPath
	return nil
}

func (c *Corrector) decide(ctx context.Context, img image.Image, page *document.Page) (int, error) {
	if c.judge != nil {
		decision, err := c.judge.Judge(ctx, img, page.Label)
		switch {
		case err == nil:
			if !decision.Needed {
				return 0, nil
			}
			if decision.ValidAngle() {
				slog.Debug("rotation judged",
					"file", page.SourceFile, "angle", decision.Angle, "reason", decision.Reason)
				return decision.Angle, nil
			}
			slog.Warn("judge returned unsupported angle, keeping orientation",
				"file", page.SourceFile, "angle", decision.Angle)
			return 0, nil
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			return 0, err
		default:
			slog.Warn("rotation judgment failed, keeping orientation",
				"file", page.SourceFile, "error", err)
			return 0, nil
		}
	}

	if c.measure == nil {
		return 0, nil
	}
	angle, err := FallbackAngle(ctx, img, c.measure)
	if err != nil {
		slog.Warn("rotation fallback failed, keeping orientation",
			"file", page.SourceFile, "error", err)
		return 0, nil
	}
	return angle, nil
}

// rotatedPath derives the output path for a corrected image, keeping the
// source directory.
func rotatedPath(imagePath string, angle int) string {
	ext := filepath.Ext(imagePath)
	base := strings.TrimSuffix(imagePath, ext)
	return fmt.Sprintf("%s_rot%d.jpg", base, angle)
}
