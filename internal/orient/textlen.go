package orient

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"github.com/intakehq/docintake/internal/utils"
)

// candidateAngles in evaluation order. The current orientation comes first so
// ties resolve to no rotation.
var candidateAngles = [4]int{0, 90, 180, 270}

// FallbackAngle tries all four rotations and returns the one whose image
// yields the most machine-readable text. Text printed upside down or sideways
// reads as noise, so the upright rotation dominates on real scans. Ties keep
// the earlier candidate, so an all-noise page stays at 0.
func FallbackAngle(ctx context.Context, img image.Image, measure TextMeasurer) (int, error) {
	bestAngle, bestLen := 0, -1
	for _, angle := range candidateAngles {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		candidate := img
		if angle != 0 {
			var err error
			candidate, err = utils.RotateClockwise(img, angle)
			if err != nil {
				return 0, fmt.Errorf("fallback rotation %d: %w", angle, err)
			}
		}

		n, err := measure(ctx, candidate)
		if err != nil {
			slog.Debug("text measurement failed for candidate", "angle", angle, "error", err)
			continue
		}
		if n > bestLen {
			bestAngle, bestLen = angle, n
		}
	}

	if bestLen < 0 {
		return 0, fmt.Errorf("text measurement failed for every rotation")
	}
	slog.Debug("text-length rotation fallback", "angle", bestAngle, "text_len", bestLen)
	return bestAngle, nil
}
