package recognize

import (
	"context"
	"errors"
	"image"
	"log/slog"

	"github.com/intakehq/docintake/internal/document"
	"github.com/intakehq/docintake/internal/utils"
)

// SelectorConfig tunes engine selection.
type SelectorConfig struct {
	// LowConfidence is the structured-engine confidence below which the
	// general engine runs instead.
	LowConfidence float64
	// ShortTextChars triggers the enhanced second pass when the general
	// engine reads less text than this.
	ShortTextChars int
}

// Selector runs the preferred engine and falls back to the general one when
// the preferred engine is missing, fails, or reads with low confidence.
type Selector struct {
	primary   Engine
	secondary Engine
	enhance   func(image.Image) image.Image
	cfg       SelectorConfig
}

// NewSelector builds a Selector. primary may be nil when the structured
// engine is unconfigured.
func NewSelector(primary, secondary Engine, cfg SelectorConfig) *Selector {
	return &Selector{
		primary:   primary,
		secondary: secondary,
		enhance:   utils.EnhanceForOCR,
		cfg:       cfg,
	}
}

// Recognize extracts text from img. The label steers the enhanced second
// pass: passport pages always get one because their machine-readable zone
// responds well to contrast boosting. Engine failures never surface as
// errors; when every engine fails the result carries the unavailable tag and
// empty text so the page continues through the pipeline.
func (s *Selector) Recognize(ctx context.Context, img image.Image, label document.Label) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	var fallback *Result
	if s.primary != nil {
		res, err := s.primary.Recognize(ctx, img)
		switch {
		case err == nil && res.Confidence >= s.cfg.LowConfidence:
			return res, nil
		case err == nil:
			slog.Info("structured engine below confidence gate, trying general engine",
				"confidence", res.Confidence, "gate", s.cfg.LowConfidence)
			fallback = &res
		case errors.Is(err, ErrUnconfigured):
			slog.Debug("structured engine not configured")
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			return Result{}, err
		default:
			slog.Warn("structured engine failed, trying general engine", "error", err)
		}
	}

	res, err := s.generalPass(ctx, img, label)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return Result{}, err
		}
		slog.Warn("general engine failed", "error", err)
		if fallback != nil {
			return *fallback, nil
		}
		return Result{Engine: EngineUnavailable}, nil
	}

	// A low-confidence structured read still beats a general read that
	// found less text.
	if fallback != nil && len(fallback.Text) > len(res.Text) {
		return *fallback, nil
	}
	return res, nil
}

// generalPass runs the general engine, re-running on an enhanced variant when
// the first pass reads little text or the page is a passport. The pass with
// more text wins; ties keep the unenhanced read.
func (s *Selector) generalPass(ctx context.Context, img image.Image, label document.Label) (Result, error) {
	res, err := s.secondary.Recognize(ctx, img)
	if err != nil {
		return Result{}, err
	}

	if len(res.Text) >= s.cfg.ShortTextChars && !label.IsPassport() {
		return res, nil
	}

	enhanced, err := s.secondary.Recognize(ctx, s.enhance(img))
	if err != nil {
		slog.Debug("enhanced pass failed, keeping first read", "error", err)
		return res, nil
	}
	if len(enhanced.Text) > len(res.Text) {
		slog.Debug("enhanced pass read more text",
			"first", len(res.Text), "enhanced", len(enhanced.Text))
		return enhanced, nil
	}
	return res, nil
}
