// Package recognize extracts text from page images, choosing between a
// structured cloud engine and a local general-purpose engine.
package recognize

import (
	"context"
	"errors"
	"image"

	"github.com/intakehq/docintake/internal/document"
)

// Engine name tags recorded on results.
const (
	EngineDocumentAI  = "documentai"
	EngineTesseract   = "tesseract"
	EngineUnavailable = "unavailable"
)

// ErrUnconfigured is returned by engines whose credentials or endpoint are
// not set. Selection treats it as a silent skip, not a failure.
var ErrUnconfigured = errors.New("engine not configured")

// Result is the output of one recognition pass.
type Result struct {
	Text       string
	Confidence float64
	Engine     string
	// Fields carries structured form fields when the engine provides them.
	Fields document.FieldSet
}

// Engine performs OCR on a single image.
type Engine interface {
	Recognize(ctx context.Context, img image.Image) (Result, error)
}
