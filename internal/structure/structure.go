// Package structure turns aggregated per-document OCR text into one
// structured field record via a narrative-structuring model.
package structure

import (
	"context"

	"github.com/intakehq/docintake/internal/document"
)

// Input aggregates everything the structuring model sees for one bundle.
type Input struct {
	// Texts maps a document role label to its recognized text.
	Texts map[document.Label]string
	// PageFields carries the per-role pattern-extracted fields as hints.
	PageFields map[document.Label]document.FieldSet
	// SalaryData holds key/value pairs parsed from a salary document.
	SalaryData map[string]string
	// EmailText is the body of the originating email.
	EmailText string
}

// Structurer produces a consolidated field record from the bundle input.
// The raw transcript is returned alongside for debugging artifacts.
type Structurer interface {
	Structure(ctx context.Context, in Input) (document.FieldSet, string, error)
}
