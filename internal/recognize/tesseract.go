package recognize

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// GeneralEngine runs local Tesseract OCR through gosseract. A fresh client is
// created per call; gosseract clients are not safe for concurrent reuse.
type GeneralEngine struct {
	languages     []string
	clientFactory func() *gosseract.Client
}

// NewGeneralEngine builds the local engine. languages follows Tesseract's
// "eng+ara" convention; empty means the Tesseract default.
func NewGeneralEngine(languages string) *GeneralEngine {
	var langs []string
	for _, l := range strings.Split(languages, "+") {
		if l = strings.TrimSpace(l); l != "" {
			langs = append(langs, l)
		}
	}
	return &GeneralEngine{languages: langs, clientFactory: gosseract.NewClient}
}

// Recognize runs OCR on img. Tesseract exposes no useful whole-page
// confidence, so results carry zero and selection compares text length
// instead.
func (e *GeneralEngine) Recognize(ctx context.Context, img image.Image) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return Result{}, fmt.Errorf("tesseract: encode image: %w", err)
	}

	client := e.clientFactory()
	defer func() { _ = client.Close() }()

	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return Result{}, fmt.Errorf("tesseract: set image: %w", err)
	}
	if len(e.languages) > 0 {
		if err := client.SetLanguage(e.languages...); err != nil {
			return Result{}, fmt.Errorf("tesseract: set languages: %w", err)
		}
	}

	text, err := client.Text()
	if err != nil {
		return Result{}, fmt.Errorf("tesseract: %w", err)
	}

	return Result{Text: strings.TrimSpace(text), Engine: EngineTesseract}, nil
}

// TextLength reports how much text OCR finds in img. It backs the rotation
// fallback heuristic.
func (e *GeneralEngine) TextLength(ctx context.Context, img image.Image) (int, error) {
	res, err := e.Recognize(ctx, img)
	if err != nil {
		return 0, err
	}
	return len(res.Text), nil
}
