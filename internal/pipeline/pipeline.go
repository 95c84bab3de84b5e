// Package pipeline orchestrates the document intake stages: conversion,
// classification, batch reconciliation, orientation, region extraction,
// recognition, field extraction, structuring and consolidation.
package pipeline

import (
	"context"
	"fmt"
	"image"

	"github.com/intakehq/docintake/internal/classify"
	"github.com/intakehq/docintake/internal/config"
	"github.com/intakehq/docintake/internal/consolidate"
	"github.com/intakehq/docintake/internal/crop"
	"github.com/intakehq/docintake/internal/detect"
	"github.com/intakehq/docintake/internal/document"
	"github.com/intakehq/docintake/internal/orient"
	"github.com/intakehq/docintake/internal/recognize"
	"github.com/intakehq/docintake/internal/structure"
)

// Cropper narrows crop.Cropper for dependency injection.
type Cropper interface {
	Crop(ctx context.Context, imagePath string) (string, error)
}

// Corrector narrows orient.Corrector.
type Corrector interface {
	Correct(ctx context.Context, page *document.Page) error
}

// Recognizer narrows recognize.Selector.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image, label document.Label) (recognize.Result, error)
}

// Deps are the pipeline's stage implementations. Any of Classifier,
// Corrector, Cropper or Structurer may be nil; the stage degrades to its
// documented fallback.
type Deps struct {
	Classifier   classify.Classifier
	Corrector    Corrector
	Cropper      Cropper
	Recognizer   Recognizer
	Structurer   structure.Structurer
	Consolidator *consolidate.Consolidator
	// ScratchDir receives intermediate images (converted pages, crops).
	ScratchDir string
}

// Pipeline processes one bundle at a time, end to end.
type Pipeline struct {
	deps Deps
}

// New assembles a Pipeline from explicit dependencies.
func New(deps Deps) (*Pipeline, error) {
	if deps.Recognizer == nil {
		return nil, fmt.Errorf("pipeline: recognizer required")
	}
	if deps.Consolidator == nil {
		return nil, fmt.Errorf("pipeline: consolidator required")
	}
	return &Pipeline{deps: deps}, nil
}

// Builder constructs a Pipeline with its production components from
// configuration.
type Builder struct {
	cfg config.Config
}

// NewBuilder returns a Builder over cfg.
func NewBuilder(cfg config.Config) *Builder {
	return &Builder{cfg: cfg}
}

// Build wires every configured component. Optional services (cloud engines,
// judges, structurer) are skipped with their fallbacks when unconfigured.
func (b *Builder) Build(ctx context.Context) (*Pipeline, error) {
	deps := Deps{ScratchDir: b.cfg.Paths.TempDir}

	if b.cfg.Models.ClassifierPath != "" {
		classifier, err := classify.NewModel(classify.Config{
			ModelPath:  b.cfg.Models.ClassifierPath,
			NumThreads: b.cfg.Models.NumThreads,
		})
		if err != nil {
			return nil, fmt.Errorf("build pipeline: %w", err)
		}
		deps.Classifier = classifier
	}

	if b.cfg.Models.DetectorPath != "" {
		detector, err := detect.NewModel(detect.Config{
			ModelPath:  b.cfg.Models.DetectorPath,
			NumThreads: b.cfg.Models.NumThreads,
		})
		if err != nil {
			return nil, fmt.Errorf("build pipeline: %w", err)
		}
		deps.Cropper = crop.New(detector, b.cfg.Paths.TempDir)
	}

	general := recognize.NewGeneralEngine(b.cfg.Recognize.TesseractLanguages)

	var judge orient.Judge
	if b.cfg.Google.ProjectID != "" {
		j, err := orient.NewVertexJudge(ctx, b.cfg.Google.ProjectID, b.cfg.Google.Region, b.cfg.Structurer.Model)
		if err != nil {
			return nil, fmt.Errorf("build pipeline: %w", err)
		}
		judge = j
	}
	deps.Corrector = orient.NewCorrector(judge, general.TextLength)

	var primary recognize.Engine
	if b.cfg.DocumentAIConfigured() {
		engine, err := recognize.NewStructuredEngine(ctx, recognize.StructuredConfig{
			ProjectID:       b.cfg.Google.ProjectID,
			Region:          b.cfg.Google.Region,
			ProcessorID:     b.cfg.Google.ProcessorID,
			CredentialsFile: b.cfg.Google.CredentialsFile,
		})
		if err != nil {
			return nil, fmt.Errorf("build pipeline: %w", err)
		}
		primary = engine
	}
	deps.Recognizer = recognize.NewSelector(primary, general, recognize.SelectorConfig{
		LowConfidence:  b.cfg.Recognize.LowConfidence,
		ShortTextChars: b.cfg.Recognize.ShortTextChars,
	})

	if b.cfg.Google.ProjectID != "" {
		structurer, err := structure.NewVertexStructurer(ctx,
			b.cfg.Google.ProjectID, b.cfg.Google.Region,
			b.cfg.Structurer.Model, float32(b.cfg.Structurer.Temperature))
		if err != nil {
			return nil, fmt.Errorf("build pipeline: %w", err)
		}
		deps.Structurer = structurer
	}

	deps.Consolidator = consolidate.New(consolidate.Options{
		OutputDir:       b.cfg.Paths.OutputDir,
		LogFile:         b.cfg.Paths.LogFile,
		MaxImageKB:      b.cfg.Output.MaxImageKB,
		KeepTranscripts: b.cfg.Output.KeepTranscripts,
	})

	return New(deps)
}
