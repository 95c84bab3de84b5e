package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/intakehq/docintake/internal/classify"
	"github.com/intakehq/docintake/internal/consolidate"
	"github.com/intakehq/docintake/internal/convert"
	"github.com/intakehq/docintake/internal/detect"
	"github.com/intakehq/docintake/internal/document"
	"github.com/intakehq/docintake/internal/fields"
	"github.com/intakehq/docintake/internal/structure"
	"github.com/intakehq/docintake/internal/utils"
)

// Run processes each bundle in order. A bundle failure is logged and does not
// stop the remaining bundles; Run reports the number that completed.
func (p *Pipeline) Run(ctx context.Context, bundles []*document.Bundle) (int, error) {
	done := 0
	for _, b := range bundles {
		if err := ctx.Err(); err != nil {
			return done, err
		}
		if err := p.ProcessBundle(ctx, b); err != nil {
			slog.Error("bundle failed", "bundle", b.Name, "error", err)
			continue
		}
		done++
	}
	return done, nil
}

// ProcessBundle runs one bundle end to end: conversion, classification,
// reconciliation, per-page orientation/crop/recognition/extraction,
// structuring and consolidation. Per-page stage failures degrade to the
// stage's fallback, a page with no detectable document region is dropped,
// and only artifact writing is fatal.
func (p *Pipeline) ProcessBundle(ctx context.Context, bundle *document.Bundle) error {
	pages, err := p.buildPages(bundle)
	if err != nil {
		return fmt.Errorf("bundle %s: %w", bundle.Name, err)
	}
	if len(pages) == 0 {
		slog.Warn("bundle has no processable pages", "bundle", bundle.Name)
		return nil
	}

	pages = p.classifyPages(ctx, pages)
	if len(pages) == 0 {
		slog.Warn("every page dropped during classification", "bundle", bundle.Name)
		return nil
	}
	if n := classify.Reconcile(pages); n > 0 {
		slog.Info("reconciled labels", "bundle", bundle.Name, "retargeted", n)
	}

	kept := pages[:0]
	for _, page := range pages {
		if err := p.processPage(ctx, page); err != nil {
			if errors.Is(err, detect.ErrNoDetection) {
				slog.Warn("no document region detected, page dropped",
					"bundle", bundle.Name, "file", page.SourceFile)
				continue
			}
			return fmt.Errorf("bundle %s: page %s: %w", bundle.Name, page.SourceFile, err)
		}
		kept = append(kept, page)
	}
	pages = kept
	if len(pages) == 0 {
		slog.Warn("every page dropped during region extraction", "bundle", bundle.Name)
		return nil
	}

	structured, transcript := p.structurePages(ctx, bundle, pages)

	record := consolidate.MergeRecord(pages, structured)
	record.Transcript = transcript
	if bundle.RequestedService != "" {
		record.Fields.Set("Requested Service", bundle.RequestedService)
	}
	if err := p.deps.Consolidator.Write(bundle, pages, record); err != nil {
		return fmt.Errorf("bundle %s: %w", bundle.Name, err)
	}
	return nil
}

// buildPages converts every source file into page images. PDFs expand into one
// page per embedded image, salary sheets become bundle data rather than pages,
// and unrecognized extensions are skipped with a warning.
func (p *Pipeline) buildPages(bundle *document.Bundle) ([]*document.Page, error) {
	var pages []*document.Page
	for _, file := range bundle.Files {
		switch strings.ToLower(filepath.Ext(file)) {
		case ".pdf":
			images, err := convert.PDFToJPEGs(file, p.deps.ScratchDir)
			if err != nil {
				slog.Warn("pdf conversion failed, skipping file", "file", file, "error", err)
				continue
			}
			for _, img := range images {
				pages = append(pages, &document.Page{SourceFile: filepath.Base(file), ImagePath: img})
			}
		case ".jpg", ".jpeg", ".png", ".tif", ".tiff", ".bmp":
			pages = append(pages, &document.Page{SourceFile: filepath.Base(file), ImagePath: file})
		case ".docx":
			data, err := convert.ParseSalaryDOCX(file)
			if err != nil {
				slog.Warn("salary sheet parse failed", "file", file, "error", err)
				continue
			}
			if bundle.SalaryData == nil {
				bundle.SalaryData = map[string]string{}
			}
			for k, v := range data {
				bundle.SalaryData[k] = v
			}
		default:
			slog.Warn("unsupported file type skipped", "file", file)
		}
	}
	return pages, nil
}

// classifyPages labels every page and returns the pages that survive. A
// failed inference drops its page from the batch; with no classifier every
// page stays unclassified and reconciliation may still rescue it.
func (p *Pipeline) classifyPages(ctx context.Context, pages []*document.Page) []*document.Page {
	kept := pages[:0]
	for _, page := range pages {
		page.Label = document.LabelUnclassified
		if p.deps.Classifier == nil {
			kept = append(kept, page)
			continue
		}
		img, _, err := utils.LoadImage(page.ImagePath)
		if err != nil {
			slog.Warn("page unreadable, dropped", "file", page.SourceFile, "error", err)
			continue
		}
		label, err := p.deps.Classifier.Classify(ctx, img)
		if err != nil {
			slog.Warn("classification failed, page dropped", "file", page.SourceFile, "error", err)
			continue
		}
		page.Label = label
		kept = append(kept, page)
		slog.Debug("page classified", "file", page.SourceFile, "label", label)
	}
	return kept
}

// processPage runs orientation, region extraction, recognition and field
// extraction for one page. Each optional stage degrades independently.
func (p *Pipeline) processPage(ctx context.Context, page *document.Page) error {
	if p.deps.Corrector != nil {
		if err := p.deps.Corrector.Correct(ctx, page); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.Warn("orientation correction failed", "file", page.SourceFile, "error", err)
		}
	}

	if p.deps.Cropper != nil {
		cropped, err := p.deps.Cropper.Crop(ctx, page.ImagePath)
		switch {
		case err == nil:
			page.CroppedPath = cropped
		case ctx.Err() != nil:
			return ctx.Err()
		case errors.Is(err, detect.ErrNoDetection):
			return err
		default:
			slog.Warn("region extraction failed, using full page", "file", page.SourceFile, "error", err)
		}
	}

	img, _, err := utils.LoadImage(page.OCRPath())
	if err != nil {
		return fmt.Errorf("load page: %w", err)
	}
	result, err := p.deps.Recognizer.Recognize(ctx, img, page.Label)
	if err != nil {
		return fmt.Errorf("recognize: %w", err)
	}
	page.Text = result.Text
	page.Confidence = result.Confidence
	page.Engine = result.Engine

	kind, extracted := fields.ExtractForLabel(page.Text)
	page.Kind = string(kind)
	page.Fields = document.FieldSet{}
	if result.Fields != nil {
		page.Fields.Merge(result.Fields)
	}
	page.Fields.Merge(extracted)

	slog.Info("page processed", "file", page.SourceFile, "label", page.Label,
		"engine", page.Engine, "chars", len(page.Text))
	return nil
}

// structurePages asks the structurer for a consolidated record from every
// page's text. With no structurer, or on failure, structuring is skipped and
// pattern-extracted fields stand alone.
func (p *Pipeline) structurePages(ctx context.Context, bundle *document.Bundle, pages []*document.Page) (document.FieldSet, string) {
	if p.deps.Structurer == nil {
		return nil, ""
	}

	in := structure.Input{
		Texts:      map[document.Label]string{},
		PageFields: map[document.Label]document.FieldSet{},
		SalaryData: bundle.SalaryData,
		EmailText:  bundle.EmailText,
	}
	for _, page := range pages {
		if strings.TrimSpace(page.Text) == "" {
			continue
		}
		in.Texts[page.Label] = page.Text
		in.PageFields[page.Label] = page.Fields
	}
	if len(in.Texts) == 0 {
		return nil, ""
	}

	structured, transcript, err := p.deps.Structurer.Structure(ctx, in)
	if err != nil {
		slog.Warn("structuring failed", "bundle", bundle.Name, "error", err)
		return nil, ""
	}
	return structured, transcript
}
