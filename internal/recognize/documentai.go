package recognize

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"strings"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/disintegration/imaging"
	"google.golang.org/api/option"

	"github.com/intakehq/docintake/internal/document"
)

// StructuredEngine recognizes text and form fields through a Document AI
// processor. It is the preferred engine when configured.
type StructuredEngine struct {
	client        *documentai.DocumentProcessorClient
	processorName string
}

// StructuredConfig identifies the Document AI processor to call.
type StructuredConfig struct {
	ProjectID       string
	Region          string
	ProcessorID     string
	CredentialsFile string
}

// Configured reports whether the config names a usable processor.
func (c StructuredConfig) Configured() bool {
	return c.ProjectID != "" && c.Region != "" && c.ProcessorID != ""
}

// NewStructuredEngine connects to Document AI. It returns ErrUnconfigured
// when the processor is not fully specified, so callers can run without the
// cloud engine.
func NewStructuredEngine(ctx context.Context, cfg StructuredConfig) (*StructuredEngine, error) {
	if !cfg.Configured() {
		return nil, ErrUnconfigured
	}

	opts := []option.ClientOption{
		option.WithEndpoint(fmt.Sprintf("%s-documentai.googleapis.com:443", cfg.Region)),
	}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := documentai.NewDocumentProcessorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("documentai client: %w", err)
	}

	return &StructuredEngine{
		client: client,
		processorName: fmt.Sprintf("projects/%s/locations/%s/processors/%s",
			cfg.ProjectID, cfg.Region, cfg.ProcessorID),
	}, nil
}

// Recognize sends the image to the processor and returns its text, the mean
// token confidence, and any detected form fields.
func (e *StructuredEngine) Recognize(ctx context.Context, img image.Image) (Result, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(95)); err != nil {
		return Result{}, fmt.Errorf("documentai: encode image: %w", err)
	}

	resp, err := e.client.ProcessDocument(ctx, &documentaipb.ProcessRequest{
		Name: e.processorName,
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  buf.Bytes(),
				MimeType: "image/jpeg",
			},
		},
	})
	if err != nil {
		return Result{}, fmt.Errorf("documentai: process: %w", err)
	}

	doc := resp.GetDocument()
	return Result{
		Text:       doc.GetText(),
		Confidence: meanConfidence(doc),
		Engine:     EngineDocumentAI,
		Fields:     formFields(doc),
	}, nil
}

// Close releases the underlying client.
func (e *StructuredEngine) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}

// meanConfidence averages token layout confidence across all pages. Pages
// without tokens score zero so a blank response cannot pass the confidence
// gate.
func meanConfidence(doc *documentaipb.Document) float64 {
	var sum float64
	var n int
	for _, page := range doc.GetPages() {
		for _, token := range page.GetTokens() {
			sum += float64(token.GetLayout().GetConfidence())
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// formFields flattens detected form fields into a field set keyed by the
// trimmed field name.
func formFields(doc *documentaipb.Document) document.FieldSet {
	fields := document.FieldSet{}
	for _, page := range doc.GetPages() {
		for _, ff := range page.GetFormFields() {
			name := strings.TrimSpace(anchorText(doc, ff.GetFieldName()))
			value := anchorText(doc, ff.GetFieldValue())
			if name != "" {
				fields.Set(strings.TrimRight(name, ":"), value)
			}
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// anchorText resolves a layout's text anchor against the document text.
func anchorText(doc *documentaipb.Document, layout *documentaipb.Document_Page_Layout) string {
	anchor := layout.GetTextAnchor()
	if anchor == nil {
		return ""
	}
	text := doc.GetText()
	var sb strings.Builder
	for _, seg := range anchor.GetTextSegments() {
		start, end := seg.GetStartIndex(), seg.GetEndIndex()
		if start < 0 || end > int64(len(text)) || start > end {
			continue
		}
		sb.WriteString(text[start:end])
	}
	return sb.String()
}
