// Package consolidate merges per-page results into one person-level record
// and writes the bundle's output artifacts.
package consolidate

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/intakehq/docintake/internal/document"
	"github.com/intakehq/docintake/internal/fields"
	"github.com/intakehq/docintake/internal/utils"
)

// Options controls artifact writing.
type Options struct {
	// OutputDir is the root output directory; each bundle gets a
	// subdirectory named after it.
	OutputDir string
	// LogFile receives one entry per processed page.
	LogFile string
	// MaxImageKB bounds each output JPEG's size.
	MaxImageKB int
	// KeepTranscripts writes the raw structuring transcript per page.
	KeepTranscripts bool
}

// Consolidator builds PersonRecords and persists artifacts. Write failures
// here are the pipeline's only fatal error class: a half-written bundle is
// worse than a stopped one.
type Consolidator struct {
	opts Options
}

// New returns a Consolidator.
func New(opts Options) *Consolidator {
	return &Consolidator{opts: opts}
}

// MergeRecord folds per-page field sets into one record keyed by role. A
// later page with the same role replaces the earlier page's field group
// wholly, so stale values from a superseded page never leak through. Roles
// merge in first-appearance order; the structured set, when present, is
// applied last and wins over pattern extraction.
func MergeRecord(pages []*document.Page, structured document.FieldSet) *document.PersonRecord {
	byRole := map[document.Label]document.FieldSet{}
	var order []document.Label
	for _, p := range pages {
		if p.Fields == nil {
			continue
		}
		if _, seen := byRole[p.Label]; !seen {
			order = append(order, p.Label)
		}
		byRole[p.Label] = p.Fields
	}

	merged := document.FieldSet{}
	for _, role := range order {
		merged.Merge(byRole[role])
	}
	if structured != nil {
		merged.Merge(structured)
	}

	fullName, _ := merged.Get(document.FullNameKey)
	return &document.PersonRecord{
		Fields:      merged,
		DisplayName: document.DisplayNameFor(fullName),
	}
}

// Write validates the record, writes the summary file, one image+record pair
// per page, and the process log entries. Any I/O failure aborts the bundle.
func (c *Consolidator) Write(bundle *document.Bundle, pages []*document.Page, record *document.PersonRecord) error {
	// Attestation numbers are re-validated against the union of all
	// recognized text, since the structured record may have synthesized
	// them from any page.
	fields.ValidateAttestationNumbers(allText(pages), record.Fields)

	outDir := filepath.Join(c.opts.OutputDir, bundle.Name)
	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return fmt.Errorf("consolidate %s: %w", bundle.Name, err)
	}

	if err := c.writeSummary(outDir, bundle, record); err != nil {
		return fmt.Errorf("consolidate %s: %w", bundle.Name, err)
	}

	for _, p := range pages {
		if err := c.writePage(outDir, record, p); err != nil {
			return fmt.Errorf("consolidate %s: %w", bundle.Name, err)
		}
	}
	slog.Info("bundle consolidated", "bundle", bundle.Name, "person", record.DisplayName, "pages", len(pages))
	return nil
}

// writeSummary emits {display}_COMPLETE_DETAILS.txt with the service header
// and every field, sorted for stable output.
func (c *Consolidator) writeSummary(outDir string, bundle *document.Bundle, record *document.PersonRecord) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "SERVICE NEEDED: %s\n", bundle.ServiceNeeded)
	if bundle.SenderName != "" {
		fmt.Fprintf(&sb, "Sender Name: %s\n", bundle.SenderName)
	}
	if bundle.SenderEmail != "" {
		fmt.Fprintf(&sb, "Email Address: %s\n", bundle.SenderEmail)
	}
	sb.WriteString("\n")

	keys := make([]string, 0, len(record.Fields))
	for k := range record.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if v := record.Fields[k]; v != nil {
			fmt.Fprintf(&sb, "%s: %s\n", k, *v)
		} else {
			fmt.Fprintf(&sb, "%s: null\n", k)
		}
	}

	path := filepath.Join(outDir, record.DisplayName+"_COMPLETE_DETAILS.txt")
	if err := os.WriteFile(path, []byte(sb.String()), 0o600); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	slog.Debug("wrote summary", "path", path)
	return nil
}

// writePage persists {display}_{role}.jpg under the size budget, the
// per-page JSON record, the optional raw transcript, and the log entry.
func (c *Consolidator) writePage(outDir string, record *document.PersonRecord, page *document.Page) error {
	base := fmt.Sprintf("%s_%s", record.DisplayName, page.Label)

	img, _, err := utils.LoadImage(page.OCRPath())
	if err != nil {
		return fmt.Errorf("load page image: %w", err)
	}
	jpgPath := filepath.Join(outDir, base+".jpg")
	if err := utils.CompressJPEG(img, jpgPath, c.opts.MaxImageKB); err != nil {
		return fmt.Errorf("write page image: %w", err)
	}

	data, err := json.MarshalIndent(record.Fields, "", "  ")
	if err != nil {
		return fmt.Errorf("encode page record: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outDir, base+".json"), data, 0o600); err != nil {
		return fmt.Errorf("write page record: %w", err)
	}

	if c.opts.KeepTranscripts && record.Transcript != "" {
		if err := os.WriteFile(filepath.Join(outDir, base+"_raw.txt"), []byte(record.Transcript), 0o600); err != nil {
			return fmt.Errorf("write transcript: %w", err)
		}
	}

	return c.logPage(page, jpgPath)
}

// logPage appends one process-log record for the page.
func (c *Consolidator) logPage(page *document.Page, savedPath string) error {
	if c.opts.LogFile == "" {
		return nil
	}
	f, err := os.OpenFile(c.opts.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open process log: %w", err)
	}
	defer func() { _ = f.Close() }()

	entry := fmt.Sprintf("Processed File: %s\nSaved JPG:     %s\nDocument Type: %s\n%s\n",
		page.SourceFile, savedPath, page.Label, strings.Repeat("-", 40))
	if _, err := f.WriteString(entry); err != nil {
		return fmt.Errorf("append process log: %w", err)
	}
	return nil
}

func allText(pages []*document.Page) string {
	var sb strings.Builder
	for _, p := range pages {
		sb.WriteString(p.Text)
		sb.WriteString("\n")
	}
	return sb.String()
}
