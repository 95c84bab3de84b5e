package document

import (
	"strings"
	"time"
)

// Bundle is one logical submission: the files delivered by a single email
// plus envelope metadata. Immutable once handed to the pipeline.
type Bundle struct {
	// Name is the sanitized subject line used as the working directory name.
	Name string
	// Dir is the directory holding the raw source files.
	Dir string
	// Files are the raw source file paths in arrival order.
	Files []string
	// SenderEmail and SenderName identify the submitter when known.
	SenderEmail string
	SenderName  string
	// EmailText is the free-text body of the request.
	EmailText string
	// ServiceNeeded is the literal "service needed" line from the body, if any.
	ServiceNeeded string
	// RequestedService is the catalog service matched from the body.
	RequestedService string
	// SalaryData holds key/value pairs parsed from an attached salary sheet.
	SalaryData map[string]string
	// Received is when the mail source delivered the bundle.
	Received time.Time
}

// FieldSet maps semantic field names to extracted values. A nil value means
// extraction found no trustworthy candidate; an empty string is never stored,
// so "absent" and "blank" stay distinguishable.
type FieldSet map[string]*string

// Set stores a value, treating empty and the literal "null" as absent.
func (fs FieldSet) Set(key, value string) {
	value = strings.TrimSpace(value)
	if value == "" || value == "null" {
		fs[key] = nil
		return
	}
	v := value
	fs[key] = &v
}

// Get returns the value for key and whether a non-nil value is present.
func (fs FieldSet) Get(key string) (string, bool) {
	v, ok := fs[key]
	if !ok || v == nil {
		return "", false
	}
	return *v, true
}

// Merge copies all entries of other into fs; later entries win on collision.
func (fs FieldSet) Merge(other FieldSet) {
	for k, v := range other {
		fs[k] = v
	}
}

// Clone returns a shallow copy of the field set.
func (fs FieldSet) Clone() FieldSet {
	out := make(FieldSet, len(fs))
	for k, v := range fs {
		out[k] = v
	}
	return out
}

// Page is one image derived from a bundle. Every pipeline stage mutates it in
// turn; it is discarded after consolidation reads it.
type Page struct {
	// SourceFile is the original file the image was derived from.
	SourceFile string
	// ImagePath is the current working image on disk. Orientation correction
	// replaces this with a newly written file, never an in-place edit.
	ImagePath string
	// Label is the assigned document role. Mutable: reconciliation may
	// reassign it before recognition starts.
	Label Label
	// CroppedPath is the detector-selected region written to scratch, if any.
	CroppedPath string
	// Text is the recognized text for the page.
	Text string
	// Confidence is the recognition engine's scalar in [0,1].
	Confidence float64
	// Engine names the recognition engine that produced Text.
	Engine string
	// Kind is the content-derived document kind reported by recognition.
	Kind string
	// Fields holds the per-page extracted fields.
	Fields FieldSet
}

// OCRPath returns the image recognition should read: the cropped region when
// one exists, otherwise the (possibly rotated) page image.
func (p *Page) OCRPath() string {
	if p.CroppedPath != "" {
		return p.CroppedPath
	}
	return p.ImagePath
}

// RotationDecision is the immutable outcome of an orientation judgment.
type RotationDecision struct {
	Needed bool   `json:"rotation_needed"`
	Angle  int    `json:"rotation_angle"`
	Reason string `json:"reason"`
}

// ValidAngle reports whether the decision's angle is one of the four
// quarter-turn values.
func (d RotationDecision) ValidAngle() bool {
	switch d.Angle {
	case 0, 90, 180, 270:
		return true
	default:
		return false
	}
}

// PersonRecord is the batch-wide consolidated record for one bundle. It owns
// field values and filenames only, never image data.
type PersonRecord struct {
	Fields FieldSet
	// Transcript is the raw narrative-structuring response kept for debugging.
	Transcript string
	// DisplayName is the filename prefix derived from the Full Name field.
	DisplayName string
}

// FullNameKey is the consolidated field the display name derives from.
const FullNameKey = "Full Name"

// DisplayNameFor derives a filename prefix from a full name: its first
// space-delimited token, or "Unknown" when the name is absent.
func DisplayNameFor(fullName string) string {
	parts := strings.Fields(fullName)
	if len(parts) == 0 {
		return "Unknown"
	}
	return parts[0]
}
