package fields

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/intakehq/docintake/internal/document"
	"github.com/intakehq/docintake/internal/numerals"
)

// Attestation stamps carry two numbers: the application number (12 digits,
// often behind an Arabic label or a barcode) and a large prominent number
// (7 digits). Both must be told apart from Emirates ID numbers, which start
// with 784, and from residence identity numbers, which use a slash format.

var (
	applicationNumberPatterns = compile(
		`رقم الطلب[:\s]*([0-9]{12})`,
		`(?i)application\s*number[:\s]*([0-9]{12})`,
		`رقم الطلب\s*([0-9]{12})`,
		`(?i)application\s*no[.:\s]*([0-9]{12})`,
	)
	prominentNumberPattern = regexp.MustCompile(`\b([0-9]{7})\b`)
	barcodeNumberPattern   = regexp.MustCompile(`\b([0-9]{12})\b`)

	emiratesIDSequence = regexp.MustCompile(`784[-\s]*[0-9]{4}[-\s]*[0-9]{7}[-\s]*[0-9]`)
	identitySequence   = regexp.MustCompile(`[0-9]{3}/[0-9]{4}/[0-9]+`)
)

// extractAttestationNumbers pulls both attestation numbers out of raw text.
func extractAttestationNumbers(text string) document.FieldSet {
	fields := document.FieldSet{}
	exclude := excludedSequences(text)

	for _, re := range applicationNumberPatterns {
		if v, ok := firstEligible(re, text, exclude); ok {
			fields.Set(KeyAttestation1, v)
			break
		}
	}
	if v, ok := firstEligible(prominentNumberPattern, text, exclude); ok {
		fields.Set(KeyAttestation2, v)
	}
	// Any bare 12-digit run, typically from the barcode strip, backs up a
	// missing labeled application number.
	if _, ok := fields.Get(KeyAttestation1); !ok {
		if v, ok := firstEligible(barcodeNumberPattern, text, exclude); ok {
			fields.Set(KeyAttestation1, v)
		}
	}
	return fields
}

// excludedSequences collects national-ID digit runs present in the text so
// attestation candidates overlapping them can be skipped.
func excludedSequences(text string) []string {
	var out []string
	for _, m := range emiratesIDSequence.FindAllString(text, -1) {
		out = append(out, stripSeparators(m))
	}
	return out
}

func firstEligible(re *regexp.Regexp, text string, exclude []string) (string, bool) {
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		candidate := m[1]
		if strings.HasPrefix(candidate, "784") || strings.Contains(candidate, "/") {
			continue
		}
		if partOfExcluded(candidate, exclude) {
			continue
		}
		return candidate, true
	}
	return "", false
}

func partOfExcluded(candidate string, exclude []string) bool {
	for _, seq := range exclude {
		if strings.Contains(seq, candidate) {
			return true
		}
	}
	return false
}

// ValidateAttestationNumbers checks the two attestation numbers in fields
// against ocrText and replaces failing values with nil in place.
//
// Number 1 (application number): after stripping leading zeros it must be
// all digits, 5-15 long. A value missing from the normalized OCR text is
// still accepted, because structured extraction regularly reads barcode
// regions local OCR misses.
//
// Number 2 (prominent number): 6-7 digits after cleaning. A value missing
// from the OCR text is kept unless it carries the 784 national-ID prefix,
// in which case it is a misread ID fragment and is rejected.
func ValidateAttestationNumbers(ocrText string, fields document.FieldSet) {
	normalized := numerals.Normalize(ocrText)

	if raw, ok := fields.Get(KeyAttestation1); ok {
		cleaned := cleanAttestationNumber(raw, 5, 15, KeyAttestation1)
		if cleaned == "" {
			fields[KeyAttestation1] = nil
		} else {
			if !strings.Contains(normalized, cleaned) {
				slog.Warn("attestation number absent from recognized text, trusting structured extraction",
					"field", KeyAttestation1, "value", cleaned)
			}
			fields.Set(KeyAttestation1, cleaned)
		}
	}

	if raw, ok := fields.Get(KeyAttestation2); ok {
		cleaned := cleanAttestationNumber(raw, 6, 7, KeyAttestation2)
		switch {
		case cleaned == "":
			fields[KeyAttestation2] = nil
		case strings.Contains(normalized, cleaned):
			fields.Set(KeyAttestation2, cleaned)
		case strings.HasPrefix(cleaned, "784"):
			slog.Warn("rejecting attestation number resembling a national id fragment",
				"field", KeyAttestation2, "value", cleaned)
			fields[KeyAttestation2] = nil
		default:
			slog.Warn("attestation number absent from recognized text, keeping with reduced trust",
				"field", KeyAttestation2, "value", cleaned)
			fields.Set(KeyAttestation2, cleaned)
		}
	}
}

// cleanAttestationNumber strips leading zeros and enforces digits-only and
// length bounds. Returns "" when the value fails validation.
func cleanAttestationNumber(raw string, minLen, maxLen int, field string) string {
	raw = strings.TrimSpace(numerals.Normalize(raw))
	if raw == "" || raw == "null" {
		return ""
	}

	cleaned := strings.TrimLeft(raw, "0")
	if !numerals.AllDigits(cleaned) {
		slog.Warn("attestation number is not numeric", "field", field, "value", raw)
		return ""
	}
	if len(cleaned) < minLen || len(cleaned) > maxLen {
		slog.Warn("attestation number has invalid length",
			"field", field, "value", raw, "cleaned", cleaned, "length", len(cleaned))
		return ""
	}
	if strings.HasPrefix(raw, "0") && len(raw) > maxLen {
		slog.Warn("attestation number carried spurious leading zeros, keeping cleaned value",
			"field", field, "value", raw, "cleaned", cleaned)
	}
	return cleaned
}
