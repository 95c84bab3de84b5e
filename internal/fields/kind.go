// Package fields extracts and validates typed fields from recognized text.
package fields

import "strings"

// DocumentKind is the text-level document family driving extractor choice.
// It is independent of the image classifier's label: kind is detected from
// what the text says, not what the page looks like.
type DocumentKind string

const (
	KindPassport               DocumentKind = "passport"
	KindNationalID             DocumentKind = "national_id"
	KindAttestationCertificate DocumentKind = "attestation_certificate"
	KindCertificate            DocumentKind = "certificate"
	KindUnknown                DocumentKind = "unknown"
)

// kindKeywords in detection order, most specific first. Attestation outranks
// plain certificate because attestation pages also contain certificate
// vocabulary.
var kindKeywords = []struct {
	kind     DocumentKind
	keywords []string
}{
	{KindPassport, []string{"passport no", "passport number", "passport"}},
	{KindNationalID, []string{"emirates id", "emirates identity", "uae id"}},
	{KindAttestationCertificate, []string{"attestation", "attested", "ministry", "government"}},
	{KindCertificate, []string{"certificate", "degree", "diploma", "university", "college"}},
}

// DetectKind classifies raw recognized text into a document kind by keyword
// presence. Text matching nothing is KindUnknown, which extraction handles by
// running every extractor.
func DetectKind(text string) DocumentKind {
	lower := strings.ToLower(text)
	for _, entry := range kindKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.kind
			}
		}
	}
	return KindUnknown
}
