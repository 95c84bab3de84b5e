package fields

import (
	"regexp"
	"strings"

	"github.com/intakehq/docintake/internal/document"
)

// Field keys produced by extraction. Keys are the human-readable names used
// in the consolidated record and the summary artifact.
const (
	KeyAttestation1 = "Attestation Number 1"
	KeyAttestation2 = "Attestation Number 2"
)

// fieldSpec is one field with its ordered candidate patterns. The first
// matching pattern wins; clean post-processes the captured group and may
// reject it by returning "".
type fieldSpec struct {
	key      string
	patterns []*regexp.Regexp
	clean    func(string) string
}

// identitySpecs cover passport and residence-visa pages.
var identitySpecs = []fieldSpec{
	{
		key: "UID Number",
		patterns: compile(
			`(?i)U\.I\.D\s*No[.:\s]*(\d+)`,
			`(?i)U\.I\.D\s*Number[.:\s]*(\d+)`,
			`(?i)unified\s*identity\s*number[.:\s]*(\d+)`,
			`الرقم الموحد[:\s]*(\d+)`,
		),
	},
	{
		key: "Identity Number",
		patterns: compile(
			`(?i)identity\s*no[.:\s]*(\d+)`,
			`(?i)identity\s*number[.:\s]*(\d+)`,
			`رقم الهوية[:\s]*(\d+)`,
		),
	},
	{
		key: "Residence Number",
		patterns: compile(
			`(?i)residence\s*no[.:\s]*([0-9/]+)`,
			`(?i)residence\s*number[.:\s]*([0-9/]+)`,
			`رقم الإقامة[:\s]*([0-9/]+)`,
		),
	},
	{
		key: "EID Number",
		patterns: compile(
			`(?i)emirates\s*id[.:\s]*(\d+)`,
			`(?i)emirates\s*id\s*number[.:\s]*(\d+)`,
			`(\d{3}-\d{4}-\d{7}-\d)`,
			`(\d{15})`,
		),
		clean: stripSeparators,
	},
	{
		key: "Passport Number",
		patterns: compile(
			`(?i)passport\s*no[.:\s]*([A-Z0-9]+)`,
			`(?i)passport\s*number[.:\s]*([A-Z0-9]+)`,
			`رقم الجواز[:\s]*([A-Z0-9]+)`,
			`\b([A-Z]\d{7})\b`,
			`\b(\d{8})\b`,
		),
	},
	{
		key: document.FullNameKey,
		patterns: compile(
			`(?i)full\s*name[:\s]*([A-Z ]+)`,
			`الاسم الكامل[:\s]*([^\n]+)`,
			`(?i)name[:\s]*([A-Z ]+)`,
		),
		clean: cleanName,
	},
	{
		key: "Job Title",
		patterns: compile(
			`(?i)profession[:\s]*([^\n]+)`,
			`المهنة[:\s]*([^\n]+)`,
			`(?i)job\s*title[:\s]*([^\n]+)`,
		),
		clean: cleanLabelValue,
	},
	{
		key: "Employer",
		patterns: compile(
			`(?i)employer[:\s]*([^\n]+)`,
			`صاحب العمل[:\s]*([^\n]+)`,
		),
		clean: minLen(3),
	},
	{
		key: "Passport Issue Place",
		patterns: compile(
			`(?i)place\s*of\s*issue[:\s]*([^\n]+)`,
			`جهة الإصدار[:\s]*([^\n]+)`,
		),
		clean: minLen(3),
	},
}

// certificateSpecs cover degree certificates and attestation stamps; the
// attestation numbers themselves have dedicated extraction below.
var certificateSpecs = []fieldSpec{
	{
		key: "Degree/Qualification",
		patterns: compile(
			`(?i)bachelor[:\s]*([A-Za-z ]+)`,
			`(?i)master[:\s]*([A-Za-z ]+)`,
			`(?i)phd[:\s]*([A-Za-z ]+)`,
			`(?i)diploma[:\s]*([A-Za-z ]+)`,
			`(?i)degree[:\s]*([A-Za-z ]+)`,
		),
	},
	{
		key: "Institution",
		patterns: compile(
			`(?i)university[:\s]*([A-Za-z ]+)`,
			`(?i)institute[:\s]*([A-Za-z ]+)`,
			`(?i)college[:\s]*([A-Za-z ]+)`,
			`(?i)school[:\s]*([A-Za-z ]+)`,
		),
	},
	{
		key: "Issuing Authority",
		patterns: compile(
			`(?i)ministry[:\s]*([A-Za-z ]+)`,
			`(?i)authority[:\s]*([A-Za-z ]+)`,
			`(?i)department[:\s]*([A-Za-z ]+)`,
			`(?i)government[:\s]*([A-Za-z ]+)`,
		),
	},
	{
		key: "Issue Date",
		patterns: compile(
			`(?i)issue[:\s]*(\d{2}[/-]\d{2}[/-]\d{4})`,
			`(?i)date[:\s]*(\d{2}[/-]\d{2}[/-]\d{4})`,
		),
	},
	{
		key: "Expiry Date",
		patterns: compile(
			`(?i)expiry[:\s]*(\d{2}[/-]\d{2}[/-]\d{4})`,
			`(?i)valid[:\s]*(\d{2}[/-]\d{2}[/-]\d{4})`,
		),
	},
	{
		key: "Grade/Score",
		patterns: compile(
			`(?i)gpa[:\s]*([0-9.]+)`,
			`(?i)cgpa[:\s]*([0-9.]+)`,
			`(?i)grade[:\s]*([A-Za-z0-9 ]+)`,
			`(?i)score[:\s]*([A-Za-z0-9 ]+)`,
		),
	},
}

// nationalIDSpecs cover Emirates ID cards.
var nationalIDSpecs = []fieldSpec{
	{
		key: "Emirates ID Number",
		patterns: compile(
			`(?i)emirates\s*id[:\s]*([0-9]{3}[-\s]*[0-9]{4}[-\s]*[0-9]{7}[-\s]*[0-9])`,
			`(?i)id\s*number[:\s]*([0-9]{3}[-\s]*[0-9]{4}[-\s]*[0-9]{7}[-\s]*[0-9])`,
			`(784[-\s]*[0-9]{4}[-\s]*[0-9]{7}[-\s]*[0-9])`,
		),
		clean: emiratesID,
	},
	{
		key: document.FullNameKey,
		patterns: compile(
			`(?i)full\s*name[:\s]*([A-Za-z ]+)`,
			`(?i)name[:\s]*([A-Za-z ]+)`,
		),
		clean: cleanName,
	},
	{
		key: "Nationality",
		patterns: compile(
			`(?i)nationality[:\s]*([A-Za-z ]+)`,
			`الجنسية[:\s]*([A-Za-z ]+)`,
		),
	},
	{
		key: "Date of Birth",
		patterns: compile(
			`(?i)birth[:\s]*(\d{2}[/-]\d{2}[/-]\d{4})`,
			`تاريخ\s*الميلاد[:\s]*(\d{2}[/-]\d{2}[/-]\d{4})`,
		),
	},
}

// Extract runs the extractor for kind over rawText. KindUnknown runs every
// extractor in declared order and merges the results, later extractor winning
// on key collision. Fields with no trustworthy candidate are simply absent
// from the returned set.
func Extract(rawText string, kind DocumentKind) document.FieldSet {
	switch kind {
	case KindPassport:
		return applySpecs(rawText, identitySpecs)
	case KindNationalID:
		return applySpecs(rawText, nationalIDSpecs)
	case KindAttestationCertificate, KindCertificate:
		fields := applySpecs(rawText, certificateSpecs)
		fields.Merge(extractAttestationNumbers(rawText))
		return fields
	default:
		fields := applySpecs(rawText, identitySpecs)
		fields.Merge(applySpecs(rawText, certificateSpecs))
		fields.Merge(extractAttestationNumbers(rawText))
		fields.Merge(applySpecs(rawText, nationalIDSpecs))
		return fields
	}
}

// ExtractForLabel derives the kind from the recognized text, then extracts.
func ExtractForLabel(rawText string) (DocumentKind, document.FieldSet) {
	kind := DetectKind(rawText)
	return kind, Extract(rawText, kind)
}

func applySpecs(text string, specs []fieldSpec) document.FieldSet {
	fields := document.FieldSet{}
	for _, spec := range specs {
		for _, re := range spec.patterns {
			m := re.FindStringSubmatch(text)
			if m == nil {
				continue
			}
			value := strings.TrimSpace(m[1])
			if spec.clean != nil {
				value = spec.clean(value)
			}
			if value != "" {
				fields.Set(spec.key, value)
				break
			}
		}
	}
	return fields
}

func compile(exprs ...string) []*regexp.Regexp {
	res := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		res[i] = regexp.MustCompile(e)
	}
	return res
}

// labelNoise lists neighbour field labels that greedy captures swallow on
// structured cards.
var labelNoise = regexp.MustCompile(`(?i)\b(profession|employer|cancel date|date of birth|full name|name)\b`)

var (
	spaceRun      = regexp.MustCompile(`\s+`)
	jobLabelNoise = regexp.MustCompile(`(?i)\b(employer|cancel date|date of birth|full name|name)\b`)
)

// cleanName strips swallowed neighbour labels and rejects implausibly short
// remainders.
func cleanName(v string) string {
	v = labelNoise.ReplaceAllString(v, "")
	v = strings.TrimSpace(spaceRun.ReplaceAllString(v, " "))
	if len(v) <= 3 {
		return ""
	}
	lower := strings.ToLower(v)
	for _, prefix := range []string{"profession", "employer", "cancel", "date"} {
		if strings.HasPrefix(lower, prefix) {
			return ""
		}
	}
	return v
}

func cleanLabelValue(v string) string {
	v = jobLabelNoise.ReplaceAllString(v, "")
	v = strings.TrimSpace(spaceRun.ReplaceAllString(v, " "))
	if len(v) <= 2 {
		return ""
	}
	lower := strings.ToLower(v)
	for _, prefix := range []string{"employer", "cancel", "date"} {
		if strings.HasPrefix(lower, prefix) {
			return ""
		}
	}
	return v
}

func minLen(n int) func(string) string {
	return func(v string) string {
		if len(strings.TrimSpace(v)) < n {
			return ""
		}
		return strings.TrimSpace(v)
	}
}

var separators = regexp.MustCompile(`[-\s]`)

func stripSeparators(v string) string {
	return separators.ReplaceAllString(v, "")
}

// emiratesID normalizes a candidate and requires the national prefix.
func emiratesID(v string) string {
	clean := stripSeparators(v)
	if !strings.HasPrefix(clean, "784") {
		return ""
	}
	return clean
}
