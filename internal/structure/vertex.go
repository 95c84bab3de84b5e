package structure

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"cloud.google.com/go/vertexai/genai"

	"github.com/intakehq/docintake/internal/document"
)

const systemPrompt = `You are a document data consolidator for employment and
identity paperwork. You receive OCR text from several scanned documents
belonging to one person, plus supporting data. Produce a single flat JSON
object mapping field names to string values. Use null for fields you cannot
determine. Never invent values.`

// promptFields are the record fields the model is asked to fill.
var promptFields = []string{
	"Full Name",
	"Passport Number",
	"Nationality",
	"Date of Birth",
	"Sex",
	"Place of Birth",
	"Date of Issue",
	"Date of Expiry",
	"Place of Issue",
	"Emirates ID Number",
	"UID Number",
	"Job Title",
	"Employer",
	"Monthly Salary",
	"Degree/Qualification",
	"Institution",
	"Attestation Number 1",
	"Attestation Number 2",
}

// VertexStructurer implements Structurer on a Gemini model via Vertex AI.
type VertexStructurer struct {
	model  *genai.GenerativeModel
	client *genai.Client
}

// NewVertexStructurer connects to Vertex AI and configures the model for
// JSON output.
func NewVertexStructurer(ctx context.Context, projectID, region, modelName string, temperature float32) (*VertexStructurer, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("vertex structurer: project id and region required")
	}
	client, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("vertex structurer: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemPrompt)},
	}
	model.GenerationConfig = genai.GenerationConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr(temperature),
	}
	return &VertexStructurer{model: model, client: client}, nil
}

// Structure submits the assembled prompt and parses the JSON reply. A
// malformed payload is recoverable: the raw transcript comes back with an
// empty field set and no error, so consolidation still writes the transcript
// artifact.
func (s *VertexStructurer) Structure(ctx context.Context, in Input) (document.FieldSet, string, error) {
	resp, err := s.model.GenerateContent(ctx, genai.Text(BuildPrompt(in)))
	if err != nil {
		return nil, "", fmt.Errorf("vertex structurer: %w", err)
	}

	raw := responseText(resp)
	fields, err := ParseRecord(raw)
	if err != nil {
		slog.Warn("structuring reply unparseable, keeping transcript only", "error", err)
		return document.FieldSet{}, raw, nil
	}
	return fields, raw, nil
}

// Close releases the underlying client.
func (s *VertexStructurer) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// BuildPrompt assembles the user prompt from per-role texts and supporting
// data. Roles are emitted in sorted order so the prompt is deterministic.
func BuildPrompt(in Input) string {
	var sb strings.Builder
	sb.WriteString("Extract the following fields as a JSON object:\n")
	for _, f := range promptFields {
		sb.WriteString("- ")
		sb.WriteString(f)
		sb.WriteString("\n")
	}

	roles := make([]string, 0, len(in.Texts))
	for role := range in.Texts {
		roles = append(roles, string(role))
	}
	sort.Strings(roles)
	for _, role := range roles {
		text := in.Texts[document.Label(role)]
		if strings.TrimSpace(text) == "" {
			continue
		}
		fmt.Fprintf(&sb, "\n=== OCR TEXT (%s) ===\n%s\n", role, text)
		if hints := in.PageFields[document.Label(role)]; len(hints) > 0 {
			fmt.Fprintf(&sb, "--- pattern-extracted hints for %s ---\n", role)
			writeFieldHints(&sb, hints)
		}
	}

	if len(in.SalaryData) > 0 {
		sb.WriteString("\n=== SALARY DOCUMENT DATA ===\n")
		keys := make([]string, 0, len(in.SalaryData))
		for k := range in.SalaryData {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&sb, "%s: %s\n", k, in.SalaryData[k])
		}
	}

	if strings.TrimSpace(in.EmailText) != "" {
		fmt.Fprintf(&sb, "\n=== ORIGINAL EMAIL ===\n%s\n", in.EmailText)
	}
	return sb.String()
}

func writeFieldHints(sb *strings.Builder, fields document.FieldSet) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if v := fields[k]; v != nil {
			fmt.Fprintf(sb, "%s: %s\n", k, *v)
		}
	}
}

// ParseRecord decodes a model reply into a field set. Markdown fences are
// stripped first; JSON null and the literal "null" both map to absent.
func ParseRecord(raw string) (document.FieldSet, error) {
	cleaned := stripFences(raw)
	if cleaned == "" {
		return nil, fmt.Errorf("empty structuring reply")
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, fmt.Errorf("decode structuring reply: %w", err)
	}

	fields := document.FieldSet{}
	for k, v := range payload {
		switch val := v.(type) {
		case nil:
			fields[k] = nil
		case string:
			fields.Set(k, val)
		case float64:
			fields.Set(k, strconv.FormatFloat(val, 'f', -1, 64))
		default:
			// Nested structures are flattened away; the prompt asks for
			// a flat object, so anything else is model noise.
			slog.Debug("ignoring non-scalar structuring value", "key", k)
		}
	}
	return fields, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String()
}
