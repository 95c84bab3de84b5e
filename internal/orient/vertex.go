package orient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"github.com/disintegration/imaging"

	"github.com/intakehq/docintake/internal/document"
)

const judgeFormat = `Respond with a single JSON object and nothing else:
{
  "rotation_needed": true or false,
  "rotation_angle": 0, 90, 180 or 270,
  "reason": "one short sentence"
}

rotation_angle is the clockwise rotation that makes the page upright.
Use 0 with rotation_needed false when the page is already upright.`

// judgePromptFor tailors the instruction to the document kind's strongest
// upright cue.
func judgePromptFor(label document.Label) string {
	var cue string
	switch {
	case label.IsPassport():
		cue = `You are inspecting a scanned passport page. When upright, the
machine-readable zone (two lines of monospaced characters with "<"
fillers) sits horizontally at the bottom of the page and the portrait
photo is on the left.`
	case label == document.LabelPersonalPhoto:
		cue = `You are inspecting a personal portrait photograph. When upright,
the face is vertical with the eyes above the mouth.`
	case label == document.LabelCertificate:
		cue = `You are inspecting a scanned certificate. When upright, the
letterhead and title run horizontally across the top and signatures or
stamps sit near the bottom.`
	default:
		cue = `You are inspecting a scanned document photograph. Decide whether
the document text is upright or the page must be rotated clockwise to
make it upright.`
	}
	return cue + "\n\n" + judgeFormat
}

// VertexJudge asks a Gemini model on Vertex AI for a rotation decision.
type VertexJudge struct {
	model  *genai.GenerativeModel
	client *genai.Client
}

// NewVertexJudge connects to Vertex AI in the given project and region.
func NewVertexJudge(ctx context.Context, projectID, region, modelName string) (*VertexJudge, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("vertex judge: project id and region required")
	}
	client, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("vertex judge: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.GenerationConfig = genai.GenerationConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0.0),
	}
	return &VertexJudge{model: model, client: client}, nil
}

// Judge submits the image with a label-specific instruction and parses the
// model's JSON decision. A response that cannot be parsed yields ErrUndecided.
func (j *VertexJudge) Judge(ctx context.Context, img image.Image, label document.Label) (document.RotationDecision, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		return document.RotationDecision{}, fmt.Errorf("vertex judge: encode image: %w", err)
	}

	resp, err := j.model.GenerateContent(ctx,
		genai.Blob{MIMEType: "image/jpeg", Data: buf.Bytes()},
		genai.Text(judgePromptFor(label)),
	)
	if err != nil {
		return document.RotationDecision{}, fmt.Errorf("vertex judge: %w", err)
	}

	return ParseDecision(responseText(resp))
}

// Close releases the underlying client.
func (j *VertexJudge) Close() error {
	if j.client != nil {
		return j.client.Close()
	}
	return nil
}

// ParseDecision extracts a rotation decision from raw model output. Models
// sometimes wrap JSON in markdown fences even in JSON mode, so fences are
// stripped first. Unparseable payloads map to ErrUndecided.
func ParseDecision(raw string) (document.RotationDecision, error) {
	cleaned := StripFences(raw)
	if cleaned == "" {
		return document.RotationDecision{}, fmt.Errorf("empty judgment: %w", ErrUndecided)
	}

	var decision document.RotationDecision
	if err := json.Unmarshal([]byte(cleaned), &decision); err != nil {
		return document.RotationDecision{}, fmt.Errorf("malformed judgment %q: %w", cleaned, ErrUndecided)
	}
	return decision, nil
}

// StripFences removes a surrounding markdown code fence, with or without a
// language tag, and trims whitespace.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

// responseText concatenates text parts from the first candidate.
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
