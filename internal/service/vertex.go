package service

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
)

// VertexMatcher asks a Gemini model to pick the single best catalog entry
// for an email.
type VertexMatcher struct {
	model   *genai.GenerativeModel
	client  *genai.Client
	catalog Catalog
}

// NewVertexMatcher connects to Vertex AI for service matching.
func NewVertexMatcher(ctx context.Context, projectID, region, modelName string, catalog Catalog) (*VertexMatcher, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("vertex matcher: project id and region required")
	}
	client, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("vertex matcher: %w", err)
	}
	model := client.GenerativeModel(modelName)
	model.GenerationConfig = genai.GenerationConfig{
		Temperature: genai.Ptr[float32](0.0),
	}
	return &VertexMatcher{model: model, client: client, catalog: catalog}, nil
}

// Match implements Matcher. The reply must be a catalog entry; anything else
// is treated as no match so the caller falls back to keyword scoring.
func (m *VertexMatcher) Match(ctx context.Context, emailText string) (string, error) {
	prompt := fmt.Sprintf(
		"You route customer emails to the correct government service.\n"+
			"Available services:\n%s\n"+
			"Reply with the single best matching service name from the list, and nothing else.\n"+
			"Email:\n```\n%s\n```",
		strings.Join(m.catalog.Services, "\n"), emailText)

	resp, err := m.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("vertex matcher: %w", err)
	}

	reply := strings.TrimSpace(responseText(resp))
	for _, svc := range m.catalog.Services {
		if strings.EqualFold(reply, svc) {
			return svc, nil
		}
	}
	return "", fmt.Errorf("vertex matcher: reply %q not in catalog", reply)
}

// Close releases the underlying client.
func (m *VertexMatcher) Close() error {
	if m.client != nil {
		return m.client.Close()
	}
	return nil
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
