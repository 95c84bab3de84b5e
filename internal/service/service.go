// Package service identifies which ministry service an email is requesting.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// UnknownService is returned when no catalog entry matches the email.
const UnknownService = "Unknown Service"

// Matcher maps free-form email text to a catalog service name.
type Matcher interface {
	Match(ctx context.Context, emailText string) (string, error)
}

// Catalog is the list of known service names.
type Catalog struct {
	Services []string `yaml:"services"`
}

// LoadCatalog reads a YAML service catalog. An empty path yields the bundled
// default catalog.
func LoadCatalog(path string) (Catalog, error) {
	if path == "" {
		return Catalog{Services: defaultServices}, nil
	}
	data, err := os.ReadFile(path) //nolint:gosec // operator-provided catalog path
	if err != nil {
		return Catalog{}, fmt.Errorf("service catalog %s: %w", path, err)
	}
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Catalog{}, fmt.Errorf("service catalog %s: %w", path, err)
	}
	if len(c.Services) == 0 {
		return Catalog{}, fmt.Errorf("service catalog %s: no services listed", path)
	}
	sort.Strings(c.Services)
	return c, nil
}

var wordRe = regexp.MustCompile(`\w+`)

// KeywordMatcher scores each catalog entry by the fraction of its words
// present in the email and picks the best. It needs no network access and is
// the fallback when no model-backed matcher is configured.
type KeywordMatcher struct {
	catalog Catalog
}

// NewKeywordMatcher returns a matcher over the catalog.
func NewKeywordMatcher(catalog Catalog) *KeywordMatcher {
	return &KeywordMatcher{catalog: catalog}
}

// Match implements Matcher. It never fails; unmatched text maps to
// UnknownService.
func (m *KeywordMatcher) Match(_ context.Context, emailText string) (string, error) {
	textWords := wordSet(emailText)

	best, bestScore := UnknownService, 0.0
	for _, svc := range m.catalog.Services {
		svcWords := wordSet(svc)
		if len(svcWords) == 0 {
			continue
		}
		overlap := 0
		for w := range svcWords {
			if _, ok := textWords[w]; ok {
				overlap++
			}
		}
		score := float64(overlap) / float64(len(svcWords))
		if score > bestScore {
			best, bestScore = svc, score
		}
	}
	return best, nil
}

func wordSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range wordRe.FindAllString(strings.ToLower(s), -1) {
		set[w] = struct{}{}
	}
	return set
}

// Detector combines an optional model-backed matcher with the keyword
// fallback.
type Detector struct {
	primary  Matcher
	fallback *KeywordMatcher
}

// NewDetector builds a Detector. primary may be nil.
func NewDetector(primary Matcher, catalog Catalog) *Detector {
	return &Detector{primary: primary, fallback: NewKeywordMatcher(catalog)}
}

// Detect returns the best-matching service for the email text. A primary
// matcher failure falls back to keyword scoring and is never fatal.
func (d *Detector) Detect(ctx context.Context, emailText string) string {
	if d.primary != nil {
		svc, err := d.primary.Match(ctx, emailText)
		if err == nil && svc != "" {
			return svc
		}
		if err != nil {
			slog.Warn("service matcher failed, using keyword fallback", "error", err)
		}
	}
	svc, _ := d.fallback.Match(ctx, emailText)
	return svc
}
