package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intakehq/docintake/internal/testutil"
)

func TestLoadCatalogDefault(t *testing.T) {
	c, err := LoadCatalog("")
	require.NoError(t, err)
	assert.Contains(t, c.Services, "Employment Visa Renewal")
}

func TestLoadCatalogFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	testutil.WriteFile(t, path, "services:\n  - Visa Renewal\n  - Work Permit\n")

	c, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Visa Renewal", "Work Permit"}, c.Services)
}

func TestLoadCatalogEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	testutil.WriteFile(t, path, "services: []\n")

	_, err := LoadCatalog(path)
	assert.Error(t, err)
}

func TestKeywordMatcher(t *testing.T) {
	catalog := Catalog{Services: []string{
		"Employment Visa Renewal",
		"Work Permit Cancellation",
		"Salary Complaint",
	}}
	m := NewKeywordMatcher(catalog)

	tests := []struct {
		name string
		text string
		want string
	}{
		{"full phrase", "please process the employment visa renewal for our engineer", "Employment Visa Renewal"},
		{"partial overlap", "we want to cancel the work permit", "Work Permit Cancellation"},
		{"no overlap", "completely unrelated text", UnknownService},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.Match(context.Background(), tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

type failingMatcher struct{}

func (failingMatcher) Match(context.Context, string) (string, error) {
	return "", errors.New("model offline")
}

func TestDetectorFallsBackToKeywords(t *testing.T) {
	catalog := Catalog{Services: []string{"Salary Complaint"}}
	d := NewDetector(failingMatcher{}, catalog)

	got := d.Detect(context.Background(), "filing a salary complaint")
	assert.Equal(t, "Salary Complaint", got)
}

func TestDetectorWithoutPrimary(t *testing.T) {
	catalog := Catalog{Services: []string{"Salary Complaint"}}
	d := NewDetector(nil, catalog)

	assert.Equal(t, UnknownService, d.Detect(context.Background(), "nothing relevant"))
}
