package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		LogLevel: "info",
		Paths: PathsConfig{
			InputDir:  "in",
			OutputDir: "out",
			TempDir:   "tmp",
		},
		Recognize: RecognizeConfig{LowConfidence: 0.3, ShortTextChars: 100},
		Output:    OutputConfig{MaxImageKB: 250},
	}
}

func TestValidate(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty input dir", func(c *Config) { c.Paths.InputDir = "" }},
		{"empty output dir", func(c *Config) { c.Paths.OutputDir = "" }},
		{"empty temp dir", func(c *Config) { c.Paths.TempDir = "" }},
		{"confidence above one", func(c *Config) { c.Recognize.LowConfidence = 1.5 }},
		{"negative confidence", func(c *Config) { c.Recognize.LowConfidence = -0.1 }},
		{"negative short text", func(c *Config) { c.Recognize.ShortTextChars = -1 }},
		{"zero image budget", func(c *Config) { c.Output.MaxImageKB = 0 }},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDocumentAIConfigured(t *testing.T) {
	cfg := validConfig()
	assert.False(t, cfg.DocumentAIConfigured())

	cfg.Google.ProjectID = "p"
	assert.False(t, cfg.DocumentAIConfigured())

	cfg.Google.ProcessorID = "proc"
	assert.True(t, cfg.DocumentAIConfigured())
}

func TestLoaderDefaults(t *testing.T) {
	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "data/raw/downloads", cfg.Paths.InputDir)
	assert.Equal(t, 0.3, cfg.Recognize.LowConfidence)
	assert.Equal(t, 100, cfg.Recognize.ShortTextChars)
	assert.Equal(t, "eng+ara", cfg.Recognize.TesseractLanguages)
	assert.Equal(t, 250, cfg.Output.MaxImageKB)
	assert.True(t, cfg.Mail.UnseenOnly)
}

func TestLoaderReadsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "docintake.yaml")
	content := `
log_level: debug
paths:
  input_dir: /srv/in
  output_dir: /srv/out
  temp_dir: /srv/tmp
recognize:
  low_confidence: 0.5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := NewLoader().LoadWithFile(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/srv/in", cfg.Paths.InputDir)
	assert.Equal(t, 0.5, cfg.Recognize.LowConfidence)
	// Untouched keys keep their defaults.
	assert.Equal(t, "eng+ara", cfg.Recognize.TesseractLanguages)
}

func TestLoaderMissingFile(t *testing.T) {
	_, err := NewLoader().LoadWithFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
