package config

import (
	"errors"
	"fmt"
)

// Config is the complete configuration for the document intake pipeline.
// It is constructed once at startup and passed by reference into each
// component; nothing reads configuration ambiently.
type Config struct {
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	Paths      PathsConfig      `mapstructure:"paths" yaml:"paths" json:"paths"`
	Mail       MailConfig       `mapstructure:"mail" yaml:"mail" json:"mail"`
	Models     ModelsConfig     `mapstructure:"models" yaml:"models" json:"models"`
	Google     GoogleConfig     `mapstructure:"google" yaml:"google" json:"google"`
	Recognize  RecognizeConfig  `mapstructure:"recognize" yaml:"recognize" json:"recognize"`
	Output     OutputConfig     `mapstructure:"output" yaml:"output" json:"output"`
	Structurer StructurerConfig `mapstructure:"structurer" yaml:"structurer" json:"structurer"`
}

// PathsConfig holds the working directory layout.
type PathsConfig struct {
	InputDir  string `mapstructure:"input_dir" yaml:"input_dir" json:"input_dir"`
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir" json:"output_dir"`
	TempDir   string `mapstructure:"temp_dir" yaml:"temp_dir" json:"temp_dir"`
	LogFile   string `mapstructure:"log_file" yaml:"log_file" json:"log_file"`
	// ServiceCatalog points at the bundled service list used for request routing.
	ServiceCatalog string `mapstructure:"service_catalog" yaml:"service_catalog" json:"service_catalog"`
}

// MailConfig holds IMAP mail source settings.
type MailConfig struct {
	Server   string `mapstructure:"server" yaml:"server" json:"server"`
	Address  string `mapstructure:"address" yaml:"address" json:"address"`
	Password string `mapstructure:"password" yaml:"password" json:"password"`
	// UnseenOnly restricts fetching to unread messages.
	UnseenOnly bool `mapstructure:"unseen_only" yaml:"unseen_only" json:"unseen_only"`
	// CleanupAfterDays removes downloaded bundles older than this; 0 disables.
	CleanupAfterDays int `mapstructure:"cleanup_after_days" yaml:"cleanup_after_days" json:"cleanup_after_days"`
}

// ModelsConfig holds local ONNX model paths.
type ModelsConfig struct {
	ClassifierPath string `mapstructure:"classifier_path" yaml:"classifier_path" json:"classifier_path"`
	DetectorPath   string `mapstructure:"detector_path" yaml:"detector_path" json:"detector_path"`
	NumThreads     int    `mapstructure:"num_threads" yaml:"num_threads" json:"num_threads"`
}

// GoogleConfig holds Google Cloud service identities.
type GoogleConfig struct {
	ProjectID       string `mapstructure:"project_id" yaml:"project_id" json:"project_id"`
	Region          string `mapstructure:"region" yaml:"region" json:"region"`
	ProcessorID     string `mapstructure:"processor_id" yaml:"processor_id" json:"processor_id"`
	CredentialsFile string `mapstructure:"credentials_file" yaml:"credentials_file" json:"credentials_file"`
}

// RecognizeConfig holds OCR engine selection thresholds.
type RecognizeConfig struct {
	// LowConfidence is the primary-engine confidence below which the
	// selector falls back to the general engine.
	LowConfidence float64 `mapstructure:"low_confidence" yaml:"low_confidence" json:"low_confidence"`
	// ShortTextChars triggers the general engine's enhanced second pass when
	// the first pass yields fewer characters.
	ShortTextChars int `mapstructure:"short_text_chars" yaml:"short_text_chars" json:"short_text_chars"`
	// TesseractLanguages is the language set handed to the general engine.
	TesseractLanguages string `mapstructure:"tesseract_languages" yaml:"tesseract_languages" json:"tesseract_languages"`
}

// OutputConfig holds artifact persistence settings.
type OutputConfig struct {
	// MaxImageKB bounds the size of every persisted page image.
	MaxImageKB int `mapstructure:"max_image_kb" yaml:"max_image_kb" json:"max_image_kb"`
	// KeepTranscripts writes the raw structuring response next to each bundle record.
	KeepTranscripts bool `mapstructure:"keep_transcripts" yaml:"keep_transcripts" json:"keep_transcripts"`
}

// StructurerConfig holds narrative-structuring model settings.
type StructurerConfig struct {
	Model       string  `mapstructure:"model" yaml:"model" json:"model"`
	Temperature float64 `mapstructure:"temperature" yaml:"temperature" json:"temperature"`
}

// DocumentAIConfigured reports whether the primary structured-recognition
// service has a complete identity.
func (c *Config) DocumentAIConfigured() bool {
	return c.Google.ProjectID != "" && c.Google.ProcessorID != ""
}

// Validate checks invariants that would otherwise surface as confusing
// mid-pipeline failures.
func (c *Config) Validate() error {
	if c.Paths.InputDir == "" {
		return errors.New("paths.input_dir must not be empty")
	}
	if c.Paths.OutputDir == "" {
		return errors.New("paths.output_dir must not be empty")
	}
	if c.Paths.TempDir == "" {
		return errors.New("paths.temp_dir must not be empty")
	}
	if c.Recognize.LowConfidence < 0 || c.Recognize.LowConfidence > 1 {
		return fmt.Errorf("recognize.low_confidence must be in [0,1], got %v", c.Recognize.LowConfidence)
	}
	if c.Recognize.ShortTextChars < 0 {
		return fmt.Errorf("recognize.short_text_chars must be >= 0, got %d", c.Recognize.ShortTextChars)
	}
	if c.Output.MaxImageKB <= 0 {
		return fmt.Errorf("output.max_image_kb must be > 0, got %d", c.Output.MaxImageKB)
	}
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error; got %q", c.LogLevel)
	}
	return nil
}
