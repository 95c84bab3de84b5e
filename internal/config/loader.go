package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the base name for configuration files (without extension).
	ConfigFileName = "docintake"

	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "DOCINTAKE"
)

// Loader handles loading configuration from files, environment variables,
// and defaults.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new configuration loader on the global viper instance
// so that cobra flag bindings participate in precedence.
func NewLoader() *Loader {
	return &Loader{v: viper.GetViper()}
}

// Load loads configuration and validates it.
func (l *Loader) Load() (*Config, error) {
	cfg, err := l.load("")
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadWithFile loads configuration from a specific file path, falling back to
// the search paths when the path is empty.
func (l *Loader) LoadWithFile(configFile string) (*Config, error) {
	if configFile == "" {
		return l.Load()
	}
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configFile)
	}
	cfg, err := l.load(configFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (l *Loader) load(configFile string) (*Config, error) {
	if configFile != "" {
		l.v.SetConfigFile(configFile)
	} else {
		l.v.SetConfigName(ConfigFileName)
		l.v.SetConfigType("yaml")
		l.addConfigPaths()
	}

	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		// Absent config file is fine; defaults and env vars still apply.
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			if configFile == "" {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
			return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

func (l *Loader) addConfigPaths() {
	l.v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(home)
		l.v.AddConfigPath(filepath.Join(home, ".config", "docintake"))
	}
	l.v.AddConfigPath("/etc/docintake")
}

func (l *Loader) setupEnvironmentVariables() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()
}

func (l *Loader) setDefaults() {
	l.v.SetDefault("log_level", "info")
	l.v.SetDefault("verbose", false)

	l.v.SetDefault("paths.input_dir", "data/raw/downloads")
	l.v.SetDefault("paths.output_dir", "data/processed/completed")
	l.v.SetDefault("paths.temp_dir", "data/temp")
	l.v.SetDefault("paths.log_file", "logs/process_log.txt")
	l.v.SetDefault("paths.service_catalog", "data/services.yaml")

	l.v.SetDefault("mail.unseen_only", true)
	l.v.SetDefault("mail.cleanup_after_days", 60)

	l.v.SetDefault("models.classifier_path", "models/classifier.onnx")
	l.v.SetDefault("models.detector_path", "models/detector.onnx")
	l.v.SetDefault("models.num_threads", 0)

	l.v.SetDefault("google.region", "us-central1")

	l.v.SetDefault("recognize.low_confidence", 0.3)
	l.v.SetDefault("recognize.short_text_chars", 100)
	l.v.SetDefault("recognize.tesseract_languages", "eng+ara")

	l.v.SetDefault("output.max_image_kb", 250)
	l.v.SetDefault("output.keep_transcripts", true)

	l.v.SetDefault("structurer.model", "gemini-2.5-flash")
	l.v.SetDefault("structurer.temperature", 0.0)
}
