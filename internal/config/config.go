// Package config defines the application configuration and its loading
// from files, environment variables and flags.
package config

import (
	"fmt"
	"strings"
)

// Config is the complete configuration for the scanforge application,
// covering all commands (image, pdf, batch, serve, enhance).
type Config struct {
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	Pipeline PipelineConfig `mapstructure:"pipeline" yaml:"pipeline" json:"pipeline"`
	Output   OutputConfig   `mapstructure:"output" yaml:"output" json:"output"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server" json:"server"`
	Batch    BatchConfig    `mapstructure:"batch" yaml:"batch" json:"batch"`
	Storage  StorageConfig  `mapstructure:"storage" yaml:"storage" json:"storage"`
}

// PipelineConfig contains processing pipeline settings.
type PipelineConfig struct {
	Enhance   EnhanceConfig   `mapstructure:"enhance" yaml:"enhance" json:"enhance"`
	Recognize RecognizeConfig `mapstructure:"recognize" yaml:"recognize" json:"recognize"`

	// CorrectionsFile optionally replaces the built-in OCR correction
	// table with one loaded from YAML.
	CorrectionsFile string `mapstructure:"corrections_file" yaml:"corrections_file" json:"corrections_file"`
}

// EnhanceConfig contains image enhancement settings.
type EnhanceConfig struct {
	ScaleFactor     int `mapstructure:"scale_factor" yaml:"scale_factor" json:"scale_factor"`
	ThresholdWindow int `mapstructure:"threshold_window" yaml:"threshold_window" json:"threshold_window"`
	ThresholdBias   int `mapstructure:"threshold_bias" yaml:"threshold_bias" json:"threshold_bias"`
}

// RecognizeConfig contains recognition engine settings.
type RecognizeConfig struct {
	Languages         []string `mapstructure:"languages" yaml:"languages" json:"languages"`
	PageSegMode       int      `mapstructure:"page_seg_mode" yaml:"page_seg_mode" json:"page_seg_mode"`
	DPI               int      `mapstructure:"dpi" yaml:"dpi" json:"dpi"`
	FallbackThreshold float64  `mapstructure:"fallback_threshold" yaml:"fallback_threshold" json:"fallback_threshold"`
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format" json:"format"`
	File   string `mapstructure:"file" yaml:"file" json:"file"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string `mapstructure:"host" yaml:"host" json:"host"`
	Port            int    `mapstructure:"port" yaml:"port" json:"port"`
	MaxUploadMB     int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
	TimeoutSec      int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// BatchConfig contains batch processing settings.
type BatchConfig struct {
	Workers         int      `mapstructure:"workers" yaml:"workers" json:"workers"`
	Recursive       bool     `mapstructure:"recursive" yaml:"recursive" json:"recursive"`
	Include         []string `mapstructure:"include" yaml:"include" json:"include"`
	Exclude         []string `mapstructure:"exclude" yaml:"exclude" json:"exclude"`
	OutputDir       string   `mapstructure:"output_dir" yaml:"output_dir" json:"output_dir"`
	ContinueOnError bool     `mapstructure:"continue_on_error" yaml:"continue_on_error" json:"continue_on_error"`
}

// StorageConfig contains scan record persistence settings.
type StorageConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Path    string `mapstructure:"path" yaml:"path" json:"path"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Pipeline: PipelineConfig{
			Enhance: EnhanceConfig{
				ScaleFactor:     2,
				ThresholdWindow: 15,
				ThresholdBias:   10,
			},
			Recognize: RecognizeConfig{
				Languages:         []string{"eng"},
				PageSegMode:       6,
				DPI:               300,
				FallbackThreshold: 40,
			},
		},
		Output: OutputConfig{
			Format: "text",
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			MaxUploadMB:     50,
			TimeoutSec:      60,
			ShutdownTimeout: 10,
		},
		Batch: BatchConfig{
			Workers:         4,
			ContinueOnError: true,
		},
		Storage: StorageConfig{
			Enabled: false,
			Path:    "scanforge.db",
		},
	}
}

var validLogLevels = []string{"debug", "info", "warn", "error"}

var validFormats = []string{"text", "json", "csv", "yaml"}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if !contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)",
			c.LogLevel, strings.Join(validLogLevels, ", "))
	}
	if c.Output.Format != "" && !contains(validFormats, c.Output.Format) {
		return fmt.Errorf("invalid output format: %s (must be one of: %s)",
			c.Output.Format, strings.Join(validFormats, ", "))
	}
	if c.Pipeline.Enhance.ScaleFactor < 1 {
		return fmt.Errorf("invalid scale factor: %d (must be at least 1)", c.Pipeline.Enhance.ScaleFactor)
	}
	if c.Pipeline.Enhance.ThresholdWindow < 3 || c.Pipeline.Enhance.ThresholdWindow%2 == 0 {
		return fmt.Errorf("invalid threshold window: %d (must be odd and at least 3)", c.Pipeline.Enhance.ThresholdWindow)
	}
	if c.Pipeline.Recognize.FallbackThreshold < 0 || c.Pipeline.Recognize.FallbackThreshold > 100 {
		return fmt.Errorf("invalid fallback threshold: %v (must be between 0 and 100)", c.Pipeline.Recognize.FallbackThreshold)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", c.Server.Port)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("invalid max upload size: %d (must be positive)", c.Server.MaxUploadMB)
	}
	if c.Server.TimeoutSec <= 0 {
		return fmt.Errorf("invalid timeout: %d (must be positive)", c.Server.TimeoutSec)
	}
	if c.Batch.Workers <= 0 {
		return fmt.Errorf("invalid batch workers: %d (must be positive)", c.Batch.Workers)
	}
	if c.Storage.Enabled && c.Storage.Path == "" {
		return fmt.Errorf("storage enabled but no path configured")
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
