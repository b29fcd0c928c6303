package cmd

import (
	"fmt"

	"github.com/scanforge/scanforge/internal/config"
	"github.com/scanforge/scanforge/internal/pipeline"
)

// buildPipeline constructs a processing pipeline from the loaded
// configuration.
func buildPipeline(cfg *config.Config) (*pipeline.Pipeline, error) {
	b := pipeline.NewBuilder().
		WithScaleFactor(cfg.Pipeline.Enhance.ScaleFactor).
		WithThreshold(cfg.Pipeline.Enhance.ThresholdWindow, cfg.Pipeline.Enhance.ThresholdBias).
		WithLanguages(cfg.Pipeline.Recognize.Languages...).
		WithPageSegMode(cfg.Pipeline.Recognize.PageSegMode).
		WithDPI(cfg.Pipeline.Recognize.DPI).
		WithFallbackThreshold(cfg.Pipeline.Recognize.FallbackThreshold)

	if cfg.Pipeline.CorrectionsFile != "" {
		b = b.WithCorrectionsFile(cfg.Pipeline.CorrectionsFile)
	}

	pl, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("building pipeline: %w", err)
	}
	return pl, nil
}

func validateOutputFormat(format string) error {
	switch format {
	case "text", "json", "csv", "yaml":
		return nil
	default:
		return fmt.Errorf("unsupported output format %q (text, json, csv, yaml)", format)
	}
}
