// Package pipeline wires the scan processing stages together: image
// enhancement, text recognition with fallback, normalization,
// classification, structure analysis, field extraction and validation.
package pipeline

import (
	"fmt"

	"github.com/scanforge/scanforge/internal/enhance"
	"github.com/scanforge/scanforge/internal/recognize"
	"github.com/scanforge/scanforge/internal/textproc"
)

// Config holds configuration for the pipeline and its components.
type Config struct {
	Enhance enhance.Config
	Invoker recognize.InvokerConfig
}

// DefaultConfig returns a pipeline config with component defaults.
func DefaultConfig() Config {
	return Config{
		Enhance: enhance.DefaultConfig(),
		Invoker: recognize.DefaultInvokerConfig(),
	}
}

// Validate checks the component configs.
func (c Config) Validate() error {
	if err := c.Enhance.Validate(); err != nil {
		return fmt.Errorf("enhance config: %w", err)
	}
	if c.Invoker.FallbackThreshold < 0 || c.Invoker.FallbackThreshold > 100 {
		return fmt.Errorf("fallback threshold %v outside [0, 100]", c.Invoker.FallbackThreshold)
	}
	return nil
}

// Builder constructs a Pipeline with fluent configuration.
type Builder struct {
	cfg         Config
	engine      recognize.Engine
	corrections *textproc.Corrections
	progress    ProgressCallback
	loadErr     error
}

// NewBuilder creates a new pipeline builder with defaults.
func NewBuilder() *Builder { return &Builder{cfg: DefaultConfig()} }

// WithConfig replaces the whole config.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.cfg = cfg
	return b
}

// WithEngine sets the recognition engine. Defaults to the tesseract
// engine when unset.
func (b *Builder) WithEngine(engine recognize.Engine) *Builder {
	b.engine = engine
	return b
}

// WithScaleFactor sets the enhancement upscale factor.
func (b *Builder) WithScaleFactor(factor int) *Builder {
	if factor > 0 {
		b.cfg.Enhance.ScaleFactor = factor
	}
	return b
}

// WithThreshold sets the adaptive threshold window size and bias.
func (b *Builder) WithThreshold(window, bias int) *Builder {
	if window > 0 {
		b.cfg.Enhance.ThresholdWindow = window
	}
	b.cfg.Enhance.ThresholdBias = float64(bias)
	return b
}

// WithLanguages sets the recognition languages for the primary attempt.
func (b *Builder) WithLanguages(langs ...string) *Builder {
	if len(langs) > 0 {
		b.cfg.Invoker.Primary.Languages = langs
	}
	return b
}

// WithPageSegMode sets the engine page segmentation mode.
func (b *Builder) WithPageSegMode(mode int) *Builder {
	b.cfg.Invoker.Primary.PageSegMode = mode
	return b
}

// WithDPI sets the assumed input resolution passed to the engine.
func (b *Builder) WithDPI(dpi int) *Builder {
	if dpi > 0 {
		b.cfg.Invoker.Primary.DPI = dpi
	}
	return b
}

// WithFallbackThreshold sets the confidence below which recognition is
// retried with default parameters.
func (b *Builder) WithFallbackThreshold(threshold float64) *Builder {
	b.cfg.Invoker.FallbackThreshold = threshold
	return b
}

// WithCorrections replaces the built-in text correction table.
func (b *Builder) WithCorrections(c textproc.Corrections) *Builder {
	b.corrections = &c
	return b
}

// WithCorrectionsFile loads a correction table from a YAML file,
// replacing the built-in one. Load errors surface at Build.
func (b *Builder) WithCorrectionsFile(path string) *Builder {
	if path == "" {
		return b
	}
	c, err := textproc.LoadCorrections(path)
	if err != nil {
		b.corrections = nil
		b.loadErr = fmt.Errorf("corrections file %s: %w", path, err)
		return b
	}
	b.corrections = &c
	return b
}

// WithProgressCallback sets the progress reporter used during multi-page
// processing. Defaults to no-op.
func (b *Builder) WithProgressCallback(cb ProgressCallback) *Builder {
	b.progress = cb
	return b
}

// Build validates the configuration and assembles the pipeline.
func (b *Builder) Build() (*Pipeline, error) {
	if b.loadErr != nil {
		return nil, b.loadErr
	}
	if err := b.cfg.Validate(); err != nil {
		return nil, err
	}

	enhancer, err := enhance.New(b.cfg.Enhance)
	if err != nil {
		return nil, err
	}

	var normalizer *textproc.Normalizer
	if b.corrections != nil {
		normalizer, err = textproc.NewNormalizer(*b.corrections)
		if err != nil {
			return nil, err
		}
	} else {
		normalizer = textproc.NewDefaultNormalizer()
	}

	engine := b.engine
	if engine == nil {
		engine = recognize.NewTesseractEngine()
	}

	progress := b.progress
	if progress == nil {
		progress = NoOpProgressCallback{}
	}

	return &Pipeline{
		cfg:        b.cfg,
		enhancer:   enhancer,
		invoker:    recognize.NewInvoker(engine, b.cfg.Invoker),
		normalizer: normalizer,
		progress:   progress,
	}, nil
}

// Pipeline is the assembled document processor. It is safe for
// concurrent use as long as the configured engine is.
type Pipeline struct {
	cfg        Config
	enhancer   *enhance.Enhancer
	invoker    *recognize.Invoker
	normalizer *textproc.Normalizer
	progress   ProgressCallback
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config { return p.cfg }
