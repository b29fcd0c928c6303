package recognize

import (
	"context"
	"image"
	"log/slog"
)

// ProgressFunc receives incremental progress in [0, 100] during a
// recognition call. It may be nil.
type ProgressFunc func(pct int)

// InvokerConfig controls the fallback strategy around the engine.
type InvokerConfig struct {
	Primary           Params  // parameters for the first attempt
	FallbackThreshold float64 // retry with default params below this confidence
}

// DefaultInvokerConfig returns the invoker defaults.
func DefaultInvokerConfig() InvokerConfig {
	return InvokerConfig{
		Primary:           DocumentParams(),
		FallbackThreshold: 40,
	}
}

// Invoker runs the external engine with at most one fallback attempt per
// image. When the first attempt scores below the threshold, the engine is
// invoked a second time with default parameters and the higher-confidence
// result wins.
type Invoker struct {
	engine Engine
	cfg    InvokerConfig
}

// NewInvoker creates an Invoker around the given engine.
func NewInvoker(engine Engine, cfg InvokerConfig) *Invoker {
	if cfg.FallbackThreshold <= 0 {
		cfg.FallbackThreshold = 40
	}
	return &Invoker{engine: engine, cfg: cfg}
}

// Recognize performs the recognition call with progress reporting. The
// returned confidence is always in [0, 100] and never lower than the first
// attempt's.
func (v *Invoker) Recognize(ctx context.Context, img image.Image, onProgress ProgressFunc) (Result, error) {
	report := func(pct int) {
		if onProgress != nil {
			onProgress(pct)
		}
	}
	report(0)

	first, err := v.engine.Recognize(ctx, img, v.cfg.Primary)
	if err != nil {
		return Result{}, &Error{Engine: v.engine.Name(), Err: err}
	}
	first.Confidence = clampConfidence(first.Confidence)
	report(60)

	result := first
	if first.Confidence < v.cfg.FallbackThreshold {
		slog.Debug("low recognition confidence, retrying with default parameters",
			"confidence", first.Confidence, "threshold", v.cfg.FallbackThreshold)
		report(70)
		second, err := v.engine.Recognize(ctx, img, Params{})
		if err == nil {
			second.Confidence = clampConfidence(second.Confidence)
			if second.Confidence > first.Confidence {
				result = second
			}
		}
	}

	report(100)
	return result, nil
}
