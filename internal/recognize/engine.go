// Package recognize invokes an external text-recognition engine and applies
// the low-confidence fallback strategy around it. The engine itself is a
// black box returning raw text plus a confidence score.
package recognize

import (
	"context"
	"fmt"
	"image"
)

// Result is the output of a single recognition attempt.
// Confidence is a 0-100 scalar; it is immutable once produced.
type Result struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Params are the engine tuning knobs for one invocation. The zero value
// means the engine's own defaults.
type Params struct {
	Languages   []string // trained-data hints, e.g. "eng"
	PageSegMode int      // engine page segmentation mode; 0 = engine default
	DPI         int      // effective dots-per-inch; 0 = unknown
}

// DocumentParams returns the specialized parameters used for the first
// attempt on dense document scans.
func DocumentParams() Params {
	return Params{
		Languages:   []string{"eng"},
		PageSegMode: 6, // assume a single uniform block of text
		DPI:         300,
	}
}

// Engine is the external recognition contract: one image in, raw text and
// a confidence out. Implementations allocate whatever per-call resources
// they need and must release them on every path.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, img image.Image, params Params) (Result, error)
}

// Error wraps a failure propagated from the external engine.
type Error struct {
	Engine string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("recognition failed (%s): %v", e.Engine, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// clampConfidence forces a confidence into [0, 100].
func clampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
