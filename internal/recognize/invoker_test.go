package recognize

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedEngine returns canned results in order and records each call.
type scriptedEngine struct {
	results []Result
	errs    []error
	calls   []Params
}

func (e *scriptedEngine) Name() string { return "scripted" }

func (e *scriptedEngine) Recognize(_ context.Context, _ image.Image, params Params) (Result, error) {
	i := len(e.calls)
	e.calls = append(e.calls, params)
	if i < len(e.errs) && e.errs[i] != nil {
		return Result{}, e.errs[i]
	}
	if i >= len(e.results) {
		return Result{}, errors.New("unexpected call")
	}
	return e.results[i], nil
}

func testImage() image.Image {
	return image.NewNRGBA(image.Rect(0, 0, 4, 4))
}

func TestInvokerNoFallbackAboveThreshold(t *testing.T) {
	eng := &scriptedEngine{results: []Result{{Text: "good", Confidence: 80}}}
	inv := NewInvoker(eng, DefaultInvokerConfig())

	res, err := inv.Recognize(context.Background(), testImage(), nil)
	require.NoError(t, err)
	assert.Equal(t, "good", res.Text)
	assert.InDelta(t, 80.0, res.Confidence, 1e-9)
	assert.Len(t, eng.calls, 1, "no fallback expected at confidence 80")
}

func TestInvokerFallbackImprovesResult(t *testing.T) {
	eng := &scriptedEngine{results: []Result{
		{Text: "garbled", Confidence: 20},
		{Text: "better", Confidence: 55},
	}}
	inv := NewInvoker(eng, DefaultInvokerConfig())

	res, err := inv.Recognize(context.Background(), testImage(), nil)
	require.NoError(t, err)
	assert.Equal(t, "better", res.Text)
	assert.InDelta(t, 55.0, res.Confidence, 1e-9)
	require.Len(t, eng.calls, 2)
	// Second attempt must use default engine parameters.
	assert.Equal(t, Params{}, eng.calls[1])
}

func TestInvokerFallbackKeepsFirstWhenWorse(t *testing.T) {
	eng := &scriptedEngine{results: []Result{
		{Text: "first", Confidence: 30},
		{Text: "second", Confidence: 15},
	}}
	inv := NewInvoker(eng, DefaultInvokerConfig())

	res, err := inv.Recognize(context.Background(), testImage(), nil)
	require.NoError(t, err)
	assert.Equal(t, "first", res.Text)
	assert.InDelta(t, 30.0, res.Confidence, 1e-9)
	assert.Len(t, eng.calls, 2, "exactly one fallback attempt")
}

func TestInvokerFallbackErrorIgnored(t *testing.T) {
	eng := &scriptedEngine{
		results: []Result{{Text: "first", Confidence: 10}, {}},
		errs:    []error{nil, errors.New("engine crashed")},
	}
	inv := NewInvoker(eng, DefaultInvokerConfig())

	res, err := inv.Recognize(context.Background(), testImage(), nil)
	require.NoError(t, err, "fallback failure must not discard the first result")
	assert.Equal(t, "first", res.Text)
}

func TestInvokerFirstAttemptError(t *testing.T) {
	eng := &scriptedEngine{errs: []error{errors.New("boom")}}
	inv := NewInvoker(eng, DefaultInvokerConfig())

	_, err := inv.Recognize(context.Background(), testImage(), nil)
	require.Error(t, err)
	var recErr *Error
	require.ErrorAs(t, err, &recErr)
	assert.Equal(t, "scripted", recErr.Engine)
	assert.Len(t, eng.calls, 1, "no fallback after a hard engine failure")
}

func TestInvokerClampsConfidence(t *testing.T) {
	eng := &scriptedEngine{results: []Result{{Text: "x", Confidence: 140}}}
	inv := NewInvoker(eng, DefaultInvokerConfig())

	res, err := inv.Recognize(context.Background(), testImage(), nil)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, res.Confidence, 1e-9)
}

func TestInvokerProgressReporting(t *testing.T) {
	eng := &scriptedEngine{results: []Result{
		{Text: "low", Confidence: 5},
		{Text: "low again", Confidence: 6},
	}}
	inv := NewInvoker(eng, DefaultInvokerConfig())

	var seen []int
	_, err := inv.Recognize(context.Background(), testImage(), func(pct int) {
		seen = append(seen, pct)
	})
	require.NoError(t, err)
	require.NotEmpty(t, seen)
	assert.Equal(t, 0, seen[0])
	assert.Equal(t, 100, seen[len(seen)-1])
	for i := 1; i < len(seen); i++ {
		assert.GreaterOrEqual(t, seen[i], seen[i-1], "progress must be monotonic")
		assert.GreaterOrEqual(t, seen[i], 0)
		assert.LessOrEqual(t, seen[i], 100)
	}
}

func TestInvokerFallbackBoundary(t *testing.T) {
	// Exactly at the threshold no fallback happens.
	eng := &scriptedEngine{results: []Result{{Text: "edge", Confidence: 40}}}
	inv := NewInvoker(eng, DefaultInvokerConfig())

	res, err := inv.Recognize(context.Background(), testImage(), nil)
	require.NoError(t, err)
	assert.Equal(t, "edge", res.Text)
	assert.Len(t, eng.calls, 1)
}
