package batch

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/scanforge/scanforge/internal/pipeline"
	"github.com/scanforge/scanforge/internal/recognize"
	"github.com/scanforge/scanforge/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedEngine always returns the same result.
type fixedEngine struct {
	text string
	conf float64
}

func (e fixedEngine) Name() string { return "fixed" }

func (e fixedEngine) Recognize(context.Context, image.Image, recognize.Params) (recognize.Result, error) {
	return recognize.Result{Text: e.text, Confidence: e.conf}, nil
}

func writePNG(t *testing.T, path string) {
	t.Helper()
	testutil.WriteScanPNG(t, path, testutil.DefaultScanConfig(testutil.InvoiceLines()...))
}

func testPipeline(t *testing.T) *pipeline.Pipeline {
	t.Helper()
	pl, err := pipeline.NewBuilder().
		WithEngine(fixedEngine{text: "Invoice Number: B-77\nTotal: $12.00", conf: 88}).
		Build()
	require.NoError(t, err)
	return pl
}

func TestProcessBatchContinueOnError(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.png"), []byte("not an image"), 0o600))
	writePNG(t, filepath.Join(dir, "c.png"))

	res, err := ProcessBatch(context.Background(), testPipeline(t), []string{dir}, &Config{
		Workers:         2,
		ContinueOnError: true,
	})
	require.NoError(t, err)
	require.Len(t, res.Files, 3)
	assert.Equal(t, 1, res.Failed())

	// Input order is preserved regardless of worker scheduling.
	assert.Equal(t, filepath.Join(dir, "a.png"), res.Files[0].Path)
	assert.Equal(t, filepath.Join(dir, "broken.png"), res.Files[1].Path)
	assert.NotEmpty(t, res.Files[1].Error)
	assert.Empty(t, res.Files[1].Result)
	require.NotNil(t, res.Files[2].Result)
	assert.InDelta(t, 88.0, res.Files[2].Result.Confidence, 1e-9)
}

func TestProcessBatchAbortsOnError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.png"), []byte("junk"), 0o600))

	_, err := ProcessBatch(context.Background(), testPipeline(t), []string{dir}, &Config{
		Workers: 1,
	})
	assert.Error(t, err)
}

func TestProcessBatchNoInputs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o600))

	_, err := ProcessBatch(context.Background(), testPipeline(t), []string{dir}, &Config{Workers: 1})
	assert.ErrorContains(t, err, "no input files")
}

func TestProcessBatchExtractsFields(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "invoice.png"))

	res, err := ProcessBatch(context.Background(), testPipeline(t), []string{dir}, &Config{Workers: 1})
	require.NoError(t, err)
	require.Len(t, res.Files, 1)

	fields := res.Files[0].Result.Fields
	labels := make(map[string]string)
	for _, f := range fields {
		labels[f.Label] = f.Value
	}
	assert.Equal(t, "B-77", labels["Invoice Number"])
	assert.Equal(t, "$12.00", labels["Total Amount"])
}
