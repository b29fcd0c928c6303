package cmd

import (
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scanforge/scanforge/internal/testutil"
)

func TestImageCommandMetadata(t *testing.T) {
	assert.True(t, strings.HasPrefix(imageCmd.Use, "image"))
	assert.NotEmpty(t, imageCmd.Short)
	assert.NotNil(t, imageCmd.Flags().Lookup("format"))
	assert.NotNil(t, imageCmd.Flags().Lookup("output"))
	assert.NotNil(t, imageCmd.Flags().Lookup("languages"))
}

func TestPDFCommandMetadata(t *testing.T) {
	assert.True(t, strings.HasPrefix(pdfCmd.Use, "pdf"))
	assert.NotEmpty(t, pdfCmd.Short)
	assert.NotNil(t, pdfCmd.Flags().Lookup("pages"))
}

func TestBatchCommandMetadata(t *testing.T) {
	assert.True(t, strings.HasPrefix(batchCmd.Use, "batch"))
	assert.NotNil(t, batchCmd.Flags().Lookup("workers"))
	assert.NotNil(t, batchCmd.Flags().Lookup("recursive"))
	assert.NotNil(t, batchCmd.Flags().Lookup("include"))
	assert.NotNil(t, batchCmd.Flags().Lookup("exclude"))
}

func TestServeCommandMetadata(t *testing.T) {
	assert.Equal(t, "serve", serveCmd.Use)
	assert.NotNil(t, serveCmd.Flags().Lookup("host"))
	assert.NotNil(t, serveCmd.Flags().Lookup("port"))
	assert.NotNil(t, serveCmd.Flags().Lookup("store"))
}

func TestImageCommandRequiresArgs(t *testing.T) {
	_, err := executeCommand(t, "image")
	require.Error(t, err)
}

func TestPDFCommandMissingDocument(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := executeCommand(t, "pdf", "missing.pdf")
	require.Error(t, err)
}

func TestPDFCommandRequiresSingleArg(t *testing.T) {
	_, err := executeCommand(t, "pdf")
	require.Error(t, err)

	_, err = executeCommand(t, "pdf", "a.pdf", "b.pdf")
	require.Error(t, err)
}

func TestEnhanceCommandWritesOutput(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	in := filepath.Join(dir, "scan.png")
	out := filepath.Join(dir, "enhanced.png")
	writeTestPNG(t, in)

	_, err := executeCommand(t, "enhance", in, out, "--quiet")
	require.NoError(t, err)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()

	img, err := png.Decode(f)
	require.NoError(t, err)
	// Default enhancement upscales by 2.
	assert.Equal(t, 48, img.Bounds().Dx())
	assert.Equal(t, 48, img.Bounds().Dy())
}

func TestEnhanceCommandRejectsEvenWindow(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	in := filepath.Join(dir, "scan.png")
	writeTestPNG(t, in)

	_, err := executeCommand(t, "enhance", in, filepath.Join(dir, "out.png"), "--window", "8")
	require.Error(t, err)
}

func TestEnhanceCommandMissingInput(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	_, err := executeCommand(t, "enhance", filepath.Join(dir, "missing.png"), filepath.Join(dir, "out.png"))
	require.Error(t, err)
}

func writeTestPNG(t *testing.T, path string) {
	t.Helper()

	cfg := testutil.DefaultScanConfig("X")
	cfg.Width, cfg.Height = 24, 24
	testutil.WriteScanPNG(t, path, cfg)
}
