// Package testutil generates synthetic scanned documents for tests. The
// images carry real rendered text so enhancement and recognition can run
// against known content without committing binary fixtures.
package testutil

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// ScanConfig controls synthetic scan generation.
type ScanConfig struct {
	Lines      []string
	Width      int
	Height     int
	Rotation   float64 // degrees, simulates a skewed scan
	Background color.Color
	Foreground color.Color
}

// DefaultScanConfig returns a letter-ish page with room for a dozen lines.
func DefaultScanConfig(lines ...string) ScanConfig {
	return ScanConfig{
		Lines:      lines,
		Width:      640,
		Height:     480,
		Background: color.White,
		Foreground: color.Black,
	}
}

// GenerateScan renders the configured lines onto a page image.
func GenerateScan(cfg ScanConfig) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height))
	draw.Draw(img, img.Bounds(), &image.Uniform{cfg.Background}, image.Point{}, draw.Src)

	face := basicfont.Face7x13
	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{cfg.Foreground},
		Face: face,
	}

	lineHeight := face.Metrics().Height.Ceil() + 4
	y := 40
	for _, line := range cfg.Lines {
		drawer.Dot = fixed.P(32, y)
		drawer.DrawString(line)
		y += lineHeight
	}

	if cfg.Rotation != 0 {
		return imaging.Rotate(img, cfg.Rotation, cfg.Background)
	}
	return img
}

// WriteScanPNG renders a scan and writes it as a PNG file.
func WriteScanPNG(t *testing.T, path string, cfg ScanConfig) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))

	f, err := os.Create(path)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, f.Close())
	}()

	require.NoError(t, png.Encode(f, GenerateScan(cfg)))
}

// LicenseLines returns the text of a plausible driver licence scan.
func LicenseLines() []string {
	return []string{
		"DRIVER LICENCE",
		"Licence No: 12345678",
		"Name: John Citizen",
		"123 Sample Street",
		"SYDNEY NSW 2000",
		"Class C",
		"Date of Birth: 20 AUG 1976",
		"Expiry: 19 JAN 2029",
		"Licence Fee: $56.00",
	}
}

// InvoiceLines returns the text of a plausible invoice scan.
func InvoiceLines() []string {
	return []string{
		"TAX INVOICE",
		"Invoice Number: A-1234",
		"Date: 12 MAR 2026",
		"Total: $128.50",
	}
}
