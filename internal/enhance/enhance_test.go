package enhance

import (
	"bytes"
	"image/png"
	"strings"
	"testing"

	"github.com/scanforge/scanforge/internal/raster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func grayImage(t *testing.T, width, height int, v uint8) *raster.Image {
	t.Helper()
	img, err := raster.New(width, height)
	require.NoError(t, err)
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = v
		img.Pix[i+1] = v
		img.Pix[i+2] = v
		img.Pix[i+3] = 255
	}
	return img
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 2, cfg.ScaleFactor)
	assert.Equal(t, 15, cfg.ThresholdWindow)
	assert.InDelta(t, 10.0, cfg.ThresholdBias, 1e-9)
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero scale", func(c *Config) { c.ScaleFactor = 0 }},
		{"even window", func(c *Config) { c.ThresholdWindow = 14 }},
		{"tiny window", func(c *Config) { c.ThresholdWindow = 1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestEnhanceDimensions(t *testing.T) {
	e, err := New(DefaultConfig())
	require.NoError(t, err)

	src := grayImage(t, 20, 10, 180)
	out, err := e.Enhance(src)
	require.NoError(t, err)
	assert.Equal(t, 40, out.Width)
	assert.Equal(t, 20, out.Height)
	assert.Len(t, out.Pix, 40*20*4)
}

func TestEnhanceDeterministic(t *testing.T) {
	e, err := New(DefaultConfig())
	require.NoError(t, err)

	src := grayImage(t, 24, 24, 90)
	// Scatter a few dark pixels so stages have something to chew on.
	for _, p := range [][2]int{{3, 4}, {10, 10}, {17, 5}} {
		i := (p[1]*24 + p[0]) * 4
		src.Pix[i], src.Pix[i+1], src.Pix[i+2] = 0, 0, 0
	}

	first, err := e.Enhance(src.Clone())
	require.NoError(t, err)
	second, err := e.Enhance(src.Clone())
	require.NoError(t, err)
	assert.True(t, bytes.Equal(first.Pix, second.Pix), "enhance must be byte deterministic")
}

func TestEnhanceDoesNotMutateInput(t *testing.T) {
	e, err := New(DefaultConfig())
	require.NoError(t, err)

	src := grayImage(t, 16, 16, 120)
	before := make([]uint8, len(src.Pix))
	copy(before, src.Pix)

	_, err = e.Enhance(src)
	require.NoError(t, err)
	assert.Equal(t, before, src.Pix, "input buffer must not be aliased or mutated")
}

func TestEnhanceNilInput(t *testing.T) {
	e, err := New(DefaultConfig())
	require.NoError(t, err)
	_, err = e.Enhance(nil)
	assert.Error(t, err)
}

func TestEnhanceReader(t *testing.T) {
	e, err := New(DefaultConfig())
	require.NoError(t, err)

	src := grayImage(t, 12, 8, 200)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src.ToImage()))

	out, err := e.EnhanceReader(&buf)
	require.NoError(t, err)
	assert.Equal(t, 24, out.Bounds().Dx())
	assert.Equal(t, 16, out.Bounds().Dy())
}

func TestEnhanceReaderBadData(t *testing.T) {
	e, err := New(DefaultConfig())
	require.NoError(t, err)

	_, err = e.EnhanceReader(strings.NewReader("not an image"))
	assert.Error(t, err)
}

func TestEnhanceUniformInterior(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ScaleFactor = 1
	e, err := New(cfg)
	require.NoError(t, err)

	src := grayImage(t, 41, 41, 128)
	out, err := e.Enhance(src)
	require.NoError(t, err)

	// After thresholding a uniform image, the interior is uniformly bright;
	// opening and sharpening keep it flat. Sample well away from borders
	// where threshold and kernel edge policies overlap.
	for y := 10; y < 31; y++ {
		for x := 10; x < 31; x++ {
			i := (y*41 + x) * 4
			require.Equal(t, uint8(255), out.Pix[i], "pixel (%d,%d)", x, y)
		}
	}
}
