package recognize

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strconv"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// TesseractEngine implements Engine on top of the gosseract client.
// A fresh client is allocated for every Recognize call and closed before
// returning; no instance is reused across pages.
type TesseractEngine struct {
	clientFactory func() *gosseract.Client
}

// NewTesseractEngine constructs a Tesseract-backed recognition engine.
func NewTesseractEngine() *TesseractEngine {
	return &TesseractEngine{clientFactory: gosseract.NewClient}
}

func (e *TesseractEngine) Name() string { return "tesseract" }

// Recognize encodes the image, runs one Tesseract pass and returns the raw
// text with the mean word confidence.
func (e *TesseractEngine) Recognize(ctx context.Context, img image.Image, params Params) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return Result{}, fmt.Errorf("encode image for recognition: %w", err)
	}

	c := e.clientFactory()
	defer c.Close()

	if err := e.configure(c, params); err != nil {
		return Result{}, err
	}
	if err := c.SetImageFromBytes(buf.Bytes()); err != nil {
		return Result{}, fmt.Errorf("set image: %w", err)
	}
	text, err := c.Text()
	if err != nil {
		return Result{}, fmt.Errorf("recognize text: %w", err)
	}

	return Result{
		Text:       strings.TrimSpace(text),
		Confidence: clampConfidence(meanWordConfidence(c)),
	}, nil
}

func (e *TesseractEngine) configure(c *gosseract.Client, params Params) error {
	if len(params.Languages) > 0 {
		if err := c.SetLanguage(params.Languages...); err != nil {
			return fmt.Errorf("set languages: %w", err)
		}
	}
	if params.PageSegMode > 0 {
		if err := c.SetPageSegMode(gosseract.PageSegMode(params.PageSegMode)); err != nil {
			return fmt.Errorf("set page segmentation mode: %w", err)
		}
	}
	if params.DPI > 0 {
		v := gosseract.SettableVariable("user_defined_dpi")
		if err := c.SetVariable(v, strconv.Itoa(params.DPI)); err != nil {
			return fmt.Errorf("set dpi: %w", err)
		}
	}
	return nil
}

// meanWordConfidence averages per-word confidences reported by Tesseract.
// Returns 0 when no words were recognized.
func meanWordConfidence(c *gosseract.Client) float64 {
	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return 0
	}
	var sum float64
	for _, b := range boxes {
		sum += b.Confidence
	}
	return sum / float64(len(boxes))
}
