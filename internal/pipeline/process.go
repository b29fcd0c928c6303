package pipeline

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/scanforge/scanforge/internal/classify"
	"github.com/scanforge/scanforge/internal/fields"
	"github.com/scanforge/scanforge/internal/pdfdoc"
	"github.com/scanforge/scanforge/internal/structure"
)

// ProcessImage runs the full pipeline on one scanned image: enhance,
// recognize with fallback, normalize, classify, extract and validate.
func (p *Pipeline) ProcessImage(ctx context.Context, img image.Image) (*DocumentResult, error) {
	if img == nil {
		return nil, fmt.Errorf("nil input image")
	}
	start := time.Now()

	enhanced, err := p.enhancer.EnhanceImage(img)
	if err != nil {
		return nil, fmt.Errorf("enhancing image: %w", err)
	}
	enhanceDone := time.Now()

	rec, err := p.invoker.Recognize(ctx, enhanced, nil)
	if err != nil {
		return nil, err
	}
	recognizeDone := time.Now()

	docType, validated, lines := p.extract(rec.Text)
	end := time.Now()

	slog.Debug("image processed",
		"confidence", rec.Confidence,
		"document_type", docType.String(),
		"fields", len(validated),
		"duration", end.Sub(start))

	return &DocumentResult{
		Text:         strings.Join(lines, "\n"),
		Lines:        lines,
		Confidence:   rec.Confidence,
		DocumentType: docType,
		Fields:       validated,
		Timing: Timing{
			EnhanceNs:   enhanceDone.Sub(start).Nanoseconds(),
			RecognizeNs: recognizeDone.Sub(enhanceDone).Nanoseconds(),
			ExtractNs:   end.Sub(recognizeDone).Nanoseconds(),
			TotalNs:     end.Sub(start).Nanoseconds(),
		},
	}, nil
}

// ProcessFile loads an image file and processes it.
func (p *Pipeline) ProcessFile(ctx context.Context, path string) (*DocumentResult, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("opening image %s: %w", path, err)
	}
	return p.ProcessImage(ctx, img)
}

// ProcessPDF extracts the page images of a PDF and processes each in page
// order. A failing page is recorded and processing continues; the reduced
// document view marks it with a placeholder and a zero confidence
// contribution. Extraction-level failures abort with a typed pdfdoc error.
func (p *Pipeline) ProcessPDF(ctx context.Context, path, pageRange string) (*PDFResult, error) {
	pages, err := pdfdoc.ExtractPages(path, pageRange)
	if err != nil {
		return nil, err
	}

	p.progress.OnStart(len(pages))
	results := make([]PageResult, 0, len(pages))
	for i, page := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := p.ProcessImage(ctx, page.Image)
		if err != nil {
			slog.Warn("page processing failed", "path", path, "page", page.Number, "error", err)
			p.progress.OnError(i+1, err)
			results = append(results, PageResult{Page: page.Number, Error: err.Error()})
		} else {
			results = append(results, PageResult{Page: page.Number, Result: res})
		}
		p.progress.OnProgress(i+1, len(pages))
	}
	p.progress.OnComplete()

	out := reducePages(path, results)
	return out, nil
}

// ExtractFields runs the text half of the pipeline on already-recognized
// text: normalization, classification, structure analysis, extraction and
// validation.
func (p *Pipeline) ExtractFields(text string) (classify.DocumentType, []fields.Field) {
	docType, validated, _ := p.extract(text)
	return docType, validated
}

func (p *Pipeline) extract(text string) (classify.DocumentType, []fields.Field, []string) {
	lines := p.normalizer.Normalize(text)
	docType := classify.Classify(lines)
	doc := structure.Analyze(lines)
	candidates := fields.Extract(docType, doc)
	return docType, fields.Validate(candidates), lines
}

// reducePages folds per-page results into the document-level view.
func reducePages(path string, pages []PageResult) *PDFResult {
	var (
		texts      []string
		confidence float64
		merged     []fields.Field
		allLines   []string
	)
	seen := make(map[[2]string]bool)

	for _, page := range pages {
		if page.Failed() {
			texts = append(texts, fmt.Sprintf("[page %d failed]", page.Page))
			continue
		}
		texts = append(texts, page.Result.Text)
		confidence += page.Result.Confidence
		allLines = append(allLines, page.Result.Lines...)
		for _, f := range page.Result.Fields {
			key := [2]string{f.Label, f.Value}
			if seen[key] {
				continue
			}
			seen[key] = true
			merged = append(merged, f)
		}
	}

	if len(pages) > 0 {
		confidence /= float64(len(pages))
	}

	return &PDFResult{
		Path:         path,
		Pages:        pages,
		Text:         strings.Join(texts, "\n"),
		Confidence:   confidence,
		DocumentType: classify.Classify(allLines),
		Fields:       merged,
	}
}
