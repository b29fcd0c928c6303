package pipeline

import (
	"github.com/scanforge/scanforge/internal/classify"
	"github.com/scanforge/scanforge/internal/fields"
)

// Timing records per-stage wall-clock durations in nanoseconds.
type Timing struct {
	EnhanceNs   int64 `json:"enhance_ns"`
	RecognizeNs int64 `json:"recognize_ns"`
	ExtractNs   int64 `json:"extract_ns"`
	TotalNs     int64 `json:"total_ns"`
}

// DocumentResult is the outcome of processing one scanned image.
type DocumentResult struct {
	Text         string                `json:"text"`
	Lines        []string              `json:"lines"`
	Confidence   float64               `json:"confidence"`
	DocumentType classify.DocumentType `json:"document_type"`
	Fields       []fields.Field        `json:"fields"`
	Timing       Timing                `json:"timing"`
}

// PageResult is the outcome of one PDF page. Exactly one of Result and
// Error is set.
type PageResult struct {
	Page   int             `json:"page"`
	Result *DocumentResult `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// Failed reports whether this page's processing failed.
func (r PageResult) Failed() bool { return r.Error != "" }

// PDFResult is the outcome of processing a PDF document: per-page results
// in page order plus the document-level reduction across them.
type PDFResult struct {
	Path  string       `json:"path"`
	Pages []PageResult `json:"pages"`

	// Reduced view. Text concatenates page texts with a placeholder for
	// failed pages; Confidence averages page confidences with failed
	// pages contributing zero; Fields merges page fields keeping the
	// first occurrence of each (label, value) pair.
	Text         string                `json:"text"`
	Confidence   float64               `json:"confidence"`
	DocumentType classify.DocumentType `json:"document_type"`
	Fields       []fields.Field        `json:"fields"`
}
