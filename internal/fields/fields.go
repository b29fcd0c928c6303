// Package fields converts classified, structured document text into
// labeled, confidence-scored fields, and validates the result set.
package fields

import (
	"github.com/scanforge/scanforge/internal/classify"
	"github.com/scanforge/scanforge/internal/structure"
)

// Field is a candidate or final extraction result. Confidence is 0-100.
type Field struct {
	Label      string  `json:"label"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// Set is the read-only view of already-accepted fields handed to each
// extractor. Extractors consult it to stay idempotent against populated
// labels; only the reducer mutates the underlying data.
type Set struct {
	labels map[string]bool
}

// Has reports whether a field with the given label was already accepted.
func (s Set) Has(label string) bool { return s.labels[label] }

// extractor inspects the document structure and the current field set and
// returns the fields it wishes to add. It never mutates its inputs.
type extractor func(doc *structure.Structure, current Set) []Field

// Extract runs the type-dispatched extractors over the document structure
// and merges their output with first-match-wins semantics: once a label is
// populated, later candidates for it are ignored.
func Extract(docType classify.DocumentType, doc *structure.Structure) []Field {
	var chain []extractor
	switch docType {
	case classify.LicenseOrID:
		chain = []extractor{
			extractCardNumber,
			extractName,
			extractAddress,
			extractLicenseClass,
			extractDates,
			extractFee,
		}
	case classify.InvoiceOrReceipt:
		chain = []extractor{extractInvoice}
	case classify.Passport:
		chain = []extractor{extractPassport}
	case classify.Generic:
		chain = []extractor{extractGeneric}
	default:
		chain = []extractor{extractGeneric}
	}

	var accepted []Field
	labels := make(map[string]bool)
	pairs := make(map[[2]string]bool)
	for _, ex := range chain {
		additions := ex(doc, Set{labels: labels})
		for _, f := range additions {
			if labels[f.Label] {
				continue
			}
			key := [2]string{f.Label, f.Value}
			if pairs[key] {
				continue
			}
			labels[f.Label] = true
			pairs[key] = true
			accepted = append(accepted, f)
		}
	}
	return accepted
}
