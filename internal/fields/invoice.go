package fields

import (
	"regexp"

	"github.com/scanforge/scanforge/internal/structure"
)

// Labels produced by the invoice/receipt extractor.
const (
	LabelInvoiceNumber = "Invoice Number"
	LabelTotalAmount   = "Total Amount"
	LabelDate          = "Date"
)

var (
	invoiceNumberRe = regexp.MustCompile(`(?i)\b(?:invoice|receipt)\s*(?:number|no\.?|#)?\s*:?\s*([A-Z0-9][A-Z0-9-]{2,})`)
	totalAmountRe   = regexp.MustCompile(`(?i)\b(?:total|amount\s+due|balance)\s*:?\s*\$?\s*([0-9][0-9,]*(?:\.[0-9]{1,2})?)`)
	anyDateRe       = regexp.MustCompile(`\b\d{1,2}\s[A-Za-z]{3}\s\d{4}\b|\b\d{1,2}/\d{1,2}/\d{2,4}\b`)
)

// extractInvoice pulls invoice/receipt number, total amount and a date.
// One candidate per label, first match wins, scanning all lines without
// regard to section structure.
func extractInvoice(doc *structure.Structure, current Set) []Field {
	var out []Field
	number := current.Has(LabelInvoiceNumber)
	amount := current.Has(LabelTotalAmount)
	date := current.Has(LabelDate)

	for _, line := range doc.Lines {
		if !number {
			if m := invoiceNumberRe.FindStringSubmatch(line); m != nil {
				out = append(out, Field{Label: LabelInvoiceNumber, Value: m[1], Confidence: 90})
				number = true
			}
		}
		if !amount {
			if m := totalAmountRe.FindStringSubmatch(line); m != nil {
				out = append(out, Field{Label: LabelTotalAmount, Value: "$" + m[1], Confidence: 80})
				amount = true
			}
		}
		if !date {
			if m := anyDateRe.FindString(line); m != "" {
				out = append(out, Field{Label: LabelDate, Value: m, Confidence: 85})
				date = true
			}
		}
	}
	return out
}
