// Package classify assigns a document-type tag to normalized text.
package classify

import (
	"fmt"
	"strings"
)

// DocumentType is the closed set of document families the extractors know.
// It is computed once per document and never revised.
type DocumentType int

const (
	Generic DocumentType = iota
	LicenseOrID
	InvoiceOrReceipt
	Passport
)

// String returns the stable tag used in output and logs.
func (t DocumentType) String() string {
	switch t {
	case LicenseOrID:
		return "license_or_id"
	case InvoiceOrReceipt:
		return "invoice_or_receipt"
	case Passport:
		return "passport"
	case Generic:
		return "generic"
	default:
		return fmt.Sprintf("DocumentType(%d)", int(t))
	}
}

// MarshalText implements encoding.TextMarshaler so the tag serializes
// readably in JSON and YAML.
func (t DocumentType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *DocumentType) UnmarshalText(text []byte) error {
	switch string(text) {
	case "generic":
		*t = Generic
	case "license_or_id":
		*t = LicenseOrID
	case "invoice_or_receipt":
		*t = InvoiceOrReceipt
	case "passport":
		*t = Passport
	default:
		return fmt.Errorf("unknown document type %q", text)
	}
	return nil
}

// rule is one keyword category in priority order.
type rule struct {
	docType  DocumentType
	keywords []string
}

// rules are tested in order; the first matching category wins. License
// terms outrank invoice terms, which outrank passport terms, which outrank
// bare id/card terms. The ordering is a deliberate tie-break.
var rules = []rule{
	{LicenseOrID, []string{"licence", "license", "driver"}},
	{InvoiceOrReceipt, []string{"invoice", "receipt", "total due", "amount payable", "tax"}},
	{Passport, []string{"passport"}},
	{LicenseOrID, []string{"card number", "identification", "id number", "card"}},
}

// Classify returns exactly one DocumentType for the given normalized lines.
// With no keyword match the document is Generic.
func Classify(lines []string) DocumentType {
	text := strings.ToLower(strings.Join(lines, " "))
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(text, kw) {
				return r.docType
			}
		}
	}
	return Generic
}
