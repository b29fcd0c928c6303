package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  DocumentType
	}{
		{"driver licence", []string{"Driver Licence", "Card Number 123"}, LicenseOrID},
		{"invoice", []string{"Tax Invoice", "Total Due $42.00"}, InvoiceOrReceipt},
		{"receipt", []string{"RECEIPT", "Thank you"}, InvoiceOrReceipt},
		{"passport", []string{"PASSPORT", "P1234567"}, Passport},
		{"bare card", []string{"Card Number X123"}, LicenseOrID},
		{"nothing", []string{"hello world", "lorem ipsum"}, Generic},
		{"empty", nil, Generic},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.lines))
		})
	}
}

func TestClassifyPriorityOrder(t *testing.T) {
	// License terms outrank invoice terms even when both appear.
	lines := []string{"Licence renewal invoice", "Total $10"}
	assert.Equal(t, LicenseOrID, Classify(lines))

	// Invoice terms outrank passport terms.
	lines = []string{"Invoice for passport photo services"}
	assert.Equal(t, InvoiceOrReceipt, Classify(lines))
}

func TestClassifyCaseInsensitive(t *testing.T) {
	assert.Equal(t, Passport, Classify([]string{"AUSTRALIAN PASSPORT"}))
}

func TestDocumentTypeString(t *testing.T) {
	assert.Equal(t, "license_or_id", LicenseOrID.String())
	assert.Equal(t, "invoice_or_receipt", InvoiceOrReceipt.String())
	assert.Equal(t, "passport", Passport.String())
	assert.Equal(t, "generic", Generic.String())
}

func TestDocumentTypeMarshalText(t *testing.T) {
	b, err := Passport.MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, "passport", string(b))
}
