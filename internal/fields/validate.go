package fields

import (
	"regexp"
	"strconv"
	"strings"
)

// defaultMinConfidence is the floor below which candidate fields are
// dropped unless their label carries an explicit override.
const defaultMinConfidence = 75.0

// labelThresholds are the documented per-label overrides: class fields
// must reach 85 (the fallback scan's confidence), amount-bearing fields
// must reach 80.
var labelThresholds = map[string]float64{
	LabelLicenseClass: 85,
	LabelFee:          80,
	LabelTotalAmount:  80,
}

var dateValueRe = regexp.MustCompile(`^\d{1,2}\s[A-Z]{3}\s\d{4}$`)

// shapeValidators check the value shape for labels that have one. A field
// failing its shape validator is dropped only while its confidence is
// below the label's override threshold; above it, the failure is forgiven.
var shapeValidators = map[string]func(string) bool{
	LabelCardNumber:   isValidCardNumber,
	LabelName:         isValidName,
	LabelAddress:      isValidAddress,
	LabelLicenseClass: isKnownClass,
	LabelDateOfBirth:  func(v string) bool { return dateValueRe.MatchString(v) },
	LabelExpiryDate:   func(v string) bool { return dateValueRe.MatchString(v) },
	LabelFee:          isValidFeeAmount,
}

func isValidFeeAmount(v string) bool {
	v = strings.TrimPrefix(strings.TrimSpace(v), "$")
	amount, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", ""), 64)
	return err == nil && amount > 0 && amount < 10000
}

// Validate filters candidate fields into the final result set. A field
// must clear the confidence floor (or its label's documented override).
// Labels with a shape validator additionally drop shape failures, unless
// the label has an override and the field's confidence reaches it. Order
// follows the candidate order unchanged; no re-sorting. Duplicate
// (label, value) pairs are removed, keeping the first occurrence.
func Validate(candidates []Field) []Field {
	var out []Field
	seen := make(map[[2]string]bool)
	for _, f := range candidates {
		if f.Confidence < defaultMinConfidence {
			continue
		}
		if override, ok := labelThresholds[f.Label]; ok && f.Confidence < override {
			continue
		}
		if validator, ok := shapeValidators[f.Label]; ok && !validator(f.Value) {
			override, hasOverride := labelThresholds[f.Label]
			if !hasOverride || f.Confidence < override {
				continue
			}
		}
		key := [2]string{f.Label, f.Value}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, f)
	}
	return out
}
