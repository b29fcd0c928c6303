package fields

import (
	"regexp"
	"strings"

	"github.com/scanforge/scanforge/internal/structure"
)

// Labels for standalone contact patterns found by the generic extractor.
const (
	LabelEmail = "Email"
	LabelPhone = "Phone"
	LabelURL   = "URL"
)

var (
	labelValueRe = regexp.MustCompile(`^([^:]{2,40}):\s*(.+)$`)
	emailRe      = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	phoneRe      = regexp.MustCompile(`(?:\+?\d[\d ()-]{7,}\d)`)
	urlRe        = regexp.MustCompile(`\bhttps?://\S+|\bwww\.\S+`)

	punctOnlyRe = regexp.MustCompile(`^[^\p{L}\p{N}]+$`)
)

// labelNoiseWords are label candidates that identify scan artifacts, not
// document content.
var labelNoiseWords = map[string]bool{
	"page": true, "scan": true, "image": true, "file": true, "photo": true,
}

// extractGeneric accepts label:value pairs passing the meaningfulness
// filter and additionally scans every line for standalone email, phone and
// URL patterns.
func extractGeneric(doc *structure.Structure, current Set) []Field {
	var out []Field
	taken := func(label string) bool {
		if current.Has(label) {
			return true
		}
		for _, f := range out {
			if f.Label == label {
				return true
			}
		}
		return false
	}

	for _, line := range doc.Lines {
		// The colon in a URL scheme would otherwise split the line into a
		// bogus label:value pair.
		if m := labelValueRe.FindStringSubmatch(line); m != nil && !urlRe.MatchString(line) {
			label := strings.TrimSpace(m[1])
			value := strings.TrimSpace(m[2])
			if isMeaningfulPair(label, value) && !taken(label) {
				out = append(out, Field{Label: label, Value: value, Confidence: 90})
			}
		}
		if m := emailRe.FindString(line); m != "" && !taken(LabelEmail) {
			out = append(out, Field{Label: LabelEmail, Value: m, Confidence: 85})
		}
		if m := urlRe.FindString(line); m != "" && !taken(LabelURL) {
			out = append(out, Field{Label: LabelURL, Value: m, Confidence: 85})
		}
		if m := findPhone(line); m != "" && !taken(LabelPhone) {
			out = append(out, Field{Label: LabelPhone, Value: m, Confidence: 85})
		}
	}
	return out
}

// isMeaningfulPair filters label:value pairs: both sides within length
// bounds, neither pure punctuation, label not a known noise word.
func isMeaningfulPair(label, value string) bool {
	if len(label) < 2 || len(label) > 40 {
		return false
	}
	if len(value) < 1 || len(value) > 100 {
		return false
	}
	if punctOnlyRe.MatchString(label) || punctOnlyRe.MatchString(value) {
		return false
	}
	if labelNoiseWords[strings.ToLower(label)] {
		return false
	}
	return true
}

// findPhone returns a phone-shaped token, skipping digit runs that are
// part of an email or URL already matched on the line.
func findPhone(line string) string {
	if emailRe.MatchString(line) || urlRe.MatchString(line) {
		return ""
	}
	return strings.TrimSpace(phoneRe.FindString(line))
}
