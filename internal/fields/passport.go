package fields

import (
	"regexp"
	"strings"

	"github.com/scanforge/scanforge/internal/structure"
)

// Labels produced by the passport extractor.
const (
	LabelPassportNumber = "Passport Number"
	LabelIssueDate      = "Issue Date"
)

var passportNumberRe = regexp.MustCompile(`\b[A-Z]\d{7,9}\b`)

// extractPassport pulls the passport number, a capitalized name run, and
// dates tagged by issue/expiry keywords on the same line.
func extractPassport(doc *structure.Structure, current Set) []Field {
	var out []Field
	number := current.Has(LabelPassportNumber)
	name := current.Has(LabelName)
	issue := current.Has(LabelIssueDate)
	expiry := current.Has(LabelExpiryDate)

	for _, line := range doc.Lines {
		if !number {
			if m := passportNumberRe.FindString(line); m != "" {
				out = append(out, Field{Label: LabelPassportNumber, Value: m, Confidence: 90})
				number = true
			}
		}
		if !name {
			for _, m := range capitalizedRunRe.FindAllString(line, -1) {
				if isValidName(m) {
					out = append(out, Field{Label: LabelName, Value: m, Confidence: 85})
					name = true
					break
				}
			}
		}

		lower := strings.ToLower(line)
		if date := dayMonthYearRe.FindString(line); date != "" {
			if !issue && strings.Contains(lower, "issue") {
				out = append(out, Field{Label: LabelIssueDate, Value: date, Confidence: 85})
				issue = true
			} else if !expiry && strings.Contains(lower, "expir") {
				out = append(out, Field{Label: LabelExpiryDate, Value: date, Confidence: 85})
				expiry = true
			}
		}
	}
	return out
}
