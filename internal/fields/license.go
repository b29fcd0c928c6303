package fields

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/scanforge/scanforge/internal/structure"
)

// Labels produced by the license/id extractor family.
const (
	LabelCardNumber   = "Card Number"
	LabelName         = "Name"
	LabelAddress      = "Address"
	LabelLicenseClass = "Licence Class"
	LabelDateOfBirth  = "Date of Birth"
	LabelExpiryDate   = "Expiry Date"
	LabelFee          = "Licence Fee"
)

// cardNumberPatterns are tried in order against card-section lines; the
// first match passing isValidCardNumber wins.
var cardNumberPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b[A-Z]\d{3,4}\s\d{3,4}\b`), // letter + grouped digits
	regexp.MustCompile(`\b[A-Z]\s\d{6,8}\b`),        // spaced letter + digits
	regexp.MustCompile(`\b[A-Z]\d{7}\b`),            // letter + 7 digits
	regexp.MustCompile(`\b\d{6,9}\b`),               // bare digit run
}

var (
	cardLetterDigitsRe = regexp.MustCompile(`^[A-Z]\d{6,8}$`)
	cardBareDigitsRe   = regexp.MustCompile(`^\d{6,9}$`)
	cardDigitGroupsRe  = regexp.MustCompile(`^[A-Z]?\d+\s+\d+$`)

	capitalizedRunRe = regexp.MustCompile(`\b[A-Z][A-Za-z'-]+(?:\s[A-Z][A-Za-z'-]+){1,3}\b`)

	streetRe = regexp.MustCompile(`(?i)\b\d+[a-z]?\s+[A-Za-z' ]+\s(street|st|road|rd|avenue|ave|drive|dr|court|ct|place|pl|highway|hwy|parade|pde|crescent|cres|lane|ln|way)\b`)
	suburbRe = regexp.MustCompile(`\b[A-Z][A-Za-z ]+\sNSW\s\d{4}\b`)

	classPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bclass(?:es)?\s*:?\s*([A-Z]{1,2}(?:\s*&\s*Ty\s*[A-Z])?)`),
		regexp.MustCompile(`\b(C\s*&\s*Ty\s*A)\b`),
	}
	classTokenRe = regexp.MustCompile(`\b(CA|MR|HR|HC|MC|C)\b`)

	dayMonthYearRe = regexp.MustCompile(`\b\d{1,2}\s[A-Z]{3}\s\d{4}\b`)

	feeRe = regexp.MustCompile(`(?i)licence\s+fee\s*:?\s*\$\s*([0-9]+(?:\.[0-9]{1,2})?)`)
)

// knownClassTokens is the closed set of licence classes accepted after
// whitespace normalization.
var knownClassTokens = []string{"C & Ty A", "CA", "MR", "HR", "HC", "MC", "C"}

// nameDenylist rejects capitalized runs that are form furniture rather
// than a personal name. Keys are lowercase; headers arrive in any case,
// "DRIVER LICENCE" included.
var nameDenylist = map[string]bool{
	"driver": true, "drivers": true, "licence": true, "license": true,
	"new": true, "south": true, "wales": true, "australia": true,
	"card": true, "number": true, "date": true, "birth": true,
	"class": true, "expiry": true, "address": true, "photo": true,
}

func extractCardNumber(doc *structure.Structure, current Set) []Field {
	if current.Has(LabelCardNumber) {
		return nil
	}
	for _, re := range cardNumberPatterns {
		for _, line := range doc.Card {
			if m := re.FindString(line); m != "" && isValidCardNumber(m) {
				return []Field{{Label: LabelCardNumber, Value: m, Confidence: 90}}
			}
		}
	}
	return nil
}

// isValidCardNumber accepts a letter followed by 6-8 digits, a bare 6-9
// digit run, or two digit groups separated by whitespace.
func isValidCardNumber(s string) bool {
	s = strings.TrimSpace(s)
	return cardLetterDigitsRe.MatchString(s) ||
		cardBareDigitsRe.MatchString(s) ||
		cardDigitGroupsRe.MatchString(s)
}

func extractName(doc *structure.Structure, current Set) []Field {
	if current.Has(LabelName) {
		return nil
	}
	scan := make([]string, 0, len(doc.Card)+len(doc.Header))
	scan = append(scan, doc.Card...)
	scan = append(scan, doc.Header...)
	for _, line := range scan {
		for _, m := range capitalizedRunRe.FindAllString(line, -1) {
			if isValidName(m) {
				return []Field{{Label: LabelName, Value: m, Confidence: 85}}
			}
		}
	}
	return nil
}

// isValidName enforces the name shape: 2-4 words, each at least two
// characters, total length 5-50, none on the denylist.
func isValidName(s string) bool {
	if len(s) < 5 || len(s) > 50 {
		return false
	}
	words := strings.Fields(s)
	if len(words) < 2 || len(words) > 4 {
		return false
	}
	for _, w := range words {
		if len(w) < 2 || nameDenylist[strings.ToLower(w)] {
			return false
		}
	}
	return true
}

func extractAddress(doc *structure.Structure, current Set) []Field {
	if current.Has(LabelAddress) {
		return nil
	}
	var parts []string
	for _, line := range doc.Address {
		if m := streetRe.FindString(line); m != "" {
			parts = append(parts, strings.TrimSpace(m))
		}
		if m := suburbRe.FindString(line); m != "" {
			parts = append(parts, strings.TrimSpace(m))
		}
	}
	combined := strings.Join(parts, ", ")
	if isValidAddress(combined) {
		return []Field{{Label: LabelAddress, Value: combined, Confidence: 88}}
	}
	return nil
}

// isValidAddress requires both a street-suffix fragment and a
// "suburb NSW ####" fragment in a combined string over 10 characters.
func isValidAddress(s string) bool {
	return len(s) > 10 && streetRe.MatchString(s) && suburbRe.MatchString(s)
}

func extractLicenseClass(doc *structure.Structure, current Set) []Field {
	if current.Has(LabelLicenseClass) {
		return nil
	}
	for _, re := range classPatterns {
		for _, line := range doc.Class {
			if m := re.FindStringSubmatch(line); m != nil && isKnownClass(m[1]) {
				return []Field{{Label: LabelLicenseClass, Value: normalizeClass(m[1]), Confidence: 90}}
			}
		}
	}
	// No section match: fall back to a bare token scan across the whole
	// document at the lower fallback confidence.
	for _, line := range doc.Lines {
		if m := classTokenRe.FindString(line); m != "" && isKnownClass(m) {
			return []Field{{Label: LabelLicenseClass, Value: normalizeClass(m), Confidence: 85}}
		}
	}
	return nil
}

func normalizeClass(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// isKnownClass matches the candidate against the known class tokens by
// substring after whitespace normalization.
func isKnownClass(s string) bool {
	norm := normalizeClass(s)
	for _, tok := range knownClassTokens {
		if strings.Contains(norm, tok) {
			return true
		}
	}
	return false
}

// datedMatch pairs a date string with the lowercased line it came from.
type datedMatch struct {
	date    string
	context string
}

// extractDates collects DD MON YYYY dates from date-section lines,
// deduplicates them, assigns birth/expiry roles from line context, then
// assigns any remaining dates positionally. This extractor is the one
// allowed to emit multiple dated labels.
func extractDates(doc *structure.Structure, current Set) []Field {
	var matches []datedMatch
	seen := make(map[string]bool)
	for _, line := range doc.Date {
		for _, m := range dayMonthYearRe.FindAllString(line, -1) {
			if seen[m] {
				continue
			}
			seen[m] = true
			matches = append(matches, datedMatch{date: m, context: strings.ToLower(line)})
		}
	}

	birth := current.Has(LabelDateOfBirth)
	expiry := current.Has(LabelExpiryDate)
	var out []Field
	var unassigned []string

	for _, m := range matches {
		switch {
		case strings.Contains(m.context, "birth") && !birth:
			out = append(out, Field{Label: LabelDateOfBirth, Value: m.date, Confidence: 85})
			birth = true
		case (strings.Contains(m.context, "expir") || strings.Contains(m.context, "valid")) && !expiry:
			out = append(out, Field{Label: LabelExpiryDate, Value: m.date, Confidence: 85})
			expiry = true
		default:
			unassigned = append(unassigned, m.date)
		}
	}

	for _, date := range unassigned {
		if !birth {
			out = append(out, Field{Label: LabelDateOfBirth, Value: date, Confidence: 85})
			birth = true
		} else if !expiry {
			out = append(out, Field{Label: LabelExpiryDate, Value: date, Confidence: 85})
			expiry = true
		}
	}
	return out
}

func extractFee(doc *structure.Structure, current Set) []Field {
	if current.Has(LabelFee) {
		return nil
	}
	for _, line := range doc.Fee {
		m := feeRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		amount, err := strconv.ParseFloat(m[1], 64)
		if err != nil || amount <= 0 || amount >= 10000 {
			continue
		}
		return []Field{{Label: LabelFee, Value: "$" + m[1], Confidence: 80}}
	}
	return nil
}
