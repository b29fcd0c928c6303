// Package structure segments normalized lines into semantic sections and
// builds per-line context windows used to scope pattern search.
package structure

import (
	"regexp"
	"strings"
)

// headerLines is the fixed number of leading lines forming the header
// section, regardless of content.
const headerLines = 3

// contextRadius is the number of preceding and following lines in a
// context window.
const contextRadius = 2

var (
	streetSuffixRe = regexp.MustCompile(`(?i)\b\d+[a-z]?\s+[A-Za-z' ]+\s(street|st|road|rd|avenue|ave|drive|dr|court|ct|place|pl|highway|hwy|parade|pde|crescent|cres|lane|ln|way)\b`)
	suburbStateRe  = regexp.MustCompile(`\b[A-Z][A-Za-z ]+\sNSW\s\d{4}\b`)
	idLikeRe       = regexp.MustCompile(`\b[A-Z]?\d{6,9}\b`)
	dateShapeRe    = regexp.MustCompile(`\b\d{1,2}\s+[A-Za-z]{3}\s+\d{4}\b|\b\d{1,2}/\d{1,2}/\d{2,4}\b`)
)

// Structure is the categorized view of a document's lines. Sections may
// overlap: a line can belong to any number of them. Order within each
// section follows the original reading order.
type Structure struct {
	Lines   []string
	Header  []string
	Card    []string
	Address []string
	Class   []string
	Date    []string
	Fee     []string
	windows [][]string
}

// Analyze builds the document structure for the given normalized lines.
// Section membership is tested independently per line; the header is
// always the first three lines (or fewer on short documents). Context
// windows are built once, independent of section membership.
func Analyze(lines []string) *Structure {
	s := &Structure{Lines: lines}

	n := len(lines)
	if n > headerLines {
		n = headerLines
	}
	s.Header = append(s.Header, lines[:n]...)

	for _, line := range lines {
		lower := strings.ToLower(line)
		if isCardLine(line, lower) {
			s.Card = append(s.Card, line)
		}
		if isAddressLine(line) {
			s.Address = append(s.Address, line)
		}
		if strings.Contains(lower, "class") {
			s.Class = append(s.Class, line)
		}
		if isDateLine(line, lower) {
			s.Date = append(s.Date, line)
		}
		if strings.Contains(lower, "fee") || strings.Contains(line, "$") {
			s.Fee = append(s.Fee, line)
		}
	}

	s.windows = buildWindows(lines)
	return s
}

// Window returns the context window for line i: up to two preceding and
// two following lines, excluding line i itself. Returns nil for an
// out-of-range index.
func (s *Structure) Window(i int) []string {
	if i < 0 || i >= len(s.windows) {
		return nil
	}
	return s.windows[i]
}

func buildWindows(lines []string) [][]string {
	windows := make([][]string, len(lines))
	for i := range lines {
		lo := i - contextRadius
		if lo < 0 {
			lo = 0
		}
		hi := i + contextRadius
		if hi > len(lines)-1 {
			hi = len(lines) - 1
		}
		w := make([]string, 0, hi-lo)
		for j := lo; j <= hi; j++ {
			if j != i {
				w = append(w, lines[j])
			}
		}
		windows[i] = w
	}
	return windows
}

func isCardLine(line, lower string) bool {
	if strings.Contains(lower, "card") || strings.Contains(lower, "licence no") ||
		strings.Contains(lower, "license no") || strings.Contains(lower, "number") {
		return true
	}
	return idLikeRe.MatchString(line)
}

func isAddressLine(line string) bool {
	return streetSuffixRe.MatchString(line) || suburbStateRe.MatchString(line)
}

func isDateLine(line, lower string) bool {
	for _, kw := range []string{"date", "birth", "expiry", "expires", "valid"} {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return dateShapeRe.MatchString(line)
}
