// Package textproc cleans raw recognized text into ordered, trimmed lines
// ready for classification and field extraction.
package textproc

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// maxLineLength is the cutoff above which a line with no domain keyword is
// considered recognition noise and discarded.
const maxLineLength = 100

// domainKeywords mark long lines as meaningful document content.
var domainKeywords = []string{"name", "card", "licence", "address", "date", "class", "fee"}

var spaceRuns = regexp.MustCompile(`[ \t]+`)

// Normalizer turns raw engine output into normalized lines. It applies an
// ordered table of corrective substitutions for known recurring misreads.
type Normalizer struct {
	corrections []compiledCorrection
}

// NewNormalizer compiles the given corrections table. An empty table is
// valid; NewDefaultNormalizer uses the built-in table.
func NewNormalizer(corrections Corrections) (*Normalizer, error) {
	compiled, err := corrections.compile()
	if err != nil {
		return nil, err
	}
	return &Normalizer{corrections: compiled}, nil
}

// NewDefaultNormalizer returns a Normalizer with the built-in corrections.
func NewDefaultNormalizer() *Normalizer {
	n, err := NewNormalizer(DefaultCorrections())
	if err != nil {
		// The built-in table is static; a compile failure is a programming error.
		panic(err)
	}
	return n
}

// Normalize produces the ordered sequence of trimmed, non-empty lines.
// Steps, in order: NFC normalization, non-printable stripping, horizontal
// whitespace collapsing, line split and trim, corrective substitutions,
// and the long-noise-line drop.
func (n *Normalizer) Normalize(raw string) []string {
	cleaned := stripNonPrintable(norm.NFC.String(raw))
	cleaned = spaceRuns.ReplaceAllString(cleaned, " ")

	var lines []string
	for _, line := range strings.Split(cleaned, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = n.applyCorrections(line)
		if isNoiseLine(line) {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

func (n *Normalizer) applyCorrections(line string) string {
	for _, c := range n.corrections {
		line = c.re.ReplaceAllString(line, c.replacement)
	}
	return strings.TrimSpace(line)
}

// stripNonPrintable removes control and other non-printable runes while
// keeping newlines for line splitting.
func stripNonPrintable(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '\n' || unicode.IsPrint(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// isNoiseLine reports whether a long line carries none of the domain
// keywords and should be dropped.
func isNoiseLine(line string) bool {
	if len(line) <= maxLineLength {
		return false
	}
	lower := strings.ToLower(line)
	for _, kw := range domainKeywords {
		if strings.Contains(lower, kw) {
			return false
		}
	}
	return true
}
