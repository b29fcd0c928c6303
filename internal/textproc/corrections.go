package textproc

import (
	"fmt"
	"os"
	"regexp"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// Correction is one ordered corrective substitution: lines matching Pattern
// are rewritten with Replacement. Patterns use Go regexp syntax; $1-style
// references are allowed in the replacement.
type Correction struct {
	Pattern     string `yaml:"pattern" json:"pattern"`
	Replacement string `yaml:"replacement" json:"replacement"`
}

// Corrections is an ordered substitution table. Order is significant: each
// entry sees the output of the previous one.
type Corrections []Correction

type compiledCorrection struct {
	re          *regexp.Regexp
	replacement string
}

func (cs Corrections) compile() ([]compiledCorrection, error) {
	compiled := make([]compiledCorrection, 0, len(cs))
	for i, c := range cs {
		re, err := regexp.Compile(c.Pattern)
		if err != nil {
			return nil, fmt.Errorf("correction %d: invalid pattern %q: %w", i, c.Pattern, err)
		}
		compiled = append(compiled, compiledCorrection{re: re, replacement: c.Replacement})
	}
	return compiled, nil
}

// DefaultCorrections returns the built-in table covering recurring misread
// classes: keywords merged with their values and digit/letter confusions
// inside identifier digit groups. It deliberately contains no literal
// document content.
func DefaultCorrections() Corrections {
	return Corrections{
		// Keywords fused to the following token.
		{Pattern: `(?i)\b(licence|license)(no\.?|number)\b`, Replacement: `$1 $2`},
		{Pattern: `(?i)\b(card)(number|no\.?)\b`, Replacement: `$1 $2`},
		{Pattern: `(?i)\bdateofbirth\b`, Replacement: `Date of Birth`},
		{Pattern: `(?i)\bdate of b[il1]rth\b`, Replacement: `Date of Birth`},
		// Letter/digit confusions inside digit groups.
		{Pattern: `(\d)[lI](\d)`, Replacement: `${1}1${2}`},
		{Pattern: `(\d)[oO](\d)`, Replacement: `${1}0${2}`},
		{Pattern: `(\d)S(\d)`, Replacement: `${1}5${2}`},
		{Pattern: `(\d)B(\d)`, Replacement: `${1}8${2}`},
		// A digit run led by a misread O is an identifier starting with 0.
		{Pattern: `\bO(\d{5,})\b`, Replacement: `0$1`},
	}
}

// correctionsSchema validates a corrections file before compilation.
const correctionsSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["pattern", "replacement"],
    "properties": {
      "pattern": {"type": "string", "minLength": 1},
      "replacement": {"type": "string"}
    },
    "additionalProperties": false
  }
}`

// LoadCorrections reads an ordered corrections table from a YAML file and
// validates it against the corrections schema before returning it.
func LoadCorrections(path string) (Corrections, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corrections file: %w", err)
	}

	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse corrections file %s: %w", path, err)
	}

	schema, err := jsonschema.CompileString("corrections.schema.json", correctionsSchema)
	if err != nil {
		return nil, fmt.Errorf("compile corrections schema: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("corrections file %s is invalid: %w", path, err)
	}

	var corrections Corrections
	if err := yaml.Unmarshal(data, &corrections); err != nil {
		return nil, fmt.Errorf("decode corrections file %s: %w", path, err)
	}
	return corrections, nil
}
