package batch

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// FormatResults renders the batch result in the given format: text,
// json, csv or yaml.
func (r *Result) FormatResults(format string) (string, error) {
	switch format {
	case "json":
		return r.formatJSON()
	case "csv":
		return r.formatCSV()
	case "yaml":
		return r.formatYAML()
	case "", "text":
		return r.formatText(), nil
	default:
		return "", fmt.Errorf("unknown output format: %s", format)
	}
}

// SaveResults writes the formatted results to outputFile, or stdout when
// empty.
func (r *Result) SaveResults(format, outputFile string, quiet bool) error {
	output, err := r.FormatResults(format)
	if err != nil {
		return fmt.Errorf("formatting results: %w", err)
	}

	if outputFile == "" {
		_, _ = fmt.Fprint(os.Stdout, output)
		return nil
	}
	if err := os.WriteFile(outputFile, []byte(output), 0o600); err != nil {
		return fmt.Errorf("writing output file: %w", err)
	}
	if !quiet {
		_, _ = fmt.Fprintf(os.Stdout, "Results written to %s\n", outputFile)
	}
	return nil
}

func (r *Result) formatJSON() (string, error) {
	bts, err := json.MarshalIndent(r, "", "  ")
	return string(bts), err
}

func (r *Result) formatYAML() (string, error) {
	bts, err := yaml.Marshal(r)
	return string(bts), err
}

// formatCSV emits one row per extracted field. Files with no fields (or
// a failure) still get a row so every input appears in the output.
func (r *Result) formatCSV() (string, error) {
	rows := [][]string{
		{"file", "status", "document_type", "confidence", "label", "value", "field_confidence"},
	}

	for _, f := range r.Files {
		if f.Error != "" {
			rows = append(rows, []string{f.Path, "error: " + f.Error, "", "", "", "", ""})
			continue
		}
		confidence := strconv.FormatFloat(f.Result.Confidence, 'f', 2, 64)
		docType := f.Result.DocumentType.String()
		if len(f.Result.Fields) == 0 {
			rows = append(rows, []string{f.Path, "ok", docType, confidence, "", "", ""})
			continue
		}
		for _, field := range f.Result.Fields {
			rows = append(rows, []string{
				f.Path, "ok", docType, confidence,
				field.Label, field.Value,
				strconv.FormatFloat(field.Confidence, 'f', 1, 64),
			})
		}
	}

	var out strings.Builder
	w := csv.NewWriter(&out)
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	return out.String(), w.Error()
}

func (r *Result) formatText() string {
	var out strings.Builder
	for i, f := range r.Files {
		if i > 0 {
			out.WriteString("\n")
		}
		_, _ = fmt.Fprintf(&out, "# %s\n", f.Path)
		if f.Error != "" {
			_, _ = fmt.Fprintf(&out, "error: %s\n", f.Error)
			continue
		}
		_, _ = fmt.Fprintf(&out, "type: %s  confidence: %.1f\n", f.Result.DocumentType, f.Result.Confidence)
		for _, field := range f.Result.Fields {
			_, _ = fmt.Fprintf(&out, "%s: %s (%.0f)\n", field.Label, field.Value, field.Confidence)
		}
		if f.Result.Text != "" {
			out.WriteString(f.Result.Text)
			out.WriteString("\n")
		}
	}
	return out.String()
}

// PrintStats writes run statistics to stdout.
func (r *Result) PrintStats(quiet bool) {
	if quiet {
		return
	}
	processed := len(r.Files) - r.Failed()
	_, _ = fmt.Fprintf(os.Stdout, "\nProcessing statistics:\n")
	_, _ = fmt.Fprintf(os.Stdout, "  Total files: %d\n", len(r.Files))
	_, _ = fmt.Fprintf(os.Stdout, "  Processed: %d\n", processed)
	_, _ = fmt.Fprintf(os.Stdout, "  Failed: %d\n", r.Failed())
	_, _ = fmt.Fprintf(os.Stdout, "  Workers: %d\n", r.WorkerCount)
	_, _ = fmt.Fprintf(os.Stdout, "  Duration: %v\n", r.Duration)
}
