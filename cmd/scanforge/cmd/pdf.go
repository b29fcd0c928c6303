package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/scanforge/scanforge/internal/pdfdoc"
	"github.com/scanforge/scanforge/internal/pipeline"
)

var pdfCmd = &cobra.Command{
	Use:   "pdf <file>",
	Short: "Process a scanned PDF document",
	Long: `Extract page images from a PDF and run each page through the
processing pipeline. Page results are merged into a single document
result; failed pages are reported inline and skipped.`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	PreRun: func(cmd *cobra.Command, args []string) {
		viper.BindPFlag("output.format", cmd.Flags().Lookup("format"))
		viper.BindPFlag("output.file", cmd.Flags().Lookup("output"))
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if err := validateOutputFormat(cfg.Output.Format); err != nil {
			return err
		}

		pl, err := buildPipeline(cfg)
		if err != nil {
			return err
		}

		total, err := pdfdoc.PageCount(args[0])
		if err != nil {
			return describePDFError(args[0], err)
		}

		pages, _ := cmd.Flags().GetString("pages")
		res, err := pl.ProcessPDF(cmd.Context(), args[0], pages)
		if err != nil {
			return describePDFError(args[0], err)
		}

		var out []byte
		switch cfg.Output.Format {
		case "json":
			out, err = json.MarshalIndent(res, "", "  ")
		case "yaml":
			out, err = yaml.Marshal(res)
		default:
			out = formatPDFText(res, total)
		}
		if err != nil {
			return err
		}

		if cfg.Output.File != "" {
			return os.WriteFile(cfg.Output.File, out, 0o644)
		}
		fmt.Println(string(out))
		return nil
	},
}

func describePDFError(path string, err error) error {
	switch {
	case errors.Is(err, pdfdoc.ErrPasswordProtected):
		return fmt.Errorf("%s is password protected", path)
	case errors.Is(err, pdfdoc.ErrCorruptDocument):
		return fmt.Errorf("%s is not a readable PDF", path)
	}
	return err
}

func formatPDFText(res *pipeline.PDFResult, totalPages int) []byte {
	var b []byte
	b = fmt.Appendf(b, "# %s\n", res.Path)
	b = fmt.Appendf(b, "pages: %d of %d  type: %s  confidence: %.1f\n\n", len(res.Pages), totalPages, res.DocumentType, res.Confidence)
	for _, f := range res.Fields {
		b = fmt.Appendf(b, "%s: %s (%.0f)\n", f.Label, f.Value, f.Confidence)
	}
	b = fmt.Appendf(b, "\n%s\n", res.Text)
	return b
}

func init() {
	rootCmd.AddCommand(pdfCmd)

	pdfCmd.Flags().StringP("pages", "p", "", "page range, e.g. 1-3,5")
	pdfCmd.Flags().StringP("format", "f", "text", "output format (text, json, yaml)")
	pdfCmd.Flags().StringP("output", "o", "", "write results to file instead of stdout")
}
