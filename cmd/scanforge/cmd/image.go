package cmd

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/scanforge/scanforge/internal/batch"
	"github.com/scanforge/scanforge/internal/storage"
)

var imageCmd = &cobra.Command{
	Use:   "image <file>...",
	Short: "Process scanned image files",
	Long: `Process one or more scanned images: the image is enhanced, text is
recognized and normalized, the document type is classified and
structured fields are extracted.`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	PreRun: func(cmd *cobra.Command, args []string) {
		viper.BindPFlag("output.format", cmd.Flags().Lookup("format"))
		viper.BindPFlag("output.file", cmd.Flags().Lookup("output"))
		viper.BindPFlag("pipeline.recognize.languages", cmd.Flags().Lookup("languages"))
		viper.BindPFlag("pipeline.recognize.dpi", cmd.Flags().Lookup("dpi"))
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

		var store *storage.Store
		if save, _ := cmd.Flags().GetBool("save"); save {
			store, err = storage.Open(cfg.Storage.Path, slog.Default())
			if err != nil {
				return err
			}
			defer store.Close()
		}

		quiet, _ := cmd.Flags().GetBool("quiet")
		start := time.Now()
		result := &batch.Result{WorkerCount: 1}
		for _, path := range args {
			doc, err := pl.ProcessFile(cmd.Context(), path)
			fr := batch.FileResult{Path: path, Result: doc}
			if err != nil {
				fr.Error = err.Error()
			}
			result.Files = append(result.Files, fr)

			if store != nil && err == nil {
				rec := &storage.ScanRecord{
					FileName:      filepath.Base(path),
					FileType:      strings.TrimPrefix(filepath.Ext(path), "."),
					ExtractedText: doc.Text,
					Confidence:    doc.Confidence,
					Fields:        doc.Fields,
				}
				if err := store.Save(cmd.Context(), rec); err != nil {
					slog.Warn("saving scan record failed", "file", path, "error", err)
				}
			}
		}
		result.Duration = time.Since(start)

		if err := result.SaveResults(cfg.Output.Format, cfg.Output.File, quiet); err != nil {
			return err
		}
		if result.Failed() > 0 {
			return fmt.Errorf("%d of %d files failed", result.Failed(), len(result.Files))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(imageCmd)

	imageCmd.Flags().StringP("format", "f", "text", "output format (text, json, csv, yaml)")
	imageCmd.Flags().StringP("output", "o", "", "write results to file instead of stdout")
	imageCmd.Flags().BoolP("quiet", "q", false, "suppress status output")
	imageCmd.Flags().StringSlice("languages", []string{"eng"}, "recognition languages")
	imageCmd.Flags().Int("dpi", 300, "source resolution hint")
	imageCmd.Flags().Bool("save", false, "persist results to the scan database")
}
