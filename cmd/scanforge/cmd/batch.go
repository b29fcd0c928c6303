package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/scanforge/scanforge/internal/batch"
)

var batchCmd = &cobra.Command{
	Use:   "batch <path>...",
	Short: "Process files and directories in parallel",
	Long: `Process a set of images and PDFs with a worker pool. Directories are
scanned for supported file types; include and exclude patterns filter
by base name.`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	PreRun: func(cmd *cobra.Command, args []string) {
		viper.BindPFlag("batch.workers", cmd.Flags().Lookup("workers"))
		viper.BindPFlag("batch.recursive", cmd.Flags().Lookup("recursive"))
		viper.BindPFlag("batch.include", cmd.Flags().Lookup("include"))
		viper.BindPFlag("batch.exclude", cmd.Flags().Lookup("exclude"))
		viper.BindPFlag("batch.continue_on_error", cmd.Flags().Lookup("continue-on-error"))
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

		quiet, _ := cmd.Flags().GetBool("quiet")
		pages, _ := cmd.Flags().GetString("pages")

		bc := &batch.Config{
			Workers:         cfg.Batch.Workers,
			Recursive:       cfg.Batch.Recursive,
			IncludePatterns: cfg.Batch.Include,
			ExcludePatterns: cfg.Batch.Exclude,
			ContinueOnError: cfg.Batch.ContinueOnError,
			PageRange:       pages,
			ShowProgress:    !quiet,
			Quiet:           quiet,
		}

		result, err := batch.ProcessBatch(cmd.Context(), pl, args, bc)
		if err != nil {
			return err
		}

		if err := result.SaveResults(cfg.Output.Format, cfg.Output.File, quiet); err != nil {
			return err
		}
		result.PrintStats(quiet)
		if result.Failed() > 0 {
			return fmt.Errorf("%d of %d files failed", result.Failed(), len(result.Files))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntP("workers", "w", 4, "number of parallel workers")
	batchCmd.Flags().BoolP("recursive", "r", false, "recurse into subdirectories")
	batchCmd.Flags().StringSlice("include", nil, "include glob patterns (base name)")
	batchCmd.Flags().StringSlice("exclude", nil, "exclude glob patterns (base name)")
	batchCmd.Flags().Bool("continue-on-error", true, "keep processing after a file fails")
	batchCmd.Flags().StringP("pages", "p", "", "page range applied to PDF inputs")
	batchCmd.Flags().StringP("format", "f", "text", "output format (text, json, csv, yaml)")
	batchCmd.Flags().StringP("output", "o", "", "write results to file instead of stdout")
	batchCmd.Flags().BoolP("quiet", "q", false, "suppress progress and status output")
}
