package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"

	"github.com/scanforge/scanforge/internal/enhance"
)

var enhanceCmd = &cobra.Command{
	Use:   "enhance <input> <output>",
	Short: "Enhance a scanned image without recognition",
	Long: `Apply the enhancement stages only: upscale, grayscale, adaptive
threshold, noise removal and sharpening. Writes the binarized result
to the output path.`,
	Args:         cobra.ExactArgs(2),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		ec := enhance.Config{
			ScaleFactor:     cfg.Pipeline.Enhance.ScaleFactor,
			ThresholdWindow: cfg.Pipeline.Enhance.ThresholdWindow,
			ThresholdBias:   float64(cfg.Pipeline.Enhance.ThresholdBias),
		}
		if v, _ := cmd.Flags().GetInt("scale"); cmd.Flags().Changed("scale") {
			ec.ScaleFactor = v
		}
		if v, _ := cmd.Flags().GetInt("window"); cmd.Flags().Changed("window") {
			ec.ThresholdWindow = v
		}
		if v, _ := cmd.Flags().GetInt("bias"); cmd.Flags().Changed("bias") {
			ec.ThresholdBias = float64(v)
		}

		enh, err := enhance.New(ec)
		if err != nil {
			return err
		}

		in, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening %s: %w", args[0], err)
		}
		defer in.Close()

		out, err := enh.EnhanceReader(in)
		if err != nil {
			return fmt.Errorf("enhancing %s: %w", args[0], err)
		}

		if err := imaging.Save(out, args[1]); err != nil {
			return fmt.Errorf("saving %s: %w", args[1], err)
		}

		quiet, _ := cmd.Flags().GetBool("quiet")
		if !quiet {
			name := strings.TrimSpace(args[1])
			fmt.Printf("enhanced %s -> %s (%dx%d)\n", args[0], name, out.Bounds().Dx(), out.Bounds().Dy())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(enhanceCmd)

	enhanceCmd.Flags().Int("scale", 2, "upscale factor")
	enhanceCmd.Flags().Int("window", 15, "adaptive threshold window size (odd)")
	enhanceCmd.Flags().Int("bias", 10, "adaptive threshold bias")
	enhanceCmd.Flags().BoolP("quiet", "q", false, "suppress status output")
}
