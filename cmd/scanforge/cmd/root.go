package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/scanforge/scanforge/internal/config"
	"github.com/scanforge/scanforge/internal/version"
)

var (
	cfgFile      string
	configLoader *config.Loader
	globalConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "scanforge",
	Short: "Scanned document processing toolkit",
	Long: `scanforge enhances scanned document images, runs text recognition,
classifies the document and extracts structured fields.

Process a single image, a PDF, or whole directories of scans, or run
the HTTP server for remote processing.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg := GetConfig()

		level := slog.LevelInfo
		switch cfg.LogLevel {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
		if cfg.Verbose {
			level = slog.LevelDebug
		}

		handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
		slog.SetDefault(slog.New(handler))
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		showVersion, _ := cmd.Flags().GetBool("version")
		if showVersion {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
			return nil
		}
		return cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default searches ./scanforge.yaml, $HOME, /etc/scanforge)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.Flags().Bool("version", false, "print version information")

	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	configLoader = config.NewLoader()

	var err error
	if cfgFile != "" {
		globalConfig, err = configLoader.LoadWithFile(cfgFile)
	} else {
		globalConfig, err = configLoader.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}
}

// GetConfig re-unmarshals the configuration so values bound to
// command-line flags are reflected in the result.
func GetConfig() *config.Config {
	if configLoader == nil {
		initConfig()
	}
	cfg := config.DefaultConfig()
	if err := configLoader.Viper().Unmarshal(&cfg); err != nil {
		return globalConfig
	}
	if err := cfg.Validate(); err != nil {
		return globalConfig
	}
	return &cfg
}
