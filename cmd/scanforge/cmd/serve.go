package cmd

import (
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/scanforge/scanforge/internal/server"
	"github.com/scanforge/scanforge/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP processing server",
	Long: `Start an HTTP server exposing the processing pipeline: image, PDF
and text endpoints under /v1, a websocket progress endpoint, health
and Prometheus metrics. With storage enabled, results are persisted
and served under /v1/scans.`,
	SilenceUsage: true,
	PreRun: func(cmd *cobra.Command, args []string) {
		viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))
		viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
		viper.BindPFlag("storage.enabled", cmd.Flags().Lookup("store"))
		viper.BindPFlag("storage.path", cmd.Flags().Lookup("store-path"))
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		pl, err := buildPipeline(cfg)
		if err != nil {
			return err
		}

		var store *storage.Store
		if cfg.Storage.Enabled {
			store, err = storage.Open(cfg.Storage.Path, slog.Default())
			if err != nil {
				return err
			}
			defer store.Close()
			slog.Info("scan storage enabled", "path", cfg.Storage.Path)
		}

		srv := server.New(server.Config{
			Host:            cfg.Server.Host,
			Port:            cfg.Server.Port,
			MaxUploadMB:     int64(cfg.Server.MaxUploadMB),
			TimeoutSec:      cfg.Server.TimeoutSec,
			ShutdownTimeout: cfg.Server.ShutdownTimeout,
		}, pl, store)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		slog.Info("starting server", "host", cfg.Server.Host, "port", cfg.Server.Port)
		return srv.ListenAndServe(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "0.0.0.0", "listen address")
	serveCmd.Flags().Int("port", 8080, "listen port")
	serveCmd.Flags().Bool("store", false, "persist processed scans to the local database")
	serveCmd.Flags().String("store-path", "scanforge.db", "scan database path")
}
