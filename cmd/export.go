package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teemow/zoomdrive/internal/syncer"
)

func newExportCmd() *cobra.Command {
	flags := &syncFlags{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the recording catalog to CSV without transferring anything",
		Long: `Build the catalog of cloud recordings for the configured Zoom account
and write it to a CSV file, one row per recording asset. If the account
has no recordings, no file is written.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			if err := cfg.ValidateZoom(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			logger := newLogger(flags.debug)
			slog.SetDefault(logger)

			zoomClient, err := newZoomClient(ctx, cfg, logger, nil)
			if err != nil {
				return err
			}

			s, err := syncer.New(syncer.Options{
				Catalog:    zoomClient,
				ExportFile: cfg.Local.ExportFile,
				Logger:     logger,
			})
			if err != nil {
				return err
			}

			result, err := s.Export(ctx)
			if err != nil {
				return err
			}
			if result.Exported == 0 {
				fmt.Println("No recordings found, nothing exported")
			} else {
				fmt.Printf("Exported %d recordings to %s\n", result.Exported, cfg.Local.ExportFile)
			}
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}
