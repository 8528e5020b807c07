package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teemow/zoomdrive/internal/syncer"
	"github.com/teemow/zoomdrive/internal/transfer"
)

func newDownloadCmd() *cobra.Command {
	flags := &syncFlags{}

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download cloud recordings into the local staging directory",
		Long: `Download every cloud recording of the configured Zoom account into the
local staging directory, one subdirectory per meeting day, without
uploading anything. Files that are already staged are left alone.`,
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
				Catalog:     zoomClient,
				Downloader:  transfer.NewDownloader(&transfer.DownloaderOptions{Logger: logger}),
				DownloadDir: cfg.Local.DownloadDir,
				Logger:      logger,
			})
			if err != nil {
				return err
			}

			result, err := s.Download(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Downloaded %d of %d recordings to %s (%d skipped)\n",
				result.Downloaded, result.Recordings, cfg.Local.DownloadDir, result.Skipped)
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}
