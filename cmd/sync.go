package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/teemow/zoomdrive/internal/config"
	"github.com/teemow/zoomdrive/internal/drive"
	"github.com/teemow/zoomdrive/internal/instrumentation"
	"github.com/teemow/zoomdrive/internal/syncer"
	"github.com/teemow/zoomdrive/internal/transfer"
	"github.com/teemow/zoomdrive/internal/zoom"
)

// syncFlags are the flags shared by the sync, export, and download commands.
type syncFlags struct {
	configFile  string
	debug       bool
	downloadDir string
	exportFile  string
	folderID    string
}

func (f *syncFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.configFile, "config", "", "Path to config file (default: zoomdrive.yaml in the working directory)")
	cmd.Flags().BoolVar(&f.debug, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&f.downloadDir, "download-dir", "", "Local staging directory. Can also use ZOOMDRIVE_DOWNLOAD_DIR env var.")
	cmd.Flags().StringVar(&f.exportFile, "export-file", "", "CSV catalog export path. Can also use ZOOMDRIVE_EXPORT_FILE env var.")
}

// load reads the configuration and applies flag overrides.
func (f *syncFlags) load() (*config.Config, error) {
	cfg, err := config.Load(f.configFile)
	if err != nil {
		return nil, err
	}
	if f.downloadDir != "" {
		cfg.Local.DownloadDir = f.downloadDir
	}
	if f.exportFile != "" {
		cfg.Local.ExportFile = f.exportFile
	}
	if f.folderID != "" {
		cfg.Drive.FolderID = f.folderID
	}
	return cfg, nil
}

func newSyncCmd() *cobra.Command {
	flags := &syncFlags{}
	var (
		metricsEnabled bool
		metricsAddr    string
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Download Zoom cloud recordings and upload them to Google Drive",
		Long: `Discover the cloud recordings of the configured Zoom account, download
each one into the local staging directory, upload it into a per-day
folder under the configured Google Drive folder, and write a CSV
catalog of everything that was found.

Recordings that fail to transfer are logged and skipped; the run
continues with the next one.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			if err := cfg.ValidateZoom(); err != nil {
				return err
			}
			if err := cfg.ValidateDrive(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			logger := newLogger(flags.debug)
			slog.SetDefault(logger)

			provider, err := newProvider(ctx, logger)
			if err != nil {
				return err
			}
			defer shutdownProvider(provider, logger)

			if metricsEnabled && provider.HasPrometheusExporter() {
				startMetricsServer(metricsAddr, logger)
			}

			s, err := buildSyncer(ctx, cfg, logger, provider)
			if err != nil {
				return err
			}

			result, err := s.Run(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Synced %d of %d recordings (%d meetings, %d skipped)\n",
				result.Uploaded, result.Recordings, result.Meetings, result.Skipped)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&flags.folderID, "folder-id", "", "Destination Google Drive folder id. Can also use GOOGLE_DRIVE_FOLDER_ID env var.")
	cmd.Flags().BoolVar(&metricsEnabled, "metrics-enabled", false, "Expose Prometheus metrics during the run")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", ":9090", "Metrics server address")

	return cmd
}

// newProvider initializes the instrumentation provider from the environment.
func newProvider(ctx context.Context, logger *slog.Logger) (*instrumentation.Provider, error) {
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version
	provider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize instrumentation: %w", err)
	}
	if provider.Enabled() {
		logger.Debug("instrumentation enabled",
			slog.String("metrics_exporter", instrConfig.MetricsExporter),
			slog.String("tracing_exporter", instrConfig.TracingExporter))
	}
	return provider, nil
}

func shutdownProvider(provider *instrumentation.Provider, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := provider.Shutdown(ctx); err != nil {
		logger.Warn("instrumentation shutdown failed", slog.Any("error", err))
	}
}

// startMetricsServer exposes the Prometheus registry on /metrics for the
// duration of the run. Sync runs are batch jobs, so the server is not
// drained on exit.
func startMetricsServer(addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Warn("metrics server failed", slog.Any("error", err))
		}
	}()
	logger.Info("metrics server listening", slog.String("addr", addr))
}

// buildSyncer wires the Zoom catalog, the downloader, and the Drive storage
// into a Syncer.
func buildSyncer(ctx context.Context, cfg *config.Config, logger *slog.Logger, provider *instrumentation.Provider) (*syncer.Syncer, error) {
	metrics := provider.Metrics()

	zoomClient, err := newZoomClient(ctx, cfg, logger, metrics)
	if err != nil {
		return nil, err
	}

	driveClient, err := drive.NewClient(ctx, cfg.Drive.ServiceAccountFile, &drive.ClientOptions{
		Logger:  logger,
		Metrics: metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Drive client: %w", err)
	}

	downloader := transfer.NewDownloader(&transfer.DownloaderOptions{
		Logger:  logger,
		Metrics: metrics,
	})

	return syncer.New(syncer.Options{
		Catalog:      zoomClient,
		Downloader:   downloader,
		Storage:      driveClient,
		DownloadDir:  cfg.Local.DownloadDir,
		RootFolderID: cfg.Drive.FolderID,
		ExportFile:   cfg.Local.ExportFile,
		Logger:       logger,
		Metrics:      metrics,
	})
}

// newZoomClient builds the Zoom API client from the configured
// server-to-server OAuth credentials.
func newZoomClient(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *instrumentation.Metrics) (*zoom.Client, error) {
	tokens := zoom.NewTokenSource(ctx, zoom.Credentials{
		ClientID:     cfg.Zoom.ClientID,
		ClientSecret: cfg.Zoom.ClientSecret,
		AccountID:    cfg.Zoom.AccountID,
	})

	client, err := zoom.NewClient(tokens, &zoom.ClientOptions{
		Logger:  logger,
		Metrics: metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Zoom client: %w", err)
	}
	return client, nil
}
