// Package syncer orchestrates a sync run: it builds the recording catalog
// from Zoom, downloads each asset into the local staging area, mirrors the
// per-day folder layout in Google Drive, uploads, and writes the CSV report.
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/teemow/zoomdrive/internal/drive"
	"github.com/teemow/zoomdrive/internal/export"
	"github.com/teemow/zoomdrive/internal/instrumentation"
	"github.com/teemow/zoomdrive/internal/logging"
	"github.com/teemow/zoomdrive/internal/staging"
	"github.com/teemow/zoomdrive/internal/transfer"
	"github.com/teemow/zoomdrive/internal/zoom"
)

// Catalog lists meetings and their cloud recordings.
type Catalog interface {
	ListMeetings(ctx context.Context) ([]zoom.Meeting, error)
	ListRecordings(ctx context.Context, meetingID string) ([]zoom.Recording, error)
	GetMeeting(ctx context.Context, meetingID string) zoom.Meeting
	AuthHeader(ctx context.Context) (string, error)
}

// Downloader fetches a recording asset to a local path.
type Downloader interface {
	Download(ctx context.Context, url, destPath, authHeader string, progress transfer.ProgressFunc) (string, error)
}

// Storage is the destination side: folder resolution and uploads.
type Storage interface {
	VerifyFolder(ctx context.Context, folderID string) (*drive.FileInfo, error)
	EnsureFolder(ctx context.Context, name, parentID string) (string, error)
	UploadFile(ctx context.Context, localPath, folderID string, progress drive.ProgressFunc) (string, error)
}

// Options configures a Syncer.
type Options struct {
	Catalog    Catalog
	Downloader Downloader
	Storage    Storage

	// DownloadDir is the local staging root.
	DownloadDir string

	// RootFolderID is the Drive folder date folders are created under.
	// Required for full sync, unused in export- or download-only runs.
	RootFolderID string

	// ExportFile is the CSV report path.
	ExportFile string

	Logger  *slog.Logger
	Metrics *instrumentation.Metrics
}

// Syncer runs the recording pipeline.
type Syncer struct {
	catalog    Catalog
	downloader Downloader
	storage    Storage

	downloadDir  string
	rootFolderID string
	exportFile   string

	logger  *slog.Logger
	metrics *instrumentation.Metrics
}

// Result summarizes a run. Per-item failures are counted, not returned; only
// catalog listing failures abort a run.
type Result struct {
	Meetings   int
	Recordings int
	Downloaded int
	Uploaded   int
	Skipped    int
	Exported   int
	Bytes      int64
	Elapsed    time.Duration
}

// New creates a Syncer. Catalog is always required; Downloader and Storage
// are only needed for the modes that use them.
func New(options Options) (*Syncer, error) {
	if options.Catalog == nil {
		return nil, fmt.Errorf("catalog is required")
	}

	s := &Syncer{
		catalog:      options.Catalog,
		downloader:   options.Downloader,
		storage:      options.Storage,
		downloadDir:  options.DownloadDir,
		rootFolderID: options.RootFolderID,
		exportFile:   options.ExportFile,
		logger:       options.Logger,
		metrics:      options.Metrics,
	}
	if s.downloadDir == "" {
		s.downloadDir = "Downloads"
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s, nil
}

// item is one downloadable asset with its staging path resolved.
type item struct {
	meeting   zoom.Meeting
	recording zoom.Recording
	localPath string
}

// Run performs a full sync: catalog, download, upload, report.
func (s *Syncer) Run(ctx context.Context) (*Result, error) {
	if s.downloader == nil || s.storage == nil {
		return nil, fmt.Errorf("downloader and storage are required for a full sync")
	}
	if s.rootFolderID == "" {
		return nil, fmt.Errorf("root folder id is required for a full sync")
	}

	start := time.Now()
	result := &Result{}

	if _, err := s.storage.VerifyFolder(ctx, s.rootFolderID); err != nil {
		return nil, fmt.Errorf("destination folder check failed: %w", err)
	}

	items, rows, err := s.buildCatalog(ctx, result)
	if err != nil {
		return nil, err
	}

	for _, it := range items {
		if err := s.syncItem(ctx, it, result); err != nil {
			result.Skipped++
			s.logger.Error("skipping recording",
				logging.MeetingID(string(it.meeting.ID)),
				logging.RecordingID(string(it.recording.ID)),
				logging.Status(logging.StatusSkipped),
				logging.Err(err))
			continue
		}
		s.metrics.RecordRecordingSynced(ctx)
	}

	if err := s.export(rows, result); err != nil {
		result.Skipped++
		s.logger.Error("failed to write export", logging.Err(err))
	}

	result.Elapsed = time.Since(start)
	s.logResult(result)
	return result, nil
}

// Export builds the catalog and writes the CSV report without transferring
// anything.
func (s *Syncer) Export(ctx context.Context) (*Result, error) {
	start := time.Now()
	result := &Result{}

	_, rows, err := s.buildCatalog(ctx, result)
	if err != nil {
		return nil, err
	}
	if err := s.export(rows, result); err != nil {
		return nil, err
	}

	result.Elapsed = time.Since(start)
	s.logResult(result)
	return result, nil
}

// Download builds the catalog and stages every asset locally without
// uploading.
func (s *Syncer) Download(ctx context.Context) (*Result, error) {
	if s.downloader == nil {
		return nil, fmt.Errorf("downloader is required for a download run")
	}

	start := time.Now()
	result := &Result{}

	items, _, err := s.buildCatalog(ctx, result)
	if err != nil {
		return nil, err
	}

	for _, it := range items {
		if err := s.download(ctx, it, result); err != nil {
			result.Skipped++
			s.logger.Error("skipping recording",
				logging.MeetingID(string(it.meeting.ID)),
				logging.RecordingID(string(it.recording.ID)),
				logging.Status(logging.StatusSkipped),
				logging.Err(err))
		}
	}

	result.Elapsed = time.Since(start)
	s.logResult(result)
	return result, nil
}

// buildCatalog lists meetings and recordings and resolves staging paths.
// A meeting listing failure aborts the run; recording listings have already
// been absorbed to empty by the catalog client.
func (s *Syncer) buildCatalog(ctx context.Context, result *Result) ([]item, []export.Row, error) {
	meetings, err := s.catalog.ListMeetings(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list meetings: %w", err)
	}
	result.Meetings = len(meetings)

	var items []item
	var rows []export.Row
	for _, meeting := range meetings {
		recordings, err := s.catalog.ListRecordings(ctx, string(meeting.ID))
		if err != nil {
			s.logger.Error("failed to list recordings",
				logging.MeetingID(string(meeting.ID)),
				logging.Status(logging.StatusSkipped),
				logging.Err(err))
			continue
		}
		if len(recordings) == 0 {
			continue
		}

		meeting = s.enrich(ctx, meeting)

		s.logger.Debug("cataloged meeting",
			logging.MeetingID(string(meeting.ID)),
			logging.Domain(meeting.HostEmail),
			slog.Int("recordings", len(recordings)))

		for _, rec := range recordings {
			result.Recordings++
			rows = append(rows, export.Row{Meeting: meeting, Recording: rec})
			items = append(items, item{
				meeting:   meeting,
				recording: rec,
				localPath: staging.Path(s.downloadDir, meeting.Topic, s.startTime(meeting, rec), rec.Extension()),
			})
		}
	}

	return items, rows, nil
}

// enrich fills in meeting details that the listing response left blank.
// Detail lookups are best-effort; the listed fields win when present.
func (s *Syncer) enrich(ctx context.Context, meeting zoom.Meeting) zoom.Meeting {
	if meeting.Topic != "" && meeting.HostEmail != "" && !meeting.StartTime.IsZero() {
		return meeting
	}

	detail := s.catalog.GetMeeting(ctx, string(meeting.ID))
	if detail.IsZero() {
		return meeting
	}
	if meeting.Topic == "" {
		meeting.Topic = detail.Topic
	}
	if meeting.HostEmail == "" {
		meeting.HostEmail = detail.HostEmail
	}
	if meeting.Timezone == "" {
		meeting.Timezone = detail.Timezone
	}
	if meeting.StartTime.IsZero() {
		meeting.StartTime = detail.StartTime
	}
	return meeting
}

// startTime picks the timestamp recordings are named and grouped by. Each
// asset carries its own recording start, which keeps two assets of the same
// meeting on distinct staging paths; the scheduled meeting time is only a
// fallback when the asset has no timestamp.
func (s *Syncer) startTime(meeting zoom.Meeting, rec zoom.Recording) time.Time {
	if !rec.RecordingStart.IsZero() {
		return rec.RecordingStart
	}
	return meeting.StartTime
}

// syncItem downloads one asset, mirrors its date folder remotely, uploads,
// and removes the staging copy. The staging file survives a failed upload so
// the next run can retry without re-downloading.
func (s *Syncer) syncItem(ctx context.Context, it item, result *Result) error {
	if err := s.download(ctx, it, result); err != nil {
		return err
	}

	folderID, err := s.storage.EnsureFolder(ctx, staging.DateFolder(s.startTime(it.meeting, it.recording)), s.rootFolderID)
	if err != nil {
		return err
	}

	if _, err := s.storage.UploadFile(ctx, it.localPath, folderID, s.uploadProgress(it)); err != nil {
		return err
	}
	result.Uploaded++

	if err := os.Remove(it.localPath); err != nil {
		s.logger.Warn("failed to remove staging file",
			logging.Path(it.localPath),
			logging.Err(err))
	}
	return nil
}

// download stages one asset locally. An existing staging file from an
// earlier run is reused as-is.
func (s *Syncer) download(ctx context.Context, it item, result *Result) error {
	if info, err := os.Stat(it.localPath); err == nil && info.Size() > 0 {
		s.logger.Info("staging file already present",
			logging.Path(it.localPath),
			logging.Bytes(info.Size()))
		return nil
	}

	header, err := s.catalog.AuthHeader(ctx)
	if err != nil {
		return fmt.Errorf("failed to get download authorization: %w", err)
	}

	path, err := s.downloader.Download(ctx, it.recording.DownloadURL, it.localPath, header, s.downloadProgress(it))
	if err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("downloaded file missing: %w", err)
	}
	result.Downloaded++
	result.Bytes += info.Size()
	return nil
}

func (s *Syncer) downloadProgress(it item) transfer.ProgressFunc {
	logger := s.logger
	return func(transferred, total int64) {
		logger.Debug("downloading",
			logging.RecordingID(string(it.recording.ID)),
			logging.Bytes(transferred),
			slog.Int64("total", total))
	}
}

func (s *Syncer) uploadProgress(it item) drive.ProgressFunc {
	logger := s.logger
	return func(transferred, total int64) {
		logger.Debug("uploading",
			logging.RecordingID(string(it.recording.ID)),
			logging.Bytes(transferred),
			slog.Int64("total", total))
	}
}

func (s *Syncer) export(rows []export.Row, result *Result) error {
	if s.exportFile == "" {
		return nil
	}
	if err := export.WriteCSV(s.exportFile, rows); err != nil {
		return err
	}
	if len(rows) > 0 {
		result.Exported = len(rows)
		s.logger.Info("wrote export",
			logging.Path(s.exportFile),
			slog.Int("rows", len(rows)))
	} else {
		s.logger.Info("catalog empty, no export written")
	}
	return nil
}

func (s *Syncer) logResult(result *Result) {
	s.logger.Info("run complete",
		slog.Int("meetings", result.Meetings),
		slog.Int("recordings", result.Recordings),
		slog.Int("downloaded", result.Downloaded),
		slog.Int("uploaded", result.Uploaded),
		slog.Int("skipped", result.Skipped),
		slog.Int("exported", result.Exported),
		logging.Bytes(result.Bytes),
		logging.Duration(result.Elapsed))
}
