package drive

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"

	"github.com/teemow/zoomdrive/internal/instrumentation"
	"github.com/teemow/zoomdrive/internal/logging"
)

// UploadChunkSize is the resumable upload chunk size.
const UploadChunkSize = 1024 * 1024

// DefaultUploadMimeType is used when the file extension is unknown.
const DefaultUploadMimeType = "video/mp4"

var mimeTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4a":  "audio/mp4",
	".txt":  "text/plain",
	".vtt":  "text/vtt",
	".json": "application/json",
	".csv":  "text/csv",
}

// Upload tracks a single resumable upload through its lifecycle.
type Upload struct {
	state  UploadState
	fileID string
}

// State returns the current lifecycle state of the upload.
func (u *Upload) State() UploadState {
	return u.state
}

// FileID returns the remote file id once the upload is done.
func (u *Upload) FileID() string {
	return u.fileID
}

// UploadFile uploads a local file into folderID using resumable chunks and
// returns the remote file id. progress may be nil.
//
// The upload is verified with a metadata read after the final chunk. On any
// failure the upload ends in UploadFailed and a partially created remote
// object, if one exists, is deleted best-effort; the local file is never
// touched.
func (c *Client) UploadFile(ctx context.Context, localPath, folderID string, progress ProgressFunc) (string, error) {
	upload := &Upload{state: UploadPending}
	id, err := c.uploadFile(ctx, upload, localPath, folderID, progress)
	if err != nil {
		upload.state = UploadFailed
		if upload.fileID != "" {
			// The remote object exists but could not be verified. Remove it
			// so a retry starts clean; failure to remove is logged only.
			if delErr := c.DeleteFile(ctx, upload.fileID); delErr != nil {
				c.logger.Warn("failed to remove partial upload",
					logging.Operation("drive.upload"),
					slog.String("file_id", upload.fileID),
					logging.Err(delErr))
			}
		}
		return "", err
	}

	upload.state = UploadDone
	upload.fileID = id
	return id, nil
}

func (c *Client) uploadFile(ctx context.Context, upload *Upload, localPath, folderID string, progress ProgressFunc) (string, error) {
	if folderID == "" {
		return "", fmt.Errorf("folderID is required")
	}

	ctx, span := instrumentation.StartDriveSpan(ctx, "upload")
	defer span.End()
	start := time.Now()

	fail := func(err error) (string, error) {
		instrumentation.SetSpanError(span, err)
		c.metrics.RecordDriveOperation(ctx, "upload", instrumentation.StatusError, time.Since(start))
		c.metrics.RecordTransfer(ctx, instrumentation.DirectionUpload, instrumentation.StatusError, time.Since(start))
		return "", &Error{Op: "upload", Name: filepath.Base(localPath), Err: err}
	}

	f, err := os.Open(localPath)
	if err != nil {
		return fail(fmt.Errorf("failed to open local file: %w", err))
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return fail(fmt.Errorf("failed to stat local file: %w", err))
	}
	total := stat.Size()

	name := filepath.Base(localPath)
	meta := &drive.File{
		Name:    name,
		Parents: []string{folderID},
	}

	c.logger.Info("starting upload",
		logging.Operation("drive.upload"),
		logging.Path(localPath),
		logging.Bytes(total))

	upload.state = UploadInProgress

	var transferred int64
	call := c.service.Files.Create(meta).
		Context(ctx).
		Media(f, googleapi.ContentType(mimeTypeFor(name)), googleapi.ChunkSize(UploadChunkSize)).
		Fields("id").
		ProgressUpdater(func(current, size int64) {
			delta := current - transferred
			transferred = current
			if delta > 0 {
				c.metrics.AddTransferBytes(ctx, instrumentation.DirectionUpload, delta)
			}
			if progress != nil {
				progress(current, total)
			}
		})

	created, err := call.Do()
	if err != nil {
		return fail(fmt.Errorf("failed to upload file: %w", err))
	}
	upload.fileID = created.Id

	// Confirm the object is readable before reporting success; a verified id
	// is what allows the caller to delete the local staging copy.
	if _, err := c.service.Files.Get(created.Id).Context(ctx).Fields("id, size").Do(); err != nil {
		return fail(fmt.Errorf("failed to verify uploaded file: %w", err))
	}

	instrumentation.SetSpanSuccess(span)
	c.metrics.RecordDriveOperation(ctx, "upload", instrumentation.StatusSuccess, time.Since(start))
	c.metrics.RecordTransfer(ctx, instrumentation.DirectionUpload, instrumentation.StatusSuccess, time.Since(start))

	c.logger.Info("upload complete",
		logging.Operation("drive.upload"),
		logging.Path(localPath),
		slog.String("file_id", created.Id),
		logging.Bytes(total),
		logging.Duration(time.Since(start)))

	return created.Id, nil
}

// mimeTypeFor maps a file name to a MIME type by extension.
func mimeTypeFor(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if mt, ok := mimeTypes[ext]; ok {
		return mt
	}
	return DefaultUploadMimeType
}
