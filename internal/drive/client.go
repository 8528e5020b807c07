package drive

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2/google"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/teemow/zoomdrive/internal/instrumentation"
	"github.com/teemow/zoomdrive/internal/logging"
)

const (
	// FolderMimeType is the MIME type for Google Drive folders
	FolderMimeType = "application/vnd.google-apps.folder"
)

// Client wraps the Google Drive API service for the destination hierarchy.
type Client struct {
	service *drive.Service
	logger  *slog.Logger
	metrics *instrumentation.Metrics
}

// ClientOptions contains optional settings for a Client.
type ClientOptions struct {
	// Logger is the structured logger. Defaults to slog.Default().
	Logger *slog.Logger

	// Metrics is the instrumentation recorder. May be nil.
	Metrics *instrumentation.Metrics
}

// NewClient creates a new Google Drive client authenticated by a service
// account key file.
func NewClient(ctx context.Context, serviceAccountFile string, options *ClientOptions) (*Client, error) {
	data, err := os.ReadFile(serviceAccountFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read service account file %s: %w", serviceAccountFile, err)
	}

	creds, err := google.CredentialsFromJSON(ctx, data, drive.DriveScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse service account credentials: %w", err)
	}

	service, err := drive.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("failed to create Drive service: %w", err)
	}

	return NewClientWithService(service, options), nil
}

// NewClientWithService creates a Client around an existing Drive service.
// Used by tests to point at a fake API server.
func NewClientWithService(service *drive.Service, options *ClientOptions) *Client {
	c := &Client{service: service}

	if options != nil {
		c.logger = options.Logger
		c.metrics = options.Metrics
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}

	return c
}

// VerifyFolder checks that the given folder id exists and is accessible.
// Called once at startup against the destination root before any transfer.
func (c *Client) VerifyFolder(ctx context.Context, folderID string) (*FileInfo, error) {
	if folderID == "" {
		return nil, fmt.Errorf("folderID is required")
	}

	ctx, span := instrumentation.StartDriveSpan(ctx, "verifyFolder")
	defer span.End()
	start := time.Now()

	file, err := c.service.Files.Get(folderID).
		Context(ctx).
		Fields("id, name, mimeType").
		Do()
	if err != nil {
		instrumentation.SetSpanError(span, err)
		c.metrics.RecordDriveOperation(ctx, "verifyFolder", instrumentation.StatusError, time.Since(start))
		return nil, &Error{Op: "verifyFolder", Name: folderID, Err: err}
	}

	instrumentation.SetSpanSuccess(span)
	c.metrics.RecordDriveOperation(ctx, "verifyFolder", instrumentation.StatusSuccess, time.Since(start))
	return convertToFileInfo(file), nil
}

// EnsureFolder finds or creates a folder with the given name under parentID
// and returns its id. Resolution searches before creating: an existing,
// non-trashed folder with an exact name match under the same parent is
// reused, so at most one folder per (name, parent) pair is ever created.
//
// The run is sequential, so two resolutions cannot race; a concurrent caller
// would need a lock around this method to keep the uniqueness guarantee.
func (c *Client) EnsureFolder(ctx context.Context, name, parentID string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("folder name is required")
	}
	if parentID == "" {
		return "", fmt.Errorf("parentID is required")
	}

	ctx, span := instrumentation.StartDriveSpan(ctx, "resolveFolder")
	defer span.End()
	start := time.Now()

	id, err := c.findFolder(ctx, name, parentID)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		c.metrics.RecordDriveOperation(ctx, "resolveFolder", instrumentation.StatusError, time.Since(start))
		return "", &Error{Op: "resolveFolder", Name: name, Err: err}
	}
	if id != "" {
		instrumentation.SetSpanSuccess(span)
		c.metrics.RecordDriveOperation(ctx, "resolveFolder", instrumentation.StatusSuccess, time.Since(start))
		c.logger.Debug("reusing existing folder",
			logging.Operation("drive.resolveFolder"),
			logging.Folder(name))
		return id, nil
	}

	id, err = c.createFolder(ctx, name, parentID)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		c.metrics.RecordDriveOperation(ctx, "resolveFolder", instrumentation.StatusError, time.Since(start))
		c.logger.Error("failed to create folder",
			logging.Operation("drive.resolveFolder"),
			logging.Folder(name),
			logging.Err(err))
		return "", &Error{Op: "resolveFolder", Name: name, Err: err}
	}

	instrumentation.SetSpanSuccess(span)
	c.metrics.RecordDriveOperation(ctx, "resolveFolder", instrumentation.StatusSuccess, time.Since(start))
	c.logger.Info("created folder",
		logging.Operation("drive.resolveFolder"),
		logging.Folder(name),
		slog.String("folder_id", id))
	return id, nil
}

// findFolder searches for an existing, non-trashed folder with an exact
// name match under parentID. Returns "" when none exists.
func (c *Client) findFolder(ctx context.Context, name, parentID string) (string, error) {
	query := fmt.Sprintf("mimeType='%s' and name='%s' and '%s' in parents and trashed=false",
		FolderMimeType, escapeQueryTerm(name), escapeQueryTerm(parentID))

	fileList, err := c.service.Files.List().
		Context(ctx).
		Q(query).
		Fields("files(id, name)").
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to search for folder: %w", err)
	}

	if len(fileList.Files) == 0 {
		return "", nil
	}
	return fileList.Files[0].Id, nil
}

// createFolder creates a new folder under parentID and returns its id.
func (c *Client) createFolder(ctx context.Context, name, parentID string) (string, error) {
	file := &drive.File{
		Name:     name,
		MimeType: FolderMimeType,
		Parents:  []string{parentID},
	}

	driveFile, err := c.service.Files.Create(file).
		Context(ctx).
		Fields("id").
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to create folder: %w", err)
	}

	return driveFile.Id, nil
}

// DeleteFile deletes a file from Google Drive. Used to clean up partially
// created remote objects on the failed upload path.
func (c *Client) DeleteFile(ctx context.Context, fileID string) error {
	if fileID == "" {
		return fmt.Errorf("fileID is required")
	}

	ctx, span := instrumentation.StartDriveSpan(ctx, "delete")
	defer span.End()
	start := time.Now()

	err := c.service.Files.Delete(fileID).Context(ctx).Do()
	if err != nil {
		instrumentation.SetSpanError(span, err)
		c.metrics.RecordDriveOperation(ctx, "delete", instrumentation.StatusError, time.Since(start))
		return &Error{Op: "delete", Name: fileID, Err: err}
	}

	instrumentation.SetSpanSuccess(span)
	c.metrics.RecordDriveOperation(ctx, "delete", instrumentation.StatusSuccess, time.Since(start))
	return nil
}

// escapeQueryTerm escapes a value for the Drive query language. Folder names
// here are date strings, but the query is still built defensively.
func escapeQueryTerm(term string) string {
	term = strings.ReplaceAll(term, `\`, `\\`)
	term = strings.ReplaceAll(term, `'`, `\'`)
	return term
}

// convertToFileInfo converts a Drive API File to our FileInfo type.
func convertToFileInfo(f *drive.File) *FileInfo {
	return &FileInfo{
		ID:       f.Id,
		Name:     f.Name,
		MimeType: f.MimeType,
		Size:     f.Size,
		Parents:  f.Parents,
	}
}
