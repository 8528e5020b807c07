package drive

import "fmt"

// FileInfo represents metadata about a file or folder in Google Drive.
type FileInfo struct {
	// ID is the unique identifier for the file
	ID string `json:"id"`

	// Name is the name of the file
	Name string `json:"name"`

	// MimeType is the MIME type of the file
	MimeType string `json:"mimeType"`

	// Size is the size of the file in bytes (not populated for folders)
	Size int64 `json:"size,omitempty"`

	// Parents are the IDs of the parent folders
	Parents []string `json:"parents,omitempty"`
}

// UploadState tracks a resumable upload through its lifecycle.
type UploadState int

const (
	// UploadPending means no chunk has been sent yet.
	UploadPending UploadState = iota

	// UploadInProgress means at least one chunk has been accepted.
	UploadInProgress

	// UploadDone means the service signalled completion.
	UploadDone

	// UploadFailed is the terminal state for an aborted upload. Any
	// partially created remote object is deleted best-effort.
	UploadFailed
)

// String returns a human-readable state name.
func (s UploadState) String() string {
	switch s {
	case UploadPending:
		return "pending"
	case UploadInProgress:
		return "in_progress"
	case UploadDone:
		return "done"
	case UploadFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ProgressFunc receives cumulative upload progress. total is the size of the
// local file.
type ProgressFunc func(transferred, total int64)

// Error represents an error that occurred during Drive operations.
type Error struct {
	// Op is the operation that failed (e.g., "resolveFolder", "upload")
	Op string

	// Name is the folder name or file path the operation referred to
	Name string

	// Err is the underlying error
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("drive %s (%s): %v", e.Op, e.Name, e.Err)
	}
	return fmt.Sprintf("drive %s: %v", e.Op, e.Err)
}

// Unwrap implements the errors.Unwrap interface.
func (e *Error) Unwrap() error {
	return e.Err
}
