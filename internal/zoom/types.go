package zoom

import (
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"time"
)

// DefaultExtension is assumed when a download URL carries no file extension.
const DefaultExtension = ".mp4"

// ID is a meeting or recording identifier. The Zoom API serializes meeting
// ids as JSON numbers and recording ids as strings; ID accepts both.
type ID string

// UnmarshalJSON implements json.Unmarshaler.
func (i *ID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*i = ID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*i = ID(n.String())
	return nil
}

// String returns the identifier as a string.
func (i ID) String() string {
	return string(i)
}

// Meeting is a read-only snapshot of a meeting as reported by the Zoom API.
type Meeting struct {
	// ID is the meeting identifier, unique within the account
	ID ID `json:"id"`

	// Topic is the meeting topic
	Topic string `json:"topic"`

	// HostEmail is the email address of the meeting host (optional)
	HostEmail string `json:"host_email,omitempty"`

	// Timezone is the meeting timezone (optional)
	Timezone string `json:"timezone,omitempty"`

	// StartTime is the scheduled start of the meeting
	StartTime time.Time `json:"start_time"`
}

// IsZero reports whether the meeting carries no data, the shape returned
// when metadata enrichment fails.
func (m Meeting) IsZero() bool {
	return m.ID == "" && m.Topic == "" && m.HostEmail == ""
}

// Recording is a single recording asset of a meeting.
type Recording struct {
	// ID is the recording identifier, unique within the meeting
	ID ID `json:"id"`

	// MeetingID is the id of the meeting this recording belongs to
	MeetingID ID `json:"meeting_id,omitempty"`

	// DownloadURL is an opaque, time-limited URL for the recording content
	DownloadURL string `json:"download_url"`

	// RecordingStart is when the recording started
	RecordingStart time.Time `json:"recording_start"`

	// RecordingEnd is when the recording ended. May be absent for
	// recordings still being processed; absence is a valid state.
	RecordingEnd time.Time `json:"recording_end,omitempty"`

	// FileType is the Zoom-reported file type (MP4, M4A, CHAT, ...)
	FileType string `json:"file_type,omitempty"`
}

// Duration returns the recording length and whether it is computable.
// It is only computable when both endpoints are present and ordered;
// a missing recording end is a valid state, not an error.
func (r Recording) Duration() (time.Duration, bool) {
	if r.RecordingStart.IsZero() || r.RecordingEnd.IsZero() {
		return 0, false
	}
	if r.RecordingEnd.Before(r.RecordingStart) {
		return 0, false
	}
	return r.RecordingEnd.Sub(r.RecordingStart), true
}

// Extension infers the file extension from the download URL path,
// falling back to DefaultExtension when the URL carries none.
func (r Recording) Extension() string {
	u, err := url.Parse(r.DownloadURL)
	if err != nil {
		return DefaultExtension
	}
	if ext := path.Ext(u.Path); ext != "" {
		return ext
	}
	return DefaultExtension
}

// AuthError indicates that acquiring a Zoom access token failed. Token
// acquisition failure is fatal to the calling stage; there is no retry.
type AuthError struct {
	// Err is the underlying error
	Err error
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	return fmt.Sprintf("zoom auth: %v", e.Err)
}

// Unwrap implements the errors.Unwrap interface.
func (e *AuthError) Unwrap() error {
	return e.Err
}

// APIError represents a failed Zoom API request.
type APIError struct {
	// Op is the operation that failed (e.g., "listMeetings", "listRecordings")
	Op string

	// MeetingID is the meeting the operation referred to, if any
	MeetingID string

	// StatusCode is the HTTP status returned by the API, 0 for transport errors
	StatusCode int

	// Err is the underlying error
	Err error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.MeetingID != "" {
		return fmt.Sprintf("zoom %s (meeting: %s): %v", e.Op, e.MeetingID, e.Err)
	}
	return fmt.Sprintf("zoom %s: %v", e.Op, e.Err)
}

// Unwrap implements the errors.Unwrap interface.
func (e *APIError) Unwrap() error {
	return e.Err
}
