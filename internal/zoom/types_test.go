package zoom

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDUnmarshal(t *testing.T) {
	var m Meeting
	// Zoom serializes meeting ids as JSON numbers
	err := json.Unmarshal([]byte(`{"id": 100, "topic": "Standup"}`), &m)
	require.NoError(t, err)
	assert.Equal(t, "100", m.ID.String())

	var r Recording
	// Recording ids are strings
	err = json.Unmarshal([]byte(`{"id": "r1"}`), &r)
	require.NoError(t, err)
	assert.Equal(t, "r1", r.ID.String())
}

func TestIDUnmarshalInvalid(t *testing.T) {
	var id ID
	err := json.Unmarshal([]byte(`{"nested": true}`), &id)
	assert.Error(t, err)
}

func TestRecordingDuration(t *testing.T) {
	start := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 2, 10, 30, 0, 0, time.UTC)

	r := Recording{RecordingStart: start, RecordingEnd: end}
	d, ok := r.Duration()
	require.True(t, ok)
	assert.Equal(t, 30*time.Minute, d)
	assert.GreaterOrEqual(t, d, time.Duration(0))
}

func TestRecordingDurationMissingEnd(t *testing.T) {
	// A missing recording end is a valid state, not an error.
	r := Recording{RecordingStart: time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)}
	_, ok := r.Duration()
	assert.False(t, ok)
}

func TestRecordingDurationReversed(t *testing.T) {
	r := Recording{
		RecordingStart: time.Date(2024, 1, 2, 11, 0, 0, 0, time.UTC),
		RecordingEnd:   time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC),
	}
	_, ok := r.Duration()
	assert.False(t, ok)
}

func TestRecordingExtension(t *testing.T) {
	tests := []struct {
		url      string
		expected string
	}{
		{"https://zoom.us/rec/download/abc.mp4?sig=1", ".mp4"},
		{"https://zoom.us/rec/download/abc.m4a", ".m4a"},
		{"https://x/file?sig=1", ".mp4"},
		{"", ".mp4"},
	}

	for _, tt := range tests {
		r := Recording{DownloadURL: tt.url}
		assert.Equal(t, tt.expected, r.Extension(), "url %q", tt.url)
	}
}

func TestRecordingUnmarshal(t *testing.T) {
	raw := `{
		"id": "r1",
		"download_url": "https://x/file?sig=1",
		"recording_start": "2024-01-02T10:00:00Z",
		"recording_end": "2024-01-02T10:30:00Z",
		"file_type": "MP4"
	}`

	var r Recording
	require.NoError(t, json.Unmarshal([]byte(raw), &r))

	assert.Equal(t, "r1", r.ID.String())
	assert.Equal(t, "https://x/file?sig=1", r.DownloadURL)

	d, ok := r.Duration()
	require.True(t, ok)
	assert.Equal(t, 30*time.Minute, d)
}

func TestMeetingIsZero(t *testing.T) {
	assert.True(t, Meeting{}.IsZero())
	assert.False(t, Meeting{ID: "100"}.IsZero())
	assert.False(t, Meeting{Topic: "Standup"}.IsZero())
}

func TestAPIErrorFormat(t *testing.T) {
	err := &APIError{Op: "listRecordings", MeetingID: "100", StatusCode: 500, Err: assert.AnError}
	assert.Contains(t, err.Error(), "listRecordings")
	assert.Contains(t, err.Error(), "100")
	assert.ErrorIs(t, err, assert.AnError)
}
