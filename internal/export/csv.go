// Package export writes the recording catalog to a CSV report, one row per
// recording asset.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"github.com/teemow/zoomdrive/internal/zoom"
)

// Row pairs a recording asset with the meeting it belongs to.
type Row struct {
	Meeting   zoom.Meeting
	Recording zoom.Recording
}

var header = []string{
	"meeting_id",
	"topic",
	"host_email",
	"start_time",
	"timezone",
	"recording_id",
	"file_type",
	"recording_start",
	"recording_end",
	"duration",
	"download_url",
}

// WriteCSV writes the catalog rows to path. An empty catalog produces no
// file at all, so downstream consumers never see a header-only report.
func WriteCSV(path string, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return fmt.Errorf("failed to write export header: %w", err)
	}

	for _, row := range rows {
		if err := w.Write(record(row)); err != nil {
			f.Close()
			return fmt.Errorf("failed to write export row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("failed to flush export file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close export file: %w", err)
	}
	return nil
}

func record(row Row) []string {
	var duration string
	if d, ok := row.Recording.Duration(); ok {
		duration = d.String()
	}

	return []string{
		string(row.Meeting.ID),
		row.Meeting.Topic,
		row.Meeting.HostEmail,
		formatTime(row.Meeting.StartTime),
		row.Meeting.Timezone,
		string(row.Recording.ID),
		row.Recording.FileType,
		formatTime(row.Recording.RecordingStart),
		formatTime(row.Recording.RecordingEnd),
		duration,
		row.Recording.DownloadURL,
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
