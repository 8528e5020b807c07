// Package staging computes local staging paths for downloaded recordings.
// Recordings are grouped by meeting date, one directory per day, with file
// names derived from the meeting topic and start time.
package staging

import (
	"path/filepath"
	"strings"
	"time"
)

const (
	dateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02_15-04-05"
)

// DateFolder returns the per-day folder name for a meeting start time.
func DateFolder(start time.Time) string {
	return start.Format(dateLayout)
}

// FileName returns the staging file name for a recording: the sanitized
// meeting topic, the start timestamp, and the asset's extension.
func FileName(topic string, start time.Time, ext string) string {
	return SanitizeTopic(topic) + "_" + start.Format(timestampLayout) + ext
}

// Path returns the full staging path for a recording under dir:
//
//	<dir>/<YYYY-MM-DD>/<Topic>_<YYYY-MM-DD_HH-MM-SS><ext>
func Path(dir, topic string, start time.Time, ext string) string {
	return filepath.Join(dir, DateFolder(start), FileName(topic, start, ext))
}

// SanitizeTopic makes a meeting topic safe for use in a file name. Path
// separators and characters rejected by common filesystems are replaced
// with underscores, and surrounding whitespace is trimmed.
func SanitizeTopic(topic string) string {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return "untitled"
	}

	var b strings.Builder
	b.Grow(len(topic))
	for _, r := range topic {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', '\x00':
			b.WriteRune('_')
		case ' ':
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
