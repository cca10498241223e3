package domain

import (
	"fmt"
	"time"
)

// Format is the requested output kind for a download.
type Format string

const (
	FormatAuto Format = "auto"
	FormatMP4  Format = "mp4"
	FormatMP3  Format = "mp3"
)

// ParseFormat maps free-form client input to a Format, defaulting to auto.
func ParseFormat(s string) Format {
	switch Format(s) {
	case FormatMP4:
		return FormatMP4
	case FormatMP3:
		return FormatMP3
	default:
		return FormatAuto
	}
}

// ItemStatus is the lifecycle state of a queue item.
type ItemStatus string

const (
	ItemStatusPending     ItemStatus = "pending"
	ItemStatusDownloading ItemStatus = "downloading"
	ItemStatusCompleted   ItemStatus = "completed"
	ItemStatusError       ItemStatus = "error"
)

// IsTerminal reports whether the status is a final state.
func (s ItemStatus) IsTerminal() bool {
	return s == ItemStatusCompleted || s == ItemStatusError
}

// NetworkInfo holds advisory connection diagnostics resolved at enqueue
// time. The fields are display-only and never block progress.
type NetworkInfo struct {
	Domain   string `json:"domain"`
	IP       string `json:"ip"`
	Protocol string `json:"protocol"`
}

// QueueItem represents one queued, active, or finished download request.
// The worker loop is the only writer of Status and Progress; the queue
// store is the only writer of membership.
type QueueItem struct {
	ID        string     `json:"id"`
	URL       string     `json:"url"`
	Format    Format     `json:"format"`
	Quality   string     `json:"quality"`
	Status    ItemStatus `json:"status"`
	Title     string     `json:"title,omitempty"`
	Duration  string     `json:"duration,omitempty"`
	Platform  string     `json:"platform,omitempty"`
	Progress  string     `json:"progress"`
	Domain    string     `json:"domain"`
	IP        string     `json:"ip"`
	Protocol  string     `json:"protocol"`
	CreatedAt time.Time  `json:"created_at"`
}

// HistoryStatus is the terminal outcome recorded for a download.
type HistoryStatus string

const (
	HistoryStatusSuccess HistoryStatus = "success"
	HistoryStatusFailed  HistoryStatus = "failed"
)

// HistoryEntry is the persisted record of a terminal download outcome.
// Entries are append-only and never mutated after insertion.
type HistoryEntry struct {
	ID        int64         `json:"id" db:"id"`
	Title     string        `json:"title" db:"title"`
	URL       string        `json:"url" db:"url"`
	Platform  string        `json:"platform" db:"platform"`
	Format    string        `json:"format" db:"format"`
	FileSize  int64         `json:"file_size" db:"file_size"`
	Duration  string        `json:"duration" db:"duration"`
	Filename  string        `json:"filename" db:"filename"`
	Status    HistoryStatus `json:"status" db:"status"`
	Error     *string       `json:"error,omitempty" db:"error"`
	CreatedAt time.Time     `json:"created_at" db:"created_at"`
}

// Stats counts terminal outcomes for the current process lifetime.
type Stats struct {
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

// FormatDuration renders a duration in seconds as M:SS (or H:MM:SS),
// matching the queue display. Zero or negative durations render as "N/A".
func FormatDuration(seconds int) string {
	if seconds <= 0 {
		return "N/A"
	}
	if seconds >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
