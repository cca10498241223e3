// Package constants contains application-wide constants to avoid magic numbers and strings.
package constants

import "time"

// Application defaults
const (
	DefaultPort         = "8080"
	DefaultDBPath       = "tubequeue.db"
	DefaultDownloadsDir = "downloads"
	DefaultQuality      = "best"
	MaxPortProbes       = 20
)

// Worker timings
const (
	// GraceDelay is how long a finished item stays visible in the queue
	// before it is purged.
	GraceDelay = 3 * time.Second
	// ItemPause is the back-pressure sleep between two consecutive
	// extractor invocations.
	ItemPause = 500 * time.Millisecond
)

// Format selection
const (
	// AutoHeightCeiling caps the selected video height for format "auto".
	AutoHeightCeiling = 1080
	// MP3Bitrate is the re-encode target for audio-only downloads.
	MP3Bitrate = "320K"
	// OutputTemplate is the yt-dlp output path template, relative to the
	// downloads directory.
	OutputTemplate = "%(title)s.%(ext)s"
)

// Network diagnostics
const (
	ResolveTimeout   = 2 * time.Second
	ThumbnailTimeout = 5 * time.Second
	MetadataTimeout  = 60 * time.Second
)

// Placeholder shown when a best-effort lookup fails.
const Unknown = "Unknown"

// Progress display glyphs for terminal states.
const (
	GlyphCompleted = "✔" // check mark
	GlyphError     = "✖" // cross mark
)

// UI/UX
const (
	MaxHistoryItems   = 50
	EventBufferSize   = 16
	BrowserOpenDelay  = 1500 * time.Millisecond
	ProgressFrequency = 500 * time.Millisecond
)

// File permissions
const DirPermissions = 0755
