// Package fetcher defines the contract with the external media-extraction
// tool and provides the yt-dlp backed implementation.
package fetcher

import (
	"context"

	"github.com/quangtran/tubequeue/internal/domain"
)

// Metadata is the dry-run information for a URL; no file is written.
type Metadata struct {
	Title     string
	Duration  int // seconds, 0 when unknown
	Platform  string
	Uploader  string
	Thumbnail string
}

// Options configure one extraction call, derived from the item's
// format/quality per the format table.
type Options struct {
	Format  domain.Format
	Quality string // "best" or a max video height
	OutDir  string
}

// ProgressStatus is the phase reported by a progress callback.
type ProgressStatus string

const (
	StatusDownloading ProgressStatus = "downloading"
	StatusFinished    ProgressStatus = "finished"
)

// Progress is one raw progress tick from the extraction tool. Total is an
// estimate and may be zero when the tool cannot size the stream.
type Progress struct {
	Status          ProgressStatus
	DownloadedBytes int64
	TotalBytes      int64
	SpeedBPS        float64 // bytes per second, 0 when unknown
	ETASeconds      int     // -1 when unknown
}

// ProgressFunc receives progress ticks. Invocations are synchronous and
// ordered within one download and never happen after Download returns.
type ProgressFunc func(p Progress)

// Fetcher is the extraction capability: resolve a URL to metadata, or
// download it to a file under {OutDir}/{title}.{ext}.
type Fetcher interface {
	Metadata(ctx context.Context, url string, opts Options) (*Metadata, error)
	Download(ctx context.Context, url string, opts Options, progress ProgressFunc) (string, error)
}
