package fetcher

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"github.com/quangtran/tubequeue/internal/constants"
	"github.com/quangtran/tubequeue/internal/domain"
)

var ErrNoMetadata = errors.New("extractor returned no metadata")

// YTDLP is the yt-dlp backed Fetcher.
type YTDLP struct{}

func NewYTDLP() *YTDLP {
	return &YTDLP{}
}

// Metadata performs a dry-run extraction: no file is written.
func (y *YTDLP) Metadata(ctx context.Context, url string, opts Options) (*Metadata, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.MetadataTimeout)
	defer cancel()

	dl := ytdlp.New().
		SkipDownload().
		NoPlaylist()

	result, err := dl.Run(ctx, url)
	if err != nil {
		return nil, err
	}
	return extractMetadata(result)
}

// Download fetches the URL into opts.OutDir, reporting raw progress ticks
// through the callback, and returns the path of the written file.
func (y *YTDLP) Download(ctx context.Context, url string, opts Options, progress ProgressFunc) (string, error) {
	dl := buildCommand(opts)

	if progress != nil {
		dl.ProgressFunc(constants.ProgressFrequency, func(update ytdlp.ProgressUpdate) {
			progress(convertProgress(update))
		})
	}

	result, err := dl.Run(ctx, url)
	if err != nil {
		return "", err
	}

	if meta, metaErr := extractMetadata(result); metaErr == nil && meta.Title != "" {
		if path := resolvedFilename(result); path != "" {
			return path, nil
		}
		return filepath.Join(opts.OutDir, meta.Title+"."+outputExt(opts.Format)), nil
	}
	if path := resolvedFilename(result); path != "" {
		return path, nil
	}
	return "", ErrNoMetadata
}

// buildCommand maps the format/quality pair onto yt-dlp flags:
//
//	mp3  -> bestaudio, re-encoded to 320k mp3; quality ignored
//	mp4  -> best video+audio merged into mp4, height capped at quality
//	auto -> same as mp4, capped at the default ceiling
func buildCommand(opts Options) *ytdlp.Command {
	dl := ytdlp.New().
		ForceOverwrites().
		NoPlaylist().
		Output(filepath.Join(opts.OutDir, constants.OutputTemplate))

	switch opts.Format {
	case domain.FormatMP3:
		dl.Format("bestaudio/best").
			ExtractAudio().
			AudioFormat("mp3").
			AudioQuality(constants.MP3Bitrate)
	case domain.FormatMP4:
		dl.Format(FormatSelector(opts.Format, opts.Quality)).
			MergeOutputFormat("mp4")
	default:
		dl.Format(FormatSelector(domain.FormatAuto, opts.Quality)).
			MergeOutputFormat("mp4")
	}
	return dl
}

// FormatSelector builds the yt-dlp format selection string for video
// downloads. An unparsable or "best" quality leaves mp4 unconstrained;
// auto is always capped at the default resolution ceiling.
func FormatSelector(format domain.Format, quality string) string {
	height, err := strconv.Atoi(quality)
	if err != nil || height <= 0 {
		if format == domain.FormatAuto {
			height = constants.AutoHeightCeiling
		} else {
			return "bestvideo[ext=mp4]+bestaudio[ext=m4a]/bestvideo+bestaudio/best"
		}
	}
	return fmt.Sprintf(
		"bestvideo[height<=%d][ext=mp4]+bestaudio[ext=m4a]/bestvideo[height<=%d]+bestaudio/best[height<=%d]/best",
		height, height, height,
	)
}

func convertProgress(update ytdlp.ProgressUpdate) Progress {
	p := Progress{
		Status:          StatusDownloading,
		DownloadedBytes: int64(update.DownloadedBytes),
		TotalBytes:      int64(update.TotalBytes),
		ETASeconds:      -1,
	}

	if update.Status == ytdlp.ProgressStatusFinished {
		p.Status = StatusFinished
	}

	if !update.Started.IsZero() {
		elapsed := time.Since(update.Started)
		if elapsed.Seconds() > 0 {
			p.SpeedBPS = float64(update.DownloadedBytes) / elapsed.Seconds()
		}
	}
	if eta := update.ETA(); eta > 0 {
		p.ETASeconds = int(eta.Seconds())
	}
	return p
}

func extractMetadata(result *ytdlp.Result) (*Metadata, error) {
	info, err := result.GetExtractedInfo()
	if err != nil {
		return nil, err
	}
	if len(info) == 0 {
		return nil, ErrNoMetadata
	}

	meta := &Metadata{Platform: constants.Unknown}
	first := info[0]
	if first.Title != nil {
		meta.Title = *first.Title
	}
	if first.Duration != nil {
		meta.Duration = int(*first.Duration)
	}
	if first.Extractor != nil && *first.Extractor != "" {
		meta.Platform = *first.Extractor
	}
	if first.Uploader != nil {
		meta.Uploader = *first.Uploader
	}
	if first.Thumbnail != nil {
		meta.Thumbnail = *first.Thumbnail
	}
	return meta, nil
}

func resolvedFilename(result *ytdlp.Result) string {
	info, err := result.GetExtractedInfo()
	if err != nil || len(info) == 0 {
		return ""
	}
	if info[0].Filename != nil {
		return *info[0].Filename
	}
	return ""
}

func outputExt(format domain.Format) string {
	if format == domain.FormatMP3 {
		return "mp3"
	}
	return "mp4"
}
