package downloader

import "strings"

// translation rewrites one known provider error to a user-facing message.
type translation struct {
	substring string
	message   string
}

// translations are matched in order against the raw provider error text.
// Unmatched errors pass through verbatim.
var translations = []translation{
	{"Video unavailable", "Video is unavailable or has been removed"},
	{"Private video", "This video is private"},
	{"Sign in", "This video requires signing in"},
	{"HTTP Error 403", "Access to this video is forbidden"},
	{"HTTP Error 404", "Video not found"},
	{"Unsupported URL", "This source is not supported"},
}

// NormalizeError rewrites known provider-specific error text to a
// user-facing message. Unknown errors are returned unchanged.
func NormalizeError(err error) string {
	if err == nil {
		return ""
	}
	raw := err.Error()
	for _, t := range translations {
		if strings.Contains(raw, t.substring) {
			return t.message
		}
	}
	return raw
}
