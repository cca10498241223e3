// Package tagging writes ID3v2 metadata to finished mp3 downloads.
// Tagging is always best-effort: a failure here never fails the job.
package tagging

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2/v2"
)

// Tag writes title, artist and source-URL frames to the mp3 at filePath.
func Tag(filePath, title, artist, sourceURL string) error {
	if strings.ToLower(filepath.Ext(filePath)) != ".mp3" {
		return fmt.Errorf("unsupported file format: %s", filepath.Ext(filePath))
	}

	tag, err := id3v2.Open(filePath, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("failed to open mp3 file: %w", err)
	}
	defer tag.Close()

	tag.SetVersion(4)

	if title != "" {
		tag.SetTitle(title)
	}
	if artist != "" {
		tag.SetArtist(artist)
	}
	if sourceURL != "" {
		tag.AddUserDefinedTextFrame(id3v2.UserDefinedTextFrame{
			Encoding:    id3v2.EncodingUTF8,
			Description: "SOURCE_URL",
			Value:       sourceURL,
		})
	}

	return tag.Save()
}
