package tagging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bogem/id3v2/v2"
)

func TestTagRejectsNonMP3(t *testing.T) {
	err := Tag("/tmp/video.mp4", "Title", "Artist", "https://example.com")
	if err == nil {
		t.Error("Expected an error for a non-mp3 file")
	}
}

func TestTagWritesFrames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "song.mp3")
	if err := os.WriteFile(path, []byte{0xFF, 0xFB, 0x90, 0x00}, 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	if err := Tag(path, "My Song", "Some Artist", "https://example.com/v/1"); err != nil {
		t.Fatalf("Tag failed: %v", err)
	}

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		t.Fatalf("Failed to reopen tagged file: %v", err)
	}
	defer tag.Close()

	if tag.Title() != "My Song" {
		t.Errorf("Expected title My Song, got %s", tag.Title())
	}
	if tag.Artist() != "Some Artist" {
		t.Errorf("Expected artist Some Artist, got %s", tag.Artist())
	}
}

func TestTagMissingFile(t *testing.T) {
	err := Tag(filepath.Join(t.TempDir(), "missing.mp3"), "Title", "Artist", "")
	if err == nil {
		t.Error("Expected an error for a missing file")
	}
}
