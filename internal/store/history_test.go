package store

import (
	"path/filepath"
	"testing"

	"github.com/quangtran/tubequeue/internal/domain"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewSQLiteDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestAppendAndList(t *testing.T) {
	db := setupTestDB(t)

	entry := &domain.HistoryEntry{
		Title:    "First Video",
		URL:      "https://example.com/v/1",
		Platform: "youtube",
		Format:   "mp4",
		FileSize: 1024,
		Duration: "3:25",
		Filename: "/downloads/first.mp4",
		Status:   domain.HistoryStatusSuccess,
	}
	if err := db.Append(entry); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if entry.ID == 0 {
		t.Error("Expected Append to assign an ID")
	}
	if entry.CreatedAt.IsZero() {
		t.Error("Expected Append to assign a timestamp")
	}

	msg := "This video is private"
	failed := &domain.HistoryEntry{
		Title:  "Second Video",
		URL:    "https://example.com/v/2",
		Status: domain.HistoryStatusFailed,
		Error:  &msg,
	}
	if err := db.Append(failed); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	entries, err := db.List(10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}

	// Newest first.
	if entries[0].Title != "Second Video" {
		t.Errorf("Expected newest entry first, got %s", entries[0].Title)
	}
	if entries[0].Error == nil || *entries[0].Error != msg {
		t.Errorf("Expected error message %q, got %v", msg, entries[0].Error)
	}
	if entries[1].FileSize != 1024 {
		t.Errorf("Expected file size 1024, got %d", entries[1].FileSize)
	}
}

func TestListLimit(t *testing.T) {
	db := setupTestDB(t)

	for i := 0; i < 5; i++ {
		db.Append(&domain.HistoryEntry{
			Title:  "Video",
			URL:    "https://example.com/v/1",
			Status: domain.HistoryStatusSuccess,
		})
	}

	entries, err := db.List(3)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("Expected 3 entries, got %d", len(entries))
	}
}

func TestSearch(t *testing.T) {
	db := setupTestDB(t)

	db.Append(&domain.HistoryEntry{Title: "Cooking Tutorial", URL: "https://youtube.com/v/1", Platform: "youtube", Status: domain.HistoryStatusSuccess})
	db.Append(&domain.HistoryEntry{Title: "Guitar Lesson", URL: "https://vimeo.com/v/2", Platform: "vimeo", Status: domain.HistoryStatusSuccess})

	byTitle, err := db.Search("cooking", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(byTitle) != 1 || byTitle[0].Title != "Cooking Tutorial" {
		t.Errorf("Expected title match, got %+v", byTitle)
	}

	byPlatform, err := db.Search("vimeo", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(byPlatform) != 1 || byPlatform[0].Platform != "vimeo" {
		t.Errorf("Expected platform match, got %+v", byPlatform)
	}

	none, err := db.Search("nothing-matches", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("Expected no matches, got %d", len(none))
	}
}

func TestGetAndDelete(t *testing.T) {
	db := setupTestDB(t)

	entry := &domain.HistoryEntry{Title: "Video", URL: "https://example.com/v/1", Status: domain.HistoryStatusSuccess}
	db.Append(entry)

	fetched, err := db.Get(entry.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if fetched == nil || fetched.Title != "Video" {
		t.Errorf("Unexpected entry: %+v", fetched)
	}

	missing, err := db.Get(9999)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if missing != nil {
		t.Errorf("Expected nil for a missing id, got %+v", missing)
	}

	if err := db.Delete(entry.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	gone, _ := db.Get(entry.ID)
	if gone != nil {
		t.Error("Expected entry to be deleted")
	}
}

func TestClearAndExport(t *testing.T) {
	db := setupTestDB(t)

	db.Append(&domain.HistoryEntry{Title: "A", URL: "u1", Status: domain.HistoryStatusSuccess})
	db.Append(&domain.HistoryEntry{Title: "B", URL: "u2", Status: domain.HistoryStatusFailed})

	exported, err := db.Export()
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if len(exported) != 2 {
		t.Errorf("Expected 2 exported entries, got %d", len(exported))
	}

	if err := db.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	entries, _ := db.List(10)
	if len(entries) != 0 {
		t.Errorf("Expected empty history after clear, got %d", len(entries))
	}
}
