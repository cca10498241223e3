package downloader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/quangtran/tubequeue/internal/config"
	"github.com/quangtran/tubequeue/internal/domain"
	"github.com/quangtran/tubequeue/internal/events"
	"github.com/quangtran/tubequeue/internal/fetcher"
	"github.com/quangtran/tubequeue/internal/queue"
)

type fakeOutcome struct {
	meta    *fetcher.Metadata
	metaErr error
	path    string
	dlErr   error
}

type fakeFetcher struct {
	mu       sync.Mutex
	outcomes map[string]fakeOutcome
}

func (f *fakeFetcher) Metadata(ctx context.Context, url string, opts fetcher.Options) (*fetcher.Metadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o := f.outcomes[url]
	return o.meta, o.metaErr
}

func (f *fakeFetcher) Download(ctx context.Context, url string, opts fetcher.Options, progress fetcher.ProgressFunc) (string, error) {
	f.mu.Lock()
	o := f.outcomes[url]
	f.mu.Unlock()

	if progress != nil {
		progress(fetcher.Progress{Status: fetcher.StatusDownloading, DownloadedBytes: 50, TotalBytes: 100})
		progress(fetcher.Progress{Status: fetcher.StatusFinished})
	}
	return o.path, o.dlErr
}

type memorySink struct {
	mu      sync.Mutex
	entries []domain.HistoryEntry
}

func (m *memorySink) Append(entry *domain.HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memorySink) all() []domain.HistoryEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.HistoryEntry, len(m.entries))
	copy(out, m.entries)
	return out
}

func newTestWorker(t *testing.T, f fetcher.Fetcher) (*Worker, *queue.Store, *memorySink, *events.Hub) {
	t.Helper()

	q := queue.NewStore(nil)
	hub := events.NewHub()
	sink := &memorySink{}
	cfg := &config.Config{DownloadsDir: t.TempDir()}

	w := NewWorker(q, sink, f, hub, cfg, nil)
	w.graceDelay = 20 * time.Millisecond
	w.pause = time.Millisecond
	t.Cleanup(w.Stop)

	return w, q, sink, hub
}

// waitForDrain blocks until the all_downloads_complete broadcast arrives.
func waitForDrain(t *testing.T, ch <-chan events.Event) {
	t.Helper()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev := <-ch:
			if ev.Kind == events.KindAllComplete {
				return
			}
		case <-deadline:
			t.Fatal("Worker never drained the queue")
		}
	}
}

func TestWorkerProcessesQueueInOrder(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "ok.mp4")
	if err := os.WriteFile(outputPath, []byte("data"), 0644); err != nil {
		t.Fatalf("Failed to write output file: %v", err)
	}

	f := &fakeFetcher{outcomes: map[string]fakeOutcome{
		"https://example.com/v/ok": {
			meta: &fetcher.Metadata{Title: "Good Video", Duration: 125, Platform: "youtube", Uploader: "Someone"},
			path: outputPath,
		},
		"https://example.com/v/bad": {
			meta:  &fetcher.Metadata{Title: "Bad Video", Duration: 60, Platform: "youtube"},
			dlErr: errors.New("ERROR: Private video"),
		},
	}}

	w, q, sink, hub := newTestWorker(t, f)
	ch, unsubscribe := hub.Subscribe()
	defer unsubscribe()

	q.Enqueue("https://example.com/v/ok", domain.FormatMP4, "best")
	q.Enqueue("https://example.com/v/bad", domain.FormatMP4, "best")
	w.Trigger()

	waitForDrain(t, ch)

	entries := sink.all()
	if len(entries) != 2 {
		t.Fatalf("Expected 2 history entries, got %d", len(entries))
	}

	if entries[0].Title != "Good Video" || entries[0].Status != domain.HistoryStatusSuccess {
		t.Errorf("Unexpected first entry: %+v", entries[0])
	}
	if entries[0].Filename != outputPath {
		t.Errorf("Expected filename %s, got %s", outputPath, entries[0].Filename)
	}
	if entries[0].FileSize != 4 {
		t.Errorf("Expected file size 4, got %d", entries[0].FileSize)
	}
	if entries[0].Duration != "2:05" {
		t.Errorf("Expected duration 2:05, got %s", entries[0].Duration)
	}

	if entries[1].Title != "Bad Video" || entries[1].Status != domain.HistoryStatusFailed {
		t.Errorf("Unexpected second entry: %+v", entries[1])
	}
	if entries[1].Error == nil || *entries[1].Error != "This video is private" {
		t.Errorf("Expected normalized error message, got %v", entries[1].Error)
	}

	stats := w.Stats()
	if stats.Completed != 1 || stats.Failed != 1 {
		t.Errorf("Expected stats 1/1, got %+v", stats)
	}

	// Terminal items are purged after the grace delay.
	deadline := time.Now().Add(2 * time.Second)
	for q.Len() > 0 {
		if time.Now().After(deadline) {
			t.Fatalf("Expected queue to empty after grace delay, %d items left", q.Len())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestWorkerMetadataFailureFailsItem(t *testing.T) {
	f := &fakeFetcher{outcomes: map[string]fakeOutcome{
		"https://example.com/v/gone": {
			metaErr: errors.New("ERROR: Video unavailable"),
		},
	}}

	w, q, sink, hub := newTestWorker(t, f)
	ch, unsubscribe := hub.Subscribe()
	defer unsubscribe()

	q.Enqueue("https://example.com/v/gone", domain.FormatMP4, "best")
	w.Trigger()

	waitForDrain(t, ch)

	entries := sink.all()
	if len(entries) != 1 {
		t.Fatalf("Expected 1 history entry, got %d", len(entries))
	}
	// Metadata never arrived, so the URL stands in for the title.
	if entries[0].Title != "https://example.com/v/gone" {
		t.Errorf("Expected URL as title fallback, got %s", entries[0].Title)
	}
	if entries[0].Error == nil || *entries[0].Error != "Video is unavailable or has been removed" {
		t.Errorf("Expected normalized error, got %v", entries[0].Error)
	}
	if entries[0].Duration != "N/A" {
		t.Errorf("Expected N/A duration, got %s", entries[0].Duration)
	}
}

func TestWorkerTriggerIsIdempotentWhileRunning(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "slow.mp4")
	os.WriteFile(outputPath, []byte("x"), 0644)

	f := &fakeFetcher{outcomes: map[string]fakeOutcome{
		"https://example.com/v/slow": {
			meta: &fetcher.Metadata{Title: "Slow", Duration: 10, Platform: "youtube"},
			path: outputPath,
		},
	}}

	w, q, sink, hub := newTestWorker(t, f)
	ch, unsubscribe := hub.Subscribe()
	defer unsubscribe()

	q.Enqueue("https://example.com/v/slow", domain.FormatMP4, "best")
	for i := 0; i < 5; i++ {
		w.Trigger()
	}

	waitForDrain(t, ch)

	if got := len(sink.all()); got != 1 {
		t.Errorf("Expected the item to be processed once, got %d entries", got)
	}
}

func TestWorkerRestartsAfterDrain(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "v.mp4")
	os.WriteFile(outputPath, []byte("x"), 0644)

	f := &fakeFetcher{outcomes: map[string]fakeOutcome{
		"https://example.com/v/1": {meta: &fetcher.Metadata{Title: "One", Platform: "youtube"}, path: outputPath},
		"https://example.com/v/2": {meta: &fetcher.Metadata{Title: "Two", Platform: "youtube"}, path: outputPath},
	}}

	w, q, sink, hub := newTestWorker(t, f)
	ch, unsubscribe := hub.Subscribe()
	defer unsubscribe()

	q.Enqueue("https://example.com/v/1", domain.FormatMP4, "best")
	w.Trigger()
	waitForDrain(t, ch)

	q.Enqueue("https://example.com/v/2", domain.FormatMP4, "best")
	w.Trigger()
	waitForDrain(t, ch)

	if got := len(sink.all()); got != 2 {
		t.Errorf("Expected 2 entries across two runs, got %d", got)
	}
	if w.IsRunning() {
		t.Error("Expected worker to be idle after drain")
	}
}
