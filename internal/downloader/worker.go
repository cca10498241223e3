package downloader

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/quangtran/tubequeue/internal/config"
	"github.com/quangtran/tubequeue/internal/constants"
	"github.com/quangtran/tubequeue/internal/domain"
	"github.com/quangtran/tubequeue/internal/events"
	"github.com/quangtran/tubequeue/internal/fetcher"
	"github.com/quangtran/tubequeue/internal/logger"
	"github.com/quangtran/tubequeue/internal/queue"
	"github.com/quangtran/tubequeue/internal/tagging"
)

// HistorySink persists terminal job outcomes.
type HistorySink interface {
	Append(entry *domain.HistoryEntry) error
}

// QueuePayload is the full-snapshot payload broadcast after every queue
// mutation and sent to every newly connected observer.
type QueuePayload struct {
	Items  []domain.QueueItem `json:"items"`
	Stats  domain.Stats       `json:"stats"`
	Active bool               `json:"active"`
}

// CompletionEvent is the payload for item_completed broadcasts.
type CompletionEvent struct {
	ItemID  string `json:"item_id"`
	Title   string `json:"title"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Worker is the single-consumer loop that drains the queue. At most one
// loop instance runs at a time, guarded by the running flag. Once a
// download is claimed it runs to completion or failure; there is no
// per-download timeout, so a hung extractor call hangs the whole queue
// (known limitation).
type Worker struct {
	Queue   *queue.Store
	History HistorySink
	Fetcher fetcher.Fetcher
	Hub     *events.Hub
	Config  *config.Config
	Logger  *logger.Logger

	mu      sync.Mutex
	running bool
	stats   domain.Stats

	graceDelay time.Duration
	pause      time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewWorker(q *queue.Store, history HistorySink, f fetcher.Fetcher, hub *events.Hub, cfg *config.Config, log *logger.Logger) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	if log == nil {
		log = logger.Default()
	}

	return &Worker{
		Queue:      q,
		History:    history,
		Fetcher:    f,
		Hub:        hub,
		Config:     cfg,
		Logger:     log.WithComponent("worker"),
		graceDelay: constants.GraceDelay,
		pause:      constants.ItemPause,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Trigger starts the drain loop unless one is already running.
func (w *Worker) Trigger() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return
	}
	w.running = true
	w.wg.Add(1)
	go w.run()
}

// Stop cancels the worker context and waits for the loop to exit.
func (w *Worker) Stop() {
	w.Logger.Info("Stopping worker")
	w.cancel()
	w.wg.Wait()
}

// IsRunning reports whether a drain loop is active.
func (w *Worker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// Stats returns the terminal-outcome counters for this process lifetime.
func (w *Worker) Stats() domain.Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

// QueuePayload builds the full-snapshot broadcast payload.
func (w *Worker) QueuePayload() QueuePayload {
	return QueuePayload{
		Items:  w.Queue.Snapshot(),
		Stats:  w.Stats(),
		Active: w.IsRunning(),
	}
}

func (w *Worker) run() {
	defer w.wg.Done()

	for {
		// The nil check and the flag clear share the worker lock so an
		// enqueue racing with queue exhaustion can always restart us.
		w.mu.Lock()
		item := w.Queue.NextPending()
		if item == nil {
			w.running = false
			stats := w.stats
			w.mu.Unlock()
			w.Logger.Info("Queue drained", "completed", stats.Completed, "failed", stats.Failed)
			w.Hub.Broadcast(events.KindAllComplete, stats)
			return
		}
		w.mu.Unlock()

		w.process(w.ctx, item)
		w.scheduleRemoval(item.ID)

		select {
		case <-w.ctx.Done():
			w.mu.Lock()
			w.running = false
			w.mu.Unlock()
			return
		case <-time.After(w.pause):
		}
	}
}

func (w *Worker) process(ctx context.Context, item *domain.QueueItem) {
	log := w.Logger.WithItem(item.ID, item.URL)
	log.Info("Processing item", "format", item.Format, "quality", item.Quality)

	opts := fetcher.Options{
		Format:  item.Format,
		Quality: item.Quality,
		OutDir:  w.Config.DownloadsDir,
	}

	meta, err := w.Fetcher.Metadata(ctx, item.URL, opts)
	if err != nil {
		log.Error("Metadata fetch failed", "error", err)
		w.finish(item, nil, "", err, log)
		return
	}

	durationStr := domain.FormatDuration(meta.Duration)
	if err := w.Queue.UpdateMetadata(item.ID, meta.Title, durationStr, meta.Platform); err != nil {
		log.Warn("Failed to update item metadata", "error", err)
	}
	w.broadcastQueue()
	w.Hub.Broadcast(events.KindVideoInfo, map[string]any{
		"item_id":  item.ID,
		"title":    meta.Title,
		"duration": durationStr,
		"platform": meta.Platform,
	})

	reporter := NewReporter(w.Queue, w.Hub, item.ID)
	path, err := w.Fetcher.Download(ctx, item.URL, opts, reporter.Update)
	w.finish(item, meta, path, err, log)
}

// finish reconciles a terminal outcome: queue status, stats, history
// entry, tagging, and broadcasts.
func (w *Worker) finish(item *domain.QueueItem, meta *fetcher.Metadata, path string, err error, log *logger.Logger) {
	entry := &domain.HistoryEntry{
		Title:    item.URL,
		URL:      item.URL,
		Platform: constants.Unknown,
		Format:   string(item.Format),
		Duration: "N/A",
	}
	if meta != nil {
		entry.Title = meta.Title
		entry.Platform = meta.Platform
		entry.Duration = domain.FormatDuration(meta.Duration)
	}

	if err != nil {
		msg := NormalizeError(err)
		log.Error("Download failed", "error", err, "message", msg)

		_ = w.Queue.SetStatus(item.ID, domain.ItemStatusError, constants.GlyphError)
		w.mu.Lock()
		w.stats.Failed++
		w.mu.Unlock()

		entry.Status = domain.HistoryStatusFailed
		entry.Error = &msg
		w.appendHistory(entry, log)

		w.Hub.Broadcast(events.KindItemCompleted, CompletionEvent{
			ItemID: item.ID,
			Title:  entry.Title,
			Error:  msg,
		})
		w.broadcastQueue()
		return
	}

	_ = w.Queue.SetStatus(item.ID, domain.ItemStatusCompleted, constants.GlyphCompleted)
	w.mu.Lock()
	w.stats.Completed++
	w.mu.Unlock()

	entry.Status = domain.HistoryStatusSuccess
	entry.Filename = path
	entry.FileSize = fileSize(path)
	w.appendHistory(entry, log)

	if item.Format == domain.FormatMP3 && meta != nil {
		if tagErr := tagging.Tag(path, meta.Title, meta.Uploader, item.URL); tagErr != nil {
			log.Warn("Failed to tag mp3", "path", path, "error", tagErr)
		}
	}

	log.Info("Item completed", "path", path, "size", entry.FileSize)
	w.Hub.Broadcast(events.KindItemCompleted, CompletionEvent{
		ItemID:  item.ID,
		Title:   entry.Title,
		Success: true,
	})
	w.broadcastQueue()
}

func (w *Worker) appendHistory(entry *domain.HistoryEntry, log *logger.Logger) {
	// A lost history row never rolls back the in-memory outcome.
	if err := w.History.Append(entry); err != nil {
		log.Error("Failed to write history entry", "error", err)
	}
}

// scheduleRemoval purges the terminal record after the grace delay. The
// timer runs detached and re-acquires the queue lock when it fires.
func (w *Worker) scheduleRemoval(id string) {
	time.AfterFunc(w.graceDelay, func() {
		if err := w.Queue.Remove(id); err == nil {
			w.broadcastQueue()
		}
	})
}

func (w *Worker) broadcastQueue() {
	w.Hub.Broadcast(events.KindQueueUpdated, w.QueuePayload())
}

// fileSize is a best-effort stat of the output path; 0 when unavailable.
func fileSize(path string) int64 {
	if path == "" {
		return 0
	}
	fi, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return fi.Size()
}
