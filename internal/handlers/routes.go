package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/quangtran/tubequeue/internal/constants"
	"github.com/quangtran/tubequeue/internal/domain"
	"github.com/quangtran/tubequeue/internal/downloader"
	"github.com/quangtran/tubequeue/internal/events"
	"github.com/quangtran/tubequeue/internal/fetcher"
	"github.com/quangtran/tubequeue/internal/netinfo"
	"github.com/quangtran/tubequeue/internal/queue"
)

const indexPage = `<!DOCTYPE html>
<html>
<head><title>tubequeue</title></head>
<body>
<h1>tubequeue</h1>
<p>Local download queue API. Connect a client to <code>/api/events</code> for live updates.</p>
</body>
</html>`

func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(indexPage))
}

type addDownloadsRequest struct {
	URLs    []string `json:"urls"`
	URL     string   `json:"url"`
	Format  string   `json:"format"`
	Quality string   `json:"quality"`
}

// AddDownloads enqueues a batch of URLs. Duplicates and blanks are
// dropped silently; the response reports how many items were added.
func (h *Handler) AddDownloads(w http.ResponseWriter, r *http.Request) {
	var req addDownloadsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.URLs) == 0 {
		h.respondError(w, http.StatusBadRequest, "urls is required")
		return
	}

	added := h.enqueueAll(req.URLs, req.Format, req.Quality)
	if added > 0 {
		h.broadcastQueue()
		h.Worker.Trigger()
	}
	h.respondJSON(w, http.StatusOK, map[string]int{"added": added})
}

// AddSingleDownload is the add-one-and-start convenience endpoint.
func (h *Handler) AddSingleDownload(w http.ResponseWriter, r *http.Request) {
	var req addDownloadsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.URL == "" {
		h.respondError(w, http.StatusBadRequest, "url is required")
		return
	}

	added := h.enqueueAll([]string{req.URL}, req.Format, req.Quality)
	if added > 0 {
		h.broadcastQueue()
		h.Worker.Trigger()
	}
	h.respondJSON(w, http.StatusOK, map[string]int{"added": added})
}

func (h *Handler) enqueueAll(urls []string, format, quality string) int {
	f := domain.ParseFormat(format)
	if quality == "" {
		quality = h.Config.Quality
	}

	added := 0
	for _, url := range urls {
		item, err := h.Queue.Enqueue(url, f, quality)
		switch {
		case err == nil:
			h.Logger.Info("Item queued", "item_id", item.ID, "url", item.URL, "format", f)
			added++
		case errors.Is(err, queue.ErrDuplicateURL), errors.Is(err, queue.ErrEmptyURL):
			// Dropped silently; the batch continues.
		default:
			h.Logger.Error("Failed to enqueue", "url", url, "error", err)
		}
	}
	return added
}

func (h *Handler) GetQueue(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.Worker.QueuePayload())
}

func (h *Handler) RemoveQueueItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	err := h.Queue.Remove(id)
	switch {
	case errors.Is(err, queue.ErrNotFound):
		h.respondError(w, http.StatusNotFound, "item not found")
		return
	case errors.Is(err, queue.ErrItemActive):
		h.respondError(w, http.StatusConflict, "item is currently downloading")
		return
	case err != nil:
		h.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.broadcastQueue()
	h.respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) ClearQueue(w http.ResponseWriter, r *http.Request) {
	removed := h.Queue.Clear()
	h.broadcastQueue()
	h.respondJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

// StartQueue kicks the worker. An empty queue is an input error and
// mutates nothing.
func (h *Handler) StartQueue(w http.ResponseWriter, r *http.Request) {
	if !h.Queue.HasPending() {
		h.Hub.Broadcast(events.KindError, map[string]string{"message": "Queue is empty"})
		h.respondError(w, http.StatusBadRequest, "queue is empty")
		return
	}

	h.Worker.Trigger()
	h.respondJSON(w, http.StatusOK, map[string]bool{"started": true})
}

// VideoInfo resolves metadata for a URL in the background and pushes the
// result over the event channel. The HTTP response only acknowledges the
// request.
func (h *Handler) VideoInfo(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if url == "" {
		h.respondError(w, http.StatusBadRequest, "url is required")
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), constants.MetadataTimeout)
		defer cancel()

		meta, err := h.Fetcher.Metadata(ctx, url, fetcher.Options{})
		if err != nil {
			h.Logger.Warn("Video info fetch failed", "url", url, "error", err)
			h.Hub.Broadcast(events.KindError, map[string]string{
				"url":     url,
				"message": downloader.NormalizeError(err),
			})
			return
		}

		// Unreachable thumbnails render as broken images; drop them.
		thumbnail := meta.Thumbnail
		if !netinfo.CheckThumbnail(thumbnail) {
			thumbnail = ""
		}

		h.Hub.Broadcast(events.KindVideoInfo, map[string]any{
			"url":       url,
			"title":     meta.Title,
			"duration":  domain.FormatDuration(meta.Duration),
			"platform":  meta.Platform,
			"uploader":  meta.Uploader,
			"thumbnail": thumbnail,
		})
	}()

	h.respondJSON(w, http.StatusAccepted, map[string]bool{"accepted": true})
}

func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	var (
		entries []*domain.HistoryEntry
		err     error
	)
	if query != "" {
		entries, err = h.History.Search(query, limit)
	} else {
		entries, err = h.History.List(limit)
	}
	if err != nil {
		h.Logger.Error("Failed to list history", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to list history")
		return
	}
	if entries == nil {
		entries = []*domain.HistoryEntry{}
	}

	h.respondJSON(w, http.StatusOK, map[string]any{"items": entries})
}

func (h *Handler) ExportHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := h.History.Export()
	if err != nil {
		h.Logger.Error("Failed to export history", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to export history")
		return
	}
	if entries == nil {
		entries = []*domain.HistoryEntry{}
	}

	w.Header().Set("Content-Disposition", `attachment; filename="history.json"`)
	h.respondJSON(w, http.StatusOK, entries)
}

func (h *Handler) DeleteHistoryItem(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid history id")
		return
	}

	if err := h.History.Delete(id); err != nil {
		h.Logger.Error("Failed to delete history entry", "id", id, "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to delete history entry")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := h.History.Clear(); err != nil {
		h.Logger.Error("Failed to clear history", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to clear history")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) broadcastQueue() {
	h.Hub.Broadcast(events.KindQueueUpdated, h.Worker.QueuePayload())
}
