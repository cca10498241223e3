// Package handlers wires the HTTP API and the SSE push channel.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quangtran/tubequeue/internal/app"
	"github.com/quangtran/tubequeue/internal/config"
	"github.com/quangtran/tubequeue/internal/downloader"
	"github.com/quangtran/tubequeue/internal/events"
	"github.com/quangtran/tubequeue/internal/fetcher"
	"github.com/quangtran/tubequeue/internal/logger"
	"github.com/quangtran/tubequeue/internal/queue"
)

type Handler struct {
	Queue   *queue.Store
	Worker  *downloader.Worker
	History *app.HistoryService
	Hub     *events.Hub
	Fetcher fetcher.Fetcher
	Config  *config.Config
	Logger  *logger.Logger
}

func NewHandler(q *queue.Store, w *downloader.Worker, hs *app.HistoryService, hub *events.Hub, f fetcher.Fetcher, cfg *config.Config, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Default()
	}
	return &Handler{
		Queue:   q,
		Worker:  w,
		History: hs,
		Hub:     hub,
		Fetcher: f,
		Config:  cfg,
		Logger:  log.WithComponent("http"),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Index)

	r.Route("/api", func(r chi.Router) {
		r.Post("/downloads", h.AddDownloads)
		r.Post("/downloads/single", h.AddSingleDownload)

		r.Get("/queue", h.GetQueue)
		r.Delete("/queue/{id}", h.RemoveQueueItem)
		r.Post("/queue/clear", h.ClearQueue)
		r.Post("/queue/start", h.StartQueue)

		r.Get("/video-info", h.VideoInfo)

		r.Get("/history", h.GetHistory)
		r.Get("/history/export", h.ExportHistory)
		r.Delete("/history/{id}", h.DeleteHistoryItem)
		r.Delete("/history", h.ClearHistory)

		r.Get("/events", h.Events)
	})
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.Logger.Error("Failed to encode response", "error", err)
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
