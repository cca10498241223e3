package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/quangtran/tubequeue/internal/events"
)

// Events is the SSE push channel. Each observer receives the current
// queue snapshot on connect, then every broadcast until it disconnects.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		h.respondError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, unsubscribe := h.Hub.Subscribe()
	defer unsubscribe()

	h.Logger.Debug("Observer connected", "observers", h.Hub.SubscriberCount())

	// New observers start from a full snapshot, not a diff.
	snapshot := events.Event{
		Kind:    events.KindQueueUpdated,
		Payload: h.Worker.QueuePayload(),
	}
	if err := writeSSE(w, snapshot); err != nil {
		return
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			h.Logger.Debug("Observer disconnected", "observers", h.Hub.SubscriberCount()-1)
			return
		case ev, open := <-ch:
			if !open {
				return
			}
			if err := writeSSE(w, ev); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev events.Event) error {
	data, err := json.Marshal(ev.Payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Kind, data)
	return err
}
