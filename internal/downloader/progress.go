package downloader

import (
	"fmt"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/quangtran/tubequeue/internal/events"
	"github.com/quangtran/tubequeue/internal/fetcher"
	"github.com/quangtran/tubequeue/internal/queue"
)

// Reporter normalizes raw byte-level progress ticks from the extractor
// into percentage/speed/eta events for the active item. The percentage is
// monotonically non-decreasing within one download; ticks without a total
// estimate skip the percentage but still propagate the downloading status.
type Reporter struct {
	queue  *queue.Store
	hub    *events.Hub
	itemID string

	mu          sync.Mutex
	lastPercent float64
	finished    bool
}

// ProgressEvent is the payload for progress broadcasts.
type ProgressEvent struct {
	ItemID  string `json:"item_id"`
	Percent string `json:"percent"`
	Speed   string `json:"speed,omitempty"`
	ETA     string `json:"eta,omitempty"`
	Status  string `json:"status"`
}

func NewReporter(q *queue.Store, hub *events.Hub, itemID string) *Reporter {
	return &Reporter{
		queue:  q,
		hub:    hub,
		itemID: itemID,
	}
}

// Update is the callback handed to the extraction capability. Invocations
// are synchronous and ordered within one download.
func (r *Reporter) Update(p fetcher.Progress) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p.Status == fetcher.StatusFinished {
		// Post-processing (muxing/re-encoding) is still pending.
		r.finished = true
		r.lastPercent = 100
		_ = r.queue.SetProgress(r.itemID, "100%")
		r.hub.Broadcast(events.KindProgress, ProgressEvent{
			ItemID:  r.itemID,
			Percent: "100%",
			Status:  "processing",
		})
		return
	}

	if r.finished {
		return
	}

	if p.TotalBytes <= 0 {
		// No usable estimate this tick; keep the raw status flowing.
		r.hub.Broadcast(events.KindProgress, ProgressEvent{
			ItemID: r.itemID,
			Status: "downloading",
			Speed:  formatSpeed(p.SpeedBPS),
		})
		return
	}

	percent := float64(p.DownloadedBytes) / float64(p.TotalBytes) * 100
	if percent > 100 {
		percent = 100
	}
	if percent < r.lastPercent {
		percent = r.lastPercent
	}
	r.lastPercent = percent

	display := fmt.Sprintf("%.1f%%", percent)
	_ = r.queue.SetProgress(r.itemID, display)

	r.hub.Broadcast(events.KindProgress, ProgressEvent{
		ItemID:  r.itemID,
		Percent: display,
		Speed:   formatSpeed(p.SpeedBPS),
		ETA:     formatETA(p.ETASeconds),
		Status:  "downloading",
	})
	r.hub.Broadcast(events.KindQueueItemProgress, map[string]any{
		"id":      r.itemID,
		"percent": display,
	})
}

// Percent returns the last reported percentage.
func (r *Reporter) Percent() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastPercent
}

func formatSpeed(bps float64) string {
	if bps <= 0 {
		return ""
	}
	return humanize.Bytes(uint64(bps)) + "/s"
}

func formatETA(seconds int) string {
	if seconds < 0 {
		return ""
	}
	if seconds >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
