// Package queue implements the in-memory download queue store. All
// mutations are serialized through a single mutex; no I/O happens while
// the lock is held.
package queue

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/quangtran/tubequeue/internal/domain"
)

var (
	ErrEmptyURL     = errors.New("url cannot be empty")
	ErrDuplicateURL = errors.New("url is already queued")
	ErrItemActive   = errors.New("item is currently downloading")
	ErrNotFound     = errors.New("item not found")
)

// NetResolver resolves display-only network diagnostics for a URL. It is
// called before the store lock is taken, never under it.
type NetResolver interface {
	Resolve(rawURL string) domain.NetworkInfo
}

// Store is the ordered collection of queue items. Constructed once at
// process start and long-lived for the process lifetime.
type Store struct {
	mu       sync.Mutex
	items    []*domain.QueueItem
	resolver NetResolver
}

func NewStore(resolver NetResolver) *Store {
	return &Store{resolver: resolver}
}

// Enqueue validates and appends a new pending item, preserving insertion
// order. A URL already present with a non-terminal status is rejected with
// ErrDuplicateURL so callers can drop it silently.
func (s *Store) Enqueue(url string, format domain.Format, quality string) (*domain.QueueItem, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, ErrEmptyURL
	}

	var info domain.NetworkInfo
	if s.resolver != nil {
		info = s.resolver.Resolve(url)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, it := range s.items {
		if it.URL == url && !it.Status.IsTerminal() {
			return nil, ErrDuplicateURL
		}
	}

	item := &domain.QueueItem{
		ID:        uuid.New().String(),
		URL:       url,
		Format:    format,
		Quality:   quality,
		Status:    domain.ItemStatusPending,
		Domain:    info.Domain,
		IP:        info.IP,
		Protocol:  info.Protocol,
		CreatedAt: time.Now(),
	}
	s.items = append(s.items, item)

	copied := *item
	return &copied, nil
}

// NextPending claims the earliest-inserted pending item, transitioning it
// to downloading in the same critical section. Returns nil when no pending
// item exists. No concurrent caller can claim the same item twice.
func (s *Store) NextPending() *domain.QueueItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, it := range s.items {
		if it.Status == domain.ItemStatusPending {
			it.Status = domain.ItemStatusDownloading
			copied := *it
			return &copied
		}
	}
	return nil
}

// Remove deletes the item unless it is currently downloading.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, it := range s.items {
		if it.ID != id {
			continue
		}
		if it.Status == domain.ItemStatusDownloading {
			return ErrItemActive
		}
		s.items = append(s.items[:i], s.items[i+1:]...)
		return nil
	}
	return ErrNotFound
}

// Clear removes every item except the one currently downloading and
// returns the number of removed items.
func (s *Store) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.items[:0]
	removed := 0
	for _, it := range s.items {
		if it.Status == domain.ItemStatusDownloading {
			kept = append(kept, it)
		} else {
			removed++
		}
	}
	s.items = kept
	return removed
}

// Snapshot returns a consistent point-in-time copy of the full queue in
// insertion order.
func (s *Store) Snapshot() []domain.QueueItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.QueueItem, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, *it)
	}
	return out
}

// Get returns a copy of the item with the given id.
func (s *Store) Get(id string) (*domain.QueueItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if it := s.find(id); it != nil {
		copied := *it
		return &copied, nil
	}
	return nil, ErrNotFound
}

// Len returns the current queue length.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// HasPending reports whether any item is still waiting to be claimed.
func (s *Store) HasPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, it := range s.items {
		if it.Status == domain.ItemStatusPending {
			return true
		}
	}
	return false
}

// UpdateMetadata sets the display fields populated by the dry-run
// metadata fetch. Worker-only mutator.
func (s *Store) UpdateMetadata(id, title, duration, platform string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	it := s.find(id)
	if it == nil {
		return ErrNotFound
	}
	it.Title = title
	it.Duration = duration
	it.Platform = platform
	return nil
}

// SetProgress updates the live progress display string. Worker-only
// mutator, valid only while the item is downloading.
func (s *Store) SetProgress(id, progress string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	it := s.find(id)
	if it == nil {
		return ErrNotFound
	}
	it.Progress = progress
	return nil
}

// SetStatus moves the item to a terminal state and attaches its final
// progress glyph. Worker-only mutator.
func (s *Store) SetStatus(id string, status domain.ItemStatus, progress string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	it := s.find(id)
	if it == nil {
		return ErrNotFound
	}
	it.Status = status
	it.Progress = progress
	return nil
}

// find must be called with the lock held.
func (s *Store) find(id string) *domain.QueueItem {
	for _, it := range s.items {
		if it.ID == id {
			return it
		}
	}
	return nil
}
