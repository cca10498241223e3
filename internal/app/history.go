// Package app contains the application services gluing storage to the
// HTTP layer.
package app

import (
	"fmt"
	"os"

	"github.com/quangtran/tubequeue/internal/constants"
	"github.com/quangtran/tubequeue/internal/domain"
	"github.com/quangtran/tubequeue/internal/logger"
	"github.com/quangtran/tubequeue/internal/store"
)

// HistoryService exposes query/search/delete/export over persisted
// download history.
type HistoryService struct {
	Repo   *store.DB
	Logger *logger.Logger
}

func NewHistoryService(repo *store.DB, log *logger.Logger) *HistoryService {
	if log == nil {
		log = logger.Default()
	}
	return &HistoryService{
		Repo:   repo,
		Logger: log.WithComponent("history"),
	}
}

func (s *HistoryService) List(limit int) ([]*domain.HistoryEntry, error) {
	if limit <= 0 || limit > constants.MaxHistoryItems {
		limit = constants.MaxHistoryItems
	}
	return s.Repo.List(limit)
}

func (s *HistoryService) Search(query string, limit int) ([]*domain.HistoryEntry, error) {
	if limit <= 0 || limit > constants.MaxHistoryItems {
		limit = constants.MaxHistoryItems
	}
	return s.Repo.Search(query, limit)
}

// Delete removes one entry and attempts to delete its backing file. A
// file-deletion failure is logged, never fatal, and does not block the
// record deletion.
func (s *HistoryService) Delete(id int64) error {
	entry, err := s.Repo.Get(id)
	if err != nil {
		return fmt.Errorf("failed to get history entry: %w", err)
	}
	if entry == nil {
		return nil
	}

	if entry.Filename != "" {
		if err := os.Remove(entry.Filename); err != nil && !os.IsNotExist(err) {
			s.Logger.Warn("Failed to delete file", "path", entry.Filename, "error", err)
		}
	}

	if err := s.Repo.Delete(id); err != nil {
		return fmt.Errorf("failed to delete history entry: %w", err)
	}
	return nil
}

// Clear removes every entry; files on disk are untouched.
func (s *HistoryService) Clear() error {
	return s.Repo.Clear()
}

func (s *HistoryService) Export() ([]*domain.HistoryEntry, error) {
	return s.Repo.Export()
}
