package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/audile/internal/interfaces"
	"github.com/ternarybob/audile/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// HistoryStorage implements the HistoryStorage interface for Badger
type HistoryStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewHistoryStorage creates a new HistoryStorage instance
func NewHistoryStorage(db *BadgerDB, logger arbor.ILogger) interfaces.HistoryStorage {
	return &HistoryStorage{
		db:     db,
		logger: logger,
	}
}

// Upsert inserts or replaces a history entry by its ID
func (s *HistoryStorage) Upsert(ctx context.Context, entry *models.HistoryEntry) error {
	if entry.ID == "" {
		return fmt.Errorf("history entry ID is required")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	if err := s.db.Store().Upsert(entry.ID, entry); err != nil {
		return fmt.Errorf("failed to upsert history entry: %w", err)
	}
	return nil
}

// Get returns the entry with the given ID
func (s *HistoryStorage) Get(ctx context.Context, id string) (*models.HistoryEntry, error) {
	var entry models.HistoryEntry
	err := s.db.Store().Get(id, &entry)
	if err == badgerhold.ErrNotFound {
		return nil, interfaces.ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get history entry: %w", err)
	}
	return &entry, nil
}

// List returns all entries, most recent first
func (s *HistoryStorage) List(ctx context.Context) ([]*models.HistoryEntry, error) {
	var entries []models.HistoryEntry
	err := s.db.Store().Find(&entries, badgerhold.Where("ID").Ne("").SortBy("CreatedAt").Reverse())
	if err != nil {
		return nil, fmt.Errorf("failed to list history entries: %w", err)
	}

	result := make([]*models.HistoryEntry, len(entries))
	for i := range entries {
		result[i] = &entries[i]
	}
	return result, nil
}

// Delete removes an entry. Deleting a missing entry is not an error.
func (s *HistoryStorage) Delete(ctx context.Context, id string) error {
	err := s.db.Store().Delete(id, &models.HistoryEntry{})
	if err == badgerhold.ErrNotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete history entry: %w", err)
	}
	return nil
}
