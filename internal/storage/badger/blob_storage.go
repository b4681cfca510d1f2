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

// BlobStorage implements the BlobStorage interface for Badger.
// Blobs live in their own record type, separate from the JSON-persisted
// history entries, because of their size.
type BlobStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewBlobStorage creates a new BlobStorage instance
func NewBlobStorage(db *BadgerDB, logger arbor.ILogger) interfaces.BlobStorage {
	return &BlobStorage{
		db:     db,
		logger: logger,
	}
}

// Put stores binary content under the given id. Last write wins.
func (s *BlobStorage) Put(ctx context.Context, id string, contentType string, data []byte) error {
	if id == "" {
		return fmt.Errorf("blob ID is required")
	}

	record := models.BlobRecord{
		ID:          id,
		ContentType: contentType,
		Data:        data,
		CreatedAt:   time.Now(),
	}

	// Preserve CreatedAt on overwrite
	var existing models.BlobRecord
	if err := s.db.Store().Get(id, &existing); err == nil {
		record.CreatedAt = existing.CreatedAt
	}

	if err := s.db.Store().Upsert(id, &record); err != nil {
		return fmt.Errorf("failed to store blob: %w", err)
	}

	s.logger.Debug().Str("id", id).Int("size", len(data)).Msg("Blob stored")
	return nil
}

// Get retrieves the blob record for the given id
func (s *BlobStorage) Get(ctx context.Context, id string) (*models.BlobRecord, error) {
	var record models.BlobRecord
	err := s.db.Store().Get(id, &record)
	if err == badgerhold.ErrNotFound {
		return nil, interfaces.ErrBlobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get blob: %w", err)
	}
	return &record, nil
}

// Delete removes the blob for the given id. Missing blobs are not an error.
func (s *BlobStorage) Delete(ctx context.Context, id string) error {
	err := s.db.Store().Delete(id, &models.BlobRecord{})
	if err == badgerhold.ErrNotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}
