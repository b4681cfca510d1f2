package interfaces

import (
	"context"
	"errors"

	"github.com/ternarybob/audile/internal/models"
)

var (
	// ErrEntryNotFound is returned when a history entry does not exist.
	ErrEntryNotFound = errors.New("history entry not found")

	// ErrBlobNotFound is returned when no binary content is stored for an id.
	// This is a recoverable condition: the caller re-prompts for the file.
	ErrBlobNotFound = errors.New("blob not found")
)

// HistoryStorage persists history entries. The visible ordering is
// most-recent-first by creation time.
type HistoryStorage interface {
	// Upsert inserts or replaces an entry by its ID.
	Upsert(ctx context.Context, entry *models.HistoryEntry) error

	// Get returns the entry with the given ID or ErrEntryNotFound.
	Get(ctx context.Context, id string) (*models.HistoryEntry, error)

	// List returns all entries, most recent first.
	List(ctx context.Context) ([]*models.HistoryEntry, error)

	// Delete removes an entry. Deleting a missing entry is not an error.
	Delete(ctx context.Context, id string) error
}

// BlobStorage is durable key -> binary storage for uploaded documents.
// Last-write-wins per key; no transactional guarantees.
type BlobStorage interface {
	Put(ctx context.Context, id string, contentType string, data []byte) error
	Get(ctx context.Context, id string) (*models.BlobRecord, error)
	Delete(ctx context.Context, id string) error
}

// ProfileStorage persists the singleton user profile.
type ProfileStorage interface {
	// Get returns the stored profile, seeding the default on first access.
	Get(ctx context.Context) (*models.UserProfile, error)

	// Save replaces the stored profile.
	Save(ctx context.Context, profile *models.UserProfile) error
}

// AuthStorage persists the login flag. No real authentication is performed;
// this only mirrors the original product's local login stub.
type AuthStorage interface {
	IsLoggedIn(ctx context.Context) (bool, error)
	SetLoggedIn(ctx context.Context, loggedIn bool) error
}

// StorageManager aggregates the storage interfaces over one database.
type StorageManager interface {
	HistoryStorage() HistoryStorage
	BlobStorage() BlobStorage
	ProfileStorage() ProfileStorage
	AuthStorage() AuthStorage

	// DB returns the underlying database for maintenance tasks.
	DB() interface{}

	Close() error
}
