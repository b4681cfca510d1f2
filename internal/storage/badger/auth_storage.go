package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/audile/internal/interfaces"
	"github.com/timshannon/badgerhold/v4"
)

// authKey is the fixed key of the singleton auth flag record.
const authKey = "auth"

// authRecord persists the login stub flag.
type authRecord struct {
	LoggedIn bool `json:"loggedIn"`
}

// AuthStorage implements the AuthStorage interface for Badger
type AuthStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewAuthStorage creates a new AuthStorage instance
func NewAuthStorage(db *BadgerDB, logger arbor.ILogger) interfaces.AuthStorage {
	return &AuthStorage{
		db:     db,
		logger: logger,
	}
}

// IsLoggedIn returns the persisted login flag. A missing record means false.
func (s *AuthStorage) IsLoggedIn(ctx context.Context) (bool, error) {
	var record authRecord
	err := s.db.Store().Get(authKey, &record)
	if err == badgerhold.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get auth flag: %w", err)
	}
	return record.LoggedIn, nil
}

// SetLoggedIn persists the login flag
func (s *AuthStorage) SetLoggedIn(ctx context.Context, loggedIn bool) error {
	if err := s.db.Store().Upsert(authKey, &authRecord{LoggedIn: loggedIn}); err != nil {
		return fmt.Errorf("failed to set auth flag: %w", err)
	}
	return nil
}
