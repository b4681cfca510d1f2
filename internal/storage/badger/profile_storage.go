package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/audile/internal/interfaces"
	"github.com/ternarybob/audile/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// profileKey is the fixed key of the singleton profile record.
const profileKey = "profile"

// ProfileStorage implements the ProfileStorage interface for Badger
type ProfileStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewProfileStorage creates a new ProfileStorage instance
func NewProfileStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ProfileStorage {
	return &ProfileStorage{
		db:     db,
		logger: logger,
	}
}

// Get returns the stored profile, seeding the default on first access
func (s *ProfileStorage) Get(ctx context.Context) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := s.db.Store().Get(profileKey, &profile)
	if err == badgerhold.ErrNotFound {
		seeded := models.NewDefaultProfile()
		if err := s.Save(ctx, seeded); err != nil {
			return nil, fmt.Errorf("failed to seed default profile: %w", err)
		}
		s.logger.Info().Str("name", seeded.Name).Msg("Seeded default profile")
		return seeded, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &profile, nil
}

// Save replaces the stored profile
func (s *ProfileStorage) Save(ctx context.Context, profile *models.UserProfile) error {
	if err := s.db.Store().Upsert(profileKey, profile); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}
