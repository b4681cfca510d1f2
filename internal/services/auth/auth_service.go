package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/audile/internal/interfaces"
)

// Service is a local login stub. It persists a boolean flag and mirrors the
// chosen name/photo into the profile; no credentials are ever checked.
type Service struct {
	storage interfaces.AuthStorage
	profile interfaces.ProfileStorage
	logger  arbor.ILogger
}

// NewService creates a new auth service
func NewService(storage interfaces.AuthStorage, profile interfaces.ProfileStorage, logger arbor.ILogger) *Service {
	return &Service{
		storage: storage,
		profile: profile,
		logger:  logger,
	}
}

// IsLoggedIn reports the persisted login flag.
func (s *Service) IsLoggedIn(ctx context.Context) (bool, error) {
	return s.storage.IsLoggedIn(ctx)
}

// Login sets the login flag and records the chosen identity on the profile.
func (s *Service) Login(ctx context.Context, name, photo string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("name cannot be empty")
	}

	profile, err := s.profile.Get(ctx)
	if err != nil {
		return err
	}
	profile.Name = name
	if photo != "" {
		profile.Photo = photo
	}
	if err := s.profile.Save(ctx, profile); err != nil {
		return fmt.Errorf("failed to save profile on login: %w", err)
	}

	if err := s.storage.SetLoggedIn(ctx, true); err != nil {
		return err
	}

	s.logger.Info().Str("name", name).Msg("Logged in")
	return nil
}

// Logout clears the login flag. Profile data is retained.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.storage.SetLoggedIn(ctx, false); err != nil {
		return err
	}
	s.logger.Info().Msg("Logged out")
	return nil
}
