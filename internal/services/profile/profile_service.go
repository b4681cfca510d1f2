package profile

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/audile/internal/interfaces"
	"github.com/ternarybob/audile/internal/models"
)

// Service manages the singleton user profile. Mutations are serialized so
// the increment-and-save path never loses counts.
type Service struct {
	storage interfaces.ProfileStorage
	logger  arbor.ILogger
	mu      sync.Mutex
}

// NewService creates a new profile service
func NewService(storage interfaces.ProfileStorage, logger arbor.ILogger) *Service {
	return &Service{
		storage: storage,
		logger:  logger,
	}
}

// Get returns the stored profile, seeding the default on first access.
func (s *Service) Get(ctx context.Context) (*models.UserProfile, error) {
	return s.storage.Get(ctx)
}

// Update replaces the profile's display fields. Empty values keep the
// existing ones.
func (s *Service) Update(ctx context.Context, name, photo string) (*models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile, err := s.storage.Get(ctx)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(name) != "" {
		profile.Name = name
	}
	if photo != "" {
		profile.Photo = photo
	}

	if err := s.storage.Save(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}
	return profile, nil
}

// IncrementAnalyses bumps the lifetime analysis counter by one.
func (s *Service) IncrementAnalyses(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile, err := s.storage.Get(ctx)
	if err != nil {
		return err
	}

	profile.TotalAnalyses++
	if err := s.storage.Save(ctx, profile); err != nil {
		return fmt.Errorf("failed to save analysis counter: %w", err)
	}

	s.logger.Debug().
		Int("total_analyses", profile.TotalAnalyses).
		Msg("Incremented analysis counter")

	return nil
}

// AddPersona appends a new voice persona.
func (s *Service) AddPersona(ctx context.Context, voiceID models.VoiceID, customName string) (*models.UserProfile, error) {
	if strings.TrimSpace(customName) == "" {
		return nil, fmt.Errorf("persona name cannot be empty")
	}
	if !models.KnownVoice(voiceID) {
		return nil, fmt.Errorf("unknown voice %q", voiceID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	profile, err := s.storage.Get(ctx)
	if err != nil {
		return nil, err
	}

	profile.VoicePersonas = append(profile.VoicePersonas, models.VoicePersona{
		VoiceID:    voiceID,
		CustomName: customName,
	})

	if err := s.storage.Save(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to save persona: %w", err)
	}
	return profile, nil
}

// RenamePersona changes the custom name of the persona at index.
func (s *Service) RenamePersona(ctx context.Context, index int, customName string) (*models.UserProfile, error) {
	if strings.TrimSpace(customName) == "" {
		return nil, fmt.Errorf("persona name cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	profile, err := s.storage.Get(ctx)
	if err != nil {
		return nil, err
	}

	if index < 0 || index >= len(profile.VoicePersonas) {
		return nil, fmt.Errorf("persona index %d out of range", index)
	}

	profile.VoicePersonas[index].CustomName = customName
	if err := s.storage.Save(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to save persona: %w", err)
	}
	return profile, nil
}

// RemovePersona removes the persona at index. The last persona cannot be
// removed; there is always a default narrator.
func (s *Service) RemovePersona(ctx context.Context, index int) (*models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile, err := s.storage.Get(ctx)
	if err != nil {
		return nil, err
	}

	if index < 0 || index >= len(profile.VoicePersonas) {
		return nil, fmt.Errorf("persona index %d out of range", index)
	}
	if len(profile.VoicePersonas) == 1 {
		return nil, fmt.Errorf("cannot remove the last persona")
	}

	profile.VoicePersonas = append(profile.VoicePersonas[:index], profile.VoicePersonas[index+1:]...)
	if err := s.storage.Save(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to save persona: %w", err)
	}
	return profile, nil
}

// ResolveVoice maps a requested voice to a usable one, falling back to the
// default voice for anything outside the fixed set.
func (s *Service) ResolveVoice(voiceID models.VoiceID) models.VoiceID {
	if models.KnownVoice(voiceID) {
		return voiceID
	}
	return models.DefaultVoice
}

// DefaultPersona returns the profile's default narrator.
func (s *Service) DefaultPersona(ctx context.Context) (models.VoicePersona, error) {
	profile, err := s.storage.Get(ctx)
	if err != nil {
		return models.VoicePersona{}, err
	}
	if len(profile.VoicePersonas) == 0 {
		return models.VoicePersona{VoiceID: models.DefaultVoice, CustomName: "Main Narrator"}, nil
	}
	return profile.VoicePersonas[0], nil
}
