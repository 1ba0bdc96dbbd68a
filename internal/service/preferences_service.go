package service

import (
	"context"
	"errors"

	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/config"
	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/domain"
	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/repository"
)

// PreferencesService resolves per-user display settings over the process-wide defaults.
type PreferencesService struct {
	repo     repository.PreferencesRepository
	defaults domain.Preferences
}

// NewPreferencesService captures the defaults once at startup.
func NewPreferencesService(repo repository.PreferencesRepository, cfg config.UIConfig) *PreferencesService {
	return &PreferencesService{
		repo:     repo,
		defaults: domain.Preferences{DarkMode: cfg.DefaultDarkMode},
	}
}

// Defaults returns the settings used for users who never saved any.
func (s *PreferencesService) Defaults() domain.Preferences {
	return s.defaults
}

// Get returns the saved preferences or the defaults.
func (s *PreferencesService) Get(ctx context.Context, userID string) (domain.Preferences, error) {
	prefs, err := s.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return s.defaults, nil
		}
		return domain.Preferences{}, mapRepoError("preferences lookup", "preferences", err)
	}
	return *prefs, nil
}

// Save stores the user's preferences.
func (s *PreferencesService) Save(ctx context.Context, userID string, prefs domain.Preferences) (domain.Preferences, error) {
	if err := s.repo.Save(ctx, userID, prefs); err != nil {
		return domain.Preferences{}, mapRepoError("preferences update", "preferences", err)
	}
	return prefs, nil
}
