package repository

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/domain"
)

const preferencesPrefix = "preferences:"

// PreferencesRepository persists per-user display preferences.
type PreferencesRepository interface {
	// Get returns ErrNotFound when the user never saved preferences.
	Get(ctx context.Context, userID string) (*domain.Preferences, error)
	Save(ctx context.Context, userID string, prefs domain.Preferences) error
	Delete(ctx context.Context, userID string) error
}

type preferencesRepository struct {
	client *redis.Client
}

// NewPreferencesRepository constructs the Redis-backed repository.
func NewPreferencesRepository(client *redis.Client) PreferencesRepository {
	return &preferencesRepository{client: client}
}

func (r *preferencesRepository) Get(ctx context.Context, userID string) (*domain.Preferences, error) {
	values, err := r.client.HGetAll(ctx, preferencesPrefix+userID).Result()
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, ErrNotFound
	}
	darkMode, _ := strconv.ParseBool(values["dark_mode"])
	return &domain.Preferences{DarkMode: darkMode}, nil
}

func (r *preferencesRepository) Save(ctx context.Context, userID string, prefs domain.Preferences) error {
	return r.client.HSet(ctx, preferencesPrefix+userID, "dark_mode", strconv.FormatBool(prefs.DarkMode)).Err()
}

func (r *preferencesRepository) Delete(ctx context.Context, userID string) error {
	return r.client.Del(ctx, preferencesPrefix+userID).Err()
}
