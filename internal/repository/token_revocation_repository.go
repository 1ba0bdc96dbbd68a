package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedTokenPrefix = "revoked_token:"

// TokenRevocationRepository remembers signed-out access tokens until they expire.
type TokenRevocationRepository interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type tokenRevocationRepository struct {
	client *redis.Client
}

// NewTokenRevocationRepository constructs the Redis-backed repository.
func NewTokenRevocationRepository(client *redis.Client) TokenRevocationRepository {
	return &tokenRevocationRepository{client: client}
}

func (r *tokenRevocationRepository) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return r.client.Set(ctx, revokedTokenPrefix+tokenID, 1, ttl).Err()
}

func (r *tokenRevocationRepository) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.client.Exists(ctx, revokedTokenPrefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
