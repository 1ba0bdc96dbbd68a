package repository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const passwordResetPrefix = "password_reset:"

// PasswordResetRepository stores single-use reset tokens that expire on their own.
type PasswordResetRepository interface {
	Create(ctx context.Context, token, userID string, ttl time.Duration) error
	// Consume returns the owner of token and removes it. Expired or used tokens yield ErrNotFound.
	Consume(ctx context.Context, token string) (string, error)
}

type passwordResetRepository struct {
	client *redis.Client
}

// NewPasswordResetRepository constructs the Redis-backed repository.
func NewPasswordResetRepository(client *redis.Client) PasswordResetRepository {
	return &passwordResetRepository{client: client}
}

func (r *passwordResetRepository) Create(ctx context.Context, token, userID string, ttl time.Duration) error {
	return r.client.Set(ctx, passwordResetPrefix+token, userID, ttl).Err()
}

func (r *passwordResetRepository) Consume(ctx context.Context, token string) (string, error) {
	userID, err := r.client.GetDel(ctx, passwordResetPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return userID, nil
}
