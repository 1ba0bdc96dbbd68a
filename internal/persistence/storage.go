package persistence

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/config"
)

// Storage wraps the Cloud Storage client holding ticket attachments.
type Storage struct {
	Client *storage.Client
	bucket string
}

// NewStorage creates the client. STORAGE_EMULATOR_HOST is honoured by the SDK.
func NewStorage(ctx context.Context, cfg config.BlobConfig, logger *zap.Logger) (*Storage, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("BLOB_BUCKET must be provided")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	logger.Info("storage client ready", zap.String("bucket", cfg.Bucket))
	return &Storage{Client: client, bucket: cfg.Bucket}, nil
}

// Bucket returns the handle of the attachments bucket.
func (s *Storage) Bucket() *storage.BucketHandle {
	return s.Client.Bucket(s.bucket)
}

// Ping checks that the bucket exists and is reachable.
func (s *Storage) Ping(ctx context.Context) error {
	if s == nil || s.Client == nil {
		return errors.New("storage client not configured")
	}
	_, err := s.Bucket().Attrs(ctx)
	return err
}

// Close releases the client.
func (s *Storage) Close() {
	if s != nil && s.Client != nil {
		_ = s.Client.Close()
	}
}
