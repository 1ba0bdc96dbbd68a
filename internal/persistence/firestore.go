package persistence

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"

	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/config"
)

// Firestore wraps the document store client used by the firestore backend.
type Firestore struct {
	Client     *firestore.Client
	collection string
}

// NewFirestore creates a client for the configured project. FIRESTORE_EMULATOR_HOST is honoured by the SDK.
func NewFirestore(ctx context.Context, cfg config.FirestoreConfig, logger *zap.Logger) (*Firestore, error) {
	if cfg.ProjectID == "" {
		return nil, errors.New("firestore project id must be provided")
	}
	client, err := firestore.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("create firestore client: %w", err)
	}
	logger.Info("connected to firestore", zap.String("project", cfg.ProjectID))
	return &Firestore{Client: client, collection: cfg.TicketsCollection}, nil
}

// Ping reads at most one ticket document to prove the store answers.
func (f *Firestore) Ping(ctx context.Context) error {
	if f == nil || f.Client == nil {
		return errors.New("firestore client not configured")
	}
	it := f.Client.Collection(f.collection).Limit(1).Documents(ctx)
	defer it.Stop()
	if _, err := it.Next(); err != nil && !errors.Is(err, iterator.Done) {
		return err
	}
	return nil
}

// Close releases the client.
func (f *Firestore) Close() {
	if f != nil && f.Client != nil {
		_ = f.Client.Close()
	}
}
