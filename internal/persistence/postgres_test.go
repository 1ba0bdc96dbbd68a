package persistence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/config"
)

func TestNewPostgresRequiresDSN(t *testing.T) {
	pg, err := NewPostgres(context.Background(), config.PostgresConfig{}, zap.NewNop())
	assert.Error(t, err)
	assert.Nil(t, pg)
}

func TestUnconfiguredClientsFailPing(t *testing.T) {
	ctx := context.Background()
	var pg *Postgres
	var rd *Redis
	var fs *Firestore
	assert.Error(t, pg.Ping(ctx))
	assert.Error(t, rd.Ping(ctx))
	assert.Error(t, fs.Ping(ctx))
	assert.Nil(t, pg.PoolHandle())
}
