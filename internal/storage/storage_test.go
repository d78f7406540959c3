package storage

import (
	"context"
	"testing"

	"blackyoga/pkg/client"
	"blackyoga/pkg/config"
	"blackyoga/pkg/logger"
	"blackyoga/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Memory(t *testing.T) {
	cfg := &config.Config{StoreBackend: config.StoreMemory, Log: logger.Discard(), Client: client.NewClient()}

	s, err := New(cfg)
	require.NoError(t, err)
	assert.Equal(t, config.StoreMemory, s.Backend)
	assert.NoError(t, s.Pinger.Ping(context.Background()))

	ctx := context.Background()
	err = s.Tx.ExecuteTransaction(ctx, func(ctx context.Context) error {
		return s.Users.Create(ctx, &model.User{ID: "U1", LineID: "U1"})
	})
	require.NoError(t, err)

	user, err := s.Users.FindByID(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, "U1", user.LineID)
}

func TestNew_RequiresConnectedClient(t *testing.T) {
	for _, backend := range []string{config.StoreFirestore, config.StoreMongo} {
		t.Run(backend, func(t *testing.T) {
			cfg := &config.Config{StoreBackend: backend, Log: logger.Discard(), Client: client.NewClient()}

			_, err := New(cfg)
			assert.Error(t, err)
		})
	}
}

func TestNew_UnknownBackend(t *testing.T) {
	_, err := New(&config.Config{StoreBackend: "sqlite", Client: client.NewClient()})
	assert.ErrorContains(t, err, "sqlite")
}
