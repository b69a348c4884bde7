package main

import (
	"context"
	"testing"

	"BotDeck/config"
	"BotDeck/internal/calendar"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestOpenSeededStoreMemory(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{Store: config.StoreConfig{Driver: "memory"}}

	store, err := openSeededStore(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	cmds, err := store.ListCommands(ctx, true)
	require.NoError(t, err)
	assert.Len(t, cmds, 7)

	svc, err := store.GetServiceByName(ctx, calendar.ServiceName)
	require.NoError(t, err)
	assert.True(t, svc.Active)
}
