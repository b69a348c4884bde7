package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestMemoryStore_UpsertConnectionOverwrites(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	first := &UserServiceConnection{
		UserDiscordID: "u1",
		ServiceID:     "svc",
		IsConnected:   true,
		AccessToken:   strPtr("old"),
	}
	require.NoError(t, store.UpsertConnection(ctx, first))

	second := &UserServiceConnection{
		UserDiscordID: "u1",
		ServiceID:     "svc",
		IsConnected:   true,
		AccessToken:   strPtr("new"),
	}
	require.NoError(t, store.UpsertConnection(ctx, second))

	assert.Equal(t, 1, store.ConnectionCount())
	assert.Equal(t, first.ID, second.ID)

	got, err := store.GetConnection(ctx, "u1", "svc")
	require.NoError(t, err)
	require.NotNil(t, got.AccessToken)
	assert.Equal(t, "new", *got.AccessToken)
}

func TestMemoryStore_ReconnectWithoutRefreshTokenKeepsStoredOne(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.UpsertConnection(ctx, &UserServiceConnection{
		UserDiscordID: "u1",
		ServiceID:     "svc",
		IsConnected:   true,
		AccessToken:   strPtr("a1"),
		RefreshToken:  strPtr("r1"),
	}))
	require.NoError(t, store.UpsertConnection(ctx, &UserServiceConnection{
		UserDiscordID: "u1",
		ServiceID:     "svc",
		IsConnected:   true,
		AccessToken:   strPtr("a2"),
	}))

	got, err := store.GetConnection(ctx, "u1", "svc")
	require.NoError(t, err)
	assert.Equal(t, "a2", *got.AccessToken)
	require.NotNil(t, got.RefreshToken)
	assert.Equal(t, "r1", *got.RefreshToken)
}

func TestMemoryStore_DisconnectClearsTokens(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	expires := time.Now().Add(time.Hour)

	require.NoError(t, store.UpsertConnection(ctx, &UserServiceConnection{
		UserDiscordID:  "u1",
		ServiceID:      "svc",
		IsConnected:    true,
		AccessToken:    strPtr("a"),
		RefreshToken:   strPtr("r"),
		TokenExpiresAt: &expires,
	}))

	require.NoError(t, store.DisconnectService(ctx, "u1", "svc"))
	require.NoError(t, store.DisconnectService(ctx, "u1", "svc"))
	require.NoError(t, store.DisconnectService(ctx, "nobody", "svc"))

	got, err := store.GetConnection(ctx, "u1", "svc")
	require.NoError(t, err)
	assert.False(t, got.IsConnected)
	assert.Nil(t, got.AccessToken)
	assert.Nil(t, got.RefreshToken)
	assert.Nil(t, got.TokenExpiresAt)
}

func TestMemoryStore_BotStatusPicksMostRecent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.GetBotStatus(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	now := time.Now().UTC()
	store.AddStatusRow(BotStatus{IsActive: true, UpdatedAt: now.Add(-time.Minute)})
	store.AddStatusRow(BotStatus{IsActive: false, UpdatedAt: now})

	st, err := store.GetBotStatus(ctx)
	require.NoError(t, err)
	assert.False(t, st.IsActive)

	_, err = store.SetBotStatus(ctx, true, "admin")
	require.NoError(t, err)
	st, err = store.GetBotStatus(ctx)
	require.NoError(t, err)
	assert.True(t, st.IsActive)
}

func TestMemoryStore_CompleteOperationOnce(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	op := &GCPOperation{OperationType: "start_server"}
	require.NoError(t, store.CreateOperation(ctx, op))
	assert.Equal(t, OperationPending, op.Status)

	require.NoError(t, store.CompleteOperation(ctx, op.ID, OperationCompleted, []byte(`{"message":"ok"}`)))
	assert.ErrorIs(t, store.CompleteOperation(ctx, op.ID, OperationFailed, nil), ErrNotFound)

	ops, err := store.ListOperations(ctx, 10)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, OperationCompleted, ops[0].Status)
	assert.NotNil(t, ops[0].CompletedAt)
}

func TestSeed_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, Seed(ctx, store))
	require.NoError(t, Seed(ctx, store))

	svc, err := store.GetServiceByName(ctx, "google_calendar")
	require.NoError(t, err)
	assert.True(t, svc.Active)
	assert.NotEmpty(t, svc.OAuthScope)

	services, err := store.ListServices(ctx, true)
	require.NoError(t, err)
	assert.Len(t, services, 1)

	cmds, err := store.ListCommands(ctx, true)
	require.NoError(t, err)
	names := make([]string, 0, len(cmds))
	for _, c := range cmds {
		names = append(names, c.Name)
	}
	assert.Contains(t, names, "ping")
	assert.Contains(t, names, "calendar")
	assert.Len(t, names, 7)
}
