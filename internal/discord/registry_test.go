package discord

import (
	"context"
	"errors"
	"testing"

	"BotDeck/db"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type failingCommandStore struct{ db.CommandStore }

func (failingCommandStore) ListCommands(ctx context.Context, enabledOnly bool) ([]db.BotCommand, error) {
	return nil, errors.New("backend down")
}

func seededStore(t *testing.T) *db.MemoryStore {
	t.Helper()
	store := db.NewMemoryStore()
	ctx := context.Background()
	for _, c := range []db.BotCommand{
		{Name: "ping", Description: "Replies with Pong!", Enabled: true},
		{Name: "deploy", Description: "Deploy", Enabled: true, AdminOnly: true},
		{Name: "legacy", Description: "Old", Enabled: false},
	} {
		require.NoError(t, store.CreateCommand(ctx, &c))
	}
	return store
}

func TestSync_ClearsBothScopesBeforeRegistering(t *testing.T) {
	api := newFakeRegistrar()
	api.scopes[""] = []string{"stale-global"}
	api.scopes["guild-1"] = []string{"stale-guild"}

	_, err := NewRegistry(api, seededStore(t), "app", "guild-1", zap.NewNop()).Sync(context.Background())
	require.NoError(t, err)

	require.Len(t, api.calls, 3)
	assert.Equal(t, registrarCall{guildID: "guild-1", names: []string{}}, api.calls[0])
	assert.Equal(t, registrarCall{guildID: "", names: []string{}}, api.calls[1])
	assert.Equal(t, "guild-1", api.calls[2].guildID)

	assert.Empty(t, api.scopes[""])
	assert.ElementsMatch(t, []string{"ping", "deploy"}, api.scopes["guild-1"])
}

func TestSync_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	api := newFakeRegistrar()
	store := seededStore(t)
	registry := NewRegistry(api, store, "app", "guild-1", zap.NewNop())

	_, err := registry.Sync(ctx)
	require.NoError(t, err)
	first := append([]string(nil), api.scopes["guild-1"]...)

	_, err = registry.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, api.scopes["guild-1"])
	assert.Empty(t, api.scopes[""])

	// A removed command does not survive the next sync.
	cmd, err := store.GetCommandByName(ctx, "deploy")
	require.NoError(t, err)
	require.NoError(t, store.DeleteCommand(ctx, cmd.ID))
	_, err = registry.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"ping"}, api.scopes["guild-1"])
}

func TestSync_FetchFailureRegistersEmptySet(t *testing.T) {
	api := newFakeRegistrar()
	api.scopes["guild-1"] = []string{"stale"}

	registered, err := NewRegistry(api, failingCommandStore{}, "app", "guild-1", zap.NewNop()).Sync(context.Background())
	require.NoError(t, err)
	assert.Empty(t, registered)
	assert.Empty(t, api.scopes["guild-1"])
}

func TestSync_RegistrationFailureIsReported(t *testing.T) {
	api := newFakeRegistrar()
	api.failAll = true

	_, err := NewRegistry(api, seededStore(t), "app", "guild-1", zap.NewNop()).Sync(context.Background())
	assert.Error(t, err)
	assert.Len(t, api.calls, 3, "clearing errors do not stop registration")
}

func TestBuildCommands(t *testing.T) {
	r := NewRegistry(newFakeRegistrar(), db.NewMemoryStore(), "app", "guild", zap.NewNop())

	defs := r.BuildCommands([]db.BotCommand{
		{ID: "1", Name: "ping", Description: "Pong"},
		{ID: "2", Name: "ping", Description: "Duplicate"},
		{ID: "3", Name: "ops", AdminOnly: true},
	})

	require.Len(t, defs, 2)
	assert.Equal(t, "Pong", defs[0].Description)
	assert.Equal(t, discordgo.ChatApplicationCommand, defs[0].Type)
	assert.Nil(t, defs[0].DefaultMemberPermissions)
	assert.Equal(t, "ops", defs[1].Description)
	require.NotNil(t, defs[1].DefaultMemberPermissions)
	assert.Equal(t, int64(discordgo.PermissionAdministrator), *defs[1].DefaultMemberPermissions)
}

func TestRecordGuild(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemoryStore()

	require.NoError(t, RecordGuild(ctx, store, &discordgo.Guild{ID: "g1", Name: "Ops"}))
	require.NoError(t, RecordGuild(ctx, store, &discordgo.Guild{ID: "g1", Name: "Ops Renamed", Icon: "abc"}))

	servers, err := store.ListServers(ctx, true)
	require.NoError(t, err)
	require.Len(t, servers, 1)
	assert.Equal(t, "Ops Renamed", servers[0].ServerName)
	require.NotNil(t, servers[0].IconURL)
	assert.Contains(t, *servers[0].IconURL, "abc")
}
