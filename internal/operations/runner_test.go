package operations

import (
	"context"
	"encoding/json"
	"testing"

	"BotDeck/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRun_CompletesTheRecordedRow(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemoryStore()
	runner := NewRunner(store, zap.NewNop())

	res, err := runner.Run(ctx, "fetch_logs", "admin-1")
	require.NoError(t, err)
	assert.Equal(t, "Logs fetched", res.Message)
	assert.Len(t, res.Logs, 3)

	ops, err := store.ListOperations(ctx, 10)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, db.OperationCompleted, ops[0].Status)
	require.NotNil(t, ops[0].InitiatedBy)
	assert.Equal(t, "admin-1", *ops[0].InitiatedBy)
	require.NotNil(t, ops[0].CompletedAt)

	var details Result
	require.NoError(t, json.Unmarshal(ops[0].Details, &details))
	assert.Equal(t, "Logs fetched", details.Message)
}

func TestRun_UnknownTypeFails(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemoryStore()
	runner := NewRunner(store, zap.NewNop())

	res, err := runner.Run(ctx, "format_disk", "admin-1")
	require.NoError(t, err)
	assert.Equal(t, "Unknown operation type", res.Error)

	ops, err := store.ListOperations(ctx, 10)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, db.OperationFailed, ops[0].Status)
}

func TestRun_EachTypeGetsItsOwnRow(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemoryStore()
	runner := NewRunner(store, zap.NewNop())

	for _, typ := range Types() {
		_, err := runner.Run(ctx, typ, "")
		require.NoError(t, err)
	}

	ops, err := store.ListOperations(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, ops, len(Types()))
	for _, op := range ops {
		assert.Equal(t, db.OperationCompleted, op.Status, op.OperationType)
	}

	_, err = runner.Run(ctx, "", "")
	assert.ErrorIs(t, err, ErrMissingOperation)
}
