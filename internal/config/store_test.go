package config

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreLoadReturnsErrNoConfigBeforeSeed(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, ErrNoConfig)
}

func TestStoreSeedThenLoadReturnsDefaults(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Seed(ctx))

	snap, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.ConcurrencyCap)
	assert.True(t, snap.LocalhostPriority)
	assert.True(t, snap.QueueEnabled)
	assert.Equal(t, 30, snap.HeartbeatTimeout)
}

func TestStoreUpdateLeavesAbsentFieldsUnchanged(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	name := "my-app"
	port := 3000
	_, err := store.Update(ctx, PartialUpdate{Name: &name, Port: &port})
	require.NoError(t, err)

	command := "npm start"
	snap, err := store.Update(ctx, PartialUpdate{Command: &command})
	require.NoError(t, err)

	assert.Equal(t, "my-app", snap.Name, "name set in first update must survive a later partial update")
	assert.Equal(t, 3000, snap.Port, "port set in first update must survive a later partial update")
	assert.Equal(t, "npm start", snap.Command)
}

func TestStoreLoadReflectsUpdatedBoolean(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	queueEnabled := false
	_, err := store.Update(ctx, PartialUpdate{QueueEnabled: &queueEnabled})
	require.NoError(t, err)

	snap, err := store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, snap.QueueEnabled)
}
