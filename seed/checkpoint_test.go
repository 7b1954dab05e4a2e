package seed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *CheckpointStore {
	t.Helper()
	store, err := OpenCheckpointStore("", true)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestCheckpointSerialization(t *testing.T) {
	original := &Checkpoint{
		Source:    "episodes-2026-08.jsonl",
		Records:   1234,
		UpdatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}

	restored, err := UnmarshalCheckpoint(MarshalCheckpoint(original))
	require.NoError(t, err)
	assert.Equal(t, original.Source, restored.Source)
	assert.Equal(t, original.Records, restored.Records)
	assert.True(t, original.UpdatedAt.Equal(restored.UpdatedAt))
}

func TestCheckpointStore(t *testing.T) {
	ctx := context.Background()

	t.Run("save and load", func(t *testing.T) {
		store := openTestStore(t)

		err := store.Save(ctx, &Checkpoint{Source: "feed.jsonl", Records: 50})
		require.NoError(t, err)

		checkpoint, err := store.Load(ctx, "feed.jsonl")
		require.NoError(t, err)
		require.NotNil(t, checkpoint)
		assert.Equal(t, uint64(50), checkpoint.Records)
		assert.False(t, checkpoint.UpdatedAt.IsZero())
	})

	t.Run("missing checkpoint returns nil", func(t *testing.T) {
		store := openTestStore(t)

		checkpoint, err := store.Load(ctx, "unknown")
		require.NoError(t, err)
		assert.Nil(t, checkpoint)
	})

	t.Run("save overwrites", func(t *testing.T) {
		store := openTestStore(t)

		require.NoError(t, store.Save(ctx, &Checkpoint{Source: "feed.jsonl", Records: 50}))
		require.NoError(t, store.Save(ctx, &Checkpoint{Source: "feed.jsonl", Records: 120}))

		checkpoint, err := store.Load(ctx, "feed.jsonl")
		require.NoError(t, err)
		require.NotNil(t, checkpoint)
		assert.Equal(t, uint64(120), checkpoint.Records)
	})

	t.Run("empty source rejected", func(t *testing.T) {
		store := openTestStore(t)
		assert.Equal(t, ErrEmptySource, store.Save(ctx, &Checkpoint{Records: 1}))
	})

	t.Run("delete", func(t *testing.T) {
		store := openTestStore(t)

		require.NoError(t, store.Save(ctx, &Checkpoint{Source: "feed.jsonl", Records: 50}))
		require.NoError(t, store.Delete(ctx, "feed.jsonl"))

		checkpoint, err := store.Load(ctx, "feed.jsonl")
		require.NoError(t, err)
		assert.Nil(t, checkpoint)
	})
}
