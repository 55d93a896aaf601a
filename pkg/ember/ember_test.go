package ember_test

import (
	"context"
	"testing"

	"github.com/emberkv/ember/pkg/ember"
	"github.com/emberkv/ember/pkg/errors"
	"github.com/emberkv/ember/pkg/options"
	"github.com/stretchr/testify/require"
)

func newTestInstance(t *testing.T, dir string) *ember.Instance {
	t.Helper()

	store, err := ember.NewInstance(
		context.Background(),
		"ember-test",
		options.WithDataDir(dir),
		options.WithLogLevel("error"),
	)
	require.NoError(t, err)
	return store
}

func TestPublicSetGetRemove(t *testing.T) {
	ctx := context.Background()
	store := newTestInstance(t, t.TempDir())
	t.Cleanup(func() { _ = store.Close(ctx) })

	require.NoError(t, store.Set(ctx, "language", "go"))

	value, ok, err := store.Get(ctx, "language")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "go", value)

	require.NoError(t, store.Remove(ctx, "language"))

	_, ok, err = store.Get(ctx, "language")
	require.NoError(t, err)
	require.False(t, ok)

	err = store.Remove(ctx, "language")
	require.True(t, errors.IsKeyNotFound(err))
}

func TestPublicPersistenceAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store := newTestInstance(t, dir)
	require.NoError(t, store.Set(ctx, "durable", "yes"))
	require.NoError(t, store.Set(ctx, "ephemeral", "no"))
	require.NoError(t, store.Remove(ctx, "ephemeral"))
	require.NoError(t, store.Close(ctx))

	reopened := newTestInstance(t, dir)
	t.Cleanup(func() { _ = reopened.Close(ctx) })

	value, ok, err := reopened.Get(ctx, "durable")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "yes", value)

	_, ok, err = reopened.Get(ctx, "ephemeral")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPublicOptionsControlCompaction(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := ember.NewInstance(
		ctx,
		"ember-test",
		options.WithDataDir(dir),
		options.WithCompactThreshold(256),
		options.WithLogLevel("error"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(ctx) })

	// Enough churn on one key to cross the threshold repeatedly.
	for i := 0; i < 64; i++ {
		require.NoError(t, store.Set(ctx, "k", "a-reasonably-long-value-to-churn-the-log"))
	}

	value, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "a-reasonably-long-value-to-churn-the-log", value)
}
