package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/emberkv/ember/internal/record"
	"github.com/emberkv/ember/pkg/errors"
	"github.com/emberkv/ember/pkg/options"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestEngine(t *testing.T, dir string, opts ...options.OptionFunc) *Engine {
	t.Helper()

	engineOpts := options.NewDefaultOptions()
	options.WithDataDir(dir)(&engineOpts)
	for _, opt := range opts {
		opt(&engineOpts)
	}

	engine, err := New(context.Background(), &Config{
		Options: &engineOpts,
		Logger:  zap.NewNop().Sugar(),
	})
	require.NoError(t, err)
	return engine
}

// onDiskBytes sums the sizes of every file in the store directory.
func onDiskBytes(t *testing.T, dir string) int64 {
	t.Helper()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	var total int64
	for _, entry := range entries {
		info, err := entry.Info()
		require.NoError(t, err)
		total += info.Size()
	}
	return total
}

// encodedSetSize returns the on-disk length of one Set record.
func encodedSetSize(t *testing.T, key, value string) int64 {
	t.Helper()

	data, err := record.Encode(record.NewSet(key, value))
	require.NoError(t, err)
	return int64(len(data))
}

func TestBasicSetGet(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, t.TempDir())
	t.Cleanup(func() { _ = engine.Close() })

	require.NoError(t, engine.Set(ctx, "k1", "v1"))

	value, ok, err := engine.Get(ctx, "k1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v1", value)

	_, ok, err = engine.Get(ctx, "k2")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestOverwriteWins(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, t.TempDir())
	t.Cleanup(func() { _ = engine.Close() })

	require.NoError(t, engine.Set(ctx, "k", "a"))
	require.NoError(t, engine.Set(ctx, "k", "b"))
	require.NoError(t, engine.Set(ctx, "k", "c"))

	value, ok, err := engine.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "c", value)
}

func TestRemoveInvalidates(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, t.TempDir())
	t.Cleanup(func() { _ = engine.Close() })

	require.NoError(t, engine.Set(ctx, "k", "v"))
	require.NoError(t, engine.Remove(ctx, "k"))

	_, ok, err := engine.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRemoveAbsentFails(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, t.TempDir())
	t.Cleanup(func() { _ = engine.Close() })

	err := engine.Remove(ctx, "never-set")
	require.Error(t, err)
	require.True(t, errors.IsKeyNotFound(err))

	// A removed key behaves like one never set.
	require.NoError(t, engine.Set(ctx, "k", "v"))
	require.NoError(t, engine.Remove(ctx, "k"))
	err = engine.Remove(ctx, "k")
	require.True(t, errors.IsKeyNotFound(err))
}

func TestRemoveThenReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	engine := newTestEngine(t, dir)
	require.NoError(t, engine.Set(ctx, "x", "1"))
	require.NoError(t, engine.Remove(ctx, "x"))
	require.NoError(t, engine.Close())

	reopened := newTestEngine(t, dir)
	t.Cleanup(func() { _ = reopened.Close() })

	_, ok, err := reopened.Get(ctx, "x")
	require.NoError(t, err)
	require.False(t, ok)

	err = reopened.Remove(ctx, "x")
	require.True(t, errors.IsKeyNotFound(err))
}

func TestPersistenceAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	const keys = 1000

	engine := newTestEngine(t, dir)
	for i := 0; i < keys; i++ {
		require.NoError(t, engine.Set(ctx, fmt.Sprintf("key%d", i), fmt.Sprintf("value%d", i)))
	}
	require.NoError(t, engine.Close())

	reopened := newTestEngine(t, dir)
	t.Cleanup(func() { _ = reopened.Close() })

	for i := 0; i < keys; i++ {
		value, ok, err := reopened.Get(ctx, fmt.Sprintf("key%d", i))
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, fmt.Sprintf("value%d", i), value)
	}

	// The accounted byte total matches what's actually on disk.
	require.Equal(t, onDiskBytes(t, dir), reopened.Size())
}

func TestLargeValueRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	large := strings.Repeat("0123456789abcdef", 6250) // 100,000 bytes

	engine := newTestEngine(t, dir)
	require.NoError(t, engine.Set(ctx, "k", large))

	value, ok, err := engine.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, large, value)

	require.NoError(t, engine.Close())

	reopened := newTestEngine(t, dir)
	t.Cleanup(func() { _ = reopened.Close() })

	value, ok, err = reopened.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, large, value)
}

func TestUnicodeKeysAndValues(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	pairs := map[string]string{
		"ключ":           "значение",
		"鍵\n改行":          "値 with \"quotes\"",
		"emoji-🔑":        "💾\t💾",
		`{"looks":"json"}`: `{"command":"Rm","key":"decoy"}`,
	}

	engine := newTestEngine(t, dir)
	for k, v := range pairs {
		require.NoError(t, engine.Set(ctx, k, v))
	}
	require.NoError(t, engine.Close())

	reopened := newTestEngine(t, dir)
	t.Cleanup(func() { _ = reopened.Close() })

	for k, v := range pairs {
		value, ok, err := reopened.Get(ctx, k)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, v, value)
	}
}

func TestCompactionBoundsDiskUsage(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	const keys = 300

	// A small threshold keeps compaction running throughout the churn.
	engine := newTestEngine(t, dir, options.WithCompactThreshold(2048))
	t.Cleanup(func() { _ = engine.Close() })

	for i := 0; i < keys; i++ {
		require.NoError(t, engine.Set(ctx, fmt.Sprintf("key%d", i), fmt.Sprintf("value%d", i)))
	}
	for i := 0; i < keys; i++ {
		require.NoError(t, engine.Set(ctx, fmt.Sprintf("key%d", i), fmt.Sprintf("fresh%d", i)))
	}

	// Every key reads back its latest value.
	var liveBytes int64
	for i := 0; i < keys; i++ {
		key := fmt.Sprintf("key%d", i)
		want := fmt.Sprintf("fresh%d", i)

		value, ok, err := engine.Get(ctx, key)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, want, value)

		liveBytes += encodedSetSize(t, key, want)
	}

	// Churn wrote ~2x the live data, but compaction kept the directory
	// bounded by the live records rather than the write history.
	require.LessOrEqual(t, onDiskBytes(t, dir), 2*liveBytes)
}

func TestCompactionPreservesSemanticsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	engine := newTestEngine(t, dir, options.WithCompactThreshold(512))
	for i := 0; i < 50; i++ {
		require.NoError(t, engine.Set(ctx, fmt.Sprintf("k%d", i%10), fmt.Sprintf("v%d", i)))
	}
	require.NoError(t, engine.Remove(ctx, "k0"))
	require.NoError(t, engine.Close())

	reopened := newTestEngine(t, dir, options.WithCompactThreshold(512))
	t.Cleanup(func() { _ = reopened.Close() })

	_, ok, err := reopened.Get(ctx, "k0")
	require.NoError(t, err)
	require.False(t, ok)

	for i := 1; i < 10; i++ {
		value, ok, err := reopened.Get(ctx, fmt.Sprintf("k%d", i))
		require.NoError(t, err)
		require.True(t, ok)
		// The last write for k{i} was at iteration 40+i.
		require.Equal(t, fmt.Sprintf("v%d", 40+i), value)
	}
}

func TestRecoveryFailsOnTornTail(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	engine := newTestEngine(t, dir)
	require.NoError(t, engine.Set(ctx, "k", "v"))
	require.NoError(t, engine.Close())

	// Simulate a crash mid-append: a partial record at the tail of the
	// active segment.
	path := filepath.Join(dir, "0-log.json")
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0644)
	require.NoError(t, err)
	_, err = f.WriteString(`{"command":"Set","key":"torn`)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	engineOpts := options.NewDefaultOptions()
	options.WithDataDir(dir)(&engineOpts)
	_, err = New(ctx, &Config{Options: &engineOpts, Logger: zap.NewNop().Sugar()})
	require.Error(t, err)
	require.Equal(t, errors.ErrorCodeSerde, errors.GetErrorCode(err))
}

func TestClosedEngineRejectsOperations(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, t.TempDir())

	require.NoError(t, engine.Close())
	require.ErrorIs(t, engine.Close(), ErrEngineClosed)

	require.ErrorIs(t, engine.Set(ctx, "k", "v"), ErrEngineClosed)
	_, _, err := engine.Get(ctx, "k")
	require.ErrorIs(t, err, ErrEngineClosed)
	require.ErrorIs(t, engine.Remove(ctx, "k"), ErrEngineClosed)
}
