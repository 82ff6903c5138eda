package corpus

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shipq/propcheck/proptest"
	"github.com/shipq/propcheck/proptest/gen"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), BuildSQLiteURL(filepath.Join(t.TempDir(), "nested", "corpus.db")))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func failingResult(t *testing.T, name string, seed int64, limit int) *proptest.Result {
	t.Helper()
	res, err := proptest.New(name).
		WithGenerator("n", proptest.Erase(gen.IntRange(0, 1000))).
		WithMaxShrinks(5000).
		WithSeed(seed).
		Check(func(_ context.Context, in proptest.Inputs) (bool, error) {
			return proptest.At[int](in, 0) < limit, nil
		}).
		Run(context.Background())
	require.NoError(t, err)
	require.False(t, res.Success)
	return res
}

// =============================================================================
// Open Tests
// =============================================================================

func TestOpen_UnknownScheme(t *testing.T) {
	_, err := Open(context.Background(), "redis://localhost/0")
	assert.ErrorIs(t, err, ErrUnknownDialect)
}

func TestOpen_Idempotent(t *testing.T) {
	url := BuildSQLiteURL(filepath.Join(t.TempDir(), "corpus.db"))
	ctx := context.Background()

	first, err := Open(ctx, url)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(ctx, url)
	require.NoError(t, err)
	defer second.Close()
	assert.Equal(t, DialectSQLite, second.Dialect())
}

// =============================================================================
// Record Tests
// =============================================================================

func TestRecord_StoresMinimalCounterexample(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	entry, recorded, err := s.Record(ctx, failingResult(t, "below 500", 9, 500))
	require.NoError(t, err)
	require.True(t, recorded)

	assert.NotZero(t, entry.ID)
	assert.Equal(t, "below 500", entry.TestName)
	assert.Equal(t, int64(9), entry.Seed)
	assert.Equal(t, proptest.KindPropertyFailed, entry.Kind)
	assert.Equal(t, 1, entry.Hits)
	assert.Len(t, entry.Fingerprint, 64)

	var inputs []int
	require.NoError(t, json.Unmarshal(entry.Counterexample, &inputs))
	assert.Equal(t, []int{500}, inputs)
}

func TestRecord_IgnoresSuccess(t *testing.T) {
	s := openTestStore(t)
	_, recorded, err := s.Record(context.Background(), &proptest.Result{TestName: "ok", Success: true})
	require.NoError(t, err)
	assert.False(t, recorded)

	entries, err := s.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRecord_SameCounterexampleBumpsHits(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s.now = func() time.Time { return base }

	first, _, err := s.Record(ctx, failingResult(t, "below 500", 1, 500))
	require.NoError(t, err)

	s.now = func() time.Time { return base.Add(time.Hour) }
	second, _, err := s.Record(ctx, failingResult(t, "below 500", 2, 500))
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 2, second.Hits)
	assert.Equal(t, int64(2), second.Seed, "latest failing seed is kept")
	assert.Equal(t, base, second.FirstSeen)
	assert.Equal(t, base.Add(time.Hour), second.LastSeen)
}

// =============================================================================
// Query Tests
// =============================================================================

func TestSeedsAndList(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, _, err := s.Record(ctx, failingResult(t, "below 500", 4, 500))
	require.NoError(t, err)
	_, _, err = s.Record(ctx, failingResult(t, "below 200", 5, 200))
	require.NoError(t, err)
	_, _, err = s.Record(ctx, failingResult(t, "below 200", 6, 200))
	require.NoError(t, err)

	seeds, err := s.Seeds(ctx, "below 200")
	require.NoError(t, err)
	assert.Equal(t, []int64{6}, seeds, "one fingerprint, latest seed")

	seeds, err = s.Seeds(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, seeds)

	all, err := s.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "below 200", all[0].TestName)
	assert.Equal(t, "below 500", all[1].TestName)

	filtered, err := s.List(ctx, "below 500")
	require.NoError(t, err)
	require.Len(t, filtered, 1)
}

func TestGetAndDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	entry, _, err := s.Record(ctx, failingResult(t, "below 500", 4, 500))
	require.NoError(t, err)

	got, err := s.Get(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, entry, got)

	require.NoError(t, s.Delete(ctx, entry.ID))

	_, err = s.Get(ctx, entry.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, entry.ID), ErrNotFound)
}

func TestDeleteSeed(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, _, err := s.Record(ctx, failingResult(t, "below 500", 4, 500))
	require.NoError(t, err)

	n, err := s.DeleteSeed(ctx, "below 500", 99)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = s.DeleteSeed(ctx, "below 500", 4)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestPrune(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	s.now = func() time.Time { return base }
	_, _, err := s.Record(ctx, failingResult(t, "old", 1, 100))
	require.NoError(t, err)

	s.now = func() time.Time { return base.Add(48 * time.Hour) }
	_, _, err = s.Record(ctx, failingResult(t, "new", 1, 100))
	require.NoError(t, err)

	n, err := s.Prune(ctx, base.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	remaining, err := s.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "new", remaining[0].TestName)
}
