package harness

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shipq/propcheck/config"
	"github.com/shipq/propcheck/corpus"
	"github.com/shipq/propcheck/logging"
	"github.com/shipq/propcheck/proptest"
	"github.com/shipq/propcheck/proptest/gen"
)

// recorder captures failures reported through testing.TB.
type recorder struct {
	testing.TB
	errors []string
	fatals []string
}

func (r *recorder) Helper() {}

func (r *recorder) Errorf(format string, args ...any) {
	r.errors = append(r.errors, fmt.Sprintf(format, args...))
}

func (r *recorder) Fatalf(format string, args ...any) {
	r.fatals = append(r.fatals, fmt.Sprintf(format, args...))
}

// belowSeed first fails on 64, so a limit of 50 always leaves room to shrink.
const belowSeed = 4

func belowTest(limit int) *proptest.PropertyTest {
	return proptest.New("below limit").
		WithGenerator("n", proptest.Erase(gen.IntRange(0, 100))).
		WithSeed(belowSeed).
		Check(func(_ context.Context, in proptest.Inputs) (bool, error) {
			return proptest.At[int](in, 0) < limit, nil
		}).
		MustBuild()
}

func openStore(t *testing.T) *corpus.Store {
	t.Helper()
	s, err := corpus.Open(context.Background(), corpus.BuildSQLiteURL(filepath.Join(t.TempDir(), "corpus.db")))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func quiet() []Option {
	return []Option{WithSettings(config.Settings{}), WithLogger(logging.Discard)}
}

// =============================================================================
// Check Tests
// =============================================================================

func TestCheck_Passing(t *testing.T) {
	rec := &recorder{TB: t}
	res := Check(rec, belowTest(1000), quiet()...)

	require.NotNil(t, res)
	assert.True(t, res.Success)
	assert.Empty(t, rec.errors)
	assert.Empty(t, rec.fatals)
}

func TestCheck_FailureIsReportedAndRecorded(t *testing.T) {
	store := openStore(t)
	rec := &recorder{TB: t}

	res := Check(rec, belowTest(50), append(quiet(), WithStore(store))...)

	require.False(t, res.Success)
	assert.Equal(t, int64(belowSeed), res.Seed)
	failure := res.FirstFailure()
	require.True(t, failure.Shrunk)
	assert.Equal(t, proptest.Inputs{64}, failure.Inputs)
	assert.Equal(t, proptest.Inputs{50}, failure.MinimalCounterexample)

	require.Len(t, rec.errors, 1)
	assert.Contains(t, rec.errors[0], `property "below limit" failed`)
	assert.Contains(t, rec.errors[0], "inputs:  [64]")
	assert.Contains(t, rec.errors[0], "minimal: [50]")
	assert.Contains(t, rec.errors[0], fmt.Sprintf("PROPTEST_SEED=%d", res.Seed))

	entries, err := store.List(context.Background(), "below limit")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, res.Seed, entries[0].Seed)
}

func TestCheck_WithoutRecording(t *testing.T) {
	store := openStore(t)
	rec := &recorder{TB: t}

	Check(rec, belowTest(50), append(quiet(), WithStore(store), WithoutRecording())...)

	assert.Len(t, rec.errors, 1)
	entries, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCheck_ReplaysStillFailingSeed(t *testing.T) {
	store := openStore(t)
	first := Check(&recorder{TB: t}, belowTest(50), append(quiet(), WithStore(store))...)
	require.False(t, first.Success)

	rec := &recorder{TB: t}
	second := Check(rec, belowTest(50), append(quiet(), WithStore(store))...)

	require.False(t, second.Success)
	assert.Equal(t, int64(belowSeed), first.Seed)
	assert.Equal(t, first.Seed, second.Seed, "the recorded seed is replayed first")
	assert.Len(t, rec.errors, 1)

	entries, err := store.List(context.Background(), "below limit")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 2, entries[0].Hits)
}

func TestCheck_ReplayRemovesFixedSeeds(t *testing.T) {
	store := openStore(t)
	Check(&recorder{TB: t}, belowTest(50), append(quiet(), WithStore(store))...)

	rec := &recorder{TB: t}
	res := Check(rec, belowTest(1000), append(quiet(), WithStore(store))...)

	assert.True(t, res.Success)
	assert.Empty(t, rec.errors)
	entries, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCheck_WithoutReplay(t *testing.T) {
	store := openStore(t)
	Check(&recorder{TB: t}, belowTest(50), append(quiet(), WithStore(store))...)

	rec := &recorder{TB: t}
	res := Check(rec, belowTest(1000), append(quiet(), WithStore(store), WithoutReplay())...)

	assert.True(t, res.Success)
	entries, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, entries, 1, "seed stays when replay is skipped")
}

func TestCheck_AppliesSettings(t *testing.T) {
	seed := int64(77)
	rec := &recorder{TB: t}

	res := Check(rec, belowTest(1000),
		WithSettings(config.Settings{MaxTests: 5, Seed: &seed}),
		WithLogger(logging.Discard))

	assert.Equal(t, 5, res.TotalTests)
	assert.Equal(t, int64(77), res.Seed)
}

func TestCheck_OpensConfiguredCorpus(t *testing.T) {
	url := corpus.BuildSQLiteURL(filepath.Join(t.TempDir(), "corpus.db"))
	rec := &recorder{TB: t}

	Check(rec, belowTest(50), WithSettings(config.Settings{CorpusURL: url}), WithLogger(logging.Discard))

	store, err := corpus.Open(context.Background(), url)
	require.NoError(t, err)
	defer store.Close()
	seeds, err := store.Seeds(context.Background(), "below limit")
	require.NoError(t, err)
	assert.Len(t, seeds, 1)
}

func TestCheck_BadCorpusURLIsFatal(t *testing.T) {
	rec := &recorder{TB: t}
	res := Check(rec, belowTest(1000),
		WithSettings(config.Settings{CorpusURL: "redis://localhost"}),
		WithLogger(logging.Discard))

	assert.Nil(t, res)
	require.Len(t, rec.fatals, 1)
	assert.Contains(t, rec.fatals[0], "unknown database dialect")
}

func TestCheck_StyledReport(t *testing.T) {
	rec := &recorder{TB: t}
	Check(rec, belowTest(50), append(quiet(), Styled())...)
	require.Len(t, rec.errors, 1)
	assert.Contains(t, rec.errors[0], "PROPTEST_SEED=")
}
