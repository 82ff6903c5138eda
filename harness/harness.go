// Package harness runs property tests from go test.
//
// Check loads settings from propcheck.yaml and PROPTEST_* variables,
// replays seeds that failed before, runs the test and records any new
// failure in the corpus:
//
//	func TestQuorum(t *testing.T) {
//		harness.Check(t, quorumTest)
//	}
package harness

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/shipq/propcheck/config"
	"github.com/shipq/propcheck/corpus"
	"github.com/shipq/propcheck/proptest"
	"github.com/shipq/propcheck/report"
)

type options struct {
	settings    *config.Settings
	store       *corpus.Store
	logger      *slog.Logger
	skipReplay  bool
	skipRecords bool
	styled      bool
}

// Option configures Check.
type Option func(*options)

// WithSettings uses s instead of loading propcheck.yaml and the environment.
func WithSettings(s config.Settings) Option {
	return func(o *options) { o.settings = &s }
}

// WithStore uses an already open corpus instead of the configured corpus URL.
// The store is not closed by Check.
func WithStore(s *corpus.Store) Option {
	return func(o *options) { o.store = s }
}

// WithLogger overrides the configured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithoutReplay skips replaying corpus seeds.
func WithoutReplay() Option {
	return func(o *options) { o.skipReplay = true }
}

// WithoutRecording keeps new failures out of the corpus.
func WithoutRecording() Option {
	return func(o *options) { o.skipRecords = true }
}

// Styled renders failure reports with terminal colors.
func Styled() Option {
	return func(o *options) { o.styled = true }
}

// Check runs test and reports failures through t. It returns the result
// of the last run: a replayed seed that still fails, or the fresh run.
func Check(t testing.TB, test *proptest.PropertyTest, opts ...Option) *proptest.Result {
	t.Helper()

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	settings := o.settings
	if settings == nil {
		loaded, err := config.LoadDefault()
		if err != nil {
			t.Fatalf("propcheck: %v", err)
			return nil
		}
		settings = &loaded
	}

	logger := o.logger
	if logger == nil {
		var err error
		if logger, err = settings.Logger(os.Stderr); err != nil {
			t.Fatalf("propcheck: %v", err)
			return nil
		}
	}

	ctx := t.Context()
	test = settings.Apply(test)
	runner := proptest.NewRunner(proptest.WithLogger(logger))

	store := o.store
	if store == nil && settings.CorpusURL != "" {
		var err error
		if store, err = corpus.Open(ctx, settings.CorpusURL); err != nil {
			t.Fatalf("propcheck: %v", err)
			return nil
		}
		defer store.Close()
	}

	if store != nil && !o.skipReplay {
		if res := replay(ctx, t, runner, store, test, logger); res != nil {
			fail(t, o, res)
			return res
		}
	}

	res := runner.Run(ctx, test)
	if !res.Success {
		if store != nil && !o.skipRecords {
			record(ctx, t, store, res)
		}
		fail(t, o, res)
	}
	return res
}

// replay reruns every recorded seed of test. Seeds that pass again are
// removed from the corpus. The first seed that still fails is returned.
func replay(ctx context.Context, t testing.TB, runner *proptest.Runner, store *corpus.Store, test *proptest.PropertyTest, logger *slog.Logger) *proptest.Result {
	t.Helper()

	seeds, err := store.Seeds(ctx, test.Name())
	if err != nil {
		t.Errorf("propcheck: %v", err)
		return nil
	}

	for _, seed := range seeds {
		res := runner.Run(ctx, test.WithSeed(seed))
		if !res.Success {
			logger.Info("corpus seed still fails", "test", test.Name(), "seed", seed)
			record(ctx, t, store, res)
			return res
		}
		if _, err := store.DeleteSeed(ctx, test.Name(), seed); err != nil {
			t.Errorf("propcheck: %v", err)
			continue
		}
		logger.Info("corpus seed fixed", "test", test.Name(), "seed", seed)
	}
	return nil
}

func record(ctx context.Context, t testing.TB, store *corpus.Store, res *proptest.Result) {
	t.Helper()
	if _, _, err := store.Record(ctx, res); err != nil {
		t.Errorf("propcheck: failed to record counterexample: %v", err)
	}
}

func fail(t testing.TB, o *options, res *proptest.Result) {
	t.Helper()
	out := report.Text(res)
	if o.styled {
		out = report.Styled(res)
	}
	t.Errorf("property %q failed\n%s", res.TestName, out)
}
