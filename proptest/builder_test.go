package proptest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// intGen returns ints in [lo, hi] that shrink toward lo: lo itself, the
// midpoint, then one step down.
func intGen(lo, hi int) Generator[any] {
	return Erase[int](Func[int]{
		GenerateFn: func(rng *Rand, _ int) int { return rng.Integer(lo, hi) },
		ShrinkFn: func(v int) []int {
			if v == lo {
				return nil
			}
			out := []int{lo}
			mid := lo + (v-lo)/2
			if mid != lo {
				out = append(out, mid)
			}
			if v-1 != lo && v-1 != mid {
				out = append(out, v-1)
			}
			return out
		},
		ValidFn: func(v int) bool { return v >= lo && v <= hi },
	})
}

func alwaysTrue(context.Context, Inputs) (bool, error) { return true, nil }

// =============================================================================
// Build Validation Tests
// =============================================================================

func TestBuild_Defaults(t *testing.T) {
	test, err := New("defaults").
		WithGenerator("n", intGen(0, 10)).
		Check(alwaysTrue).
		Build()
	require.NoError(t, err)

	assert.Equal(t, "defaults", test.Name())
	assert.Equal(t, DefaultMaxTests, test.MaxTests())
	assert.Equal(t, DefaultMaxShrinks, test.MaxShrinks())
	assert.Equal(t, DefaultTimeout, test.Timeout())
	min, max := test.SizeRange()
	assert.Equal(t, DefaultMinSize, min)
	assert.Equal(t, DefaultMaxSize, max)
	_, pinned := test.Seed()
	assert.False(t, pinned)
	assert.Equal(t, []string{"n"}, test.GeneratorNames())
}

func TestBuild_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		builder *Builder
	}{
		{
			name:    "missing property",
			builder: New("t").WithGenerator("n", intGen(0, 1)),
		},
		{
			name:    "missing generator",
			builder: New("t").Check(alwaysTrue),
		},
		{
			name:    "nil generator",
			builder: New("t").WithGenerator("n", nil).WithGenerator("m", intGen(0, 1)).Check(alwaysTrue),
		},
		{
			name:    "non-positive max tests",
			builder: New("t").WithGenerator("n", intGen(0, 1)).WithMaxTests(0).Check(alwaysTrue),
		},
		{
			name:    "negative max shrinks",
			builder: New("t").WithGenerator("n", intGen(0, 1)).WithMaxShrinks(-1).Check(alwaysTrue),
		},
		{
			name:    "non-positive timeout",
			builder: New("t").WithGenerator("n", intGen(0, 1)).WithTimeout(0).Check(alwaysTrue),
		},
		{
			name:    "inverted size range",
			builder: New("t").WithGenerator("n", intGen(0, 1)).WithSizeRange(10, 5).Check(alwaysTrue),
		},
		{
			name:    "example arity",
			builder: New("t").WithGenerator("n", intGen(0, 1)).WithExample(1, 2).Check(alwaysTrue),
		},
		{
			name: "unknown invariant category",
			builder: New("t").WithGenerator("n", intGen(0, 1)).Check(alwaysTrue).
				WithInvariant(Rule{RuleName: "odd", RuleCategory: "sometimes"}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			test, err := tt.builder.Build()
			assert.Nil(t, test)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestBuild_ReportsEveryProblem(t *testing.T) {
	_, err := New("broken").WithMaxTests(-1).Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max tests must be positive")
	assert.Contains(t, err.Error(), "property function is required")
	assert.Contains(t, err.Error(), "at least one generator is required")
}

func TestBuilder_RunReturnsValidationError(t *testing.T) {
	res, err := New("no generators").Check(alwaysTrue).Run(context.Background())
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestMustBuild_Panics(t *testing.T) {
	assert.Panics(t, func() { New("t").MustBuild() })
}

// =============================================================================
// Immutability Tests
// =============================================================================

func TestBuild_SnapshotIsIndependentOfBuilder(t *testing.T) {
	b := New("snapshot").
		WithGenerator("n", intGen(0, 10)).
		WithExample(3).
		Check(alwaysTrue)
	test := b.MustBuild()

	b.WithGenerator("m", intGen(0, 10)).WithMaxTests(7).WithExample(4, 5)

	assert.Equal(t, 1, test.NumGenerators())
	assert.Equal(t, DefaultMaxTests, test.MaxTests())
	assert.Equal(t, 1, test.NumExamples())
}

func TestWithCopies_LeaveOriginalUntouched(t *testing.T) {
	test := New("copies").
		WithGenerator("n", intGen(0, 10)).
		WithMaxTests(20).
		Check(alwaysTrue).
		MustBuild()

	seeded := test.WithSeed(9)
	limited := test.WithLimits(5, 3)
	timed := test.WithTimeout(time.Minute)
	sized := test.WithSizeRange(2, 4)

	_, pinned := test.Seed()
	assert.False(t, pinned)
	assert.Equal(t, 20, test.MaxTests())
	assert.Equal(t, DefaultTimeout, test.Timeout())

	seed, pinned := seeded.Seed()
	assert.True(t, pinned)
	assert.Equal(t, int64(9), seed)
	assert.Equal(t, 5, limited.MaxTests())
	assert.Equal(t, 3, limited.MaxShrinks())
	assert.Equal(t, time.Minute, timed.Timeout())
	min, max := sized.SizeRange()
	assert.Equal(t, []int{2, 4}, []int{min, max})
}

func TestWithCopies_IgnoreInvalidValues(t *testing.T) {
	test := New("ignored").WithGenerator("n", intGen(0, 1)).Check(alwaysTrue).MustBuild()

	assert.Equal(t, DefaultMaxTests, test.WithLimits(0, -1).MaxTests())
	assert.Equal(t, DefaultTimeout, test.WithTimeout(-time.Second).Timeout())
	min, max := test.WithSizeRange(9, 1).SizeRange()
	assert.Equal(t, DefaultMinSize, min)
	assert.Equal(t, DefaultMaxSize, max)
}

func TestBuild_ExampleValuesAreCopied(t *testing.T) {
	values := []any{1}
	test := New("examples").WithGenerator("n", intGen(0, 10)).WithExample(values...).Check(alwaysTrue).MustBuild()
	values[0] = 99

	assert.Equal(t, Inputs{1}, test.examples[0])
}

func TestBuild_ErrorIsEngineError(t *testing.T) {
	_, err := New("kind").Build()
	var perr *Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, KindValidation, perr.Kind())
}
