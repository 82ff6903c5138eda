package proptest

import (
	"context"
	"errors"
	"strconv"
	"time"
)

// Defaults applied by New.
const (
	DefaultMaxTests   = 100
	DefaultMaxShrinks = 1000
	DefaultTimeout    = 5 * time.Second
	DefaultMinSize    = 1
	DefaultMaxSize    = 100
)

// PropertyTest is a validated, immutable test configuration. Build one with
// New(...).Build(). Running it repeatedly is safe; each run starts fresh.
type PropertyTest struct {
	name        string
	description string
	generators  []NamedGenerator
	property    Property
	invariants  []Invariant
	examples    []Inputs
	maxTests    int
	maxShrinks  int
	timeout     time.Duration
	seed        int64
	hasSeed     bool
	minSize     int
	maxSize     int
}

// Name returns the test name.
func (t *PropertyTest) Name() string { return t.name }

// Description returns the human-readable description, which may be empty.
func (t *PropertyTest) Description() string { return t.description }

// MaxTests returns the number of generated cases to run.
func (t *PropertyTest) MaxTests() int { return t.maxTests }

// MaxShrinks returns the probe budget for shrinking one failure.
func (t *PropertyTest) MaxShrinks() int { return t.maxShrinks }

// Timeout returns the per-case property timeout.
func (t *PropertyTest) Timeout() time.Duration { return t.timeout }

// SizeRange returns the minimum and maximum generation size.
func (t *PropertyTest) SizeRange() (int, int) { return t.minSize, t.maxSize }

// Seed returns the pinned seed and whether one was set.
func (t *PropertyTest) Seed() (int64, bool) { return t.seed, t.hasSeed }

// NumGenerators returns the number of input generators.
func (t *PropertyTest) NumGenerators() int { return len(t.generators) }

// NumInvariants returns the number of attached invariants.
func (t *PropertyTest) NumInvariants() int { return len(t.invariants) }

// NumExamples returns the number of literal examples.
func (t *PropertyTest) NumExamples() int { return len(t.examples) }

// GeneratorNames returns the generator names in input order.
func (t *PropertyTest) GeneratorNames() []string { return generatorNames(t.generators) }

func generatorNames(gens []NamedGenerator) []string {
	names := make([]string, len(gens))
	for i, g := range gens {
		names[i] = g.Name
	}
	return names
}

// clone returns a copy sharing the read-only slices.
func (t *PropertyTest) clone() *PropertyTest {
	c := *t
	return &c
}

// WithSeed returns a copy of the test pinned to seed.
func (t *PropertyTest) WithSeed(seed int64) *PropertyTest {
	c := t.clone()
	c.seed, c.hasSeed = seed, true
	return c
}

// WithLimits returns a copy with new test and shrink limits. Non-positive
// values keep the current setting.
func (t *PropertyTest) WithLimits(maxTests, maxShrinks int) *PropertyTest {
	c := t.clone()
	if maxTests > 0 {
		c.maxTests = maxTests
	}
	if maxShrinks > 0 {
		c.maxShrinks = maxShrinks
	}
	return c
}

// WithTimeout returns a copy with a new property timeout. Non-positive
// values keep the current setting.
func (t *PropertyTest) WithTimeout(d time.Duration) *PropertyTest {
	c := t.clone()
	if d > 0 {
		c.timeout = d
	}
	return c
}

// WithSizeRange returns a copy with a new size range. An invalid range keeps
// the current setting.
func (t *PropertyTest) WithSizeRange(min, max int) *PropertyTest {
	c := t.clone()
	if min >= 0 && max >= min {
		c.minSize, c.maxSize = min, max
	}
	return c
}

// Builder assembles a PropertyTest.
type Builder struct {
	cfg  PropertyTest
	errs []error
}

// New starts a builder for a test with the given name.
func New(name string) *Builder {
	return &Builder{cfg: PropertyTest{
		name:       name,
		maxTests:   DefaultMaxTests,
		maxShrinks: DefaultMaxShrinks,
		timeout:    DefaultTimeout,
		minSize:    DefaultMinSize,
		maxSize:    DefaultMaxSize,
	}}
}

func (b *Builder) fail(err error) *Builder {
	b.errs = append(b.errs, err)
	return b
}

// WithDescription sets a human readable description.
func (b *Builder) WithDescription(desc string) *Builder {
	b.cfg.description = desc
	return b
}

// WithGenerator appends a named generator. Inputs are passed to the property
// in the order generators were added.
func (b *Builder) WithGenerator(name string, g Generator[any]) *Builder {
	if g == nil {
		return b.fail(Validationf("generator %q is nil", name))
	}
	b.cfg.generators = append(b.cfg.generators, NamedGenerator{Name: name, Generator: g})
	return b
}

// WithInvariant appends an invariant.
func (b *Builder) WithInvariant(inv Invariant) *Builder {
	if inv == nil {
		return b.fail(Validationf("invariant is nil"))
	}
	if !inv.Category().Valid() {
		return b.fail(Validationf("invariant %q has unknown category %q", inv.Name(), inv.Category()))
	}
	b.cfg.invariants = append(b.cfg.invariants, inv)
	return b
}

// WithExample appends a literal test case, one value per generator.
func (b *Builder) WithExample(values ...any) *Builder {
	b.cfg.examples = append(b.cfg.examples, Inputs(values).Clone())
	return b
}

// WithMaxTests sets the number of generated test cases.
func (b *Builder) WithMaxTests(n int) *Builder {
	if n <= 0 {
		return b.fail(Validationf("max tests must be positive, got %d", n))
	}
	b.cfg.maxTests = n
	return b
}

// WithMaxShrinks sets the shrink probe budget per failure. Zero disables
// shrinking.
func (b *Builder) WithMaxShrinks(n int) *Builder {
	if n < 0 {
		return b.fail(Validationf("max shrinks must not be negative, got %d", n))
	}
	b.cfg.maxShrinks = n
	return b
}

// WithTimeout sets the per-execution property timeout.
func (b *Builder) WithTimeout(d time.Duration) *Builder {
	if d <= 0 {
		return b.fail(Validationf("timeout must be positive, got %s", d))
	}
	b.cfg.timeout = d
	return b
}

// WithSeed pins the random seed. Without it each run uses a time-based seed.
func (b *Builder) WithSeed(seed int64) *Builder {
	b.cfg.seed, b.cfg.hasSeed = seed, true
	return b
}

// WithSizeRange sets the size ramp bounds.
func (b *Builder) WithSizeRange(min, max int) *Builder {
	if min < 0 || max < min {
		return b.fail(Validationf("invalid size range [%d, %d]", min, max))
	}
	b.cfg.minSize, b.cfg.maxSize = min, max
	return b
}

// Check sets the property under test.
func (b *Builder) Check(prop Property) *Builder {
	b.cfg.property = prop
	return b
}

// Build validates the accumulated configuration and returns an immutable
// PropertyTest. The error, if any, is a VALIDATION_ERROR.
func (b *Builder) Build() (*PropertyTest, error) {
	errs := append([]error(nil), b.errs...)
	if b.cfg.property == nil {
		errs = append(errs, Validationf("property function is required"))
	}
	if len(b.cfg.generators) == 0 {
		errs = append(errs, Validationf("at least one generator is required"))
	}
	for i, ex := range b.cfg.examples {
		if len(ex) != len(b.cfg.generators) {
			errs = append(errs, Validationf("example %d has %d values, want %d", i, len(ex), len(b.cfg.generators)))
		}
	}
	if len(errs) > 0 {
		return nil, Wrap(KindValidation, "invalid property test "+strconv.Quote(b.cfg.name), errors.Join(errs...))
	}

	t := b.cfg
	t.generators = append([]NamedGenerator(nil), b.cfg.generators...)
	t.invariants = append([]Invariant(nil), b.cfg.invariants...)
	t.examples = make([]Inputs, len(b.cfg.examples))
	for i, ex := range b.cfg.examples {
		t.examples[i] = ex.Clone()
	}
	return &t, nil
}

// MustBuild is like Build but panics on error.
func (b *Builder) MustBuild() *PropertyTest {
	t, err := b.Build()
	if err != nil {
		panic(err)
	}
	return t
}

// Run builds the test and runs it with a default Runner.
func (b *Builder) Run(ctx context.Context, opts ...RunnerOption) (*Result, error) {
	t, err := b.Build()
	if err != nil {
		return nil, err
	}
	return NewRunner(opts...).Run(ctx, t), nil
}
