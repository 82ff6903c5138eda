package proptest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shipq/propcheck/logging"
)

// Runner executes property tests. A Runner holds no per-run state, so one
// Runner may execute several tests concurrently.
type Runner struct {
	logger *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the logger used for run events.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRunner creates a Runner. By default nothing is logged.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{logger: logging.Discard}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type caseStatus int

const (
	casePassed caseStatus = iota
	caseFailed
	caseSkipped
)

type caseOutcome struct {
	status     caseStatus
	output     any
	err        *Error
	cached     bool
	violations []InvariantViolation
}

// runState is everything one Run call mutates.
type runState struct {
	test   *PropertyTest
	rng    *Rand
	cache  *resultCache
	stats  *collector
	logger *slog.Logger
}

// Run executes the test: literal examples first, then up to MaxTests
// generated cases. Generation stops at the first failing case, which is
// shrunk before it is reported.
func (r *Runner) Run(ctx context.Context, t *PropertyTest) *Result {
	start := time.Now()
	seed, ok := t.Seed()
	if !ok {
		seed = NewSeed()
	}

	res := &Result{
		RunID:    uuid.NewString(),
		TestName: t.name,
		Seed:     seed,
	}
	st := &runState{
		test:   t,
		rng:    NewRand(seed),
		cache:  newResultCache(),
		stats:  newCollector(),
		logger: logging.ForRun(r.logger, res.RunID, t.name, seed),
	}

	st.logger.Info("property_run_started",
		"max_tests", t.maxTests,
		"generators", t.GeneratorNames(),
		"examples", len(t.examples),
	)

	st.runExamples(ctx, res)
	st.runGenerated(ctx, res)

	res.Statistics = st.stats.finalize(st.cache)
	res.Success = len(res.Failures) == 0
	res.ExecutionTime = time.Since(start)
	res.ExecutionTimeMs = res.ExecutionTime.Milliseconds()

	st.logger.Info("property_run_completed",
		"success", res.Success,
		"total_tests", res.TotalTests,
		"failures", len(res.Failures),
		"skipped", res.Statistics.Skipped,
		"duration_ms", float64(res.ExecutionTime.Nanoseconds())/1e6,
	)
	return res
}

func (st *runState) runExamples(ctx context.Context, res *Result) {
	for _, ex := range st.test.examples {
		if ctx.Err() != nil {
			return
		}
		st.stats.examplesRun++
		out := st.evaluate(ctx, ExampleCase, ex.Clone(), false)
		res.InvariantViolations = append(res.InvariantViolations, out.violations...)
		if out.status != caseFailed {
			continue
		}
		st.stats.failed++
		res.Failures = append(res.Failures, &Failure{
			TestCase: ExampleCase,
			Inputs:   ex.Clone(),
			Output:   out.output,
			Error:    out.err,
		})
		st.logger.Info("example_failed", "inputs", fmt.Sprint(ex), "error", out.err.Error())
	}
}

func (st *runState) runGenerated(ctx context.Context, res *Result) {
	for testCase := 0; testCase < st.test.maxTests; testCase++ {
		if ctx.Err() != nil {
			return
		}
		st.stats.attempted++
		size := st.sizeFor(testCase)

		in, valid, genErr := st.generateInputs(size)
		if genErr != nil {
			st.stats.failed++
			res.TotalTests++
			res.Failures = append(res.Failures, &Failure{TestCase: testCase, Inputs: in, Error: genErr})
			st.logger.Info("case_failed", "test_case", testCase, "error", genErr.Error())
			return
		}
		if !valid {
			st.stats.rejected++
			continue
		}

		out := st.evaluate(ctx, testCase, in, true)
		res.InvariantViolations = append(res.InvariantViolations, out.violations...)
		switch out.status {
		case caseSkipped:
			st.stats.skipped++
			continue
		case casePassed:
			st.stats.passed++
			res.TotalTests++
			continue
		}

		st.stats.failed++
		res.TotalTests++
		failure := &Failure{
			TestCase: testCase,
			Inputs:   in.Clone(),
			Output:   out.output,
			Error:    out.err,
		}
		res.Failures = append(res.Failures, failure)
		st.logger.Info("case_failed",
			"test_case", testCase,
			"size", size,
			"inputs", fmt.Sprint(in),
			"error", out.err.Error(),
		)

		if st.test.maxShrinks > 0 {
			sr := st.shrink(ctx, testCase, in, out.err)
			res.ShrinkingResults = append(res.ShrinkingResults, sr)
			if sr.Success {
				failure.Shrunk = true
				failure.MinimalCounterexample = sr.ShrunkInputs.Clone()
			}
			st.logger.Info("shrink_completed",
				"test_case", testCase,
				"steps", sr.Steps,
				"attempts", sr.Attempts,
				"minimal", fmt.Sprint(sr.ShrunkInputs),
			)
		}
		return
	}
}

// sizeFor ramps linearly from minSize at the first case to maxSize at the
// last.
func (st *runState) sizeFor(testCase int) int {
	min, max := st.test.minSize, st.test.maxSize
	if st.test.maxTests <= 1 {
		return min
	}
	return min + (max-min)*testCase/(st.test.maxTests-1)
}

// generateInputs draws one value per generator. An invalid value is
// regenerated once at half the size; if that is invalid too the case is
// rejected.
func (st *runState) generateInputs(size int) (Inputs, bool, *Error) {
	in := make(Inputs, 0, len(st.test.generators))
	for _, ng := range st.test.generators {
		v, err := safeGenerate(ng.Generator, st.rng, size)
		if err != nil {
			return in, false, Internal(fmt.Sprintf("generator %q failed", ng.Name), err)
		}
		valid := safeIsValid(ng.Generator, v)
		st.stats.recordGenerated(size, valid)
		if !valid {
			retry := max(st.test.minSize, size/2)
			v, err = safeGenerate(ng.Generator, st.rng, retry)
			if err != nil {
				return in, false, Internal(fmt.Sprintf("generator %q failed", ng.Name), err)
			}
			valid = safeIsValid(ng.Generator, v)
			st.stats.recordGenerated(retry, valid)
			if !valid {
				return nil, false, nil
			}
		}
		in = append(in, v)
	}
	return in, true, nil
}

// evaluate runs one case through preconditions, the property and the
// post-property invariants. The shrinker uses the same path.
func (st *runState) evaluate(ctx context.Context, testCase int, in Inputs, useCache bool) caseOutcome {
	pre := checkInvariants(ctx, st.test.invariants, []Category{CategoryPrecondition}, testCase, in, nil)
	if len(pre) > 0 {
		return caseOutcome{status: caseSkipped}
	}

	key, cacheable := "", false
	if useCache {
		key, cacheable = Fingerprint(in)
	}
	if cacheable {
		if output, hit := st.cache.lookup(key); hit {
			return caseOutcome{status: casePassed, output: output, cached: true}
		}
	}

	po := execute(ctx, st.test.property, in, st.test.timeout)
	if !po.passed {
		out := caseOutcome{status: caseFailed, err: po.err}
		if po.err.Kind() == KindPropertyFailed {
			out.output = false
		}
		return out
	}

	violations := checkInvariants(ctx, st.test.invariants, afterProperty, testCase, in, true)
	if v, critical := firstCritical(violations); critical {
		return caseOutcome{
			status:     caseFailed,
			output:     true,
			err:        BusinessRuleViolation(v.Message),
			violations: violations,
		}
	}
	if cacheable {
		st.cache.store(key, true)
	}
	return caseOutcome{status: casePassed, output: true, violations: violations}
}
