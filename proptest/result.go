package proptest

import "time"

// ExampleCase is the TestCase index recorded for literal examples.
const ExampleCase = -1

// Failure records one failing test case. Shrinking attaches
// MinimalCounterexample and never modifies Inputs.
type Failure struct {
	TestCase              int    `json:"test_case"`
	Inputs                Inputs `json:"inputs"`
	Output                any    `json:"output,omitempty"`
	Error                 *Error `json:"error"`
	Shrunk                bool   `json:"shrunk"`
	MinimalCounterexample Inputs `json:"minimal_counterexample,omitempty"`
}

// ShrinkingResult describes one shrinking pass.
type ShrinkingResult struct {
	TestCase       int    `json:"test_case"`
	OriginalInputs Inputs `json:"original_inputs"`
	ShrunkInputs   Inputs `json:"shrunk_inputs"`
	Steps          int    `json:"steps"`
	Attempts       int    `json:"attempts"`
	Success        bool   `json:"success"`
	Error          *Error `json:"error,omitempty"`
}

// GenerationStats summarizes value generation over a run.
type GenerationStats struct {
	TotalGenerated   int         `json:"total_generated"`
	ValidGenerated   int         `json:"valid_generated"`
	Rejected         int         `json:"rejected"`
	RejectionRate    float64     `json:"rejection_rate"`
	SizeDistribution map[int]int `json:"size_distribution"`
	AverageSize      float64     `json:"average_size"`
	MedianSize       float64     `json:"median_size"`
	P90Size          float64     `json:"p90_size"`
}

// Statistics aggregates counters over a run.
type Statistics struct {
	Attempted    int             `json:"attempted"`
	Passed       int             `json:"passed"`
	Failed       int             `json:"failed"`
	Skipped      int             `json:"skipped"`
	ExamplesRun  int             `json:"examples_run"`
	CacheHits    int             `json:"cache_hits"`
	CacheHitRate float64         `json:"cache_hit_rate"`
	Generation   GenerationStats `json:"generation"`
}

// Result is the outcome of one Run. It is built once and not modified
// afterwards.
type Result struct {
	RunID               string               `json:"run_id"`
	TestName            string               `json:"test_name"`
	Seed                int64                `json:"seed"`
	Success             bool                 `json:"success"`
	TotalTests          int                  `json:"total_tests"`
	Failures            []*Failure           `json:"failures"`
	Statistics          Statistics           `json:"statistics"`
	ShrinkingResults    []ShrinkingResult    `json:"shrinking_results"`
	InvariantViolations []InvariantViolation `json:"invariant_violations"`
	ExecutionTime       time.Duration        `json:"-"`
	ExecutionTimeMs     int64                `json:"execution_time_ms"`
}

// FirstFailure returns the first recorded failure, or nil.
func (r *Result) FirstFailure() *Failure {
	if len(r.Failures) == 0 {
		return nil
	}
	return r.Failures[0]
}

// Counterexample returns the most useful failing inputs: the minimal
// counterexample of the first generated failure if shrinking produced one,
// otherwise the inputs of the first failure.
func (r *Result) Counterexample() (Inputs, bool) {
	for _, f := range r.Failures {
		if f.TestCase != ExampleCase && f.MinimalCounterexample != nil {
			return f.MinimalCounterexample, true
		}
	}
	if f := r.FirstFailure(); f != nil {
		return f.Inputs, true
	}
	return nil, false
}
