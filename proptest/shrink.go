package proptest

import (
	"context"
	"reflect"
)

// shrink searches for a simpler tuple that still fails. It scans positions
// left to right, takes the first candidate that still fails and restarts the
// scan from position 0. It stops when a full scan makes no progress or
// MaxShrinks probes have been spent, so the result is locally, not globally,
// minimal.
func (st *runState) shrink(ctx context.Context, testCase int, failing Inputs, failErr *Error) ShrinkingResult {
	sr := ShrinkingResult{
		TestCase:       testCase,
		OriginalInputs: failing.Clone(),
		Error:          failErr,
	}
	current := failing.Clone()
	budget := st.test.maxShrinks

	for progress := true; progress && sr.Attempts < budget && ctx.Err() == nil; {
		progress = false
	scan:
		for pos := range current {
			g := st.test.generators[pos].Generator
			for _, candidate := range safeShrink(g, current[pos]) {
				if sr.Attempts >= budget || ctx.Err() != nil {
					break scan
				}
				if reflect.DeepEqual(candidate, current[pos]) || !safeIsValid(g, candidate) {
					continue
				}
				trial := current.Clone()
				trial[pos] = candidate
				sr.Attempts++

				out := st.evaluate(ctx, testCase, trial, true)
				if ctx.Err() != nil {
					// The probe was cut short; keep the last confirmed tuple.
					break scan
				}
				if !reproduces(out, failErr) {
					continue
				}
				current = trial
				sr.Error = out.err
				sr.Steps++
				progress = true
				break scan
			}
		}
	}

	sr.ShrunkInputs = current
	sr.Success = sr.Steps > 0
	return sr
}

// reproduces reports whether a probe failed the same way. A timeout only
// reproduces a timeout, and nothing else reproduces one.
func reproduces(out caseOutcome, original *Error) bool {
	if out.status != caseFailed {
		return false
	}
	return (out.err.Kind() == KindTimeout) == (original.Kind() == KindTimeout)
}
