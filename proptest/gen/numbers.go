// Package gen provides stock generators for common value types. Every
// generator scales with the size hint where that makes sense and shrinks
// toward a simple value (zero, empty, first option).
package gen

import (
	"math"

	"github.com/shipq/propcheck/proptest"
)

// =============================================================================
// Integer Generators
// =============================================================================

// Int returns ints in [-size, size].
func Int() proptest.Generator[int] {
	return proptest.Func[int]{
		GenerateFn: func(rng *proptest.Rand, size int) int {
			return rng.Integer(-size, size)
		},
		ShrinkFn: func(v int) []int { return shrinkIntToward(v, 0) },
	}
}

// IntRange returns ints in [min, max], independent of size. Values shrink
// toward the point of the range closest to zero.
// Panics if min > max.
func IntRange(min, max int) proptest.Generator[int] {
	if min > max {
		panic("proptest/gen: IntRange min > max")
	}
	target := clampInt(0, min, max)
	return proptest.Func[int]{
		GenerateFn: func(rng *proptest.Rand, _ int) int {
			return rng.Integer(min, max)
		},
		ShrinkFn: func(v int) []int { return shrinkIntToward(v, target) },
		ValidFn:  func(v int) bool { return v >= min && v <= max },
	}
}

// Scaled returns ints in [0, size*factor].
func Scaled(factor int) proptest.Generator[int] {
	return proptest.Func[int]{
		GenerateFn: func(rng *proptest.Rand, size int) int {
			return rng.Integer(0, size*factor)
		},
		ShrinkFn: func(v int) []int { return shrinkIntToward(v, 0) },
		ValidFn:  func(v int) bool { return v >= 0 },
	}
}

// Positive returns ints in [1, max(1, size)].
func Positive() proptest.Generator[int] {
	return proptest.Func[int]{
		GenerateFn: func(rng *proptest.Rand, size int) int {
			return rng.Integer(1, max(1, size))
		},
		ShrinkFn: func(v int) []int { return shrinkIntToward(v, 1) },
		ValidFn:  func(v int) bool { return v >= 1 },
	}
}

// shrinkIntToward proposes target, the midpoint and the neighbour one step
// closer to target, in that order.
func shrinkIntToward(v, target int) []int {
	if v == target {
		return nil
	}
	out := []int{target}
	if mid := target + (v-target)/2; mid != target && mid != v {
		out = append(out, mid)
	}
	step := v - 1
	if v < target {
		step = v + 1
	}
	if step != target && step != out[len(out)-1] {
		out = append(out, step)
	}
	return out
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// =============================================================================
// Float and Bool Generators
// =============================================================================

// Float64Range returns float64 values in [min, max). Values shrink toward
// the point of the range closest to zero.
func Float64Range(min, max float64) proptest.Generator[float64] {
	if min > max {
		panic("proptest/gen: Float64Range min > max")
	}
	target := math.Max(min, math.Min(0, max))
	return proptest.Func[float64]{
		GenerateFn: func(rng *proptest.Rand, _ int) float64 {
			return rng.Float(min, max)
		},
		ShrinkFn: func(v float64) []float64 {
			if v == target {
				return nil
			}
			out := []float64{target}
			if whole := math.Trunc(v); whole != v && whole >= min && whole <= max {
				out = append(out, whole)
			}
			if mid := target + (v-target)/2; mid != v && mid != target {
				out = append(out, mid)
			}
			return out
		},
		ValidFn: func(v float64) bool {
			return !math.IsNaN(v) && v >= min && v <= max
		},
	}
}

// Bool returns true or false. true shrinks to false.
func Bool() proptest.Generator[bool] {
	return proptest.Func[bool]{
		GenerateFn: func(rng *proptest.Rand, _ int) bool {
			return rng.Boolean()
		},
		ShrinkFn: func(v bool) []bool {
			if v {
				return []bool{false}
			}
			return nil
		},
	}
}
