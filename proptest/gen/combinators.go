package gen

import (
	"reflect"

	"github.com/shipq/propcheck/proptest"
)

// =============================================================================
// Selection Combinators
// =============================================================================

// OneOf returns one of the given values. Values shrink toward earlier
// entries. Panics if values is empty.
func OneOf[T any](values ...T) proptest.Generator[T] {
	if len(values) == 0 {
		panic("proptest/gen: OneOf called with no values")
	}
	index := func(v T) int {
		for i, candidate := range values {
			if reflect.DeepEqual(candidate, v) {
				return i
			}
		}
		return -1
	}
	return proptest.Func[T]{
		GenerateFn: func(rng *proptest.Rand, _ int) T {
			return proptest.Element(rng, values)
		},
		ShrinkFn: func(v T) []T {
			i := index(v)
			if i <= 0 {
				return nil
			}
			out := []T{values[0]}
			if i/2 > 0 {
				out = append(out, values[i/2])
			}
			return out
		},
		ValidFn: func(v T) bool { return index(v) >= 0 },
	}
}

// Weighted returns one of values with probability proportional to weights.
// Values shrink toward earlier entries. Panics if weights and values have
// different lengths or are empty.
func Weighted[T any](weights []float64, values []T) proptest.Generator[T] {
	if len(weights) != len(values) {
		panic("proptest/gen: Weighted weights and values must have same length")
	}
	if len(values) == 0 {
		panic("proptest/gen: Weighted called with no values")
	}
	var total float64
	for _, w := range weights {
		total += w
	}
	base := OneOf(values...)
	return proptest.Func[T]{
		GenerateFn: func(rng *proptest.Rand, _ int) T {
			point := rng.Next() * total
			var cumulative float64
			for i, w := range weights {
				cumulative += w
				if point < cumulative {
					return values[i]
				}
			}
			// Floating point edge case: return last element
			return values[len(values)-1]
		},
		ShrinkFn: base.Shrink,
		ValidFn:  base.IsValid,
	}
}

// Const always returns v.
func Const[T any](v T) proptest.Generator[T] {
	return proptest.Func[T]{
		GenerateFn: func(*proptest.Rand, int) T { return v },
		ValidFn:    func(got T) bool { return reflect.DeepEqual(got, v) },
	}
}

// =============================================================================
// Collection Generators
// =============================================================================

// SliceOf returns slices of length [0, size] whose elements come from elem.
// Slices shrink by dropping halves, then single elements, then by shrinking
// single elements.
func SliceOf[T any](elem proptest.Generator[T]) proptest.Generator[[]T] {
	return proptest.Func[[]T]{
		GenerateFn: func(rng *proptest.Rand, size int) []T {
			length := rng.Integer(0, max(0, size))
			out := make([]T, length)
			for i := range out {
				out[i] = elem.Generate(rng, size)
			}
			return out
		},
		ShrinkFn: func(s []T) [][]T {
			return shrinkSlice(s, elem)
		},
		ValidFn: func(s []T) bool {
			for _, v := range s {
				if !elem.IsValid(v) {
					return false
				}
			}
			return true
		},
	}
}

// maxElementShrinks bounds how many single-element variants one shrink step
// proposes, to keep the candidate list short for long slices.
const maxElementShrinks = 16

func shrinkSlice[T any](s []T, elem proptest.Generator[T]) [][]T {
	if len(s) == 0 {
		return nil
	}
	out := [][]T{{}}
	if len(s) > 1 {
		half := len(s) / 2
		out = append(out, append([]T(nil), s[:half]...), append([]T(nil), s[half:]...))
	}
	for i := 0; i < len(s) && i < maxElementShrinks; i++ {
		dropped := make([]T, 0, len(s)-1)
		dropped = append(dropped, s[:i]...)
		dropped = append(dropped, s[i+1:]...)
		if len(dropped) > 0 {
			out = append(out, dropped)
		}
	}
	for i := 0; i < len(s) && i < maxElementShrinks; i++ {
		for _, c := range elem.Shrink(s[i]) {
			replaced := append([]T(nil), s...)
			replaced[i] = c
			out = append(out, replaced)
		}
	}
	return out
}

// =============================================================================
// Transformation Combinators
// =============================================================================

// Filter restricts g to values satisfying pred. Generation is not retried
// here; the runner regenerates an invalid value once at a smaller size.
func Filter[T any](g proptest.Generator[T], pred func(T) bool) proptest.Generator[T] {
	return proptest.Func[T]{
		GenerateFn: g.Generate,
		ShrinkFn: func(v T) []T {
			var out []T
			for _, c := range g.Shrink(v) {
				if pred(c) {
					out = append(out, c)
				}
			}
			return out
		},
		ValidFn: func(v T) bool { return g.IsValid(v) && pred(v) },
	}
}

// Map applies fn to generated values. Mapped values do not shrink because fn
// cannot be inverted; use a dedicated generator when shrinking matters.
func Map[T, U any](g proptest.Generator[T], fn func(T) U) proptest.Generator[U] {
	return proptest.Func[U]{
		GenerateFn: func(rng *proptest.Rand, size int) U {
			return fn(g.Generate(rng, size))
		},
	}
}
