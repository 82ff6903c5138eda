// Package gopterx adapts gopter generators to the proptest Generator
// contract, so the generator library from github.com/leanovate/gopter can be
// used with the proptest runner and its reproducible seeds.
package gopterx

import (
	"math/rand"
	"reflect"

	"github.com/leanovate/gopter"

	"github.com/shipq/propcheck/proptest"
)

// MaxShrinkCandidates caps how many candidates one Shrink call pulls from a
// gopter shrink stream.
const MaxShrinkCandidates = 32

type adapter struct {
	gen        gopter.Gen
	shrinker   gopter.Shrinker
	sieve      func(interface{}) bool
	resultType reflect.Type
}

func newAdapter(g gopter.Gen) *adapter {
	// Shrinker, sieve and result type do not depend on the random draw, so
	// one probe at size 0 captures them.
	probe := g(&gopter.GenParameters{Rng: rand.New(proptest.NewRand(0))})
	return &adapter{
		gen:        g,
		shrinker:   probe.Shrinker,
		sieve:      probe.Sieve,
		resultType: probe.ResultType,
	}
}

// generate draws from g with a *rand.Rand backed by rng, so the value is a
// pure function of the proptest seed and call sequence.
func (a *adapter) generate(rng *proptest.Rand, size int) interface{} {
	params := &gopter.GenParameters{
		MinSize:        0,
		MaxSize:        max(0, size),
		MaxShrinkCount: MaxShrinkCandidates,
		Rng:            rand.New(rng),
	}
	return a.gen(params).Result
}

func (a *adapter) shrink(v interface{}) []interface{} {
	if a.shrinker == nil || !a.valid(v) {
		return nil
	}
	next := a.shrinker(v)
	var out []interface{}
	for len(out) < MaxShrinkCandidates {
		c, ok := next()
		if !ok {
			break
		}
		if a.valid(c) {
			out = append(out, c)
		}
	}
	return out
}

func (a *adapter) valid(v interface{}) bool {
	if v == nil {
		return false
	}
	if a.resultType != nil && !reflect.TypeOf(v).AssignableTo(a.resultType) {
		return false
	}
	return a.sieve == nil || a.sieve(v)
}

// Any adapts g to a Generator[any] that can be passed to
// proptest.Builder.WithGenerator directly.
func Any(g gopter.Gen) proptest.Generator[any] {
	a := newAdapter(g)
	return proptest.Func[any]{
		GenerateFn: a.generate,
		ShrinkFn:   a.shrink,
		ValidFn:    a.valid,
	}
}

// Of adapts g to a typed generator. Values of another type are invalid.
//
// Example:
//
//	proptest.New("ids").
//	    WithGenerator("id", proptest.Erase(gopterx.Of[string](gen.Identifier())))
func Of[T any](g gopter.Gen) proptest.Generator[T] {
	a := newAdapter(g)
	return proptest.Func[T]{
		GenerateFn: func(rng *proptest.Rand, size int) T {
			v, _ := a.generate(rng, size).(T)
			return v
		},
		ShrinkFn: func(v T) []T {
			var out []T
			for _, c := range a.shrink(v) {
				if typed, ok := c.(T); ok {
					out = append(out, typed)
				}
			}
			return out
		},
		ValidFn: func(v T) bool { return a.valid(v) },
	}
}
