package proptest

import "fmt"

// Generator produces random values of T and knows how to simplify them.
//
// Generate must be a pure function of the Rand state and size: the same
// state and size always yield the same value. Shrink returns candidate
// simplifications of a value, each of which must itself be valid; an empty
// result means the value is already minimal. IsValid must be total and free
// of side effects.
type Generator[T any] interface {
	Generate(rng *Rand, size int) T
	Shrink(value T) []T
	IsValid(value T) bool
}

// Inputs is one generated test case: a value per configured generator, in
// configuration order.
type Inputs []any

// At returns the i-th input as T.
// Panics if the index is out of range or the value is not a T.
func At[T any](in Inputs, i int) T {
	if i < 0 || i >= len(in) {
		panic(fmt.Sprintf("proptest: input index %d out of range (len %d)", i, len(in)))
	}
	v, ok := in[i].(T)
	if !ok {
		var zero T
		panic(fmt.Sprintf("proptest: input %d is %T, not %T", i, in[i], zero))
	}
	return v
}

// Clone returns a shallow copy of the inputs.
func (in Inputs) Clone() Inputs {
	out := make(Inputs, len(in))
	copy(out, in)
	return out
}

// Func is a Generator assembled from plain functions. A nil ShrinkFn means
// values never shrink; a nil ValidFn accepts everything.
type Func[T any] struct {
	GenerateFn func(rng *Rand, size int) T
	ShrinkFn   func(value T) []T
	ValidFn    func(value T) bool
}

// Generate implements Generator.
func (f Func[T]) Generate(rng *Rand, size int) T {
	return f.GenerateFn(rng, size)
}

// Shrink implements Generator.
func (f Func[T]) Shrink(value T) []T {
	if f.ShrinkFn == nil {
		return nil
	}
	return f.ShrinkFn(value)
}

// IsValid implements Generator.
func (f Func[T]) IsValid(value T) bool {
	if f.ValidFn == nil {
		return true
	}
	return f.ValidFn(value)
}

// Erase lifts a typed generator to Generator[any] so generators of different
// types can be configured on one test.
func Erase[T any](g Generator[T]) Generator[any] {
	if a, ok := any(g).(Generator[any]); ok {
		return a
	}
	return erased[T]{g: g}
}

type erased[T any] struct {
	g Generator[T]
}

func (e erased[T]) Generate(rng *Rand, size int) any {
	return e.g.Generate(rng, size)
}

func (e erased[T]) Shrink(value any) []any {
	v, ok := value.(T)
	if !ok {
		return nil
	}
	candidates := e.g.Shrink(v)
	out := make([]any, len(candidates))
	for i, c := range candidates {
		out[i] = c
	}
	return out
}

func (e erased[T]) IsValid(value any) bool {
	v, ok := value.(T)
	if !ok {
		return false
	}
	return e.g.IsValid(v)
}

// NamedGenerator is a generator registered on a test under a name.
type NamedGenerator struct {
	Name      string
	Generator Generator[any]
}
