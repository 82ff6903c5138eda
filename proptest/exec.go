package proptest

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/crypto/blake2b"
)

// Property is the predicate under test.
type Property func(ctx context.Context, in Inputs) (bool, error)

// panicError turns a recovered panic value into an INTERNAL_ERROR.
func panicError(where string, r any) *Error {
	if err, ok := r.(error); ok {
		return Internal(where+" panicked", err)
	}
	return Internal(where+" panicked", fmt.Errorf("%v", r))
}

func safeGenerate(g Generator[any], rng *Rand, size int) (v any, err *Error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError("generate", r)
		}
	}()
	return g.Generate(rng, size), nil
}

// safeShrink treats a panicking shrinker as having no candidates.
func safeShrink(g Generator[any], value any) (candidates []any) {
	defer func() {
		if r := recover(); r != nil {
			candidates = nil
		}
	}()
	return g.Shrink(value)
}

// safeIsValid treats a panicking validator as rejecting the value.
func safeIsValid(g Generator[any], value any) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	return g.IsValid(value)
}

func safeCheck(ctx context.Context, inv Invariant, in Inputs, output any) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			ok, err = false, panicError("invariant "+inv.Name(), r)
		}
	}()
	return inv.Check(ctx, in, output)
}

type propertyOutcome struct {
	passed bool
	err    *Error
}

// execute runs the property with a timeout. On expiry the goroutine is
// abandoned, not killed; the property sees a cancelled context.
func execute(parent context.Context, prop Property, in Inputs, timeout time.Duration) propertyOutcome {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	done := make(chan propertyOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- propertyOutcome{err: panicError("property", r)}
			}
		}()
		ok, err := prop(ctx, in)
		switch {
		case err != nil:
			done <- propertyOutcome{err: asError(err, KindPropertyFailed, "property returned an error")}
		case !ok:
			done <- propertyOutcome{err: Falsified("property returned false")}
		default:
			done <- propertyOutcome{passed: true}
		}
	}()

	var out propertyOutcome
	select {
	case out = <-done:
	case <-ctx.Done():
	}
	// The caller's context ending is not the property's fault.
	if err := parent.Err(); err != nil {
		return propertyOutcome{err: Internal("run cancelled", err)}
	}
	// A property that returns after its deadline has still timed out.
	if ctx.Err() != nil {
		return propertyOutcome{err: Timeout(fmt.Sprintf("property exceeded timeout of %s", timeout))}
	}
	return out
}

// resultCache memoizes property outputs for one run, keyed by a digest of
// the JSON encoding of the inputs.
type resultCache struct {
	entries map[string]bool
	hits    int
	lookups int
}

func newResultCache() *resultCache {
	return &resultCache{entries: make(map[string]bool)}
}

// Fingerprint returns a hex blake2b-256 digest of the JSON encoding of in.
// The second return value is false if the inputs cannot be encoded.
func Fingerprint(in Inputs) (string, bool) {
	data, err := json.Marshal(in)
	if err != nil {
		return "", false
	}
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:]), true
}

func (c *resultCache) lookup(key string) (bool, bool) {
	c.lookups++
	out, ok := c.entries[key]
	if ok {
		c.hits++
	}
	return out, ok
}

func (c *resultCache) store(key string, output bool) {
	c.entries[key] = output
}
