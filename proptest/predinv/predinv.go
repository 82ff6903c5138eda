// Package predinv builds proptest invariants from boolean expressions, so
// business rules can live in configuration instead of Go code.
//
// Expressions use Go syntax and are parsed with github.com/vulcand/predicate:
//
//	org.quorum_requirement <= org.board_size && org.board_size > 0
//
// Inputs are addressed by generator name (see WithNames) or by position as
// arg0, arg1 and so on. The property result is available as output. Inputs
// are viewed through their JSON encoding, so struct fields use their JSON
// names and every number compares as float64.
//
// Supported operators: == != < > <= >= && || !
// Supported functions: len(x), contains(s, sub), hasPrefix(s, prefix)
package predinv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/vulcand/predicate"

	"github.com/shipq/propcheck/proptest"
)

// ErrEvaluate is wrapped by errors raised while evaluating an expression
// against concrete inputs.
var ErrEvaluate = errors.New("predinv: evaluation failed")

// env is the evaluation environment for one check.
type env map[string]any

// valueRef resolves to a value at evaluation time.
type valueRef func(env) (any, error)

// evalFn resolves to a truth value at evaluation time.
type evalFn func(env) (bool, error)

// Expr is a proptest.Invariant backed by a parsed expression.
type Expr struct {
	name     string
	source   string
	category proptest.Category
	critical bool
	names    []string
	eval     evalFn
}

// Option configures an Expr.
type Option func(*Expr)

// WithCategory sets the invariant category. The default is business-rule.
func WithCategory(c proptest.Category) Option {
	return func(e *Expr) { e.category = c }
}

// Critical marks the invariant critical, turning a violation into a failure.
func Critical() Option {
	return func(e *Expr) { e.critical = true }
}

// WithNames names inputs by position, typically with the generator names of
// the test (PropertyTest.GeneratorNames).
func WithNames(names ...string) Option {
	return func(e *Expr) { e.names = append([]string(nil), names...) }
}

// New parses expr into an invariant.
func New(name, expr string, opts ...Option) (*Expr, error) {
	e := &Expr{
		name:     name,
		source:   expr,
		category: proptest.CategoryBusinessRule,
	}
	for _, opt := range opts {
		opt(e)
	}
	if !e.category.Valid() {
		return nil, fmt.Errorf("predinv: invariant %q: unknown category %q", name, e.category)
	}

	parser, err := predicate.NewParser(predicate.Def{
		Functions: map[string]interface{}{
			"len":       lenFunc,
			"contains":  stringFunc(strings.Contains),
			"hasPrefix": stringFunc(strings.HasPrefix),
		},
		Operators: predicate.Operators{
			EQ:  compareOp(func(c int) bool { return c == 0 }, true),
			NEQ: compareOp(func(c int) bool { return c != 0 }, true),
			LT:  compareOp(func(c int) bool { return c < 0 }, false),
			GT:  compareOp(func(c int) bool { return c > 0 }, false),
			LE:  compareOp(func(c int) bool { return c <= 0 }, false),
			GE:  compareOp(func(c int) bool { return c >= 0 }, false),
			AND: andOp,
			OR:  orOp,
			NOT: notOp,
		},
		GetIdentifier: identifier,
		GetProperty:   property,
	})
	if err != nil {
		return nil, fmt.Errorf("predinv: failed to create parser: %w", err)
	}

	parsed, err := parser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("predinv: invalid expression %q: %w", expr, err)
	}
	e.eval, err = toEval(parsed)
	if err != nil {
		return nil, fmt.Errorf("predinv: expression %q: %w", expr, err)
	}
	return e, nil
}

// MustNew is like New but panics on error.
func MustNew(name, expr string, opts ...Option) *Expr {
	e, err := New(name, expr, opts...)
	if err != nil {
		panic(err)
	}
	return e
}

// Name returns the invariant name.
func (e *Expr) Name() string { return e.name }

// Description returns the expression source.
func (e *Expr) Description() string { return e.source }

// Category returns the invariant category.
func (e *Expr) Category() proptest.Category { return e.category }

// Critical reports whether a violation fails the case.
func (e *Expr) Critical() bool { return e.critical }

// Check implements proptest.Invariant.
func (e *Expr) Check(_ context.Context, in proptest.Inputs, output any) (bool, error) {
	vars, err := e.environment(in, output)
	if err != nil {
		return false, err
	}
	return e.eval(vars)
}

func (e *Expr) environment(in proptest.Inputs, output any) (env, error) {
	vars := make(env, 2*len(in)+1)
	for i, v := range in {
		plain, err := plainValue(v)
		if err != nil {
			return nil, fmt.Errorf("%w: input %d: %v", ErrEvaluate, i, err)
		}
		vars["arg"+strconv.Itoa(i)] = plain
		if i < len(e.names) && e.names[i] != "" {
			vars[e.names[i]] = plain
		}
	}
	out, err := plainValue(output)
	if err != nil {
		return nil, fmt.Errorf("%w: output: %v", ErrEvaluate, err)
	}
	vars["output"] = out
	return vars, nil
}

// plainValue converts v to maps, slices, strings, float64 and bool via its
// JSON encoding.
func plainValue(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// =============================================================================
// Parser callbacks
// =============================================================================

func identifier(selector []string) (interface{}, error) {
	if len(selector) == 1 {
		switch selector[0] {
		case "true":
			return constant(true), nil
		case "false":
			return constant(false), nil
		case "nil":
			return constant(nil), nil
		}
	}
	path := append([]string(nil), selector...)
	return valueRef(func(vars env) (any, error) {
		v, ok := vars[path[0]]
		if !ok {
			return nil, fmt.Errorf("%w: unknown identifier %q", ErrEvaluate, path[0])
		}
		for _, field := range path[1:] {
			m, ok := v.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%w: %s is not an object", ErrEvaluate, strings.Join(path, "."))
			}
			if v, ok = m[field]; !ok {
				return nil, fmt.Errorf("%w: unknown field %q in %s", ErrEvaluate, field, strings.Join(path, "."))
			}
		}
		return v, nil
	}), nil
}

func property(mapVal, keyVal interface{}) (interface{}, error) {
	container, key := operand(mapVal), operand(keyVal)
	return valueRef(func(vars env) (any, error) {
		c, err := container(vars)
		if err != nil {
			return nil, err
		}
		k, err := key(vars)
		if err != nil {
			return nil, err
		}
		switch c := c.(type) {
		case map[string]any:
			s, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("%w: object key must be a string, got %T", ErrEvaluate, k)
			}
			return c[s], nil
		case []any:
			f, ok := number(k)
			if !ok || f < 0 || int(f) >= len(c) {
				return nil, fmt.Errorf("%w: index %v out of range", ErrEvaluate, k)
			}
			return c[int(f)], nil
		default:
			return nil, fmt.Errorf("%w: cannot index %T", ErrEvaluate, c)
		}
	}), nil
}

func lenFunc(x interface{}) valueRef {
	ref := operand(x)
	return func(vars env) (any, error) {
		v, err := ref(vars)
		if err != nil {
			return nil, err
		}
		switch v := v.(type) {
		case string:
			return float64(len(v)), nil
		case []any:
			return float64(len(v)), nil
		case map[string]any:
			return float64(len(v)), nil
		case nil:
			return float64(0), nil
		default:
			return nil, fmt.Errorf("%w: len of %T", ErrEvaluate, v)
		}
	}
}

func stringFunc(fn func(s, arg string) bool) func(a, b interface{}) evalFn {
	return func(a, b interface{}) evalFn {
		left, right := operand(a), operand(b)
		return func(vars env) (bool, error) {
			l, err := left(vars)
			if err != nil {
				return false, err
			}
			r, err := right(vars)
			if err != nil {
				return false, err
			}
			ls, lok := l.(string)
			rs, rok := r.(string)
			if !lok || !rok {
				return false, fmt.Errorf("%w: string function on %T and %T", ErrEvaluate, l, r)
			}
			return fn(ls, rs), nil
		}
	}
}

func compareOp(accept func(int) bool, equality bool) func(a, b interface{}) evalFn {
	return func(a, b interface{}) evalFn {
		left, right := operand(a), operand(b)
		return func(vars env) (bool, error) {
			l, err := left(vars)
			if err != nil {
				return false, err
			}
			r, err := right(vars)
			if err != nil {
				return false, err
			}
			c, err := compare(l, r, equality)
			if err != nil {
				return false, err
			}
			return accept(c), nil
		}
	}
}

func andOp(a, b interface{}) (evalFn, error) {
	left, right, err := evalPair(a, b)
	if err != nil {
		return nil, err
	}
	return func(vars env) (bool, error) {
		ok, err := left(vars)
		if err != nil || !ok {
			return false, err
		}
		return right(vars)
	}, nil
}

func orOp(a, b interface{}) (evalFn, error) {
	left, right, err := evalPair(a, b)
	if err != nil {
		return nil, err
	}
	return func(vars env) (bool, error) {
		ok, err := left(vars)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
		return right(vars)
	}, nil
}

func notOp(a interface{}) (evalFn, error) {
	inner, err := toEval(a)
	if err != nil {
		return nil, err
	}
	return func(vars env) (bool, error) {
		ok, err := inner(vars)
		return !ok, err
	}, nil
}

// =============================================================================
// Value helpers
// =============================================================================

func constant(v any) valueRef {
	return func(env) (any, error) { return v, nil }
}

// operand turns a parsed node into a valueRef. Literals become constants.
func operand(x interface{}) valueRef {
	switch x := x.(type) {
	case valueRef:
		return x
	case evalFn:
		return func(vars env) (any, error) { return x(vars) }
	default:
		return constant(x)
	}
}

// toEval turns a parsed node into an evalFn. Values must be booleans at
// evaluation time.
func toEval(x interface{}) (evalFn, error) {
	switch x := x.(type) {
	case evalFn:
		return x, nil
	case valueRef:
		return func(vars env) (bool, error) {
			v, err := x(vars)
			if err != nil {
				return false, err
			}
			b, ok := v.(bool)
			if !ok {
				return false, fmt.Errorf("%w: expected boolean, got %T", ErrEvaluate, v)
			}
			return b, nil
		}, nil
	case bool:
		return func(env) (bool, error) { return x, nil }, nil
	default:
		return nil, fmt.Errorf("expected boolean expression, got %T", x)
	}
}

func evalPair(a, b interface{}) (evalFn, evalFn, error) {
	left, err := toEval(a)
	if err != nil {
		return nil, nil, err
	}
	right, err := toEval(b)
	if err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// compare orders two plain values. Only equality is defined for booleans
// and nil.
func compare(l, r any, equality bool) (int, error) {
	if lf, ok := number(l); ok {
		rf, ok := number(r)
		if !ok {
			return 0, fmt.Errorf("%w: cannot compare number with %T", ErrEvaluate, r)
		}
		switch {
		case lf < rf:
			return -1, nil
		case lf > rf:
			return 1, nil
		}
		return 0, nil
	}
	if ls, ok := l.(string); ok {
		rs, ok := r.(string)
		if !ok {
			return 0, fmt.Errorf("%w: cannot compare string with %T", ErrEvaluate, r)
		}
		return strings.Compare(ls, rs), nil
	}
	if !equality {
		return 0, fmt.Errorf("%w: %T values are not ordered", ErrEvaluate, l)
	}
	switch l := l.(type) {
	case bool:
		rb, ok := r.(bool)
		if !ok {
			return 0, fmt.Errorf("%w: cannot compare bool with %T", ErrEvaluate, r)
		}
		if l == rb {
			return 0, nil
		}
		return 1, nil
	case nil:
		if r == nil {
			return 0, nil
		}
		return 1, nil
	}
	return 0, fmt.Errorf("%w: cannot compare %T values", ErrEvaluate, l)
}
