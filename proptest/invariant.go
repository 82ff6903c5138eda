package proptest

import (
	"context"
	"fmt"
)

// Category classifies when an invariant is checked.
type Category string

const (
	// CategoryPrecondition gates whether a generated case is attempted at all.
	CategoryPrecondition Category = "precondition"
	// CategoryPostcondition is checked after a successful property execution.
	CategoryPostcondition Category = "postcondition"
	// CategoryBusinessRule is checked after a successful property execution.
	CategoryBusinessRule Category = "business-rule"
	// CategoryDataIntegrity is checked after a successful property execution.
	CategoryDataIntegrity Category = "data-integrity"
)

// afterProperty lists the categories checked once the property has passed.
var afterProperty = []Category{CategoryPostcondition, CategoryBusinessRule, CategoryDataIntegrity}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryPrecondition, CategoryPostcondition, CategoryBusinessRule, CategoryDataIntegrity:
		return true
	}
	return false
}

// Invariant is a named correctness condition checked independently of the
// property's own verdict. output is nil for preconditions.
type Invariant interface {
	Name() string
	Description() string
	Category() Category
	Critical() bool
	Check(ctx context.Context, in Inputs, output any) (bool, error)
}

// Rule is the stock Invariant implementation.
type Rule struct {
	RuleName        string
	RuleDescription string
	RuleCategory    Category
	IsCritical      bool
	CheckFn         func(ctx context.Context, in Inputs, output any) (bool, error)
}

// Name returns RuleName.
func (r Rule) Name() string { return r.RuleName }

// Description returns RuleDescription.
func (r Rule) Description() string { return r.RuleDescription }

// Category returns RuleCategory.
func (r Rule) Category() Category { return r.RuleCategory }

// Critical returns IsCritical.
func (r Rule) Critical() bool { return r.IsCritical }

// Check implements Invariant.
func (r Rule) Check(ctx context.Context, in Inputs, output any) (bool, error) {
	return r.CheckFn(ctx, in, output)
}

// Precondition returns a non-critical precondition rule.
func Precondition(name string, fn func(in Inputs) bool) Rule {
	return Rule{
		RuleName:     name,
		RuleCategory: CategoryPrecondition,
		CheckFn: func(_ context.Context, in Inputs, _ any) (bool, error) {
			return fn(in), nil
		},
	}
}

// BusinessRule returns a business-rule invariant.
func BusinessRule(name string, critical bool, fn func(in Inputs, output any) bool) Rule {
	return Rule{
		RuleName:     name,
		RuleCategory: CategoryBusinessRule,
		IsCritical:   critical,
		CheckFn: func(_ context.Context, in Inputs, output any) (bool, error) {
			return fn(in, output), nil
		},
	}
}

// InvariantViolation records one failed invariant check.
type InvariantViolation struct {
	TestCase  int      `json:"test_case"`
	Invariant string   `json:"invariant"`
	Category  Category `json:"category"`
	Critical  bool     `json:"critical"`
	Message   string   `json:"message"`
}

// checkInvariants evaluates every invariant in one of the given categories.
// An error or panic from Check counts as a violation.
func checkInvariants(ctx context.Context, invariants []Invariant, categories []Category, testCase int, in Inputs, output any) []InvariantViolation {
	var violations []InvariantViolation
	for _, inv := range invariants {
		if !inCategories(inv.Category(), categories) {
			continue
		}
		ok, err := safeCheck(ctx, inv, in, output)
		if ok && err == nil {
			continue
		}
		msg := fmt.Sprintf("invariant %q violated", inv.Name())
		if err != nil {
			msg = fmt.Sprintf("invariant %q errored: %v", inv.Name(), err)
		}
		violations = append(violations, InvariantViolation{
			TestCase:  testCase,
			Invariant: inv.Name(),
			Category:  inv.Category(),
			Critical:  inv.Critical(),
			Message:   msg,
		})
	}
	return violations
}

func inCategories(c Category, categories []Category) bool {
	for _, want := range categories {
		if c == want {
			return true
		}
	}
	return false
}

func firstCritical(violations []InvariantViolation) (InvariantViolation, bool) {
	for _, v := range violations {
		if v.Critical {
			return v, true
		}
	}
	return InvariantViolation{}, false
}
