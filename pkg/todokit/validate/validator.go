package validate

import (
	"context"
	"fmt"
	"strings"
)

// Result is the validation verdict: the wire shape of the validation RPC
// response.
type Result struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

// Validator answers whether a candidate todo name is acceptable.
// Implementations may call out over the network; an error means the
// validator could not produce a verdict, not that the name is invalid.
type Validator interface {
	Validate(ctx context.Context, name string) (Result, error)
}

// ValidatorFunc adapts a function to the Validator interface.
type ValidatorFunc func(ctx context.Context, name string) (Result, error)

// Validate implements Validator.
func (f ValidatorFunc) Validate(ctx context.Context, name string) (Result, error) {
	return f(ctx, name)
}

// RuleValidator checks names against an in-memory rule set.
type RuleValidator struct {
	rules Rules
}

// NewRuleValidator creates a validator for the given rules.
func NewRuleValidator(rules Rules) *RuleValidator {
	return &RuleValidator{rules: rules}
}

// Rules returns the rule set this validator enforces.
func (v *RuleValidator) Rules() Rules {
	return v.rules
}

// Validate implements Validator. It never returns an error: rule
// evaluation is local and always produces a verdict.
func (v *RuleValidator) Validate(_ context.Context, name string) (Result, error) {
	if strings.TrimSpace(name) == "" {
		return Result{Valid: false, Message: "Todo name is required"}, nil
	}

	if len(name) < v.rules.MinLength {
		return Result{
			Valid:   false,
			Message: fmt.Sprintf("Todo name must be at least %d characters long", v.rules.MinLength),
		}, nil
	}

	if len(name) > v.rules.MaxLength {
		return Result{
			Valid:   false,
			Message: fmt.Sprintf("Todo name must be less than %d characters long", v.rules.MaxLength),
		}, nil
	}

	lower := strings.ToLower(name)
	for _, word := range v.rules.ForbiddenWords {
		if strings.Contains(lower, strings.ToLower(word)) {
			return Result{
				Valid:   false,
				Message: fmt.Sprintf("Todo name contains forbidden word: %q", word),
			}, nil
		}
	}

	return Result{Valid: true, Message: "Todo name is valid"}, nil
}
