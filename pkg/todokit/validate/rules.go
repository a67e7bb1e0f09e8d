// Package validate provides todo name validation: a local rule engine, a
// remote validator client, and a gateway that wraps either with a bounded
// timeout and a fail-open policy.
package validate

import (
	"github.com/randalmurphal/todokit/pkg/todokit/config"
)

// Rules is the validation rule set. It is configured once at startup and
// read-only for the lifetime of the process, so unsynchronized concurrent
// reads are safe.
type Rules struct {
	MinLength      int      `json:"minLength" yaml:"minLength"`
	MaxLength      int      `json:"maxLength" yaml:"maxLength"`
	ForbiddenWords []string `json:"forbiddenWords" yaml:"forbiddenWords"`
	ProfanityCheck bool     `json:"profanityCheck" yaml:"profanityCheck"`
	ExternalCheck  bool     `json:"externalApiCheck" yaml:"externalApiCheck"`
}

// DefaultRules returns the stock rule set.
func DefaultRules() Rules {
	return Rules{
		MinLength: 3,
		MaxLength: 100,
		ForbiddenWords: []string{
			"spam", "test123", "delete", "bad", "terrible",
			"awful", "hate", "stupid", "dumb",
		},
		ProfanityCheck: true,
		ExternalCheck:  false,
	}
}

// RulesFromConfig builds a rule set from configuration, falling back to
// DefaultRules values for missing keys.
func RulesFromConfig(cfg config.Config) Rules {
	defaults := DefaultRules()
	return Rules{
		MinLength:      cfg.Int("minLength", defaults.MinLength),
		MaxLength:      cfg.Int("maxLength", defaults.MaxLength),
		ForbiddenWords: cfg.StringSlice("forbiddenWords", defaults.ForbiddenWords),
		ProfanityCheck: cfg.Bool("profanityCheck", defaults.ProfanityCheck),
		ExternalCheck:  cfg.Bool("externalApiCheck", defaults.ExternalCheck),
	}
}
