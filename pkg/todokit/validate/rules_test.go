package validate_test

import (
	"testing"

	"github.com/randalmurphal/todokit/pkg/todokit/config"
	"github.com/randalmurphal/todokit/pkg/todokit/validate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRules(t *testing.T) {
	rules := validate.DefaultRules()
	assert.Equal(t, 3, rules.MinLength)
	assert.Equal(t, 100, rules.MaxLength)
	assert.Contains(t, rules.ForbiddenWords, "spam")
	assert.True(t, rules.ProfanityCheck)
	assert.False(t, rules.ExternalCheck)
}

func TestRulesFromConfig(t *testing.T) {
	cfg, err := config.FromYAML([]byte(`
minLength: 5
forbiddenWords:
  - foo
  - bar
externalApiCheck: true
`))
	require.NoError(t, err)

	rules := validate.RulesFromConfig(cfg)
	assert.Equal(t, 5, rules.MinLength)
	assert.Equal(t, 100, rules.MaxLength) // default fills the gap
	assert.Equal(t, []string{"foo", "bar"}, rules.ForbiddenWords)
	assert.True(t, rules.ExternalCheck)
}

func TestRulesFromConfig_Empty(t *testing.T) {
	rules := validate.RulesFromConfig(config.Config{})
	assert.Equal(t, validate.DefaultRules(), rules)
}
