package validate_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/randalmurphal/todokit/pkg/todokit/validate"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestGateway_AcceptsValidName(t *testing.T) {
	g := validate.NewGateway(validate.NewRuleValidator(validate.DefaultRules()))

	dec := g.Validate(context.Background(), "Buy milk")
	assert.True(t, dec.Accepted)
	assert.False(t, dec.Degraded)
	assert.Equal(t, "Todo name is valid", dec.Message)
}

func TestGateway_HonorsRejection(t *testing.T) {
	g := validate.NewGateway(validate.NewRuleValidator(validate.DefaultRules()))

	dec := g.Validate(context.Background(), "x")
	assert.False(t, dec.Accepted)
	assert.False(t, dec.Degraded)
	assert.Contains(t, dec.Message, "at least 3 characters")
	assert.Zero(t, g.FailOpenCount())
}

func TestGateway_FailsOpenOnValidatorError(t *testing.T) {
	broken := validate.ValidatorFunc(func(context.Context, string) (validate.Result, error) {
		return validate.Result{}, errors.New("connection refused")
	})
	g := validate.NewGateway(broken)

	dec := g.Validate(context.Background(), "anything")
	assert.True(t, dec.Accepted)
	assert.True(t, dec.Degraded)
	assert.Equal(t, "validator unavailable, accepted by default", dec.Message)
	assert.Equal(t, int64(1), g.FailOpenCount())

	g.Validate(context.Background(), "again")
	assert.Equal(t, int64(2), g.FailOpenCount())
}

func TestGateway_FailsOpenOnTimeout(t *testing.T) {
	slow := validate.ValidatorFunc(func(ctx context.Context, _ string) (validate.Result, error) {
		<-ctx.Done()
		return validate.Result{}, ctx.Err()
	})
	g := validate.NewGateway(slow, validate.WithTimeout(20*time.Millisecond))

	start := time.Now()
	dec := g.Validate(context.Background(), "Buy milk")
	elapsed := time.Since(start)

	assert.True(t, dec.Accepted)
	assert.True(t, dec.Degraded)
	assert.Less(t, elapsed, time.Second)
}

func TestGateway_RateLimiterExhaustionFailsOpen(t *testing.T) {
	v := validate.NewRuleValidator(validate.DefaultRules())
	// One token, no refill worth waiting for within the timeout
	limiter := rate.NewLimiter(rate.Every(time.Hour), 1)
	g := validate.NewGateway(v,
		validate.WithRateLimiter(limiter),
		validate.WithTimeout(20*time.Millisecond),
	)

	dec := g.Validate(context.Background(), "Buy milk")
	assert.True(t, dec.Accepted)
	assert.False(t, dec.Degraded)

	dec = g.Validate(context.Background(), "Buy milk")
	assert.True(t, dec.Accepted)
	assert.True(t, dec.Degraded)
	assert.Equal(t, int64(1), g.FailOpenCount())
}

func TestGateway_CanceledContextFailsOpen(t *testing.T) {
	v := validate.ValidatorFunc(func(ctx context.Context, _ string) (validate.Result, error) {
		if err := ctx.Err(); err != nil {
			return validate.Result{}, err
		}
		return validate.Result{Valid: true}, nil
	})
	g := validate.NewGateway(v)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dec := g.Validate(ctx, "Buy milk")
	assert.True(t, dec.Accepted)
	assert.True(t, dec.Degraded)
}
