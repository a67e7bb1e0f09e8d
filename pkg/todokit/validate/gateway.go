package validate

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// DefaultTimeout bounds a single remote validation call.
const DefaultTimeout = 2 * time.Second

// Decision is the gateway's verdict on a candidate name.
//
// Degraded marks the fail-open path: the validator could not be reached and
// the name was admitted without a verdict. Callers that only care about
// admission read Accepted; tests and metrics can discriminate the degraded
// path.
type Decision struct {
	Accepted bool
	Message  string
	Degraded bool
}

// Gateway wraps a Validator with a bounded timeout and a fail-open policy.
//
// Validation is advisory. Blocking writes on an unrelated service's
// availability is judged worse than occasionally admitting an invalid name,
// so any transport or remote error admits the name and records the
// degraded path. A reachable validator's rejection is honored as-is.
type Gateway struct {
	validator Validator
	timeout   time.Duration
	limiter   *rate.Limiter
	logger    *slog.Logger
	history   *History

	failOpens atomic.Int64
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithTimeout bounds each remote call. Non-positive values keep the default.
func WithTimeout(d time.Duration) GatewayOption {
	return func(g *Gateway) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithRateLimiter caps the outbound call rate. Waiting for a token counts
// against the call's timeout; running out of budget fails open like any
// other unavailability.
func WithRateLimiter(l *rate.Limiter) GatewayOption {
	return func(g *Gateway) {
		g.limiter = l
	}
}

// WithGatewayLogger sets the logger. Nil disables logging.
func WithGatewayLogger(logger *slog.Logger) GatewayOption {
	return func(g *Gateway) {
		g.logger = logger
	}
}

// WithHistory records an audit entry for every decision the gateway makes.
func WithHistory(h *History) GatewayOption {
	return func(g *Gateway) {
		g.history = h
	}
}

// NewGateway creates a gateway around the given validator.
func NewGateway(v Validator, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		validator: v,
		timeout:   DefaultTimeout,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Validate asks the wrapped validator about name. Never returns an error:
// unreachable or failing validators fail open.
func (g *Gateway) Validate(ctx context.Context, name string) Decision {
	cctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	if g.limiter != nil {
		if err := g.limiter.Wait(cctx); err != nil {
			return g.failOpen(name, err)
		}
	}

	result, err := g.validator.Validate(cctx, name)
	if err != nil {
		return g.failOpen(name, err)
	}

	dec := Decision{Accepted: result.Valid, Message: result.Message}
	g.audit(name, dec)
	return dec
}

// FailOpenCount returns how many calls have taken the fail-open path.
func (g *Gateway) FailOpenCount() int64 {
	return g.failOpens.Load()
}

func (g *Gateway) failOpen(name string, err error) Decision {
	g.failOpens.Add(1)
	if g.logger != nil {
		g.logger.Warn("validator unavailable, failing open",
			slog.String("name", name),
			slog.String("error", err.Error()),
		)
	}
	dec := Decision{
		Accepted: true,
		Message:  "validator unavailable, accepted by default",
		Degraded: true,
	}
	g.audit(name, dec)
	return dec
}

// audit appends a history record for a decision when a history is attached.
func (g *Gateway) audit(name string, dec Decision) {
	if g.history == nil {
		return
	}
	rec := Record{
		Name:     name,
		Accepted: dec.Accepted,
		Message:  dec.Message,
		Degraded: dec.Degraded,
	}
	if rp, ok := g.validator.(interface{ Rules() Rules }); ok {
		rules := rp.Rules()
		rec.Rules = &rules
	}
	g.history.Append(rec)
}
