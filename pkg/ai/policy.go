package ai

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sony/gobreaker"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/johnstilia/cmtgen/pkg/commit"
)

// Policy is the caller-owned timeout and retry policy for model calls
type Policy struct {
	// Provider labels timeout errors
	Provider string
	// Timeout bounds each attempt; zero means no deadline
	Timeout time.Duration
	// Retries is how many extra attempts follow a failed provider call
	Retries int
	// Backoff is the pause before a retry
	Backoff time.Duration
}

// Call runs gen under the policy. Timeouts, unknown models and unusable
// replies are not retried.
func Call(ctx context.Context, gen Generator, systemPrompt, userPrompt string, opts Options, p Policy) (commit.StructuredResult, error) {
	logger := otelzap.Ctx(ctx)

	var lastErr error
	for attempt := 0; attempt <= p.Retries; attempt++ {
		if attempt > 0 {
			logger.Warn("retrying model call", zap.Int("attempt", attempt+1), zap.Error(lastErr))
			select {
			case <-ctx.Done():
				return commit.StructuredResult{}, ctx.Err()
			case <-time.After(p.Backoff):
			}
		}

		result, err := callOnce(ctx, gen, systemPrompt, userPrompt, opts, p)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !retryable(err) {
			break
		}
	}

	return commit.StructuredResult{}, lastErr
}

func callOnce(ctx context.Context, gen Generator, systemPrompt, userPrompt string, opts Options, p Policy) (commit.StructuredResult, error) {
	attemptCtx := ctx
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	result, err := gen.Generate(attemptCtx, systemPrompt, userPrompt, opts)
	if err != nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		return commit.StructuredResult{}, errors.WithHint(
			errors.WithStack(&ProviderTimeoutError{Provider: p.Provider, Timeout: p.Timeout}),
			"raise ai.timeout_seconds or reduce the diff with --context-lines",
		)
	}
	return result, err
}

func retryable(err error) bool {
	var (
		timeout    *ProviderTimeoutError
		badModel   *InvalidModelError
		validation *commit.ValidationError
		provider   *ProviderError
	)
	switch {
	case errors.As(err, &timeout), errors.As(err, &badModel), errors.As(err, &validation):
		return false
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, context.Canceled):
		return false
	default:
		return errors.As(err, &provider)
	}
}

// Guarded wraps a Generator in a circuit breaker so a backend that keeps
// failing is not called again on every regeneration.
type Guarded struct {
	next Generator
	cb   *gobreaker.CircuitBreaker
}

// NewGuarded opens the breaker after maxFailures consecutive failures and
// tries again after cooldown.
func NewGuarded(name string, next Generator, maxFailures uint32, cooldown time.Duration) *Guarded {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
	}
	return &Guarded{next: next, cb: gobreaker.NewCircuitBreaker(settings)}
}

// Generate implements Generator
func (g *Guarded) Generate(ctx context.Context, systemPrompt, userPrompt string, opts Options) (commit.StructuredResult, error) {
	out, err := g.cb.Execute(func() (interface{}, error) {
		return g.next.Generate(ctx, systemPrompt, userPrompt, opts)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return commit.StructuredResult{}, errors.WithStack(&ProviderError{
				Provider: g.cb.Name(),
				Message:  "too many consecutive failures, backing off",
				Err:      err,
			})
		}
		return commit.StructuredResult{}, err
	}

	return out.(commit.StructuredResult), nil
}
