// Package fallback runs ordered provider chains: each provider is tried in
// turn inside its own time box, and the first valid result wins.
package fallback

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/wayfare-group/trip-planner-cli/internal/model"
	"github.com/wayfare-group/trip-planner-cli/internal/resilience"
)

// Provider is one member of an ordered fallback chain. Call performs the
// lookup; Validate, when set, decides whether a non-error result is usable.
// A result that fails validation counts as a malformed-response attempt and
// the chain moves on.
type Provider[Q, T any] struct {
	Name     string
	Call     func(ctx context.Context, req Q) (T, error)
	Validate func(T) bool
}

// Sequencer resolves a request against a provider chain in strict order.
type Sequencer[Q, T any] struct {
	operation string
	timeout   time.Duration
	breakers  *resilience.ProviderBreakers
	retry     *resilience.RetryConfig
}

// Option configures a Sequencer.
type Option[Q, T any] func(*Sequencer[Q, T])

// WithTimeout sets the per-attempt time box. Default: 15s.
func WithTimeout[Q, T any](d time.Duration) Option[Q, T] {
	return func(s *Sequencer[Q, T]) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithBreakers attaches per-provider circuit breakers. Providers whose
// breaker is open are skipped with a recorded attempt instead of called.
func WithBreakers[Q, T any](b *resilience.ProviderBreakers) Option[Q, T] {
	return func(s *Sequencer[Q, T]) {
		s.breakers = b
	}
}

// WithRetry enables transient-error retries within each attempt's time box.
func WithRetry[Q, T any](cfg resilience.RetryConfig) Option[Q, T] {
	return func(s *Sequencer[Q, T]) {
		s.retry = &cfg
	}
}

// NewSequencer creates a sequencer for the named operation.
func NewSequencer[Q, T any](operation string, opts ...Option[Q, T]) *Sequencer[Q, T] {
	s := &Sequencer[Q, T]{
		operation: operation,
		timeout:   15 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type attemptResult[T any] struct {
	val T
	err error
}

// Resolve tries each provider in order and returns the first valid result.
// Each attempt runs in its own goroutine under a per-attempt deadline, so a
// hung provider cannot starve the rest of the chain; the abandoned call is
// left to drain when its context expires. When every provider fails, the
// returned AggregateError carries one classified ProviderError per attempt.
func (s *Sequencer[Q, T]) Resolve(ctx context.Context, req Q, providers []Provider[Q, T]) (T, error) {
	var zero T
	attempts := make([]*model.ProviderError, 0, len(providers))

	for _, p := range providers {
		if ctx.Err() != nil {
			attempts = append(attempts, resilience.Classify(p.Name, ctx.Err()))
			break
		}

		var breaker *resilience.CircuitBreaker
		if s.breakers != nil {
			breaker = s.breakers.Get(p.Name)
			if err := breaker.Allow(); err != nil {
				zap.L().Debug("fallback: provider circuit open, skipping",
					zap.String("operation", s.operation),
					zap.String("provider", p.Name),
				)
				attempts = append(attempts, resilience.Classify(p.Name, err))
				continue
			}
		}

		val, err := s.attempt(ctx, p, req)
		if breaker != nil {
			breaker.Record(err)
		}
		if err != nil {
			pe := resilience.Classify(p.Name, err)
			attempts = append(attempts, pe)
			zap.L().Debug("fallback: provider failed, trying next",
				zap.String("operation", s.operation),
				zap.String("provider", p.Name),
				zap.String("kind", string(pe.Kind)),
				zap.Error(err),
			)
			continue
		}

		if p.Validate != nil && !p.Validate(val) {
			attempts = append(attempts, model.NewProviderError(p.Name, model.ErrMalformedResponse, nil))
			zap.L().Debug("fallback: provider returned unusable result, trying next",
				zap.String("operation", s.operation),
				zap.String("provider", p.Name),
			)
			continue
		}

		zap.L().Debug("fallback: resolved",
			zap.String("operation", s.operation),
			zap.String("provider", p.Name),
			zap.Int("failed_attempts", len(attempts)),
		)
		return val, nil
	}

	return zero, &model.AggregateError{Operation: s.operation, Attempts: attempts}
}

// attempt runs one provider call in its own goroutine under the per-attempt
// deadline. On deadline the call is abandoned and a timeout error returned.
func (s *Sequencer[Q, T]) attempt(ctx context.Context, p Provider[Q, T], req Q) (T, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	done := make(chan attemptResult[T], 1)
	go func() {
		var res attemptResult[T]
		if s.retry != nil {
			cfg := *s.retry
			cfg.OnRetry = resilience.RetryLogger(p.Name, s.operation)
			res.val, res.err = resilience.DoVal(attemptCtx, cfg, func(ctx context.Context) (T, error) {
				return p.Call(ctx, req)
			})
		} else {
			res.val, res.err = p.Call(attemptCtx, req)
		}
		done <- res
	}()

	select {
	case <-attemptCtx.Done():
		var zero T
		return zero, model.NewProviderError(p.Name, model.ErrTimeout, attemptCtx.Err())
	case res := <-done:
		return res.val, res.err
	}
}
