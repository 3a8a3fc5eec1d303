package services

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// EffectPolicy says how a side effect that follows a committed write is run.
type EffectPolicy int

const (
	// MustSucceed effects run inline and are retried before the response is written.
	MustSucceed EffectPolicy = iota
	// BestEffort effects run in the background; failures are only logged.
	BestEffort
)

func (p EffectPolicy) String() string {
	if p == MustSucceed {
		return "must_succeed"
	}
	return "best_effort"
}

const (
	defaultEffectAttempts   = 3
	defaultEffectRetryDelay = 100 * time.Millisecond
)

// Effects runs audit writes and emails after the primary write has committed.
// Neither policy can fail the caller's operation.
type Effects struct {
	logger     *slog.Logger
	timeout    time.Duration
	attempts   int
	retryDelay time.Duration
	wg         sync.WaitGroup
}

// NewEffects returns an Effects runner. timeout bounds each attempt.
func NewEffects(logger *slog.Logger, timeout time.Duration) *Effects {
	return &Effects{
		logger:     logger,
		timeout:    timeout,
		attempts:   defaultEffectAttempts,
		retryDelay: defaultEffectRetryDelay,
	}
}

// Run executes fn under the given policy. Effects are detached from ctx
// cancellation so a finished request does not abort them.
func (e *Effects) Run(ctx context.Context, policy EffectPolicy, name string, fn func(context.Context) error) {
	detached := context.WithoutCancel(ctx)
	if policy == MustSucceed {
		e.runWithRetry(detached, name, fn)
		return
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		runCtx, cancel := context.WithTimeout(detached, e.timeout)
		defer cancel()
		if err := fn(runCtx); err != nil {
			e.logger.WarnContext(runCtx, "side effect failed", "effect", name, "policy", policy.String(), "err", err)
		}
	}()
}

func (e *Effects) runWithRetry(ctx context.Context, name string, fn func(context.Context) error) {
	var err error
	for attempt := 1; attempt <= e.attempts; attempt++ {
		runCtx, cancel := context.WithTimeout(ctx, e.timeout)
		err = fn(runCtx)
		cancel()
		if err == nil {
			return
		}
		if attempt < e.attempts {
			time.Sleep(time.Duration(attempt) * e.retryDelay)
		}
	}
	e.logger.ErrorContext(ctx, "side effect failed", "effect", name, "policy", MustSucceed.String(), "attempts", e.attempts, "err", err)
}

// Wait blocks until pending background effects finish or ctx is done.
func (e *Effects) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
