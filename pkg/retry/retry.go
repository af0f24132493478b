// Package retry wraps github.com/cenkalti/backoff/v5 into the one bounded
// exponential-backoff policy the task executor applies to agent/LLM calls
// (§4.4 Failure semantics, §5 Blocking operations — "a hung LLM call must
// not stall the whole run").
package retry

import (
	"context"

	"github.com/cenkalti/backoff/v5"

	"github.com/embench/evalcore/pkg/runspec"
)

// Do runs operation under the given retry policy: each attempt is bounded by
// policy.CallTimeout, and at most policy.MaxAttempts attempts are made in
// total, with exponential backoff between BaseDelay and MaxDelay. It returns
// the last error once attempts are exhausted.
func Do[T any](ctx context.Context, policy runspec.RetryPolicy, operation func(ctx context.Context) (T, error)) (T, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = policy.BaseDelay
	b.MaxInterval = policy.MaxDelay

	return backoff.Retry(ctx, func() (T, error) {
		callCtx, cancel := context.WithTimeout(ctx, policy.CallTimeout)
		defer cancel()
		return operation(callCtx)
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(policy.MaxAttempts)),
	)
}
