package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func noJitter(time.Duration) time.Duration { return 0 }

func TestDefaultRetryPolicy_JitterFn(t *testing.T) {
	policy := DefaultRetryPolicy()

	assert.NotNil(t, policy.JitterFn)
	assert.Equal(t, 50*time.Millisecond, policy.JitterFn(100*time.Millisecond),
		"default jitter should be 50% of backoff")
}

func TestRetry(t *testing.T) {
	t.Run("success_on_first_attempt", func(t *testing.T) {
		policy := RetryPolicy{
			MaxRetries:  3,
			BaseBackoff: 10 * time.Millisecond,
			MaxBackoff:  100 * time.Millisecond,
			JitterFn:    noJitter,
		}

		err := Retry(context.Background(), policy, func() error {
			return nil
		})
		assert.NoError(t, err)
	})

	t.Run("success_after_retry", func(t *testing.T) {
		attempts := 0

		policy := RetryPolicy{
			MaxRetries:  3,
			BaseBackoff: 1 * time.Millisecond,
			MaxBackoff:  10 * time.Millisecond,
			JitterFn:    noJitter,
		}

		err := Retry(context.Background(), policy, func() error {
			attempts++
			if attempts < 2 {
				return errors.New("connection refused")
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 2, attempts)
	})

	t.Run("exhaust_retries", func(t *testing.T) {
		attempts := 0
		failure := errors.New("connection refused")

		policy := RetryPolicy{
			MaxRetries:  2,
			BaseBackoff: 1 * time.Millisecond,
			MaxBackoff:  5 * time.Millisecond,
			JitterFn:    noJitter,
		}

		err := Retry(context.Background(), policy, func() error {
			attempts++
			return failure
		})
		assert.ErrorIs(t, err, failure)
		assert.Equal(t, 3, attempts)
	})

	t.Run("context_cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		policy := RetryPolicy{
			MaxRetries:  5,
			BaseBackoff: 10 * time.Millisecond,
			MaxBackoff:  100 * time.Millisecond,
			JitterFn:    noJitter,
		}

		err := Retry(ctx, policy, func() error {
			return errors.New("failed")
		})
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("max_backoff_cap", func(t *testing.T) {
		attempts := 0

		policy := RetryPolicy{
			MaxRetries:  3,
			BaseBackoff: 50 * time.Millisecond,
			MaxBackoff:  60 * time.Millisecond,
			JitterFn:    noJitter,
		}
		start := time.Now()

		_ = Retry(context.Background(), policy, func() error {
			attempts++
			return errors.New("failed")
		})

		elapsed := time.Since(start)
		assert.Greater(t, elapsed, policy.BaseBackoff, "expected backoff to be greater than base backoff")
		assert.Less(t, elapsed, time.Second, "backoff must be capped")
		assert.Equal(t, 4, attempts, "expected 4 attempts")
	})
}
