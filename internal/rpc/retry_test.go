package rpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goran-ethernal/DepositIndexor/internal/common"
	"github.com/goran-ethernal/DepositIndexor/internal/logger"
	"github.com/goran-ethernal/DepositIndexor/pkg/config"
)

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func fastRetry(attempts int) *config.RetryConfig {
	return &config.RetryConfig{
		MaxAttempts:       attempts,
		InitialBackoff:    common.NewDuration(time.Millisecond),
		MaxBackoff:        common.NewDuration(5 * time.Millisecond),
		BackoffMultiplier: 2.0,
	}
}

func TestRetryableError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{name: "nil", err: nil},
		{name: "net error", err: timeoutError{}, retryable: true},
		{name: "op error", err: &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}, retryable: true},
		{name: "wrapped reset", err: fmt.Errorf("read: %w", syscall.ECONNRESET), retryable: true},
		{name: "broken pipe", err: syscall.EPIPE, retryable: true},
		{name: "rate limited", err: errors.New("429 Too Many Requests"), retryable: true},
		{name: "gateway", err: errors.New("502 Bad Gateway"), retryable: true},
		{name: "lagging node", err: errors.New("header not found"), retryable: true},
		{name: "deadline", err: context.DeadlineExceeded, retryable: true},
		{name: "revert", err: errors.New("execution reverted: timeout not reached")},
		{name: "invalid params", err: errors.New("invalid argument 0")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, IsRetryableError(tt.err))
		})
	}
}

func TestCalculateBackoff(t *testing.T) {
	cfg := &config.RetryConfig{
		InitialBackoff:    common.NewDuration(time.Second),
		MaxBackoff:        common.NewDuration(5 * time.Second),
		BackoffMultiplier: 2.0,
	}

	assert.Zero(t, CalculateBackoff(1, cfg))

	for range 10 {
		b := CalculateBackoff(3, cfg)
		assert.GreaterOrEqual(t, b, 1500*time.Millisecond)
		assert.LessOrEqual(t, b, 2500*time.Millisecond)

		assert.LessOrEqual(t, CalculateBackoff(12, cfg), 6250*time.Millisecond)
	}
}

func TestRetryWithBackoff(t *testing.T) {
	log := logger.NewNopLogger()

	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		err := retryWithBackoff(context.Background(), log, fastRetry(5), "eth_call", func() error {
			calls++
			if calls < 3 {
				return timeoutError{}
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("stops on non-retryable", func(t *testing.T) {
		calls := 0
		reverted := errors.New("execution reverted")
		err := retryWithBackoff(context.Background(), log, fastRetry(5), "eth_call", func() error {
			calls++
			return reverted
		})
		require.ErrorIs(t, err, reverted)
		assert.Contains(t, err.Error(), "non-retryable error on attempt 1/5")
		assert.Equal(t, 1, calls)
	})

	t.Run("exhausts attempts", func(t *testing.T) {
		calls := 0
		err := retryWithBackoff(context.Background(), log, fastRetry(3), "eth_call", func() error {
			calls++
			return timeoutError{}
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "all 3 attempts failed")
		assert.Equal(t, 3, calls)
	})

	t.Run("honors cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		err := retryWithBackoff(ctx, log, fastRetry(5), "eth_call", func() error {
			calls++
			if calls == 2 {
				cancel()
			}
			return timeoutError{}
		})
		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 2, calls)
	})

	t.Run("nil config runs once", func(t *testing.T) {
		calls := 0
		err := retryWithBackoff(context.Background(), nil, nil, "eth_call", func() error {
			calls++
			return timeoutError{}
		})
		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})
}
