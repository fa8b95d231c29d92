package blockchain

import (
	"context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tonkeeper/tongo/ton"
	"golang.org/x/time/rate"
	"testing"
	"time"
)

func TestNewLimiter(t *testing.T) {
	unlimited := newLimiter(0)
	assert.Equal(t, rate.Inf, unlimited.Limit())

	limited := newLimiter(0.5)
	assert.Equal(t, rate.Limit(0.5), limited.Limit())
	assert.Equal(t, 1, limited.Burst())

	assert.Equal(t, 10, newLimiter(10).Burst())
}

func TestWaitRespectsContext(t *testing.T) {
	c := &Client{limiter: newLimiter(0.001)}
	require.NoError(t, c.wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	require.Error(t, c.wait(ctx))
}

func TestNotInitialized(t *testing.T) {
	c := &Client{limiter: newLimiter(0)}
	_, _, err := c.GetAccountState(context.Background(), ton.AccountID{})
	require.ErrorIs(t, err, ErrNotInitialized)
}
