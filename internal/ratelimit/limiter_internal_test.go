package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Expired windows must be swept out, or the map grows with every distinct
// client IP the process ever sees.
func TestMemoryLimiterEvictsStaleWindows(t *testing.T) {
	clock := time.Unix(1000, 0)
	limiter := NewMemory(5, time.Minute)
	limiter.now = func() time.Time { return clock }
	ctx := context.Background()

	for _, key := range []string{"1.1.1.1", "2.2.2.2", "3.3.3.3"} {
		_, err := limiter.Allow(ctx, key)
		require.NoError(t, err)
	}
	assert.Len(t, limiter.windows, 3)

	// A full window later only the fresh key survives.
	clock = clock.Add(time.Minute)
	_, err := limiter.Allow(ctx, "4.4.4.4")
	require.NoError(t, err)
	assert.Len(t, limiter.windows, 1)

	// Within the same window nothing is swept early.
	clock = clock.Add(30 * time.Second)
	_, err = limiter.Allow(ctx, "5.5.5.5")
	require.NoError(t, err)
	assert.Len(t, limiter.windows, 2)
}
