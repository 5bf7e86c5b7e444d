package ladder

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAwaitEntryWindowAlreadyThere(t *testing.T) {
	t.Parallel()

	clk := newFakeClock(time.Date(2025, 6, 1, 12, 0, 59, 0, time.UTC))
	require.NoError(t, awaitEntryWindow(context.Background(), clk, 59))
	assert.Empty(t, clk.sleeps())
}

func TestAwaitEntryWindowSleepsToTarget(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 6, 1, 12, 0, 57, 500_000_000, time.UTC)
	clk := newFakeClock(start)

	require.NoError(t, awaitEntryWindow(context.Background(), clk, 59))

	assert.Equal(t, 59, clk.Now().Second())
	require.Len(t, clk.sleeps(), 1)
	assert.Equal(t, 1500*time.Millisecond, clk.sleeps()[0])
}

func TestAwaitEntryWindowWrapsAcrossMinute(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 6, 1, 12, 0, 30, 0, time.UTC)
	clk := newFakeClock(start)

	require.NoError(t, awaitEntryWindow(context.Background(), clk, 5))
	assert.Equal(t, 5, clk.Now().Second())
}

func TestAwaitEntryWindowCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	clk := newFakeClock(time.Date(2025, 6, 1, 12, 0, 10, 0, time.UTC))
	err := awaitEntryWindow(ctx, clk, 59)
	require.ErrorIs(t, err, context.Canceled)
}
