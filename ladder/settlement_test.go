package ladder

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ladderbot/broker"
	"ladderbot/broker/sim"
)

func placeOne(t *testing.T, sess *sim.Session) broker.OrderRef {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, sess.Connect(ctx))
	ref, err := sess.PlaceOrder(ctx, broker.OrderRequest{
		Asset: "EURUSD", Direction: broker.Call, Stake: 10, Duration: time.Minute,
	})
	require.NoError(t, err)
	return ref
}

func TestAwaitSleepsDwellThenSettles(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clk := newFakeClock(now)
	sess := sim.New(sim.Script{
		Balance: 100,
		Results: []sim.Result{sim.Win},
		Dwell:   time.Minute,
		Now:     clk.Now,
	})
	ref := placeOne(t, sess)

	w := NewSettlementWaiter(clk, 30*time.Second, 500*time.Millisecond)
	out, err := w.Await(context.Background(), sess, ref)
	require.NoError(t, err)
	assert.True(t, out.Settled)
	assert.True(t, out.Win)

	require.NotEmpty(t, clk.sleeps())
	assert.Equal(t, time.Minute, clk.sleeps()[0])
}

func TestAwaitZeroDwellPollsImmediately(t *testing.T) {
	t.Parallel()

	clk := newFakeClock(time.Now())
	sess := sim.New(sim.Script{
		Balance: 100,
		Results: []sim.Result{sim.Loss},
		Now:     clk.Now,
	})
	ref := placeOne(t, sess)

	w := NewSettlementWaiter(clk, 30*time.Second, 500*time.Millisecond)
	out, err := w.Await(context.Background(), sess, ref)
	require.NoError(t, err)
	assert.True(t, out.Settled)
	assert.Empty(t, clk.sleeps(), "no dwell, no poll sleeps needed")
}

func TestAwaitPollsThroughUnsettledReads(t *testing.T) {
	t.Parallel()

	clk := newFakeClock(time.Now())
	sess := sim.New(sim.Script{
		Balance:        100,
		Results:        []sim.Result{sim.Win},
		UnsettledPolls: 3,
		Now:            clk.Now,
	})
	ref := placeOne(t, sess)

	w := NewSettlementWaiter(clk, 30*time.Second, 500*time.Millisecond)
	out, err := w.Await(context.Background(), sess, ref)
	require.NoError(t, err)
	assert.True(t, out.Settled)
	assert.Len(t, clk.sleeps(), 3)
}

func TestAwaitTimesOut(t *testing.T) {
	t.Parallel()

	clk := newFakeClock(time.Now())
	sess := sim.New(sim.Script{
		Balance:        100,
		UnsettledPolls: 1 << 20,
		Now:            clk.Now,
	})
	ref := placeOne(t, sess)

	w := NewSettlementWaiter(clk, 2*time.Second, 500*time.Millisecond)
	_, err := w.Await(context.Background(), sess, ref)
	require.ErrorIs(t, err, ErrSettlementTimeout)
}
