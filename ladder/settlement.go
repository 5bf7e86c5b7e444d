package ladder

import (
	"context"
	"errors"
	"time"

	"ladderbot/broker"
)

// ErrSettlementTimeout means the broker never reported settlement within the
// dwell plus grace period. The outcome stays unresolved; the same order is
// never retried.
var ErrSettlementTimeout = errors.New("settlement not reported within grace period")

// SettlementWaiter suspends until a placed order's expiry and then polls for
// its outcome. Waits are cooperative so other accounts' cycles keep running.
type SettlementWaiter struct {
	clk   Clock
	grace time.Duration
	poll  time.Duration
}

// NewSettlementWaiter builds a waiter. Zero grace defaults to 30s, zero poll
// to 500ms.
func NewSettlementWaiter(clk Clock, grace, poll time.Duration) *SettlementWaiter {
	if grace <= 0 {
		grace = 30 * time.Second
	}
	if poll <= 0 {
		poll = 500 * time.Millisecond
	}
	return &SettlementWaiter{clk: clk, grace: grace, poll: poll}
}

// Await sleeps out the dwell derived from the order's acknowledged open and
// close timestamps, then polls the session for the outcome. A non-positive
// dwell polls immediately with no sleep. Once the grace budget after the
// dwell is spent, Await returns ErrSettlementTimeout.
func (w *SettlementWaiter) Await(ctx context.Context, sess broker.Session, ref broker.OrderRef) (broker.Outcome, error) {
	dwell := ref.CloseTime.Sub(ref.OpenTime)
	if dwell > 0 {
		if err := w.clk.Sleep(ctx, dwell); err != nil {
			return broker.Outcome{}, err
		}
	}

	var waited time.Duration
	for {
		out, err := sess.Outcome(ctx, ref.ID)
		if err != nil {
			return broker.Outcome{}, err
		}
		if out.Settled {
			return out, nil
		}
		if waited >= w.grace {
			return broker.Outcome{}, ErrSettlementTimeout
		}
		if err := w.clk.Sleep(ctx, w.poll); err != nil {
			return broker.Outcome{}, err
		}
		waited += w.poll
	}
}
