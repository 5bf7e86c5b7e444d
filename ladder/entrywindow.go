package ladder

import (
	"context"
	"time"
)

// entryWindowGuardStep bounds the fine-grained poll after the timer wake.
// 10ms keeps the alignment well inside one second without spinning.
const entryWindowGuardStep = 10 * time.Millisecond

// awaitEntryWindow suspends until the wall clock reaches the target second
// of the minute, aligning the first leg with the broker's candle boundary.
// A single timer wake replaces the source system's busy-wait; a short
// guarded poll afterwards absorbs early wakes.
func awaitEntryWindow(ctx context.Context, clk Clock, target int) error {
	now := clk.Now()
	if now.Second() == target {
		return nil
	}

	diff := (target - now.Second() + 60) % 60
	wake := time.Duration(diff)*time.Second - time.Duration(now.Nanosecond())
	if err := clk.Sleep(ctx, wake); err != nil {
		return err
	}

	for i := 0; i < 200 && clk.Now().Second() != target; i++ {
		if err := clk.Sleep(ctx, entryWindowGuardStep); err != nil {
			return err
		}
	}
	return nil
}
