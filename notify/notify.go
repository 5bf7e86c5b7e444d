// Package notify fans governance and cycle events out to interested
// listeners. Delivery is fire-and-forget; the core never blocks or fails a
// cycle on a notification.
package notify

import (
	"context"

	"github.com/rs/zerolog"
)

// Event classifies a notification.
type Event string

const (
	EventStopGain          Event = "stop_gain"
	EventStopLoss          Event = "stop_loss"
	EventAccessInterrupted Event = "access_interrupted"
	EventMaximumProfit     Event = "maximum_profit"
	EventCycleResult       Event = "cycle_result"
)

// Bus delivers events. Implementations must not block the caller beyond a
// bounded send and must swallow their own delivery errors.
type Bus interface {
	Emit(ctx context.Context, accountID int64, event Event, payload map[string]any)
}

// LogBus writes events to the structured log. It is the default bus and the
// fallback when no external sink is configured.
type LogBus struct {
	Log zerolog.Logger
}

func (b LogBus) Emit(_ context.Context, accountID int64, event Event, payload map[string]any) {
	b.Log.Info().
		Int64("account", accountID).
		Str("event", string(event)).
		Fields(payload).
		Msg("notification")
}

// MultiBus emits to every bus in order.
type MultiBus []Bus

func (m MultiBus) Emit(ctx context.Context, accountID int64, event Event, payload map[string]any) {
	for _, b := range m {
		b.Emit(ctx, accountID, event, payload)
	}
}
