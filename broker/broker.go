// Package broker defines the session capability the trade orchestrator
// consumes. A Session wraps one authenticated connection to a binary-options
// broker for a single account; implementations live outside the core (the
// sim package provides a scripted one for tests and demos).
package broker

import (
	"context"
	"time"
)

// Direction is the side of a binary-options order.
type Direction string

const (
	Call Direction = "call"
	Put  Direction = "put"
)

// Quote is one row of the broker's payout table, fetched fresh each cycle.
type Quote struct {
	Symbol string
	Payout float64 // percent, e.g. 82 means 82%
	Open   bool
}

// OrderRequest describes one leg to be placed.
type OrderRequest struct {
	Asset     string
	Direction Direction
	Stake     float64
	Duration  time.Duration
}

// OrderRef is the broker's acknowledgment of an accepted order. CloseTime
// minus OpenTime is the settlement dwell; it may be zero or negative when the
// candle has already closed.
type OrderRef struct {
	ID        string
	OpenTime  time.Time
	CloseTime time.Time
}

// Outcome is the broker's view of a placed order. Settled is false while the
// trade is still open. Profit is the signed realized amount: positive on a
// win, -stake on a loss, zero on a tie.
type Outcome struct {
	Settled bool
	Win     bool
	Profit  float64
}

// Session is the capability interface over one broker connection.
//
// Any call may fail with a *ConnectionError (transient, retry per bounded
// policy) or an *AuthError (terminal for the session; cached session state
// must be discarded and a full re-authentication performed on the next
// Connect).
type Session interface {
	// Connect performs a single authentication attempt. Bounded retry is
	// the Dialer's job, not the implementation's.
	Connect(ctx context.Context) error

	// IsConnected reports whether the session is currently usable.
	IsConnected() bool

	// Balance returns the available balance for the account's active mode.
	Balance(ctx context.Context) (float64, error)

	// Quotes returns the raw payout table keyed by broker symbol.
	Quotes(ctx context.Context) (map[string]Quote, error)

	// PlaceOrder submits one leg and returns the broker's acknowledgment.
	PlaceOrder(ctx context.Context, req OrderRequest) (OrderRef, error)

	// Outcome polls the settlement state of a placed order. Settled is
	// false while the trade is still open.
	Outcome(ctx context.Context, orderID string) (Outcome, error)

	// Close releases the connection. Safe to call on a closed session.
	Close() error
}
