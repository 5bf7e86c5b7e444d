// Package ledger persists trade attempts and account state. The ladder
// upserts attempts keyed on (account, broker trade id) so retried writes
// stay idempotent; the sizer reads recent settled history from here.
package ledger

import (
	"context"
	"time"

	"ladderbot/account"
)

// Outcome is the settlement status of a trade attempt.
type Outcome string

const (
	Pending Outcome = "PENDING"
	Win     Outcome = "WIN"
	Loss    Outcome = "LOSS"
	Tie     Outcome = "TIE"
)

// Settled reports whether the outcome is final.
func (o Outcome) Settled() bool {
	return o == Win || o == Loss || o == Tie
}

// TradeAttempt is one placed leg. Created when the broker accepts the order,
// updated exactly once on settlement, never deleted.
type TradeAttempt struct {
	AccountID     int64
	TradeID       string // broker-assigned, unique per account
	Asset         string
	Direction     string
	Stake         float64
	PayoutPercent float64
	OpenTime      time.Time
	CloseTime     time.Time
	Outcome       Outcome
	Result        float64 // signed realized amount, 0 while pending
}

// TradeLedger stores trade attempts.
type TradeLedger interface {
	// Upsert inserts or updates the attempt keyed on
	// (AccountID, TradeID). Calling it twice with the same key yields one
	// record.
	Upsert(ctx context.Context, t TradeAttempt) error

	// RecentSettled returns up to limit settled attempts for the account,
	// most recent first.
	RecentSettled(ctx context.Context, accountID int64, limit int) ([]TradeAttempt, error)

	// SumSettled returns the cumulative realized result over settled
	// attempts for the account.
	SumSettled(ctx context.Context, accountID int64) (float64, error)
}

// AccountStore reads and updates broker accounts and their risk profiles.
type AccountStore interface {
	Account(ctx context.Context, id int64) (account.Account, error)
	Profile(ctx context.Context, accountID int64) (account.RiskProfile, error)

	// ListEligible returns accounts with both active flags set.
	ListEligible(ctx context.Context) ([]account.Account, error)

	// SaveBalances persists the account's balances.
	SaveBalances(ctx context.Context, a account.Account) error

	// SetFlags persists the active / bot-active flags.
	SetFlags(ctx context.Context, id int64, active, botActive bool) error
}

// Store combines both persistence surfaces; the SQL backends implement it.
type Store interface {
	TradeLedger
	AccountStore
	Close() error
}
