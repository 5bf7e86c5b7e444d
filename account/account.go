// Package account holds the broker-account and risk-profile domain types the
// orchestrator reads and updates. Accounts are created elsewhere; the core
// only touches balances and the active flags.
package account

import (
	"errors"
	"time"
)

// Mode selects which balance an account trades against.
type Mode string

const (
	Real     Mode = "REAL"
	Practice Mode = "PRACTICE"
)

// Account is one broker account eligible for automated cycles.
type Account struct {
	ID             int64
	Email          string
	Mode           Mode
	Currency       string // currency symbol as reported by the broker, e.g. "R$"
	DemoBalance    float64
	RealBalance    float64
	Active         bool // account enabled for the customer
	BotActive      bool // automated trading enabled
	TestPeriod     bool
	TestExpiration time.Time
}

// Balance returns the available balance for the account's mode.
func (a Account) Balance() float64 {
	if a.Mode == Real {
		return a.RealBalance
	}
	return a.DemoBalance
}

// AddProfit applies a signed realized result to the mode's balance.
func (a *Account) AddProfit(p float64) {
	if a.Mode == Real {
		a.RealBalance += p
		return
	}
	a.DemoBalance += p
}

// MinEntry is the broker's minimum stake for a currency: 5 for
// BRL-denominated accounts, 1 otherwise.
func MinEntry(currency string) float64 {
	if currency == "R$" {
		return 5
	}
	return 1
}

// ProfileKind selects the first-leg sizing policy. The source system shipped
// several non-equivalent formulas; the kind switch keeps the choice explicit.
type ProfileKind string

const (
	// Fixed stakes the configured entry value every cycle.
	Fixed ProfileKind = "fixed"
	// Percent stakes a fraction of the balance and arms loss recovery
	// after three consecutive losses.
	Percent ProfileKind = "percent"
	// Custom behaves like Fixed but marks an operator-personalized value.
	Custom ProfileKind = "custom"
)

// RiskProfile is the per-customer risk configuration. Immutable during a
// cycle.
type RiskProfile struct {
	Kind          ProfileKind
	EntryValue    float64
	EntryPercent  float64 // used by Percent when > 0
	StopGain      float64
	StopLoss      float64
	MaxMartingale int     // maximum leg index
	Factor        float64 // stake multiplier between legs
}

// ErrInvalidProfile is returned for profiles that would make a cycle
// unsound. Checked before any order is placed.
var ErrInvalidProfile = errors.New("invalid risk profile")

// Validate fails fast on configuration that must never reach the ladder.
func (p RiskProfile) Validate() error {
	if p.Factor <= 0 {
		return errors.Join(ErrInvalidProfile, errors.New("martingale factor must be positive"))
	}
	if p.MaxMartingale < 1 {
		return errors.Join(ErrInvalidProfile, errors.New("max martingale legs must be at least 1"))
	}
	switch p.Kind {
	case Fixed, Custom:
		if p.EntryValue <= 0 {
			return errors.Join(ErrInvalidProfile, errors.New("entry value must be positive"))
		}
	case Percent:
		if p.EntryValue <= 0 && p.EntryPercent <= 0 {
			return errors.Join(ErrInvalidProfile, errors.New("entry value or entry percent required"))
		}
	default:
		return errors.Join(ErrInvalidProfile, errors.New("unknown profile kind"))
	}
	return nil
}

// Eligible reports whether an account may start a cycle right now: both
// flags on, test period not expired, balance above the currency minimum and
// able to cover the configured entry.
func Eligible(a Account, p RiskProfile, now time.Time) bool {
	if !a.Active || !a.BotActive {
		return false
	}
	if a.TestPeriod && !a.TestExpiration.IsZero() && a.TestExpiration.Before(now) {
		return false
	}
	balance := a.Balance()
	if balance < MinEntry(a.Currency) {
		return false
	}
	if p.EntryValue > 0 && p.EntryValue > balance {
		return false
	}
	return true
}
