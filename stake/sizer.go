// Package stake computes the first-leg stake for a trade cycle. Within a
// running ladder, later legs multiply the previous stake by the martingale
// factor instead of calling back in here; the two sizing paths are distinct
// on purpose.
package stake

import (
	"ladderbot/account"
	"ladderbot/ledger"
)

// Inputs collects everything a single sizing decision needs. History holds
// the most recent settled attempts, newest first; only the first three
// matter.
type Inputs struct {
	Profile  account.RiskProfile
	Balance  float64
	Currency string
	Payout   float64 // percent for the chosen asset, e.g. 82
	History  []ledger.TradeAttempt
}

// FirstLeg sizes the opening stake of a cycle.
//
// Fixed and custom profiles stake the configured entry value. Percent
// profiles stake a base entry (flat value or balance fraction) unless the
// last three settled trades were all losses, in which case a recovery stake
// of (accumulated loss + stop gain) / payout is used. A recovery stake above
// the balance becomes an all-in stake of the whole balance rather than an
// abort.
//
// Every path floors the stake at the currency minimum entry.
func FirstLeg(in Inputs) float64 {
	min := account.MinEntry(in.Currency)
	p := in.Profile

	if p.Kind == account.Fixed || p.Kind == account.Custom {
		return floor(p.EntryValue, min)
	}

	if streak, accumulated := LossStreak(in.History); streak == 3 {
		recovery := floor((accumulated+p.StopGain)/(in.Payout/100), min)
		if recovery > in.Balance {
			// All-in: proceed with the reduced stake, do not abort.
			return in.Balance
		}
		return recovery
	}

	base := p.EntryValue
	if p.EntryPercent > 0 {
		base = in.Balance * p.EntryPercent
	}
	return floor(base, min)
}

// Next sizes the stake of the following leg after a loss.
func Next(current, factor float64) float64 {
	return current * factor
}

// LossStreak reports whether the three most recent settled trades are all
// losses and, if so, the sum of their absolute losses. Fewer than three
// settled trades, or any non-loss among them, yields a streak of zero.
func LossStreak(history []ledger.TradeAttempt) (streak int, accumulated float64) {
	if len(history) < 3 {
		return 0, 0
	}
	for _, t := range history[:3] {
		if t.Outcome != ledger.Loss {
			return 0, 0
		}
		accumulated += abs(t.Result)
	}
	return 3, accumulated
}

func floor(v, min float64) float64 {
	if v < min {
		return min
	}
	return v
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
