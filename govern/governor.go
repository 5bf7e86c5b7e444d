// Package govern evaluates an account's cumulative results after each
// settlement and enforces stop-gain and test-period rules.
package govern

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"ladderbot/account"
	"ladderbot/ledger"
	"ladderbot/notify"
)

// Governor applies post-settlement governance. It is safe for concurrent use
// across accounts; all per-account state lives in the stores.
type Governor struct {
	trades   ledger.TradeLedger
	accounts ledger.AccountStore
	bus      notify.Bus

	// EnforceStopLoss gates the stop-loss rule. The source system ships
	// the limit in configuration but leaves the rule disabled, so the
	// default here is off.
	EnforceStopLoss bool

	now func() time.Time
	log zerolog.Logger
}

// New builds a governor. now may be nil for the wall clock.
func New(trades ledger.TradeLedger, accounts ledger.AccountStore, bus notify.Bus, now func() time.Time, log zerolog.Logger) *Governor {
	if now == nil {
		now = time.Now
	}
	return &Governor{
		trades:   trades,
		accounts: accounts,
		bus:      bus,
		now:      now,
		log:      log,
	}
}

// Evaluate recomputes the cumulative realized result over the account's
// settled trades and applies governance. The account value is updated in
// place so the caller sees flag changes.
//
// Rules, in order:
//  1. cumulative >= stop gain deactivates the bot flag once and emits one
//     stop_gain event for the crossing;
//  2. an expired test period deactivates both flags and emits
//     access_interrupted;
//  3. hitting stop gain while still inside the trial emits an informational
//     maximum_profit event without deactivating;
//  4. with EnforceStopLoss set, cumulative <= -stop loss deactivates the bot
//     flag and emits stop_loss.
func (g *Governor) Evaluate(ctx context.Context, acct *account.Account, prof account.RiskProfile) error {
	total, err := g.trades.SumSettled(ctx, acct.ID)
	if err != nil {
		return fmt.Errorf("sum settled results: %w", err)
	}

	log := g.log.With().Int64("account", acct.ID).Float64("total", total).Logger()

	if acct.BotActive && prof.StopGain > 0 && total >= prof.StopGain {
		acct.BotActive = false
		if err := g.accounts.SetFlags(ctx, acct.ID, acct.Active, false); err != nil {
			return fmt.Errorf("persist stop-gain deactivation: %w", err)
		}
		log.Info().Float64("stop_gain", prof.StopGain).Msg("stop gain reached, bot deactivated")
		g.bus.Emit(ctx, acct.ID, notify.EventStopGain, map[string]any{
			"total":     total,
			"stop_gain": prof.StopGain,
		})
	}

	now := g.now()
	switch {
	case acct.TestPeriod && !acct.TestExpiration.IsZero() && !now.Before(acct.TestExpiration):
		if acct.Active || acct.BotActive {
			acct.Active = false
			acct.BotActive = false
			if err := g.accounts.SetFlags(ctx, acct.ID, false, false); err != nil {
				return fmt.Errorf("persist test expiry deactivation: %w", err)
			}
			log.Info().Time("expired", acct.TestExpiration).Msg("test period over, account deactivated")
			g.bus.Emit(ctx, acct.ID, notify.EventAccessInterrupted, map[string]any{
				"expired_at": acct.TestExpiration,
			})
		}

	case acct.TestPeriod && prof.StopGain > 0 && total >= prof.StopGain:
		// Trial accounts get told about the milestone but keep running
		// until the trial itself ends.
		g.bus.Emit(ctx, acct.ID, notify.EventMaximumProfit, map[string]any{
			"total": total,
		})
	}

	if g.EnforceStopLoss && acct.BotActive && prof.StopLoss > 0 && total <= -prof.StopLoss {
		acct.BotActive = false
		if err := g.accounts.SetFlags(ctx, acct.ID, acct.Active, false); err != nil {
			return fmt.Errorf("persist stop-loss deactivation: %w", err)
		}
		log.Info().Float64("stop_loss", prof.StopLoss).Msg("stop loss reached, bot deactivated")
		g.bus.Emit(ctx, acct.ID, notify.EventStopLoss, map[string]any{
			"total":     total,
			"stop_loss": prof.StopLoss,
		})
	}

	return nil
}
