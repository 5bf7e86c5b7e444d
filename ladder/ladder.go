// Package ladder runs one bounded martingale trade cycle for one account:
// pick an asset, size the first leg, align to the entry window, then place,
// settle and evaluate legs until a win or a terminal abort.
package ladder

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"ladderbot/account"
	"ladderbot/asset"
	"ladderbot/broker"
	"ladderbot/ledger"
	"ladderbot/pkg/id"
	"ladderbot/stake"
)

// State names the position of a cycle in its lifecycle. States are logged,
// not persisted.
type State string

const (
	StateSelectingAsset     State = "SELECTING_ASSET"
	StateSizing             State = "SIZING"
	StateAwaitingEntry      State = "AWAITING_ENTRY_WINDOW"
	StateOrderPlaced        State = "ORDER_PLACED"
	StateAwaitingSettlement State = "AWAITING_SETTLEMENT"
	StateEvaluating         State = "EVALUATING"
)

// Status is the terminal outcome of a cycle.
type Status string

const (
	StatusWin                 Status = "WIN"
	StatusTie                 Status = "TIE"
	StatusMaxLegs             Status = "ABORTED_MAX_LEGS"
	StatusInsufficientBalance Status = "ABORTED_INSUFFICIENT_BALANCE"
	StatusConnection          Status = "ABORTED_CONNECTION"
	StatusNoAsset             Status = "ABORTED_NO_ASSET"
	StatusSettlementTimeout   Status = "ABORTED_SETTLEMENT_TIMEOUT"
)

// CycleResult is what a finished cycle reports back to the scheduler. It is
// the sole surface for downstream reporting.
type CycleResult struct {
	CycleID     string
	Status      Status
	LegsTaken   int
	TotalStaked float64
	NetResult   float64
}

// LegContext is the ephemeral state of the cycle in progress. It is a value
// owned by a single Run call; nothing here outlives the cycle or is shared
// across accounts.
type LegContext struct {
	Leg             int // 1-based leg index
	Stake           float64
	Balance         float64 // available balance as of the last settlement
	AccumulatedLoss float64
	Asset           string
	Payout          float64
	Direction       broker.Direction
}

// Config tunes one ladder instance.
type Config struct {
	// EntrySecond aligns the first leg to this wall-clock second.
	// Negative disables the wait.
	EntrySecond int

	// Duration is the option expiry requested on each order.
	Duration time.Duration

	// LegAttempts bounds retries of a failing leg before it falls through
	// to the loss branch. Zero means 3.
	LegAttempts int

	// LegRetryDelay is the fixed pause between leg attempts.
	LegRetryDelay time.Duration

	// SettlementGrace and PollInterval feed the settlement waiter.
	SettlementGrace time.Duration
	PollInterval    time.Duration
}

func (c Config) withDefaults() Config {
	if c.Duration == 0 {
		c.Duration = time.Minute
	}
	if c.LegAttempts == 0 {
		c.LegAttempts = 3
	}
	if c.LegRetryDelay == 0 {
		c.LegRetryDelay = time.Second
	}
	return c
}

// Ladder executes trade cycles against one broker session.
type Ladder struct {
	sess     *broker.Dialer
	selector *asset.Selector
	trades   ledger.TradeLedger
	waiter   *SettlementWaiter
	clk      Clock
	cfg      Config
	log      zerolog.Logger
}

// New wires a ladder. A nil clock uses the wall clock.
func New(sess *broker.Dialer, selector *asset.Selector, trades ledger.TradeLedger, clk Clock, cfg Config, log zerolog.Logger) *Ladder {
	if clk == nil {
		clk = RealClock()
	}
	cfg = cfg.withDefaults()
	return &Ladder{
		sess:     sess,
		selector: selector,
		trades:   trades,
		waiter:   NewSettlementWaiter(clk, cfg.SettlementGrace, cfg.PollInterval),
		clk:      clk,
		cfg:      cfg,
		log:      log,
	}
}

// Run executes one full cycle for the account. Business aborts come back as
// statuses on the CycleResult with a nil error; an error is returned only
// for invalid profiles, ledger failures, or context cancellation.
func (l *Ladder) Run(ctx context.Context, acct account.Account, prof account.RiskProfile, dir broker.Direction) (CycleResult, error) {
	if err := prof.Validate(); err != nil {
		return CycleResult{}, err
	}
	if dir == "" {
		dir = broker.Call
		if rand.Intn(2) == 1 {
			dir = broker.Put
		}
	}

	res := CycleResult{CycleID: id.New()}
	log := l.log.With().Int64("account", acct.ID).Str("cycle", res.CycleID).Logger()

	log.Debug().Str("state", string(StateSelectingAsset)).Send()
	if err := l.sess.Connect(ctx); err != nil {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		log.Warn().Err(err).Msg("connect retries exhausted, aborting cycle")
		res.Status = StatusConnection
		return res, nil
	}
	defer l.sess.Close()

	quotes, err := l.sess.Quotes(ctx)
	if err != nil {
		res.Status = StatusConnection
		return res, nil
	}
	sym, payout, err := l.selector.Pick(quotes)
	if err != nil {
		if errors.Is(err, asset.ErrNoTradableAsset) {
			log.Info().Msg("no tradable asset, cycle cancelled")
			res.Status = StatusNoAsset
			return res, nil
		}
		return res, err
	}

	log.Debug().Str("state", string(StateSizing)).Str("asset", sym).Float64("payout", payout).Send()
	balance, err := l.sess.Balance(ctx)
	if err != nil {
		res.Status = StatusConnection
		return res, nil
	}
	history, err := l.trades.RecentSettled(ctx, acct.ID, 3)
	if err != nil {
		return res, fmt.Errorf("load trade history: %w", err)
	}

	leg := LegContext{
		Leg:       1,
		Balance:   balance,
		Asset:     sym,
		Payout:    payout,
		Direction: dir,
		Stake: stake.FirstLeg(stake.Inputs{
			Profile:  prof,
			Balance:  balance,
			Currency: acct.Currency,
			Payout:   payout,
			History:  history,
		}),
	}

	// The stake must be covered before any order goes out.
	if leg.Stake > leg.Balance {
		log.Warn().Float64("stake", leg.Stake).Float64("balance", leg.Balance).
			Msg("insufficient balance, no order placed")
		res.Status = StatusInsufficientBalance
		return res, nil
	}

	// First leg only: wait for the candle boundary.
	if l.cfg.EntrySecond >= 0 {
		log.Debug().Str("state", string(StateAwaitingEntry)).Int("second", l.cfg.EntrySecond).Send()
		if err := awaitEntryWindow(ctx, l.clk, l.cfg.EntrySecond); err != nil {
			return res, err
		}
	}

	for {
		out, err := l.executeLeg(ctx, acct, log, leg)
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			if errors.Is(err, ErrSettlementTimeout) {
				// Outcome already recorded as TIE/unknown; never
				// retry the same order.
				res.LegsTaken++
				res.TotalStaked += leg.Stake
				res.Status = StatusSettlementTimeout
				return res, nil
			}
			// All attempts at this leg failed without an accepted
			// order: fall through to the loss branch with nothing
			// staked.
			log.Warn().Err(err).Int("leg", leg.Leg).Msg("leg attempts exhausted")
			if done := l.advance(ctx, log, &leg, prof, &res); done {
				return res, nil
			}
			continue
		}

		res.LegsTaken++
		res.TotalStaked += leg.Stake
		res.NetResult += out.Profit
		leg.Balance += out.Profit

		log.Debug().Str("state", string(StateEvaluating)).Int("leg", leg.Leg).
			Float64("profit", out.Profit).Bool("win", out.Win).Send()

		if out.Profit >= 0 {
			// A win or a tie that neither wins nor loses. Either way
			// the ladder stops and the streak tracking resets with
			// the settled record now at the head of the history.
			res.Status = StatusWin
			if !out.Win {
				res.Status = StatusTie
			}
			return res, nil
		}

		leg.AccumulatedLoss += -out.Profit
		if done := l.advance(ctx, log, &leg, prof, &res); done {
			return res, nil
		}
	}
}

// advance applies the loss-branch transition: stop at the leg cap, stop when
// the next stake cannot be covered, otherwise move LegContext to the next
// leg. Returns true when the cycle is over and res carries the terminal
// status.
func (l *Ladder) advance(ctx context.Context, log zerolog.Logger, leg *LegContext, prof account.RiskProfile, res *CycleResult) bool {
	if leg.Leg >= prof.MaxMartingale {
		log.Info().Int("legs", res.LegsTaken).Float64("net", res.NetResult).
			Msg("martingale limit reached")
		res.Status = StatusMaxLegs
		return true
	}

	next := stake.Next(leg.Stake, prof.Factor)
	if next > leg.Balance {
		log.Info().Float64("next_stake", next).Float64("balance", leg.Balance).
			Msg("balance cannot cover next leg")
		res.Status = StatusInsufficientBalance
		return true
	}

	leg.Leg++
	leg.Stake = next

	// The session may have dropped while waiting out the settlement.
	if err := l.sess.Reconnect(ctx); err != nil {
		res.Status = StatusConnection
		return true
	}
	return false
}

// executeLeg places one order and waits out its settlement, retrying the
// whole attempt a bounded number of times with a fixed delay. A settlement
// timeout records the attempt as TIE and is returned as ErrSettlementTimeout
// without retrying.
func (l *Ladder) executeLeg(ctx context.Context, acct account.Account, log zerolog.Logger, leg LegContext) (broker.Outcome, error) {
	var lastErr error

	for attempt := 1; attempt <= l.cfg.LegAttempts; attempt++ {
		if attempt > 1 {
			if err := l.clk.Sleep(ctx, l.cfg.LegRetryDelay); err != nil {
				return broker.Outcome{}, err
			}
		}

		ref, err := l.sess.PlaceOrder(ctx, broker.OrderRequest{
			Asset:     leg.Asset,
			Direction: leg.Direction,
			Stake:     leg.Stake,
			Duration:  l.cfg.Duration,
		})
		if err != nil {
			lastErr = err
			log.Warn().Err(err).Int("leg", leg.Leg).Int("attempt", attempt).Msg("order placement failed")
			continue
		}

		log.Info().Str("state", string(StateOrderPlaced)).Str("order", ref.ID).
			Int("leg", leg.Leg).Float64("stake", leg.Stake).Str("asset", leg.Asset).Send()

		attemptRec := ledger.TradeAttempt{
			AccountID:     acct.ID,
			TradeID:       ref.ID,
			Asset:         leg.Asset,
			Direction:     string(leg.Direction),
			Stake:         leg.Stake,
			PayoutPercent: leg.Payout,
			OpenTime:      ref.OpenTime,
			CloseTime:     ref.CloseTime,
			Outcome:       ledger.Pending,
		}
		if err := l.trades.Upsert(ctx, attemptRec); err != nil {
			return broker.Outcome{}, fmt.Errorf("record pending trade: %w", err)
		}

		log.Debug().Str("state", string(StateAwaitingSettlement)).Str("order", ref.ID).Send()
		out, err := l.waiter.Await(ctx, l.sess, ref)
		if err != nil {
			if errors.Is(err, ErrSettlementTimeout) {
				attemptRec.Outcome = ledger.Tie
				if uerr := l.trades.Upsert(ctx, attemptRec); uerr != nil {
					log.Error().Err(uerr).Msg("record unresolved trade")
				}
				return broker.Outcome{}, err
			}
			if ctx.Err() != nil {
				return broker.Outcome{}, err
			}
			lastErr = err
			log.Warn().Err(err).Int("leg", leg.Leg).Int("attempt", attempt).Msg("outcome polling failed")
			continue
		}

		attemptRec.Outcome = settledOutcome(out)
		attemptRec.Result = out.Profit
		if err := l.trades.Upsert(ctx, attemptRec); err != nil {
			return broker.Outcome{}, fmt.Errorf("record settled trade: %w", err)
		}
		return out, nil
	}

	return broker.Outcome{}, fmt.Errorf("leg failed after %d attempts: %w", l.cfg.LegAttempts, lastErr)
}

func settledOutcome(out broker.Outcome) ledger.Outcome {
	switch {
	case out.Win:
		return ledger.Win
	case out.Profit < 0:
		return ledger.Loss
	default:
		return ledger.Tie
	}
}
