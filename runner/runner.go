// Package runner drives trade cycles across accounts: it guards each account
// with a single-flight lock, fans eligible accounts out in bounded batches
// and applies results back to the stores.
package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"ladderbot/account"
	"ladderbot/asset"
	"ladderbot/broker"
	"ladderbot/govern"
	"ladderbot/ladder"
	"ladderbot/ledger"
	"ladderbot/metrics"
	"ladderbot/notify"
)

// ErrCycleInProgress means a cycle for the account is already running; the
// caller should skip, not queue.
var ErrCycleInProgress = errors.New("cycle already in progress for account")

// ErrNotEligible means the account failed the pre-flight eligibility check.
var ErrNotEligible = errors.New("account not eligible for a cycle")

// SessionFactory builds a fresh broker session for one account's cycle.
// Sessions are never shared between accounts.
type SessionFactory func(ctx context.Context, acct account.Account) (broker.Session, error)

// Options tunes the runner.
type Options struct {
	Dialer broker.DialerOptions
	Ladder ladder.Config

	// BatchSize bounds how many accounts run concurrently. Zero means 20.
	BatchSize int
}

// Runner executes cycles. Safe for concurrent use.
type Runner struct {
	store    ledger.Store
	sessions SessionFactory
	selector *asset.Selector
	governor *govern.Governor
	bus      notify.Bus
	clk      ladder.Clock
	opts     Options
	log      zerolog.Logger

	mu       sync.Mutex
	inFlight map[int64]struct{}
}

// New wires a runner. A nil clock uses the wall clock.
func New(store ledger.Store, sessions SessionFactory, selector *asset.Selector, governor *govern.Governor, bus notify.Bus, clk ladder.Clock, opts Options, log zerolog.Logger) *Runner {
	if clk == nil {
		clk = ladder.RealClock()
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 20
	}
	return &Runner{
		store:    store,
		sessions: sessions,
		selector: selector,
		governor: governor,
		bus:      bus,
		clk:      clk,
		opts:     opts,
		log:      log,
	}
}

// tryAcquire marks the account as having a cycle in flight. It reports false
// when one is already running.
func (r *Runner) tryAcquire(id int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.inFlight == nil {
		r.inFlight = make(map[int64]struct{})
	}
	if _, busy := r.inFlight[id]; busy {
		return false
	}
	r.inFlight[id] = struct{}{}
	return true
}

func (r *Runner) release(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inFlight, id)
}

// ExecuteTradeCycle runs one full cycle for the account. A second call for
// the same account while one is in flight returns ErrCycleInProgress without
// touching the broker. An empty direction lets the ladder pick one at random.
func (r *Runner) ExecuteTradeCycle(ctx context.Context, accountID int64, dir broker.Direction) (ladder.CycleResult, error) {
	if !r.tryAcquire(accountID) {
		return ladder.CycleResult{}, ErrCycleInProgress
	}
	defer r.release(accountID)

	acct, err := r.store.Account(ctx, accountID)
	if err != nil {
		return ladder.CycleResult{}, fmt.Errorf("load account: %w", err)
	}
	prof, err := r.store.Profile(ctx, accountID)
	if err != nil {
		return ladder.CycleResult{}, fmt.Errorf("load risk profile: %w", err)
	}
	if err := prof.Validate(); err != nil {
		return ladder.CycleResult{}, err
	}
	if !account.Eligible(acct, prof, r.clk.Now()) {
		return ladder.CycleResult{}, ErrNotEligible
	}

	sess, err := r.sessions(ctx, acct)
	if err != nil {
		return ladder.CycleResult{}, fmt.Errorf("build broker session: %w", err)
	}
	dialer := broker.NewDialer(sess, r.opts.Dialer, r.log)
	lad := ladder.New(dialer, r.selector, r.store, r.clk, r.opts.Ladder, r.log)

	res, err := lad.Run(ctx, acct, prof, dir)
	if err != nil {
		return res, err
	}

	metrics.CyclesTotal.WithLabelValues(string(res.Status)).Inc()
	metrics.LegsTotal.Add(float64(res.LegsTaken))
	metrics.StakedTotal.Add(res.TotalStaked)
	if res.NetResult > 0 {
		metrics.NetResultTotal.Add(res.NetResult)
	}

	if res.NetResult != 0 {
		acct.AddProfit(res.NetResult)
		if err := r.store.SaveBalances(ctx, acct); err != nil {
			return res, fmt.Errorf("save balances: %w", err)
		}
	}

	if err := r.governor.Evaluate(ctx, &acct, prof); err != nil {
		return res, fmt.Errorf("governance: %w", err)
	}

	r.bus.Emit(ctx, accountID, notify.EventCycleResult, map[string]any{
		"cycle":  res.CycleID,
		"status": string(res.Status),
		"legs":   res.LegsTaken,
		"staked": res.TotalStaked,
		"net":    res.NetResult,
	})
	return res, nil
}

// RunBatch runs one cycle for every eligible account, at most BatchSize at a
// time. Per-account failures are logged and do not stop the batch.
func (r *Runner) RunBatch(ctx context.Context) error {
	accts, err := r.store.ListEligible(ctx)
	if err != nil {
		return fmt.Errorf("list eligible accounts: %w", err)
	}

	for start := 0; start < len(accts); start += r.opts.BatchSize {
		end := start + r.opts.BatchSize
		if end > len(accts) {
			end = len(accts)
		}

		var wg sync.WaitGroup
		for _, a := range accts[start:end] {
			wg.Add(1)
			go func(a account.Account) {
				defer wg.Done()
				res, err := r.ExecuteTradeCycle(ctx, a.ID, "")
				switch {
				case errors.Is(err, ErrCycleInProgress), errors.Is(err, ErrNotEligible):
					r.log.Debug().Int64("account", a.ID).Err(err).Msg("cycle skipped")
				case err != nil:
					r.log.Error().Int64("account", a.ID).Err(err).Msg("cycle failed")
				default:
					r.log.Info().Int64("account", a.ID).Str("status", string(res.Status)).
						Float64("net", res.NetResult).Msg("cycle finished")
				}
			}(a)
		}
		wg.Wait()

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return nil
}

// RefreshAccount pulls the live balance from the broker and persists it for
// the account's current mode.
func (r *Runner) RefreshAccount(ctx context.Context, accountID int64) error {
	acct, err := r.store.Account(ctx, accountID)
	if err != nil {
		return fmt.Errorf("load account: %w", err)
	}

	sess, err := r.sessions(ctx, acct)
	if err != nil {
		return fmt.Errorf("build broker session: %w", err)
	}
	dialer := broker.NewDialer(sess, r.opts.Dialer, r.log)
	if err := dialer.Connect(ctx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer dialer.Close()

	balance, err := dialer.Balance(ctx)
	if err != nil {
		return fmt.Errorf("fetch balance: %w", err)
	}

	if acct.Mode == account.Real {
		acct.RealBalance = balance
	} else {
		acct.DemoBalance = balance
	}
	if err := r.store.SaveBalances(ctx, acct); err != nil {
		return fmt.Errorf("save balances: %w", err)
	}

	// Real accounts drained below the broker minimum cannot place a leg;
	// switch the bot off until they are funded again.
	if acct.Mode == account.Real && acct.BotActive && balance < account.MinEntry(acct.Currency) {
		if err := r.store.SetFlags(ctx, accountID, acct.Active, false); err != nil {
			return fmt.Errorf("deactivate underfunded account: %w", err)
		}
		r.log.Info().Int64("account", accountID).Float64("balance", balance).
			Msg("balance below minimum entry, bot deactivated")
	}

	r.log.Info().Int64("account", accountID).Float64("balance", balance).
		Time("at", time.Now()).Msg("balance refreshed")
	return nil
}
