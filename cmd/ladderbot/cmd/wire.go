package cmd

import (
	"context"
	"fmt"

	"ladderbot/account"
	"ladderbot/asset"
	"ladderbot/broker"
	"ladderbot/broker/sim"
	"ladderbot/config"
	"ladderbot/govern"
	"ladderbot/ladder"
	"ladderbot/ledger"
	"ladderbot/notify"
	"ladderbot/runner"
)

func openStore(cfg *config.Config) (ledger.Store, error) {
	switch cfg.Ledger.Driver {
	case "sqlite":
		return ledger.NewSQLite(cfg.Ledger.DSN)
	case "postgres":
		return ledger.NewPostgres(cfg.Ledger.DSN)
	case "memory":
		return ledger.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown ledger driver %q", cfg.Ledger.Driver)
	}
}

func buildBus(cfg *config.Config) (notify.Bus, error) {
	logBus := notify.LogBus{Log: log}
	if cfg.Telegram.Token == "" {
		return logBus, nil
	}
	tg, err := notify.NewTelegramBus(cfg.Telegram.Token, cfg.Telegram.ChatID, log)
	if err != nil {
		return nil, err
	}
	return notify.MultiBus{logBus, tg}, nil
}

func sessionFactory(cfg *config.Config) runner.SessionFactory {
	quotes := make(map[string]broker.Quote, len(cfg.Assets.Allowed))
	for _, sym := range cfg.Assets.Allowed {
		quotes[sym] = broker.Quote{Symbol: sym, Payout: cfg.Assets.MinPayout + 10, Open: true}
	}

	return func(_ context.Context, acct account.Account) (broker.Session, error) {
		return sim.New(sim.Script{
			Balance: acct.Balance(),
			Quotes:  quotes,
		}), nil
	}
}

func demoGovernor(store ledger.Store) *govern.Governor {
	return govern.New(store, store, notify.LogBus{Log: log}, nil, log)
}

func buildRunner(cfg *config.Config, store ledger.Store, bus notify.Bus) *runner.Runner {
	selector := asset.NewSelector(cfg.Assets.Allowed, cfg.Assets.MinPayout)

	governor := govern.New(store, store, bus, nil, log)
	governor.EnforceStopLoss = cfg.Risk.EnforceStopLoss

	opts := runner.Options{
		Dialer: broker.DialerOptions{
			ConnectAttempts: cfg.Broker.ConnectAttempts,
			RetryDelay:      cfg.RetryDelay(),
			RequestsPerSec:  cfg.Broker.RequestsPerSec,
		},
		Ladder: ladder.Config{
			EntrySecond:     cfg.Cycle.EntrySecond,
			Duration:        cfg.Duration(),
			LegAttempts:     cfg.Cycle.LegAttempts,
			LegRetryDelay:   cfg.LegRetryDelay(),
			SettlementGrace: cfg.SettlementGrace(),
			PollInterval:    cfg.PollInterval(),
		},
		BatchSize: cfg.Scheduler.BatchSize,
	}
	return runner.New(store, sessionFactory(cfg), selector, governor, bus, nil, opts, log)
}
