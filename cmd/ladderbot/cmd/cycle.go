package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"ladderbot/account"
	"ladderbot/asset"
	"ladderbot/broker"
	"ladderbot/broker/sim"
	"ladderbot/ladder"
	"ladderbot/ledger"
	"ladderbot/notify"
	"ladderbot/runner"
)

var (
	cycleAccount   int64
	cycleDirection string
	cycleDemo      bool
)

var cycleCmd = &cobra.Command{
	Use:   "cycle",
	Short: "Execute one trade cycle for a single account",
	Long: `Cycle runs the full ladder once for one account and prints the result.

With --demo the cycle runs against a scripted in-memory broker and a seeded
practice account, so the ladder can be exercised without any external state.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		var dir broker.Direction
		switch cycleDirection {
		case "":
		case "call":
			dir = broker.Call
		case "put":
			dir = broker.Put
		default:
			return fmt.Errorf("direction must be call or put, got %q", cycleDirection)
		}

		if cycleDemo {
			return demoCycle(ctx, dir)
		}

		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		bus, err := buildBus(cfg)
		if err != nil {
			return err
		}
		run := buildRunner(cfg, store, bus)

		res, err := run.ExecuteTradeCycle(ctx, cycleAccount, dir)
		if err != nil {
			return err
		}
		printResult(res)
		return nil
	},
}

// demoCycle seeds one practice account and walks a loss-then-win ladder
// against the scripted broker.
func demoCycle(ctx context.Context, dir broker.Direction) error {
	store := ledger.NewMemory()
	acct := account.Account{
		ID:          1,
		Email:       "demo@example.com",
		Mode:        account.Practice,
		Currency:    "R$",
		DemoBalance: 1000,
		Active:      true,
		BotActive:   true,
	}
	prof := account.RiskProfile{
		Kind:          account.Fixed,
		EntryValue:    10,
		StopGain:      500,
		MaxMartingale: 3,
		Factor:        2,
	}
	if err := store.SeedAccount(ctx, acct, prof); err != nil {
		return err
	}

	sessions := func(_ context.Context, a account.Account) (broker.Session, error) {
		return sim.New(sim.Script{
			Balance: a.Balance(),
			Quotes: map[string]broker.Quote{
				"EUR/USD": {Symbol: "EUR/USD", Payout: 87, Open: true},
			},
			Results: []sim.Result{sim.Loss, sim.Win},
		}), nil
	}

	selector := asset.NewSelector([]string{"EURUSD"}, 80)
	opts := runner.Options{
		Ladder: ladder.Config{
			EntrySecond: -1,
			Duration:    time.Second,
		},
	}
	run := runner.New(store, sessions, selector, demoGovernor(store), notify.LogBus{Log: log}, nil, opts, log)

	res, err := run.ExecuteTradeCycle(ctx, acct.ID, dir)
	if err != nil {
		return err
	}
	printResult(res)
	return nil
}

func printResult(res ladder.CycleResult) {
	fmt.Printf("cycle   %s\n", res.CycleID)
	fmt.Printf("status  %s\n", res.Status)
	fmt.Printf("legs    %d\n", res.LegsTaken)
	fmt.Printf("staked  %.2f\n", res.TotalStaked)
	fmt.Printf("net     %+.2f\n", res.NetResult)
}

func init() {
	cycleCmd.Flags().Int64Var(&cycleAccount, "account", 0, "account id to run the cycle for")
	cycleCmd.Flags().StringVar(&cycleDirection, "direction", "", "force call or put (default random)")
	cycleCmd.Flags().BoolVar(&cycleDemo, "demo", false, "run against the scripted in-memory broker")
	rootCmd.AddCommand(cycleCmd)
}
