package cmd

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"ladderbot/config"
)

var (
	cfgFile string
	cfg     *config.Config
	log     zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "ladderbot",
	Short: "Automated martingale trade execution for binary-options accounts",
	Long: `Ladderbot runs bounded martingale trade cycles against broker accounts.

Each cycle picks a tradable asset, sizes the first stake from the account's
risk profile, aligns entry to the candle boundary and walks the martingale
ladder until a win or a hard stop. Results are journaled per trade and
cumulative stop-gain rules deactivate accounts automatically.`,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}

		level, err := zerolog.ParseLevel(cfg.Log.Level)
		if err != nil {
			return err
		}
		log = zerolog.New(os.Stderr)
		if cfg.Log.Pretty {
			log = zerolog.New(zerolog.NewConsoleWriter())
		}
		log = log.Level(level).With().Timestamp().Logger()
		return nil
	},
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (YAML)")
}
