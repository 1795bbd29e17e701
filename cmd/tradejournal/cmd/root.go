package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tradejournal",
	Short: "A stock trade journal that rates every execution",
	Long: `Tradejournal records stock trades and rates each one against the
day's high/low range: +1 is the best price of the day, -1 the worst.

It provides:
  - An HTTP API for adding, listing and inspecting trades
  - Rating on write and backfill of missing ratings on read
  - Daily OHLC quotes from Alpha Vantage or built-in demo data
  - CSV import/export and Org-mode trade notes
  - Cash-flow P&L over a date range

Configuration is read from --config (YAML or JSON), then .env and
TRADEJOURNAL_* environment variables.`,
	SilenceUsage: true,
}

var cfgFile string

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (defaults plus environment when empty)")
}
