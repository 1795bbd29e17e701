package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradejournal/market"
)

var quoteCmd = &cobra.Command{
	Use:   "quote <ticker> <YYYY-MM-DD>",
	Short: "Print the daily OHLC bar for a ticker",
	Args:  cobra.ExactArgs(2),
	RunE:  runQuote,
}

func init() {
	rootCmd.AddCommand(quoteCmd)
}

func runQuote(cmd *cobra.Command, args []string) error {
	ticker := market.NormalizeTicker(args[0])
	if _, err := market.ParseDate(args[1]); err != nil {
		return err
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	q := a.quotes.Quote(cmd.Context(), ticker, args[1])
	out := cmd.OutOrStdout()
	if q.IsSentinel() {
		fmt.Fprintf(out, "%s %s: no market data\n", ticker, args[1])
		return nil
	}
	fmt.Fprintf(out, "%s %s  O %.2f  H %.2f  L %.2f  C %.2f\n", ticker, args[1], q.Open, q.High, q.Low, q.Close)
	return nil
}
