package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradejournal/journal"
	"github.com/rustyeddy/tradejournal/market"
)

var pnlCmd = &cobra.Command{
	Use:   "pnl",
	Short: "Summarize cash flow over a date range",
	Long: `Total the journal's cash flow: buys count as -(price*quantity), sells
as +(price*quantity). Bounds are inclusive and optional.

Example:
  tradejournal pnl --from 2024-07-01 --to 2024-07-31`,
	Args: cobra.NoArgs,
	RunE: runPnL,
}

var pnlFrom, pnlTo string

func init() {
	rootCmd.AddCommand(pnlCmd)
	pnlCmd.Flags().StringVar(&pnlFrom, "from", "", "earliest trade date, inclusive")
	pnlCmd.Flags().StringVar(&pnlTo, "to", "", "latest trade date, inclusive")
}

func runPnL(cmd *cobra.Command, args []string) error {
	for _, d := range []string{pnlFrom, pnlTo} {
		if d == "" {
			continue
		}
		if _, err := market.ParseDate(d); err != nil {
			return err
		}
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	trades, err := a.svc.All(cmd.Context(), pnlFrom, pnlTo)
	if err != nil {
		return fmt.Errorf("list trades: %w", err)
	}
	p := journal.Summarize(trades)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Trades: %d buys, %d sells\n", p.Buys, p.Sells)
	fmt.Fprintf(out, "Bought: %.2f\n", p.Bought)
	fmt.Fprintf(out, "Sold:   %.2f\n", p.Sold)
	fmt.Fprintf(out, "Net:    %+.2f\n", p.Net)
	return nil
}
