package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradejournal/journal"
	"github.com/rustyeddy/tradejournal/market"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the demo trades into an empty journal",
	Long: `Submit the demo trades through the rating pipeline. The demo quotes
served by the static provider cover these dates, so every trade gets a
real rating. An existing journal is left alone unless --force is given.`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

var seedForce bool

var demoTrades = []journal.Draft{
	{Date: "2024-07-20", Time: "09:30:05", Ticker: "AAPL", Type: market.Buy, Price: 150.50, Quantity: 10},
	{Date: "2024-07-20", Time: "10:15:22", Ticker: "GOOGL", Type: market.Buy, Price: 2800.00, Quantity: 2},
	{Date: "2024-07-21", Time: "14:05:00", Ticker: "AAPL", Type: market.Sell, Price: 155.25, Quantity: 10},
	{Date: "2024-07-22", Time: "11:00:00", Ticker: "TSLA", Type: market.Buy, Price: 650.00, Quantity: 5},
	{Date: "2024-07-23", Time: "15:45:10", Ticker: "MSFT", Type: market.Buy, Price: 300.10, Quantity: 8},
	{Date: "2024-07-19", Time: "09:45:10", Ticker: "NVDA", Type: market.Buy, Price: 125.10, Quantity: 20},
	{Date: "2024-07-18", Time: "12:45:10", Ticker: "AMD", Type: market.Sell, Price: 162.40, Quantity: 15},
}

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().BoolVar(&seedForce, "force", false, "seed even when the journal already has trades")
}

func runSeed(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	existing, err := a.repo.ListAll(cmd.Context())
	if err != nil {
		return fmt.Errorf("list trades: %w", err)
	}
	if len(existing) > 0 && !seedForce {
		fmt.Fprintf(out, "journal already has %d trades; use --force to add the demo set\n", len(existing))
		return nil
	}

	for _, d := range demoTrades {
		t, err := a.svc.Submit(cmd.Context(), d)
		if err != nil {
			return fmt.Errorf("seed %s %s: %w", d.Ticker, d.Date, err)
		}
		fmt.Fprintf(out, "%s %-5s %-4s %3d @ %8.2f rating %+.3f\n", t.ID, t.Ticker, t.Type, t.Quantity, t.Price, t.RatingValue())
	}
	fmt.Fprintf(out, "✓ Seeded %d trades\n", len(demoTrades))
	return nil
}
