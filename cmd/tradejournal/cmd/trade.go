package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradejournal/enrich"
	"github.com/rustyeddy/tradejournal/journal"
	"github.com/rustyeddy/tradejournal/market"
	"github.com/rustyeddy/tradejournal/query"
)

var tradeCmd = &cobra.Command{
	Use:   "trade",
	Short: "Add, inspect, list, import and export trades",
	Long: `Work with journal trades directly, without the HTTP API.

Subcommands:
  add     - Record a trade and rate it
  show    - Print one trade as an Org-mode entry
  list    - Print a sorted page of trades
  import  - Submit every row of a CSV file
  export  - Write all trades as CSV

Examples:
  tradejournal trade add --ticker AAPL --type buy --price 150.50 --qty 10 --date 2024-07-20 --time 09:30:05
  tradejournal trade show 01J3B7Q4ZK8Y2N3C4D5E6F7G8H
  tradejournal trade list --sort price --dir asc --page 2 --size 10
  tradejournal trade import trades.csv
  tradejournal trade export -o trades.csv`,
}

var tradeAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a trade and rate it",
	Args:  cobra.NoArgs,
	RunE:  runTradeAdd,
}

var tradeShowCmd = &cobra.Command{
	Use:   "show <trade-id>",
	Short: "Print one trade as an Org-mode entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runTradeShow,
}

var tradeListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print a sorted page of trades",
	Args:  cobra.NoArgs,
	RunE:  runTradeList,
}

var tradeImportCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Submit every row of a CSV file",
	Long: `Read trades from a CSV file with a header naming at least
date,time,ticker,type,price,quantity and submit each row. Rows that fail
validation are reported and skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runTradeImport,
}

var tradeExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write all trades as CSV",
	Args:  cobra.NoArgs,
	RunE:  runTradeExport,
}

var (
	addDraft journal.Draft
	addType  string

	listSort string
	listDir  string
	listPage int
	listSize int
	listFrom string
	listTo   string
	listOrg  bool

	exportOutput string
)

func init() {
	rootCmd.AddCommand(tradeCmd)
	tradeCmd.AddCommand(tradeAddCmd)
	tradeCmd.AddCommand(tradeShowCmd)
	tradeCmd.AddCommand(tradeListCmd)
	tradeCmd.AddCommand(tradeImportCmd)
	tradeCmd.AddCommand(tradeExportCmd)

	f := tradeAddCmd.Flags()
	f.StringVar(&addDraft.Ticker, "ticker", "", "ticker symbol (required)")
	f.StringVar(&addType, "type", "", "Buy or Sell (required)")
	f.Float64Var(&addDraft.Price, "price", 0, "execution price (required)")
	f.IntVar(&addDraft.Quantity, "qty", 0, "number of shares (required)")
	f.StringVar(&addDraft.Date, "date", "", "trade date YYYY-MM-DD (default today)")
	f.StringVar(&addDraft.Time, "time", "", "trade time HH:MM[:SS] (default now)")
	_ = tradeAddCmd.MarkFlagRequired("ticker")
	_ = tradeAddCmd.MarkFlagRequired("type")

	lf := tradeListCmd.Flags()
	lf.StringVar(&listSort, "sort", "date", "sort key: date|ticker|type|price|quantity|rating")
	lf.StringVar(&listDir, "dir", "descending", "sort direction: asc|desc")
	lf.IntVar(&listPage, "page", 1, "page number, starting at 1")
	lf.IntVar(&listSize, "size", enrich.DefaultPageSize, "trades per page")
	lf.StringVar(&listFrom, "from", "", "earliest trade date, inclusive")
	lf.StringVar(&listTo, "to", "", "latest trade date, inclusive")
	lf.BoolVar(&listOrg, "org", false, "print Org-mode entries instead of a table")

	tradeExportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default stdout)")
}

func runTradeAdd(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	d := addDraft
	d.Type = market.Side(addType)
	now := time.Now()
	if d.Date == "" {
		d.Date = now.Format(market.DateLayout)
	}
	if d.Time == "" {
		d.Time = now.Format(market.TimeLayout)
	}

	t, err := a.svc.Submit(cmd.Context(), d)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), journal.FormatTradeOrg(t))
	return nil
}

func runTradeShow(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	t, err := a.svc.FetchEnriched(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("get trade: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), journal.FormatTradeOrg(t))
	return nil
}

func runTradeList(cmd *cobra.Command, args []string) error {
	cfg, err := query.ParseSortConfig(listSort, listDir)
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	page, err := a.svc.List(cmd.Context(), enrich.ListRequest{
		Sort:     cfg,
		Page:     listPage,
		PageSize: listSize,
		From:     listFrom,
		To:       listTo,
	})
	if err != nil {
		return fmt.Errorf("list trades: %w", err)
	}

	out := cmd.OutOrStdout()
	if listOrg {
		fmt.Fprintln(out, journal.FormatTradesOrg(page.Trades))
	} else {
		writeTradeTable(out, page.Trades)
	}
	if page.HasMore {
		fmt.Fprintf(out, "\n(more: --page %d)\n", listPage+1)
	}
	return nil
}

func writeTradeTable(w io.Writer, trades []journal.Trade) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tTIME\tTICKER\tTYPE\tPRICE\tQTY\tRATING")
	for _, t := range trades {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%.2f\t%d\t%+.3f\n",
			t.ID, t.Date, t.Time, t.Ticker, t.Type, t.Price, t.Quantity, t.RatingValue())
	}
	_ = tw.Flush()
}

func runTradeImport(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	drafts, err := journal.ReadDraftsCSV(f)
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	imported, skipped := 0, 0
	for i, d := range drafts {
		t, err := a.svc.Submit(cmd.Context(), d)
		var verr *enrich.ValidationError
		switch {
		case errors.As(err, &verr):
			// Header is line 1.
			fmt.Fprintf(out, "line %d skipped: %v\n", i+2, verr)
			skipped++
			continue
		case err != nil:
			return fmt.Errorf("line %d: %w", i+2, err)
		}
		fmt.Fprintf(out, "%s %s %s %d @ %.2f rating %+.3f\n", t.ID, t.Ticker, t.Type, t.Quantity, t.Price, t.RatingValue())
		imported++
	}

	fmt.Fprintf(out, "✓ Imported %d trades (%d skipped)\n", imported, skipped)
	return nil
}

func runTradeExport(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	trades, err := a.svc.All(cmd.Context(), "", "")
	if err != nil {
		return fmt.Errorf("list trades: %w", err)
	}
	trades, err = query.Sort(trades, query.SortConfig{Key: query.ByDate, Direction: query.Ascending})
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if exportOutput != "" {
		f, err := os.Create(exportOutput)
		if err != nil {
			return fmt.Errorf("create %s: %w", exportOutput, err)
		}
		defer f.Close()
		w = f
	}
	return journal.WriteCSV(w, trades)
}
