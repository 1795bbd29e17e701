package journal

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rustyeddy/tradejournal/market"
)

var csvHeader = []string{"id", "date", "time", "ticker", "type", "price", "quantity", "rating"}

var draftColumns = []string{"date", "time", "ticker", "type", "price", "quantity"}

// WriteCSV writes trades with a header row. A missing rating is an empty cell.
func WriteCSV(w io.Writer, trades []Trade) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, t := range trades {
		rating := ""
		if t.Rating != nil {
			rating = f(*t.Rating)
		}
		err := cw.Write([]string{
			t.ID,
			t.Date,
			t.Time,
			t.Ticker,
			string(t.Type),
			f(t.Price),
			strconv.Itoa(t.Quantity),
			rating,
		})
		if err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadDraftsCSV reads drafts from CSV. The header row names the columns, in
// any order; date, time, ticker, type, price and quantity are required and
// other columns (an exported id or rating) are ignored.
func ReadDraftsCSV(r io.Reader) ([]Draft, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("csv: missing header")
		}
		return nil, err
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range draftColumns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("csv: missing column %q", col)
		}
	}

	var out []Draft
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, err
		}

		price, err := strconv.ParseFloat(strings.TrimSpace(rec[idx["price"]]), 64)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: price: %w", line, err)
		}
		qty, err := strconv.Atoi(strings.TrimSpace(rec[idx["quantity"]]))
		if err != nil {
			return nil, fmt.Errorf("csv line %d: quantity: %w", line, err)
		}

		side := market.Side(strings.TrimSpace(rec[idx["type"]]))
		if parsed, err := market.ParseSide(string(side)); err == nil {
			side = parsed
		}

		out = append(out, Draft{
			Date:     strings.TrimSpace(rec[idx["date"]]),
			Time:     strings.TrimSpace(rec[idx["time"]]),
			Ticker:   rec[idx["ticker"]],
			Type:     side,
			Price:    price,
			Quantity: qty,
		})
	}
	return out, nil
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
