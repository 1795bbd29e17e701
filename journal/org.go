package journal

import (
	"fmt"
	"strings"
)

// FormatTradeOrg renders a Trade as an Org-mode block suitable for pasting into a journal.
// Structured facts go in a PROPERTIES drawer; the Thesis/Review headings are
// left for the trader to fill in.
func FormatTradeOrg(t Trade) string {
	heading := fmt.Sprintf("** %s %d %s @ %.2f (%s)", t.Type, t.Quantity, t.Ticker, t.Price, shortID(t.ID))

	rating := "(unrated)"
	if t.Rating != nil {
		rating = fmt.Sprintf("%.3f", *t.Rating)
	}

	var b strings.Builder
	b.WriteString(heading)
	b.WriteString("\n")
	b.WriteString(":PROPERTIES:\n")
	b.WriteString(fmt.Sprintf(":ID: %s\n", t.ID))
	b.WriteString(fmt.Sprintf(":DATE: %s\n", t.Date))
	b.WriteString(fmt.Sprintf(":TIME: %s\n", t.Time))
	b.WriteString(fmt.Sprintf(":TICKER: %s\n", t.Ticker))
	b.WriteString(fmt.Sprintf(":TYPE: %s\n", t.Type))
	b.WriteString(fmt.Sprintf(":PRICE: %.2f\n", t.Price))
	b.WriteString(fmt.Sprintf(":QUANTITY: %d\n", t.Quantity))
	b.WriteString(fmt.Sprintf(":RATING: %s\n", rating))
	b.WriteString(":END:\n")
	b.WriteString("\n")
	b.WriteString("*** Thesis\n- \n\n")
	b.WriteString("*** Review\n- \n")

	return b.String()
}

// FormatTradesOrg renders multiple trades separated by blank lines.
func FormatTradesOrg(trades []Trade) string {
	var b strings.Builder
	for i, t := range trades {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(FormatTradeOrg(t))
	}
	return b.String()
}

func shortID(full string) string {
	if len(full) <= 8 {
		return full
	}
	return full[:8]
}
