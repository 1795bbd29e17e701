package journal

import (
	"strings"
	"testing"

	"github.com/rustyeddy/tradejournal/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTradeOrg(t *testing.T) {
	t.Parallel()

	trade := Trade{
		ID:       "01J3B7Q4ZK8Y2N3C4D5E6F7G8H",
		Date:     "2024-07-20",
		Time:     "09:30:05",
		Ticker:   "AAPL",
		Type:     market.Buy,
		Price:    150.50,
		Quantity: 10,
	}.WithRating(-1.0 / 3.0)

	result := FormatTradeOrg(trade)

	assert.Contains(t, result, "** Buy 10 AAPL @ 150.50 (01J3B7Q4)")
	assert.Contains(t, result, ":PROPERTIES:")
	assert.Contains(t, result, ":ID: 01J3B7Q4ZK8Y2N3C4D5E6F7G8H")
	assert.Contains(t, result, ":DATE: 2024-07-20")
	assert.Contains(t, result, ":TIME: 09:30:05")
	assert.Contains(t, result, ":TICKER: AAPL")
	assert.Contains(t, result, ":TYPE: Buy")
	assert.Contains(t, result, ":PRICE: 150.50")
	assert.Contains(t, result, ":QUANTITY: 10")
	assert.Contains(t, result, ":RATING: -0.333")
	assert.Contains(t, result, ":END:")
	assert.Contains(t, result, "*** Thesis")
	assert.Contains(t, result, "*** Review")
}

func TestFormatTradeOrgUnrated(t *testing.T) {
	t.Parallel()

	result := FormatTradeOrg(sampleTrade())
	assert.Contains(t, result, ":RATING: (unrated)")
}

func TestFormatTradeOrgStructure(t *testing.T) {
	t.Parallel()

	result := FormatTradeOrg(sampleTrade())

	lines := strings.Split(result, "\n")
	require.Greater(t, len(lines), 10)
	assert.True(t, strings.HasPrefix(lines[0], "** "))
	assert.Equal(t, ":PROPERTIES:", lines[1])

	end := -1
	thesis := -1
	for i, line := range lines {
		if line == ":END:" && end < 0 {
			end = i
		}
		if line == "*** Thesis" {
			thesis = i
		}
	}
	assert.Greater(t, end, 1)
	assert.Greater(t, thesis, end)
}

func TestFormatTradesOrg(t *testing.T) {
	t.Parallel()

	a := sampleTrade()
	a.ID = "trade-001"
	b := sampleTrade()
	b.ID = "trade-002"
	b.Ticker = "MSFT"

	result := FormatTradesOrg([]Trade{a, b})
	assert.Contains(t, result, "AAPL")
	assert.Contains(t, result, "MSFT")

	parts := strings.Split(result, "\n\n\n")
	assert.Len(t, parts, 2)

	assert.Empty(t, FormatTradesOrg(nil))
	assert.NotContains(t, FormatTradesOrg([]Trade{a}), "\n\n\n")
}

func TestShortID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"long ID gets truncated", "trade-12345678-abcdef", "trade-12"},
		{"exactly 8 characters", "12345678", "12345678"},
		{"less than 8 characters", "short", "short"},
		{"empty string", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, shortID(tt.input))
		})
	}
}
