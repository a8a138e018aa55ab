// Package pricing derives the agent's profit and margin from the cost and
// selling price of a booking.
package pricing

import (
	"afribook/pkg/sanitizer"
	"math"
	"strconv"
)

type Quote struct {
	Actual  float64 `json:"actualPrice"`
	Selling float64 `json:"sellingPrice"`
	Profit  float64 `json:"profit"`
	// Margin is profit as a percentage of the actual price, one decimal.
	Margin string `json:"margin"`
}

// Compute never fails: amounts that do not parse count as zero, and a
// non-positive actual price yields a margin of "0".
func Compute(actual, selling string) Quote {
	a := parseAmount(actual)
	s := parseAmount(selling)
	profit := s - a

	margin := "0"
	if a > 0 {
		margin = strconv.FormatFloat(math.Round(profit/a*1000)/10, 'f', 1, 64)
	}

	return Quote{
		Actual:  a,
		Selling: s,
		Profit:  profit,
		Margin:  margin,
	}
}

// ProfitString renders the profit without trailing zeros.
func (q Quote) ProfitString() string {
	return strconv.FormatFloat(q.Profit, 'f', -1, 64)
}

func parseAmount(s string) float64 {
	v, err := strconv.ParseFloat(sanitizer.NormalizeAmount(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
