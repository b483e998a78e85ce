package domain

import (
	"math"
	"strconv"
)

// Instrument carries the contract metadata the tool needs for tick math.
// TickValue is the dollar value of one tick for one contract.
type Instrument struct {
	Symbol    string  `json:"symbol"`
	TickSize  float64 `json:"tick_size"`
	TickValue float64 `json:"tick_value"`
	Currency  string  `json:"currency"`
}

// RoundToTick rounds a price to the nearest valid tick. Prices pass through
// unchanged while tick size is not yet known.
func (i Instrument) RoundToTick(price float64) float64 {
	if i.TickSize <= 0 {
		return price
	}
	return math.Round(price/i.TickSize) * i.TickSize
}

// FormatPrice renders a price with the precision implied by the tick size.
func (i Instrument) FormatPrice(price float64) string {
	if i.TickSize > 0 && i.TickSize < 0.01 {
		return strconv.FormatFloat(price, 'f', 4, 64)
	}
	return strconv.FormatFloat(price, 'f', 2, 64)
}

// FormatPoints renders a point distance with just enough decimals to show one
// tick cleanly (tick 0.25 -> 2dp, 0.10 -> 1dp, 0.005 -> 3dp).
func (i Instrument) FormatPoints(points float64) string {
	if i.TickSize >= 1 || i.TickSize <= 0 {
		return strconv.FormatFloat(points, 'f', 0, 64)
	}
	decimals := 0
	for tick := i.TickSize; math.Abs(tick-math.Round(tick)) > 1e-9 && decimals < 8; tick *= 10 {
		decimals++
	}
	return strconv.FormatFloat(points, 'f', decimals, 64)
}
