package models

import (
	"fmt"
	"time"
)

// Price bounds, scaled by 100 (1.05x to 20.00x)
const (
	MinScaledPrice int64 = 105
	MaxScaledPrice int64 = 2000
)

// Price represents the current odds for one competitor in one market,
// as a payout multiplier scaled by 100 (250 = 2.50x). Exactly one row
// exists per (market, competitor); re-pricing updates it in place.
type Price struct {
	MarketID     int64     `db:"market_id"`
	CompetitorID int64     `db:"competitor_id"`
	ScaledPrice  int64     `db:"scaled_price"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// ClampScaledPrice bounds a scaled price to the allowed range
func ClampScaledPrice(p int64) int64 {
	if p < MinScaledPrice {
		return MinScaledPrice
	}
	if p > MaxScaledPrice {
		return MaxScaledPrice
	}
	return p
}

// FormatScaledPrice renders a scaled price for display, e.g. 250 -> "2.50x"
func FormatScaledPrice(p int64) string {
	return fmt.Sprintf("%d.%02dx", p/100, p%100)
}
