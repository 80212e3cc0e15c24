package models

import "time"

// Bet represents one wager by one bettor on one market. A bettor holds at
// most one bet per market; the locked price is copied at placement time and
// never changes afterwards.
type Bet struct {
	ID           int64      `db:"id"`
	MarketID     int64      `db:"market_id"`
	BettorID     int64      `db:"bettor_id"`
	PickMemberID int64      `db:"pick_member_id"`
	Stake        int64      `db:"stake"`
	LockedPrice  int64      `db:"locked_price"`
	Resolved     bool       `db:"resolved"`
	Payout       int64      `db:"payout"`
	CreatedAt    time.Time  `db:"created_at"`
	ResolvedAt   *time.Time `db:"resolved_at"`
}

// CalculatePayout returns the winning payout for this bet: integer
// floor of stake * lockedPrice / 100. No floating point.
func (b *Bet) CalculatePayout() int64 {
	return b.Stake * b.LockedPrice / 100
}

// Resolve transitions the bet to its terminal state. A resolved bet is
// immutable; calling Resolve again is a no-op.
func (b *Bet) Resolve(won bool, at time.Time) {
	if b.Resolved {
		return
	}
	b.Resolved = true
	b.ResolvedAt = &at
	if won {
		b.Payout = b.CalculatePayout()
	} else {
		b.Payout = 0
	}
}

// BetPlacement represents the outcome of a successful placement (returned to the caller)
type BetPlacement struct {
	Bet        *Bet
	NewBalance int64
}
