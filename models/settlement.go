package models

// ResolveResult enumerates the observable outcomes of a market resolution call
type ResolveResult int

const (
	ResolveOK ResolveResult = iota
	ResolveAlreadySettled
	ResolveNoWinner
	ResolveNotFound
)

// String returns a human-readable name for the resolve result
func (r ResolveResult) String() string {
	switch r {
	case ResolveOK:
		return "ok"
	case ResolveAlreadySettled:
		return "already_settled"
	case ResolveNoWinner:
		return "no_winner"
	case ResolveNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// MarketSettlement summarizes a completed resolution pass (returned to the caller)
type MarketSettlement struct {
	Market       *Market
	Bets         []*Bet
	TotalPaidOut int64
	Payouts      map[int64]int64 // bettor ID -> payout
}
