package models

import (
	"time"
)

// MarketState represents the lifecycle state of a market
type MarketState string

const (
	MarketStateOpen    MarketState = "open"
	MarketStateDecided MarketState = "decided"
	MarketStateSettled MarketState = "settled"
)

// MarketKind distinguishes individual games from team games
type MarketKind string

const (
	MarketKindIndividual MarketKind = "individual"
	MarketKindTeam       MarketKind = "team"
)

// Market represents one scheduled game instance that bets are placed against
type Market struct {
	ID             int64       `db:"id"`
	GameNight      string      `db:"game_night"`
	Kind           MarketKind  `db:"kind"`
	State          MarketState `db:"state"`
	WinnerMemberID *int64      `db:"winner_member_id"`
	WinnerTeam     *string     `db:"winner_team"`
	RatingsApplied bool        `db:"ratings_applied"`
	CreatedAt      time.Time   `db:"created_at"`
	SettledAt      *time.Time  `db:"settled_at"`
}

// MarketCompetitor represents one eligible competitor in a market.
// Team is nil for individual markets and names the competitor's side for team markets.
type MarketCompetitor struct {
	MarketID  int64     `db:"market_id"`
	MemberID  int64     `db:"member_id"`
	Team      *string   `db:"team"`
	CreatedAt time.Time `db:"created_at"`
}

// MarketDetail combines a market with its competitor slate
type MarketDetail struct {
	Market      *Market
	Competitors []*MarketCompetitor
}

// IsOpen checks if the market still accepts bets
func (m *Market) IsOpen() bool {
	return m.State == MarketStateOpen
}

// IsSettled checks if all bets on the market have been resolved
func (m *Market) IsSettled() bool {
	return m.State == MarketStateSettled
}

// HasWinner checks if an outcome has been declared
func (m *Market) HasWinner() bool {
	if m.Kind == MarketKindTeam {
		return m.WinnerTeam != nil
	}
	return m.WinnerMemberID != nil
}

// Decide declares the winning member for an individual market
func (m *Market) Decide(winnerMemberID int64) {
	if m.State == MarketStateOpen {
		m.State = MarketStateDecided
		m.WinnerMemberID = &winnerMemberID
	}
}

// DecideTeam declares the winning team for a team market
func (m *Market) DecideTeam(winnerTeam string) {
	if m.State == MarketStateOpen {
		m.State = MarketStateDecided
		m.WinnerTeam = &winnerTeam
	}
}

// Settle marks the market as fully resolved. Settlement is one-way.
func (m *Market) Settle() {
	if m.State == MarketStateDecided {
		m.State = MarketStateSettled
		now := time.Now()
		m.SettledAt = &now
	}
}

// CompetitorByMember returns the competitor entry for a member, or nil
func (d *MarketDetail) CompetitorByMember(memberID int64) *MarketCompetitor {
	for _, c := range d.Competitors {
		if c.MemberID == memberID {
			return c
		}
	}
	return nil
}

// IsWinningPick reports whether a bet on the given member pays out.
// Individual markets match the member directly; team markets match any
// member of the declared winning team.
func (d *MarketDetail) IsWinningPick(pickMemberID int64) bool {
	m := d.Market
	if !m.HasWinner() {
		return false
	}
	if m.Kind == MarketKindTeam {
		c := d.CompetitorByMember(pickMemberID)
		return c != nil && c.Team != nil && *c.Team == *m.WinnerTeam
	}
	return pickMemberID == *m.WinnerMemberID
}

// SameTeam reports whether two competitors play on the same side.
// Always false for individual markets.
func (d *MarketDetail) SameTeam(a, b *MarketCompetitor) bool {
	return a.Team != nil && b.Team != nil && *a.Team == *b.Team
}
