package testutil

import (
	"time"

	"bookie/models"
)

// CreateTestMember creates a test member with the default rating
func CreateTestMember(id int64, displayName string) *models.Member {
	now := time.Now()
	return &models.Member{
		ID:              id,
		DisplayName:     displayName,
		Rating:          models.DefaultRating,
		RatingUpdatedAt: now,
		CreatedAt:       now,
	}
}

// CreateTestMemberWithRating creates a test member with a specific rating
func CreateTestMemberWithRating(id int64, displayName string, rating int) *models.Member {
	member := CreateTestMember(id, displayName)
	member.Rating = rating
	return member
}

// CreateTestMarket creates an open individual market with sensible defaults
func CreateTestMarket(gameNight string) *models.Market {
	return &models.Market{
		GameNight: gameNight,
		Kind:      models.MarketKindIndividual,
		State:     models.MarketStateOpen,
		CreatedAt: time.Now(),
	}
}

// CreateTestTeamMarket creates an open team market
func CreateTestTeamMarket(gameNight string) *models.Market {
	market := CreateTestMarket(gameNight)
	market.Kind = models.MarketKindTeam
	return market
}

// CreateTestCompetitor creates a competitor entry for an individual market
func CreateTestCompetitor(marketID, memberID int64) *models.MarketCompetitor {
	return &models.MarketCompetitor{
		MarketID:  marketID,
		MemberID:  memberID,
		CreatedAt: time.Now(),
	}
}

// CreateTestTeamCompetitor creates a competitor entry on a named team
func CreateTestTeamCompetitor(marketID, memberID int64, team string) *models.MarketCompetitor {
	competitor := CreateTestCompetitor(marketID, memberID)
	competitor.Team = &team
	return competitor
}

// CreateTestBet creates an unresolved test bet with a locked price
func CreateTestBet(marketID, bettorID, pickMemberID int64, stake int64, lockedPrice int64) *models.Bet {
	return &models.Bet{
		MarketID:     marketID,
		BettorID:     bettorID,
		PickMemberID: pickMemberID,
		Stake:        stake,
		LockedPrice:  lockedPrice,
		CreatedAt:    time.Now(),
	}
}

// CreateTestPrice creates a posted price row
func CreateTestPrice(marketID, competitorID int64, scaledPrice int64) *models.Price {
	return &models.Price{
		MarketID:     marketID,
		CompetitorID: competitorID,
		ScaledPrice:  scaledPrice,
		UpdatedAt:    time.Now(),
	}
}
