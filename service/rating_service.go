package service

import (
	"context"
	"fmt"
	"math"

	"bookie/events"
	"bookie/models"

	log "github.com/sirupsen/logrus"
)

// Elo parameters: logistic curve with the conventional 400-point spread,
// bounded per-game step of 24.
const (
	eloKFactor = 24
	eloDivisor = 400
)

type ratingService struct {
	uowFactory UnitOfWorkFactory
}

// NewRatingService creates a new rating service
func NewRatingService(uowFactory UnitOfWorkFactory) RatingService {
	return &ratingService{
		uowFactory: uowFactory,
	}
}

// expectedScore returns the probability that a rating-ra player beats a
// rating-rb player under the Elo logistic model.
func expectedScore(ra, rb int) float64 {
	return 1.0 / (1.0 + math.Pow(10, float64(rb-ra)/eloDivisor))
}

// RecordResult folds a decided market's outcome into its competitors'
// ratings. The winner is treated as having beaten every competitor not on
// their own side; per-competitor deltas are summed and applied as a single
// integer-rounded update each.
func (s *ratingService) RecordResult(ctx context.Context, marketID int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	detail, err := uow.MarketRepository().GetDetailByIDForUpdate(ctx, marketID)
	if err != nil {
		return fmt.Errorf("failed to get market detail: %w", err)
	}
	if detail == nil {
		return fmt.Errorf("%w: market %d", ErrNotFound, marketID)
	}

	market := detail.Market
	if market.RatingsApplied {
		log.WithFields(log.Fields{
			"marketID": marketID,
		}).Debug("Ratings already applied for market, skipping")
		return nil
	}
	if len(detail.Competitors) < 2 || !market.HasWinner() {
		return fmt.Errorf("%w: market %d has no rateable result", ErrMarketNotReady, marketID)
	}

	// Load current ratings for the whole slate
	ratings := make(map[int64]int, len(detail.Competitors))
	for _, c := range detail.Competitors {
		rating, err := uow.MemberRepository().GetRating(ctx, c.MemberID)
		if err != nil {
			return fmt.Errorf("failed to get rating for member %d: %w", c.MemberID, err)
		}
		ratings[c.MemberID] = rating
	}

	// Accumulate pairwise deltas: each winning competitor scores 1 against
	// each competitor on a losing side. Teammates are never compared.
	deltas := make(map[int64]float64)
	for _, a := range detail.Competitors {
		if !detail.IsWinningPick(a.MemberID) {
			continue
		}
		for _, b := range detail.Competitors {
			if a.MemberID == b.MemberID || detail.IsWinningPick(b.MemberID) || detail.SameTeam(a, b) {
				continue
			}
			winExpected := expectedScore(ratings[a.MemberID], ratings[b.MemberID])
			deltas[a.MemberID] += eloKFactor * (1 - winExpected)
			deltas[b.MemberID] -= eloKFactor * (1 - winExpected)
		}
	}

	newRatings := make(map[int64]int, len(deltas))
	for memberID, delta := range deltas {
		updated := ratings[memberID] + int(math.Round(delta))
		if err := uow.MemberRepository().UpdateRating(ctx, memberID, updated); err != nil {
			return fmt.Errorf("failed to update rating for member %d: %w", memberID, err)
		}
		newRatings[memberID] = updated
	}

	market.RatingsApplied = true
	if err := uow.MarketRepository().Update(ctx, market); err != nil {
		return fmt.Errorf("failed to mark ratings applied: %w", err)
	}

	uow.EventBus().Publish(events.RatingsAppliedEvent{
		MarketID:   marketID,
		NewRatings: newRatings,
	})

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"marketID":       marketID,
		"membersUpdated": len(newRatings),
	}).Info("Applied rating updates for market")

	return nil
}

// GetRating returns the member's stored rating. Unknown members get the
// default; this never fails on a missing row.
func (s *ratingService) GetRating(ctx context.Context, memberID int64) (int, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return models.DefaultRating, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	rating, err := uow.MemberRepository().GetRating(ctx, memberID)
	if err != nil {
		return models.DefaultRating, fmt.Errorf("failed to get rating: %w", err)
	}

	return rating, nil
}
