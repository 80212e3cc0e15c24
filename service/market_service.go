package service

import (
	"context"
	"errors"
	"fmt"

	"bookie/models"

	log "github.com/sirupsen/logrus"
)

type marketService struct {
	uowFactory UnitOfWorkFactory
	ratings    RatingService
}

// NewMarketService creates a new market administration service
func NewMarketService(uowFactory UnitOfWorkFactory, ratings RatingService) MarketService {
	return &marketService{
		uowFactory: uowFactory,
		ratings:    ratings,
	}
}

// CreateMarket creates a market with its competitor slate and posts initial
// prices from current skill ratings.
func (s *marketService) CreateMarket(ctx context.Context, gameNight string, kind models.MarketKind, competitors []CompetitorEntry) (*models.MarketDetail, error) {
	if gameNight == "" {
		return nil, fmt.Errorf("%w: game night cannot be empty", ErrValidation)
	}
	if len(competitors) == 0 {
		return nil, fmt.Errorf("%w: must provide at least one competitor", ErrValidation)
	}
	for _, entry := range competitors {
		if kind == models.MarketKindTeam && entry.Team == "" {
			return nil, fmt.Errorf("%w: team market competitor %d has no team", ErrValidation, entry.MemberID)
		}
		if kind == models.MarketKindIndividual && entry.Team != "" {
			return nil, fmt.Errorf("%w: individual market competitor %d names a team", ErrValidation, entry.MemberID)
		}
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	market := &models.Market{
		GameNight: gameNight,
		Kind:      kind,
		State:     models.MarketStateOpen,
	}
	rows := make([]*models.MarketCompetitor, 0, len(competitors))
	for _, entry := range competitors {
		member, err := uow.MemberRepository().GetByID(ctx, entry.MemberID)
		if err != nil {
			return nil, fmt.Errorf("failed to get member: %w", err)
		}
		if member == nil {
			return nil, fmt.Errorf("%w: member %d", ErrNotFound, entry.MemberID)
		}
		row := &models.MarketCompetitor{MemberID: entry.MemberID}
		if entry.Team != "" {
			team := entry.Team
			row.Team = &team
		}
		rows = append(rows, row)
	}

	if err := uow.MarketRepository().CreateWithCompetitors(ctx, market, rows); err != nil {
		return nil, fmt.Errorf("failed to create market: %w", err)
	}

	detail := &models.MarketDetail{Market: market, Competitors: rows}

	// Opening prices go in with the slate so a market is never visible
	// without a priced book
	if _, err := PostMarketPrices(ctx, uow, detail); err != nil {
		return nil, fmt.Errorf("failed to post initial prices: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"marketID":    market.ID,
		"gameNight":   gameNight,
		"kind":        kind,
		"competitors": len(rows),
	}).Info("Market created")

	return detail, nil
}

// DeclareWinner records the winning member of an individual market and
// applies rating updates.
func (s *marketService) DeclareWinner(ctx context.Context, marketID, winnerMemberID int64) error {
	return s.declare(ctx, marketID, func(detail *models.MarketDetail) error {
		if detail.Market.Kind != models.MarketKindIndividual {
			return fmt.Errorf("%w: market %d is not an individual market", ErrValidation, marketID)
		}
		if detail.CompetitorByMember(winnerMemberID) == nil {
			return fmt.Errorf("%w: member %d is not a competitor in market %d", ErrValidation, winnerMemberID, marketID)
		}
		detail.Market.Decide(winnerMemberID)
		return nil
	})
}

// DeclareWinningTeam records the winning team of a team market and applies
// rating updates.
func (s *marketService) DeclareWinningTeam(ctx context.Context, marketID int64, team string) error {
	return s.declare(ctx, marketID, func(detail *models.MarketDetail) error {
		if detail.Market.Kind != models.MarketKindTeam {
			return fmt.Errorf("%w: market %d is not a team market", ErrValidation, marketID)
		}
		found := false
		for _, c := range detail.Competitors {
			if c.Team != nil && *c.Team == team {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: team %q is not competing in market %d", ErrValidation, team, marketID)
		}
		detail.Market.DecideTeam(team)
		return nil
	})
}

func (s *marketService) declare(ctx context.Context, marketID int64, decide func(*models.MarketDetail) error) error {
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
	if !detail.Market.IsOpen() {
		return fmt.Errorf("%w: market %d already has a declared winner", ErrMarketNotReady, marketID)
	}

	if err := decide(detail); err != nil {
		return err
	}

	if err := uow.MarketRepository().Update(ctx, detail.Market); err != nil {
		return fmt.Errorf("failed to update market: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	// Ratings fold in once the result is durable; the update is guarded by
	// the market's ratings_applied flag so a retry here stays safe.
	if err := s.ratings.RecordResult(ctx, marketID); err != nil {
		if errors.Is(err, ErrMarketNotReady) {
			log.WithFields(log.Fields{
				"marketID": marketID,
			}).Warn("Market result not rateable, ratings unchanged")
		} else {
			log.WithFields(log.Fields{
				"marketID": marketID,
				"error":    err,
			}).Error("Failed to apply rating updates after declaring winner")
		}
	}

	return nil
}
