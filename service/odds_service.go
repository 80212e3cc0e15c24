package service

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
)

type oddsService struct {
	uowFactory UnitOfWorkFactory
}

// NewOddsService creates a new odds service
func NewOddsService(uowFactory UnitOfWorkFactory) OddsService {
	return &oddsService{
		uowFactory: uowFactory,
	}
}

// PostInitialPrices writes one price row per competitor from current skill
// ratings. Re-posting replaces existing rows in place.
func (s *oddsService) PostInitialPrices(ctx context.Context, marketID int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	detail, err := uow.MarketRepository().GetDetailByID(ctx, marketID)
	if err != nil {
		return fmt.Errorf("failed to get market detail: %w", err)
	}
	if detail == nil {
		return fmt.Errorf("%w: market %d", ErrNotFound, marketID)
	}
	if len(detail.Competitors) == 0 {
		return fmt.Errorf("%w: market %d has no competitors to price", ErrMarketNotReady, marketID)
	}

	prices, err := PostMarketPrices(ctx, uow, detail)
	if err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"marketID":    marketID,
		"competitors": len(prices),
	}).Info("Posted initial prices for market")

	return nil
}

// RebalancePrices runs the cashflow re-pricing pass in its own transaction.
// Placement runs the same pass inside the placement transaction; this entry
// point exists for redundant or administrative calls.
func (s *oddsService) RebalancePrices(ctx context.Context, marketID int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := RebalanceMarketPrices(ctx, uow, marketID); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetPrices returns the current scaled price per competitor. A market with
// no priced competitors yields an empty map, not an error.
func (s *oddsService) GetPrices(ctx context.Context, marketID int64) (map[int64]int64, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	posted, err := uow.PriceRepository().GetByMarket(ctx, marketID)
	if err != nil {
		return nil, fmt.Errorf("failed to get prices: %w", err)
	}

	prices := make(map[int64]int64, len(posted))
	for _, p := range posted {
		prices[p.CompetitorID] = p.ScaledPrice
	}

	return prices, nil
}
