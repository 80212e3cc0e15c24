package service

import (
	"context"
	"fmt"
	"time"

	"bookie/events"
	"bookie/models"

	log "github.com/sirupsen/logrus"
)

type bettingService struct {
	uowFactory UnitOfWorkFactory
	odds       OddsService
}

// NewBettingService creates a new betting service
func NewBettingService(uowFactory UnitOfWorkFactory, odds OddsService) BettingService {
	return &bettingService{
		uowFactory: uowFactory,
		odds:       odds,
	}
}

// PlaceBet accepts a wager against the currently posted price. The debit,
// the bet row, and the re-pricing pass commit together or not at all.
func (s *bettingService) PlaceBet(ctx context.Context, marketID, bettorID, pickMemberID, stake int64) (*models.BetPlacement, error) {
	if stake <= 0 {
		return nil, fmt.Errorf("%w: stake must be positive", ErrValidation)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	// Lock the market row so concurrent placements serialize on the shared
	// price state and the handle computation stays consistent.
	detail, err := uow.MarketRepository().GetDetailByIDForUpdate(ctx, marketID)
	if err != nil {
		return nil, fmt.Errorf("failed to get market detail: %w", err)
	}
	if detail == nil {
		return nil, fmt.Errorf("%w: market %d", ErrNotFound, marketID)
	}
	if !detail.Market.IsOpen() {
		return nil, fmt.Errorf("%w: market %d no longer accepts bets", ErrMarketNotReady, marketID)
	}

	posted, err := uow.PriceRepository().GetByMarket(ctx, marketID)
	if err != nil {
		return nil, fmt.Errorf("failed to get prices: %w", err)
	}
	var current *models.Price
	for _, p := range posted {
		if p.CompetitorID == pickMemberID {
			current = p
			break
		}
	}
	if current == nil {
		return nil, fmt.Errorf("%w: member %d is not a priced competitor in market %d", ErrValidation, pickMemberID, marketID)
	}

	existing, err := uow.BetRepository().GetByBettor(ctx, marketID, bettorID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing bet: %w", err)
	}
	if existing != nil {
		return nil, ErrDuplicateBet
	}

	// Debit first: a refused debit means nothing gets written.
	debited, err := uow.CoinLedger().TryDebit(ctx, bettorID, stake)
	if err != nil {
		return nil, fmt.Errorf("failed to debit stake: %w", err)
	}
	if !debited {
		return nil, fmt.Errorf("%w: stake %d", ErrInsufficientFunds, stake)
	}

	bet := &models.Bet{
		MarketID:     marketID,
		BettorID:     bettorID,
		PickMemberID: pickMemberID,
		Stake:        stake,
		LockedPrice:  current.ScaledPrice,
	}
	if err := uow.BetRepository().Create(ctx, bet); err != nil {
		return nil, fmt.Errorf("failed to create bet: %w", err)
	}

	// Re-pricing after placement is part of the placement's correctness,
	// not a best-effort optimization.
	if err := RebalanceMarketPrices(ctx, uow, marketID); err != nil {
		return nil, fmt.Errorf("failed to rebalance prices: %w", err)
	}

	balance, err := uow.CoinLedger().GetBalance(ctx, bettorID)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}

	uow.EventBus().Publish(events.BetPlacedEvent{
		BetID:        bet.ID,
		MarketID:     marketID,
		BettorID:     bettorID,
		PickMemberID: pickMemberID,
		Stake:        stake,
		LockedPrice:  bet.LockedPrice,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"marketID":    marketID,
		"bettorID":    bettorID,
		"stake":       stake,
		"lockedPrice": bet.LockedPrice,
	}).Info("Bet placed")

	return &models.BetPlacement{Bet: bet, NewBalance: balance}, nil
}

// ResolveMarket moves a decided market to settled, resolving every open bet
// against its locked-in price exactly once. Repeated calls report
// ResolveAlreadySettled and change nothing.
func (s *bettingService) ResolveMarket(ctx context.Context, marketID int64) (models.ResolveResult, *models.MarketSettlement, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return models.ResolveNotFound, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	detail, err := uow.MarketRepository().GetDetailByIDForUpdate(ctx, marketID)
	if err != nil {
		return models.ResolveNotFound, nil, fmt.Errorf("failed to get market detail: %w", err)
	}
	if detail == nil {
		return models.ResolveNotFound, nil, nil
	}

	market := detail.Market
	if market.IsSettled() {
		return models.ResolveAlreadySettled, nil, nil
	}
	if !market.HasWinner() {
		return models.ResolveNoWinner, nil, nil
	}

	bets, err := uow.BetRepository().GetByMarket(ctx, marketID)
	if err != nil {
		return models.ResolveNotFound, nil, fmt.Errorf("failed to get bets: %w", err)
	}

	var unresolved []*models.Bet
	for _, bet := range bets {
		if !bet.Resolved {
			unresolved = append(unresolved, bet)
		}
	}
	if len(bets) > 0 && len(unresolved) == 0 {
		// Every bet already paid out; only the market flag was missed.
		// Repair it here, otherwise the settlement sweep revisits this
		// market on every tick.
		market.Settle()
		if !market.IsSettled() {
			repairedAt := time.Now()
			market.State = models.MarketStateSettled
			market.SettledAt = &repairedAt
		}
		if err := uow.MarketRepository().Update(ctx, market); err != nil {
			return models.ResolveNotFound, nil, fmt.Errorf("failed to mark market settled: %w", err)
		}
		if err := uow.Commit(); err != nil {
			return models.ResolveNotFound, nil, fmt.Errorf("failed to commit transaction: %w", err)
		}
		return models.ResolveAlreadySettled, nil, nil
	}

	now := time.Now()
	payouts := make(map[int64]int64, len(unresolved))
	var totalPaidOut int64

	for _, bet := range unresolved {
		won := detail.IsWinningPick(bet.PickMemberID)
		bet.Resolve(won, now)

		if bet.Payout > 0 {
			if err := uow.CoinLedger().Credit(ctx, bet.BettorID, bet.Payout); err != nil {
				return models.ResolveNotFound, nil, fmt.Errorf("failed to credit payout for bettor %d: %w", bet.BettorID, err)
			}
		}
		if err := uow.BetRepository().MarkResolved(ctx, bet); err != nil {
			return models.ResolveNotFound, nil, fmt.Errorf("failed to mark bet %d resolved: %w", bet.ID, err)
		}

		payouts[bet.BettorID] = bet.Payout
		totalPaidOut += bet.Payout
	}

	if market.State == models.MarketStateDecided {
		market.Settle()
	} else {
		// Winner was recorded without the explicit decided transition;
		// settlement is still one-way from here.
		market.State = models.MarketStateSettled
		market.SettledAt = &now
	}
	if err := uow.MarketRepository().Update(ctx, market); err != nil {
		return models.ResolveNotFound, nil, fmt.Errorf("failed to mark market settled: %w", err)
	}

	uow.EventBus().Publish(events.MarketSettledEvent{
		MarketID:     marketID,
		TotalPaidOut: totalPaidOut,
		Payouts:      payouts,
	})

	if err := uow.Commit(); err != nil {
		return models.ResolveNotFound, nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"marketID":     marketID,
		"betsResolved": len(unresolved),
		"totalPaidOut": totalPaidOut,
	}).Info("Market settled")

	return models.ResolveOK, &models.MarketSettlement{
		Market:       market,
		Bets:         bets,
		TotalPaidOut: totalPaidOut,
		Payouts:      payouts,
	}, nil
}

// GetPrices is a pass-through to the odds engine, retained because some
// callers reach bets and prices through one facade.
func (s *bettingService) GetPrices(ctx context.Context, marketID int64) (map[int64]int64, error) {
	return s.odds.GetPrices(ctx, marketID)
}

// GetBetsByMarket returns all bets on a market
func (s *bettingService) GetBetsByMarket(ctx context.Context, marketID int64) ([]*models.Bet, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	bets, err := uow.BetRepository().GetByMarket(ctx, marketID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bets: %w", err)
	}

	return bets, nil
}

// GetBet returns a bettor's bet on a market, nil when none exists
func (s *bettingService) GetBet(ctx context.Context, marketID, bettorID int64) (*models.Bet, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	bet, err := uow.BetRepository().GetByBettor(ctx, marketID, bettorID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bet: %w", err)
	}

	return bet, nil
}
