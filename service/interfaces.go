package service

import (
	"context"

	"bookie/events"
	"bookie/models"
)

// MemberRepository defines the interface for member and rating data access
type MemberRepository interface {
	// GetByID retrieves a member by ID, nil when not found
	GetByID(ctx context.Context, id int64) (*models.Member, error)

	// Create creates a new member with the default rating
	Create(ctx context.Context, displayName string) (*models.Member, error)

	// GetRating returns a member's current rating, DefaultRating when the
	// member has no stored rating. Never fails for unknown members.
	GetRating(ctx context.Context, memberID int64) (int, error)

	// UpdateRating stores a member's new rating and stamps the update time
	UpdateRating(ctx context.Context, memberID int64, rating int) error
}

// MarketRepository defines the interface for market data access
type MarketRepository interface {
	// CreateWithCompetitors creates a market and its competitor slate atomically
	CreateWithCompetitors(ctx context.Context, market *models.Market, competitors []*models.MarketCompetitor) error

	// GetByID retrieves a market by ID, nil when not found
	GetByID(ctx context.Context, id int64) (*models.Market, error)

	// GetDetailByID retrieves a market with its competitor slate, nil when not found
	GetDetailByID(ctx context.Context, id int64) (*models.MarketDetail, error)

	// GetDetailByIDForUpdate is GetDetailByID with the market row locked for
	// the duration of the transaction
	GetDetailByIDForUpdate(ctx context.Context, id int64) (*models.MarketDetail, error)

	// Update updates a market's state and related fields
	Update(ctx context.Context, market *models.Market) error

	// GetDecidedUnsettled returns markets with a declared winner that have
	// not yet been settled
	GetDecidedUnsettled(ctx context.Context) ([]*models.Market, error)
}

// PriceRepository defines the interface for posted-odds data access
type PriceRepository interface {
	// Upsert writes a price row, replacing the existing value for the same
	// (market, competitor) pair
	Upsert(ctx context.Context, price *models.Price) error

	// GetByMarket returns all price rows for a market
	GetByMarket(ctx context.Context, marketID int64) ([]*models.Price, error)

	// UpdateScaledPrice updates the value of an existing price row
	UpdateScaledPrice(ctx context.Context, marketID, competitorID, scaledPrice int64) error
}

// BetRepository defines the interface for bet data access
type BetRepository interface {
	// Create creates a new unresolved bet. A second bet by the same bettor
	// on the same market fails with ErrDuplicateBet.
	Create(ctx context.Context, bet *models.Bet) error

	// GetByMarket returns all bets on a market
	GetByMarket(ctx context.Context, marketID int64) ([]*models.Bet, error)

	// GetByBettor returns a bettor's bet on a market, nil when none exists
	GetByBettor(ctx context.Context, marketID, bettorID int64) (*models.Bet, error)

	// StakeTotalsByPick returns the total unresolved stake backing each
	// competitor in a market
	StakeTotalsByPick(ctx context.Context, marketID int64) (map[int64]int64, error)

	// MarkResolved persists a bet's terminal state (resolved flag, payout,
	// resolution timestamp)
	MarkResolved(ctx context.Context, bet *models.Bet) error
}

// CoinLedger is the boundary contract to the coin-balance collaborator.
// Debit refuses on insufficient funds without partial effect; credit always
// succeeds for valid member IDs.
type CoinLedger interface {
	// TryDebit atomically deducts amount if the balance covers it, and
	// reports whether the debit was applied
	TryDebit(ctx context.Context, memberID, amount int64) (bool, error)

	// Credit adds amount to the member's balance. A zero credit is a no-op.
	Credit(ctx context.Context, memberID, amount int64) error

	// GetBalance returns the member's current spendable balance
	GetBalance(ctx context.Context, memberID int64) (int64, error)
}

// RatingService defines the interface for skill rating operations
type RatingService interface {
	// RecordResult folds a decided market's outcome into its competitors'
	// ratings. Idempotent per market; a market without at least two
	// competitors or without a winner is reported as not applicable.
	RecordResult(ctx context.Context, marketID int64) error

	// GetRating returns a member's current rating, defaulting for unknowns
	GetRating(ctx context.Context, memberID int64) (int, error)
}

// OddsService defines the interface for pricing operations
type OddsService interface {
	// PostInitialPrices derives and writes skill-based opening prices for
	// every competitor in the market
	PostInitialPrices(ctx context.Context, marketID int64) error

	// RebalancePrices re-prices the market from the current stake
	// distribution. Safe to call redundantly.
	RebalancePrices(ctx context.Context, marketID int64) error

	// GetPrices returns competitor ID -> current scaled price; empty when
	// the market has no priced competitors
	GetPrices(ctx context.Context, marketID int64) (map[int64]int64, error)
}

// BettingService defines the interface for the bet ledger
type BettingService interface {
	// PlaceBet accepts a wager against the currently posted price, debits
	// the stake, and re-prices the market
	PlaceBet(ctx context.Context, marketID, bettorID, pickMemberID, stake int64) (*models.BetPlacement, error)

	// ResolveMarket resolves every open bet on a decided market exactly
	// once, crediting payouts. Repeated calls are safe no-ops.
	ResolveMarket(ctx context.Context, marketID int64) (models.ResolveResult, *models.MarketSettlement, error)

	// GetPrices is a pass-through to the odds engine for display callers
	GetPrices(ctx context.Context, marketID int64) (map[int64]int64, error)

	// GetBetsByMarket returns all bets on a market
	GetBetsByMarket(ctx context.Context, marketID int64) ([]*models.Bet, error)

	// GetBet returns a bettor's bet on a market, nil when none exists
	GetBet(ctx context.Context, marketID, bettorID int64) (*models.Bet, error)
}

// MemberService defines the interface for member registration and reads
type MemberService interface {
	// RegisterMember creates a member at the default rating and funds their
	// coin account with the starting balance
	RegisterMember(ctx context.Context, displayName string) (*models.Member, error)

	// GetMember retrieves a member by ID, nil when not found
	GetMember(ctx context.Context, memberID int64) (*models.Member, error)

	// GetBalance returns a member's spendable coin balance
	GetBalance(ctx context.Context, memberID int64) (int64, error)
}

// MarketService defines the interface for market administration
type MarketService interface {
	// CreateMarket creates a market with its competitor slate and posts
	// initial prices
	CreateMarket(ctx context.Context, gameNight string, kind models.MarketKind, competitors []CompetitorEntry) (*models.MarketDetail, error)

	// DeclareWinner records the winning member of an individual market and
	// applies rating updates
	DeclareWinner(ctx context.Context, marketID, winnerMemberID int64) error

	// DeclareWinningTeam records the winning team of a team market and
	// applies rating updates
	DeclareWinningTeam(ctx context.Context, marketID int64, team string) error
}

// CompetitorEntry names one competitor when creating a market. Team is empty
// for individual markets.
type CompetitorEntry struct {
	MemberID int64
	Team     string
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	MemberRepository() MemberRepository
	MarketRepository() MarketRepository
	PriceRepository() PriceRepository
	BetRepository() BetRepository
	CoinLedger() CoinLedger
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}
