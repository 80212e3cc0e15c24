package service

import (
	"context"

	"bookie/events"
	"bookie/models"

	"github.com/stretchr/testify/mock"
)

// MockMemberRepository is a mock implementation of MemberRepository
type MockMemberRepository struct {
	mock.Mock
}

func (m *MockMemberRepository) GetByID(ctx context.Context, id int64) (*models.Member, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Member), args.Error(1)
}

func (m *MockMemberRepository) Create(ctx context.Context, displayName string) (*models.Member, error) {
	args := m.Called(ctx, displayName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Member), args.Error(1)
}

func (m *MockMemberRepository) GetRating(ctx context.Context, memberID int64) (int, error) {
	args := m.Called(ctx, memberID)
	return args.Int(0), args.Error(1)
}

func (m *MockMemberRepository) UpdateRating(ctx context.Context, memberID int64, rating int) error {
	args := m.Called(ctx, memberID, rating)
	return args.Error(0)
}

// MockMarketRepository is a mock implementation of MarketRepository
type MockMarketRepository struct {
	mock.Mock
}

func (m *MockMarketRepository) CreateWithCompetitors(ctx context.Context, market *models.Market, competitors []*models.MarketCompetitor) error {
	args := m.Called(ctx, market, competitors)
	return args.Error(0)
}

func (m *MockMarketRepository) GetByID(ctx context.Context, id int64) (*models.Market, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Market), args.Error(1)
}

func (m *MockMarketRepository) GetDetailByID(ctx context.Context, id int64) (*models.MarketDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MarketDetail), args.Error(1)
}

func (m *MockMarketRepository) GetDetailByIDForUpdate(ctx context.Context, id int64) (*models.MarketDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MarketDetail), args.Error(1)
}

func (m *MockMarketRepository) Update(ctx context.Context, market *models.Market) error {
	args := m.Called(ctx, market)
	return args.Error(0)
}

func (m *MockMarketRepository) GetDecidedUnsettled(ctx context.Context) ([]*models.Market, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Market), args.Error(1)
}

// MockPriceRepository is a mock implementation of PriceRepository
type MockPriceRepository struct {
	mock.Mock
}

func (m *MockPriceRepository) Upsert(ctx context.Context, price *models.Price) error {
	args := m.Called(ctx, price)
	return args.Error(0)
}

func (m *MockPriceRepository) GetByMarket(ctx context.Context, marketID int64) ([]*models.Price, error) {
	args := m.Called(ctx, marketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Price), args.Error(1)
}

func (m *MockPriceRepository) UpdateScaledPrice(ctx context.Context, marketID, competitorID, scaledPrice int64) error {
	args := m.Called(ctx, marketID, competitorID, scaledPrice)
	return args.Error(0)
}

// MockBetRepository is a mock implementation of BetRepository
type MockBetRepository struct {
	mock.Mock
}

func (m *MockBetRepository) Create(ctx context.Context, bet *models.Bet) error {
	args := m.Called(ctx, bet)
	return args.Error(0)
}

func (m *MockBetRepository) GetByMarket(ctx context.Context, marketID int64) ([]*models.Bet, error) {
	args := m.Called(ctx, marketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Bet), args.Error(1)
}

func (m *MockBetRepository) GetByBettor(ctx context.Context, marketID, bettorID int64) (*models.Bet, error) {
	args := m.Called(ctx, marketID, bettorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Bet), args.Error(1)
}

func (m *MockBetRepository) StakeTotalsByPick(ctx context.Context, marketID int64) (map[int64]int64, error) {
	args := m.Called(ctx, marketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64]int64), args.Error(1)
}

func (m *MockBetRepository) MarkResolved(ctx context.Context, bet *models.Bet) error {
	args := m.Called(ctx, bet)
	return args.Error(0)
}

// MockCoinLedger is a mock implementation of CoinLedger
type MockCoinLedger struct {
	mock.Mock
}

func (m *MockCoinLedger) TryDebit(ctx context.Context, memberID, amount int64) (bool, error) {
	args := m.Called(ctx, memberID, amount)
	return args.Bool(0), args.Error(1)
}

func (m *MockCoinLedger) Credit(ctx context.Context, memberID, amount int64) error {
	args := m.Called(ctx, memberID, amount)
	return args.Error(0)
}

func (m *MockCoinLedger) GetBalance(ctx context.Context, memberID int64) (int64, error) {
	args := m.Called(ctx, memberID)
	return args.Get(0).(int64), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// noopPublisher swallows events for tests that don't assert on them
type noopPublisher struct{}

func (noopPublisher) Publish(events.Event) {}

// MockUnitOfWork is a mock implementation of UnitOfWork. Transaction calls go
// through testify expectations; repository getters return whatever was wired
// in with the setters.
type MockUnitOfWork struct {
	mock.Mock
	memberRepo MemberRepository
	marketRepo MarketRepository
	priceRepo  PriceRepository
	betRepo    BetRepository
	coinLedger CoinLedger
	eventBus   EventPublisher
}

// SetRepositories wires the repositories returned by the getters
func (m *MockUnitOfWork) SetRepositories(member MemberRepository, market MarketRepository, price PriceRepository, bet BetRepository, ledger CoinLedger) {
	m.memberRepo = member
	m.marketRepo = market
	m.priceRepo = price
	m.betRepo = bet
	m.coinLedger = ledger
}

// SetEventPublisher wires the publisher returned by EventBus
func (m *MockUnitOfWork) SetEventPublisher(pub EventPublisher) {
	m.eventBus = pub
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) MemberRepository() MemberRepository {
	return m.memberRepo
}

func (m *MockUnitOfWork) MarketRepository() MarketRepository {
	return m.marketRepo
}

func (m *MockUnitOfWork) PriceRepository() PriceRepository {
	return m.priceRepo
}

func (m *MockUnitOfWork) BetRepository() BetRepository {
	return m.betRepo
}

func (m *MockUnitOfWork) CoinLedger() CoinLedger {
	return m.coinLedger
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	if m.eventBus == nil {
		return noopPublisher{}
	}
	return m.eventBus
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}

// MockOddsService is a mock implementation of OddsService
type MockOddsService struct {
	mock.Mock
}

func (m *MockOddsService) PostInitialPrices(ctx context.Context, marketID int64) error {
	args := m.Called(ctx, marketID)
	return args.Error(0)
}

func (m *MockOddsService) RebalancePrices(ctx context.Context, marketID int64) error {
	args := m.Called(ctx, marketID)
	return args.Error(0)
}

func (m *MockOddsService) GetPrices(ctx context.Context, marketID int64) (map[int64]int64, error) {
	args := m.Called(ctx, marketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64]int64), args.Error(1)
}

// MockRatingService is a mock implementation of RatingService
type MockRatingService struct {
	mock.Mock
}

func (m *MockRatingService) RecordResult(ctx context.Context, marketID int64) error {
	args := m.Called(ctx, marketID)
	return args.Error(0)
}

func (m *MockRatingService) GetRating(ctx context.Context, memberID int64) (int, error) {
	args := m.Called(ctx, memberID)
	return args.Int(0), args.Error(1)
}
