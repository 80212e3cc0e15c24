package service

import (
	"context"
	"errors"
	"testing"

	"bookie/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func createTestRatingService() (RatingService, *MockUnitOfWork, *MockMemberRepository, *MockMarketRepository) {
	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockMemberRepo := new(MockMemberRepository)
	mockMarketRepo := new(MockMarketRepository)

	mockUoW.SetRepositories(mockMemberRepo, mockMarketRepo, nil, nil, nil)
	mockFactory.On("Create").Return(mockUoW)

	service := NewRatingService(mockFactory)
	return service, mockUoW, mockMemberRepo, mockMarketRepo
}

func openMarketDetail(marketID int64, memberIDs ...int64) *models.MarketDetail {
	market := &models.Market{
		ID:        marketID,
		GameNight: "test-night",
		Kind:      models.MarketKindIndividual,
		State:     models.MarketStateOpen,
	}
	competitors := make([]*models.MarketCompetitor, 0, len(memberIDs))
	for _, id := range memberIDs {
		competitors = append(competitors, &models.MarketCompetitor{MarketID: marketID, MemberID: id})
	}
	return &models.MarketDetail{Market: market, Competitors: competitors}
}

func teamMarketDetail(marketID int64, teams map[int64]string) *models.MarketDetail {
	market := &models.Market{
		ID:        marketID,
		GameNight: "test-night",
		Kind:      models.MarketKindTeam,
		State:     models.MarketStateOpen,
	}
	var competitors []*models.MarketCompetitor
	for id, team := range teams {
		t := team
		competitors = append(competitors, &models.MarketCompetitor{MarketID: marketID, MemberID: id, Team: &t})
	}
	return &models.MarketDetail{Market: market, Competitors: competitors}
}

func TestRatingService_RecordResult_HeadToHeadEqualRatings(t *testing.T) {
	ctx := context.Background()
	service, mockUoW, mockMemberRepo, mockMarketRepo := createTestRatingService()

	detail := openMarketDetail(1, 10, 20)
	detail.Market.Decide(10)

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockMarketRepo.On("GetDetailByIDForUpdate", ctx, int64(1)).Return(detail, nil)
	mockMemberRepo.On("GetRating", ctx, int64(10)).Return(1200, nil)
	mockMemberRepo.On("GetRating", ctx, int64(20)).Return(1200, nil)

	// Equal ratings: expected score 0.5, so each side moves by K/2 = 12
	mockMemberRepo.On("UpdateRating", ctx, int64(10), 1212).Return(nil)
	mockMemberRepo.On("UpdateRating", ctx, int64(20), 1188).Return(nil)

	mockMarketRepo.On("Update", ctx, mock.MatchedBy(func(m *models.Market) bool {
		return m.ID == 1 && m.RatingsApplied
	})).Return(nil)

	err := service.RecordResult(ctx, 1)
	require.NoError(t, err)

	mockMemberRepo.AssertExpectations(t)
	mockMarketRepo.AssertExpectations(t)
}

func TestRatingService_RecordResult_UnderdogWinMovesMore(t *testing.T) {
	ctx := context.Background()
	service, mockUoW, mockMemberRepo, mockMarketRepo := createTestRatingService()

	detail := openMarketDetail(1, 10, 20)
	detail.Market.Decide(10)

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockMarketRepo.On("GetDetailByIDForUpdate", ctx, int64(1)).Return(detail, nil)
	mockMemberRepo.On("GetRating", ctx, int64(10)).Return(1000, nil)
	mockMemberRepo.On("GetRating", ctx, int64(20)).Return(1400, nil)

	// 400-point underdog wins: expected score 1/11, delta rounds to 22
	mockMemberRepo.On("UpdateRating", ctx, int64(10), 1022).Return(nil)
	mockMemberRepo.On("UpdateRating", ctx, int64(20), 1378).Return(nil)

	mockMarketRepo.On("Update", ctx, mock.Anything).Return(nil)

	err := service.RecordResult(ctx, 1)
	require.NoError(t, err)

	mockMemberRepo.AssertExpectations(t)
}

func TestRatingService_RecordResult_TeamMarketSkipsTeammates(t *testing.T) {
	ctx := context.Background()
	service, mockUoW, mockMemberRepo, mockMarketRepo := createTestRatingService()

	detail := teamMarketDetail(1, map[int64]string{
		10: "red",
		11: "red",
		20: "blue",
		21: "blue",
	})
	detail.Market.DecideTeam("red")

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockMarketRepo.On("GetDetailByIDForUpdate", ctx, int64(1)).Return(detail, nil)
	for _, id := range []int64{10, 11, 20, 21} {
		mockMemberRepo.On("GetRating", ctx, id).Return(1200, nil)
	}

	// Each winner beats both opponents at expected score 0.5: +12 twice.
	// Teammates are never compared against each other.
	mockMemberRepo.On("UpdateRating", ctx, int64(10), 1224).Return(nil)
	mockMemberRepo.On("UpdateRating", ctx, int64(11), 1224).Return(nil)
	mockMemberRepo.On("UpdateRating", ctx, int64(20), 1176).Return(nil)
	mockMemberRepo.On("UpdateRating", ctx, int64(21), 1176).Return(nil)

	mockMarketRepo.On("Update", ctx, mock.Anything).Return(nil)

	err := service.RecordResult(ctx, 1)
	require.NoError(t, err)

	mockMemberRepo.AssertExpectations(t)
}

func TestRatingService_RecordResult_AlreadyApplied(t *testing.T) {
	ctx := context.Background()
	service, mockUoW, mockMemberRepo, mockMarketRepo := createTestRatingService()

	detail := openMarketDetail(1, 10, 20)
	detail.Market.Decide(10)
	detail.Market.RatingsApplied = true

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockMarketRepo.On("GetDetailByIDForUpdate", ctx, int64(1)).Return(detail, nil)

	err := service.RecordResult(ctx, 1)
	require.NoError(t, err)

	// Second application changes nothing
	mockMemberRepo.AssertNotCalled(t, "UpdateRating", mock.Anything, mock.Anything, mock.Anything)
	mockUoW.AssertNotCalled(t, "Commit")
}

func TestRatingService_RecordResult_NotReady(t *testing.T) {
	ctx := context.Background()

	t.Run("no winner declared", func(t *testing.T) {
		service, mockUoW, _, mockMarketRepo := createTestRatingService()

		detail := openMarketDetail(1, 10, 20)

		mockUoW.On("Begin", ctx).Return(nil)
		mockUoW.On("Rollback").Return(nil)
		mockMarketRepo.On("GetDetailByIDForUpdate", ctx, int64(1)).Return(detail, nil)

		err := service.RecordResult(ctx, 1)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMarketNotReady))
	})

	t.Run("single competitor", func(t *testing.T) {
		service, mockUoW, _, mockMarketRepo := createTestRatingService()

		detail := openMarketDetail(1, 10)
		detail.Market.Decide(10)

		mockUoW.On("Begin", ctx).Return(nil)
		mockUoW.On("Rollback").Return(nil)
		mockMarketRepo.On("GetDetailByIDForUpdate", ctx, int64(1)).Return(detail, nil)

		err := service.RecordResult(ctx, 1)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMarketNotReady))
	})

	t.Run("market not found", func(t *testing.T) {
		service, mockUoW, _, mockMarketRepo := createTestRatingService()

		mockUoW.On("Begin", ctx).Return(nil)
		mockUoW.On("Rollback").Return(nil)
		mockMarketRepo.On("GetDetailByIDForUpdate", ctx, int64(99)).Return(nil, nil)

		err := service.RecordResult(ctx, 99)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNotFound))
	})
}

func TestRatingService_GetRating(t *testing.T) {
	ctx := context.Background()
	service, mockUoW, mockMemberRepo, _ := createTestRatingService()

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockMemberRepo.On("GetRating", ctx, int64(10)).Return(1337, nil)

	rating, err := service.GetRating(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1337, rating)
}

func TestExpectedScore(t *testing.T) {
	// Symmetric around equal ratings
	assert.InDelta(t, 0.5, expectedScore(1200, 1200), 1e-9)

	// A 400-point favorite wins 10 times out of 11
	assert.InDelta(t, 10.0/11.0, expectedScore(1600, 1200), 1e-9)
	assert.InDelta(t, 1.0/11.0, expectedScore(1200, 1600), 1e-9)

	// Complementary
	sum := expectedScore(1300, 1150) + expectedScore(1150, 1300)
	assert.InDelta(t, 1.0, sum, 1e-9)
}
