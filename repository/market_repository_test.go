package repository

import (
	"context"
	"testing"

	"bookie/models"
	"bookie/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createMembers(t *testing.T, repo *MemberRepository, names ...string) []*models.Member {
	t.Helper()
	ctx := context.Background()
	members := make([]*models.Member, 0, len(names))
	for _, name := range names {
		member, err := repo.Create(ctx, name)
		require.NoError(t, err)
		members = append(members, member)
	}
	return members
}

func TestMarketRepository_CreateWithCompetitors(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	memberRepo := NewMemberRepository(testDB.DB)
	members := createMembers(t, memberRepo, "alice", "bob", "carol")

	marketRepo := NewMarketRepository(testDB.DB)

	market := testutil.CreateTestMarket("friday-night")
	competitors := []*models.MarketCompetitor{
		testutil.CreateTestCompetitor(0, members[0].ID),
		testutil.CreateTestCompetitor(0, members[1].ID),
		testutil.CreateTestCompetitor(0, members[2].ID),
	}

	err := marketRepo.CreateWithCompetitors(ctx, market, competitors)
	require.NoError(t, err)
	require.NotEqual(t, int64(0), market.ID)

	detail, err := marketRepo.GetDetailByID(ctx, market.ID)
	require.NoError(t, err)
	require.NotNil(t, detail)
	assert.Equal(t, "friday-night", detail.Market.GameNight)
	assert.Equal(t, models.MarketStateOpen, detail.Market.State)
	assert.False(t, detail.Market.RatingsApplied)
	assert.Len(t, detail.Competitors, 3)
	for _, c := range detail.Competitors {
		assert.Equal(t, market.ID, c.MarketID)
		assert.Nil(t, c.Team)
	}
}

func TestMarketRepository_CreateTeamMarket(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	memberRepo := NewMemberRepository(testDB.DB)
	members := createMembers(t, memberRepo, "alice", "bob", "carol", "dave")

	marketRepo := NewMarketRepository(testDB.DB)

	market := testutil.CreateTestTeamMarket("saturday-night")
	competitors := []*models.MarketCompetitor{
		testutil.CreateTestTeamCompetitor(0, members[0].ID, "red"),
		testutil.CreateTestTeamCompetitor(0, members[1].ID, "red"),
		testutil.CreateTestTeamCompetitor(0, members[2].ID, "blue"),
		testutil.CreateTestTeamCompetitor(0, members[3].ID, "blue"),
	}

	err := marketRepo.CreateWithCompetitors(ctx, market, competitors)
	require.NoError(t, err)

	detail, err := marketRepo.GetDetailByID(ctx, market.ID)
	require.NoError(t, err)
	require.NotNil(t, detail)
	assert.Equal(t, models.MarketKindTeam, detail.Market.Kind)

	teams := make(map[string]int)
	for _, c := range detail.Competitors {
		require.NotNil(t, c.Team)
		teams[*c.Team]++
	}
	assert.Equal(t, map[string]int{"red": 2, "blue": 2}, teams)
}

func TestMarketRepository_GetDetailByID_NotFound(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	marketRepo := NewMarketRepository(testDB.DB)

	detail, err := marketRepo.GetDetailByID(ctx, 999999)
	require.NoError(t, err)
	assert.Nil(t, detail)
}

func TestMarketRepository_Update(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	memberRepo := NewMemberRepository(testDB.DB)
	members := createMembers(t, memberRepo, "alice", "bob")

	marketRepo := NewMarketRepository(testDB.DB)

	market := testutil.CreateTestMarket("friday-night")
	competitors := []*models.MarketCompetitor{
		testutil.CreateTestCompetitor(0, members[0].ID),
		testutil.CreateTestCompetitor(0, members[1].ID),
	}
	require.NoError(t, marketRepo.CreateWithCompetitors(ctx, market, competitors))

	market.Decide(members[0].ID)
	market.RatingsApplied = true
	require.NoError(t, marketRepo.Update(ctx, market))

	saved, err := marketRepo.GetByID(ctx, market.ID)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, models.MarketStateDecided, saved.State)
	require.NotNil(t, saved.WinnerMemberID)
	assert.Equal(t, members[0].ID, *saved.WinnerMemberID)
	assert.True(t, saved.RatingsApplied)
	assert.Nil(t, saved.SettledAt)

	market.Settle()
	require.NoError(t, marketRepo.Update(ctx, market))

	saved, err = marketRepo.GetByID(ctx, market.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MarketStateSettled, saved.State)
	assert.NotNil(t, saved.SettledAt)
}

func TestMarketRepository_GetDecidedUnsettled(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	memberRepo := NewMemberRepository(testDB.DB)
	members := createMembers(t, memberRepo, "alice", "bob")

	marketRepo := NewMarketRepository(testDB.DB)

	open := testutil.CreateTestMarket("night-1")
	decided := testutil.CreateTestMarket("night-2")
	settled := testutil.CreateTestMarket("night-3")

	for _, m := range []*models.Market{open, decided, settled} {
		competitors := []*models.MarketCompetitor{
			testutil.CreateTestCompetitor(0, members[0].ID),
			testutil.CreateTestCompetitor(0, members[1].ID),
		}
		require.NoError(t, marketRepo.CreateWithCompetitors(ctx, m, competitors))
	}

	decided.Decide(members[0].ID)
	require.NoError(t, marketRepo.Update(ctx, decided))

	settled.Decide(members[1].ID)
	settled.Settle()
	require.NoError(t, marketRepo.Update(ctx, settled))

	pending, err := marketRepo.GetDecidedUnsettled(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, decided.ID, pending[0].ID)
}
