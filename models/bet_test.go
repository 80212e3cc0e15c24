package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBet_CalculatePayout(t *testing.T) {
	cases := []struct {
		stake  int64
		price  int64
		payout int64
	}{
		{10, 200, 20},
		{50, 500, 250},
		{33, 250, 82},  // 82.5 floors to 82
		{1, 105, 1},    // 1.05 floors to 1
		{1, 199, 1},    // 1.99 floors to 1
		{100, 105, 105},
		{7, 333, 23}, // 23.31 floors to 23
	}

	for _, tc := range cases {
		bet := &Bet{Stake: tc.stake, LockedPrice: tc.price}
		assert.Equal(t, tc.payout, bet.CalculatePayout(), "stake %d at %d", tc.stake, tc.price)
	}
}

func TestBet_ResolveIsOneWay(t *testing.T) {
	bet := &Bet{Stake: 10, LockedPrice: 200}

	first := time.Now()
	bet.Resolve(true, first)
	assert.True(t, bet.Resolved)
	assert.Equal(t, int64(20), bet.Payout)

	// A second resolve, even with a different outcome, changes nothing
	bet.Resolve(false, first.Add(time.Hour))
	assert.Equal(t, int64(20), bet.Payout)
	assert.Equal(t, first, *bet.ResolvedAt)
}

func TestBet_ResolveLost(t *testing.T) {
	bet := &Bet{Stake: 10, LockedPrice: 200}
	bet.Resolve(false, time.Now())
	assert.True(t, bet.Resolved)
	assert.Equal(t, int64(0), bet.Payout)
}

func TestClampScaledPrice(t *testing.T) {
	assert.Equal(t, MinScaledPrice, ClampScaledPrice(1))
	assert.Equal(t, MinScaledPrice, ClampScaledPrice(104))
	assert.Equal(t, int64(105), ClampScaledPrice(105))
	assert.Equal(t, int64(777), ClampScaledPrice(777))
	assert.Equal(t, int64(2000), ClampScaledPrice(2000))
	assert.Equal(t, MaxScaledPrice, ClampScaledPrice(90000))
}

func TestFormatScaledPrice(t *testing.T) {
	assert.Equal(t, "2.50x", FormatScaledPrice(250))
	assert.Equal(t, "1.05x", FormatScaledPrice(105))
	assert.Equal(t, "20.00x", FormatScaledPrice(2000))
	assert.Equal(t, "1.87x", FormatScaledPrice(187))
}

func TestMarket_StateTransitions(t *testing.T) {
	m := &Market{Kind: MarketKindIndividual, State: MarketStateOpen}
	assert.True(t, m.IsOpen())
	assert.False(t, m.HasWinner())

	m.Decide(10)
	assert.False(t, m.IsOpen())
	assert.True(t, m.HasWinner())
	assert.Equal(t, int64(10), *m.WinnerMemberID)

	// Deciding again does not overwrite the winner
	m.Decide(20)
	assert.Equal(t, int64(10), *m.WinnerMemberID)

	m.Settle()
	assert.True(t, m.IsSettled())
	assert.NotNil(t, m.SettledAt)
}

func TestMarket_SettleRequiresDecided(t *testing.T) {
	m := &Market{Kind: MarketKindIndividual, State: MarketStateOpen}
	m.Settle()
	assert.False(t, m.IsSettled())
	assert.Nil(t, m.SettledAt)
}
