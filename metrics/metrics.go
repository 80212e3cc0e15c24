package metrics

import (
	"context"

	"bookie/events"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	BetsPlaced = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bookie_bets_placed_total",
		Help: "Bets accepted by the ledger",
	})

	StakeTaken = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bookie_stake_taken_total",
		Help: "Total coin stake debited for accepted bets",
	})

	MarketsSettled = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bookie_markets_settled_total",
		Help: "Markets moved to the settled state",
	})

	CoinsPaidOut = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bookie_coins_paid_out_total",
		Help: "Total coin payout credited at settlement",
	})

	RatingUpdates = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bookie_rating_updates_total",
		Help: "Member rating updates applied from market results",
	})
)

func init() {
	prometheus.MustRegister(BetsPlaced, StakeTaken, MarketsSettled, CoinsPaidOut, RatingUpdates)
}

// Attach subscribes the counters to the event bus so every service-level
// outcome is counted exactly where it is announced.
func Attach(bus *events.Bus) {
	bus.Subscribe(events.EventTypeBetPlaced, func(ctx context.Context, e events.Event) {
		placed, ok := e.(events.BetPlacedEvent)
		if !ok {
			return
		}
		BetsPlaced.Inc()
		StakeTaken.Add(float64(placed.Stake))
	})

	bus.Subscribe(events.EventTypeMarketSettled, func(ctx context.Context, e events.Event) {
		settled, ok := e.(events.MarketSettledEvent)
		if !ok {
			return
		}
		MarketsSettled.Inc()
		CoinsPaidOut.Add(float64(settled.TotalPaidOut))
	})

	bus.Subscribe(events.EventTypeRatingsApplied, func(ctx context.Context, e events.Event) {
		applied, ok := e.(events.RatingsAppliedEvent)
		if !ok {
			return
		}
		RatingUpdates.Add(float64(len(applied.NewRatings)))
	})
}
