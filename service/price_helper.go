package service

import (
	"context"
	"fmt"
	"math"

	"bookie/events"
	"bookie/models"
)

// Pricing parameters. The overround is the multiplicative house margin
// applied to every implied probability so that the book sums above 100%.
const (
	houseOverround  = 1.07
	rebalanceFactor = 0.5
)

// impliedProbabilities derives each competitor's win probability from the
// slate's ratings. Individual markets weight each member by 10^(r/400);
// team markets pool member weights per team and every member carries the
// team's probability.
func impliedProbabilities(detail *models.MarketDetail, ratings map[int64]int) map[int64]float64 {
	weights := make(map[int64]float64, len(detail.Competitors))
	for _, c := range detail.Competitors {
		weights[c.MemberID] = math.Pow(10, float64(ratings[c.MemberID])/eloDivisor)
	}

	probs := make(map[int64]float64, len(detail.Competitors))
	if detail.Market.Kind == models.MarketKindTeam {
		teamWeight := make(map[string]float64)
		var total float64
		for _, c := range detail.Competitors {
			if c.Team == nil {
				continue
			}
			teamWeight[*c.Team] += weights[c.MemberID]
			total += weights[c.MemberID]
		}
		for _, c := range detail.Competitors {
			if c.Team == nil || total == 0 {
				continue
			}
			probs[c.MemberID] = teamWeight[*c.Team] / total
		}
		return probs
	}

	var total float64
	for _, w := range weights {
		total += w
	}
	for memberID, w := range weights {
		probs[memberID] = w / total
	}
	return probs
}

// baseScaledPrices converts implied probabilities to opening prices:
// price = 100 / (p * overround), rounded and clamped.
func baseScaledPrices(detail *models.MarketDetail, ratings map[int64]int) map[int64]int64 {
	probs := impliedProbabilities(detail, ratings)
	prices := make(map[int64]int64, len(probs))
	for memberID, p := range probs {
		if p <= 0 {
			prices[memberID] = models.MaxScaledPrice
			continue
		}
		prices[memberID] = models.ClampScaledPrice(int64(math.Round(100 / (p * houseOverround))))
	}
	return prices
}

// PostMarketPrices derives opening prices for the market's slate from
// current ratings and writes one row per competitor, all within the
// caller's transaction. Returns competitor ID -> scaled price.
func PostMarketPrices(ctx context.Context, uow UnitOfWork, detail *models.MarketDetail) (map[int64]int64, error) {
	marketID := detail.Market.ID

	ratings := make(map[int64]int, len(detail.Competitors))
	for _, c := range detail.Competitors {
		rating, err := uow.MemberRepository().GetRating(ctx, c.MemberID)
		if err != nil {
			return nil, fmt.Errorf("failed to get rating for member %d: %w", c.MemberID, err)
		}
		ratings[c.MemberID] = rating
	}

	prices := baseScaledPrices(detail, ratings)
	for competitorID, scaled := range prices {
		price := &models.Price{
			MarketID:     marketID,
			CompetitorID: competitorID,
			ScaledPrice:  scaled,
		}
		if err := uow.PriceRepository().Upsert(ctx, price); err != nil {
			return nil, fmt.Errorf("failed to write price for competitor %d: %w", competitorID, err)
		}
	}

	uow.EventBus().Publish(events.PricesPostedEvent{
		MarketID: marketID,
		Prices:   prices,
	})

	return prices, nil
}

// RebalanceMarketPrices re-derives every posted price for the market from
// current ratings and the current stake distribution, shortening
// heavily-backed competitors and lengthening unbacked ones. It is a pure
// function of stored state, so redundant calls settle on the same prices.
// It only updates existing rows; it never inserts or deletes.
func RebalanceMarketPrices(ctx context.Context, uow UnitOfWork, marketID int64) error {
	posted, err := uow.PriceRepository().GetByMarket(ctx, marketID)
	if err != nil {
		return fmt.Errorf("failed to get prices: %w", err)
	}
	if len(posted) == 0 {
		return nil
	}

	totals, err := uow.BetRepository().StakeTotalsByPick(ctx, marketID)
	if err != nil {
		return fmt.Errorf("failed to get stake totals: %w", err)
	}
	var handle int64
	for _, stake := range totals {
		handle += stake
	}
	if handle == 0 {
		return nil
	}

	detail, err := uow.MarketRepository().GetDetailByID(ctx, marketID)
	if err != nil {
		return fmt.Errorf("failed to get market detail: %w", err)
	}
	if detail == nil {
		return fmt.Errorf("%w: market %d", ErrNotFound, marketID)
	}

	ratings := make(map[int64]int, len(detail.Competitors))
	for _, c := range detail.Competitors {
		rating, err := uow.MemberRepository().GetRating(ctx, c.MemberID)
		if err != nil {
			return fmt.Errorf("failed to get rating for member %d: %w", c.MemberID, err)
		}
		ratings[c.MemberID] = rating
	}
	base := baseScaledPrices(detail, ratings)

	fairShare := 1.0 / float64(len(posted))
	for _, price := range posted {
		share := float64(totals[price.CompetitorID]) / float64(handle)
		skew := share - fairShare
		adjusted := float64(base[price.CompetitorID]) * (1 - rebalanceFactor*skew)
		newPrice := models.ClampScaledPrice(int64(math.Round(adjusted)))
		if newPrice == price.ScaledPrice {
			continue
		}
		if err := uow.PriceRepository().UpdateScaledPrice(ctx, marketID, price.CompetitorID, newPrice); err != nil {
			return fmt.Errorf("failed to update price for competitor %d: %w", price.CompetitorID, err)
		}
	}

	return nil
}
