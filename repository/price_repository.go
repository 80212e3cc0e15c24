package repository

import (
	"context"
	"fmt"

	"bookie/database"
	"bookie/models"
)

// PriceRepository implements the PriceRepository interface
type PriceRepository struct {
	q queryable
}

// NewPriceRepository creates a new price repository
func NewPriceRepository(db *database.DB) *PriceRepository {
	return &PriceRepository{q: db.Pool}
}

// newPriceRepositoryWithTx creates a new price repository with a transaction
func newPriceRepositoryWithTx(tx queryable) *PriceRepository {
	return &PriceRepository{q: tx}
}

// Upsert writes a price row, replacing the existing value for the same
// (market, competitor) pair. The uniqueness constraint keeps the book at
// one row per competitor.
func (r *PriceRepository) Upsert(ctx context.Context, price *models.Price) error {
	query := `
		INSERT INTO prices (market_id, competitor_id, scaled_price)
		VALUES ($1, $2, $3)
		ON CONFLICT (market_id, competitor_id)
		DO UPDATE SET scaled_price = EXCLUDED.scaled_price, updated_at = NOW()
		RETURNING updated_at
	`

	err := r.q.QueryRow(ctx, query,
		price.MarketID,
		price.CompetitorID,
		price.ScaledPrice,
	).Scan(&price.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert price for market %d competitor %d: %w",
			price.MarketID, price.CompetitorID, err)
	}

	return nil
}

// GetByMarket returns all price rows for a market
func (r *PriceRepository) GetByMarket(ctx context.Context, marketID int64) ([]*models.Price, error) {
	query := `
		SELECT market_id, competitor_id, scaled_price, updated_at
		FROM prices
		WHERE market_id = $1
		ORDER BY competitor_id
	`

	rows, err := r.q.Query(ctx, query, marketID)
	if err != nil {
		return nil, fmt.Errorf("failed to get prices for market %d: %w", marketID, err)
	}
	defer rows.Close()

	var prices []*models.Price
	for rows.Next() {
		var price models.Price
		err := rows.Scan(
			&price.MarketID,
			&price.CompetitorID,
			&price.ScaledPrice,
			&price.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan price: %w", err)
		}
		prices = append(prices, &price)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate prices: %w", err)
	}

	return prices, nil
}

// UpdateScaledPrice updates the value of an existing price row. It never
// inserts; re-pricing a competitor that was never priced is a bug.
func (r *PriceRepository) UpdateScaledPrice(ctx context.Context, marketID, competitorID, scaledPrice int64) error {
	query := `
		UPDATE prices
		SET scaled_price = $1, updated_at = NOW()
		WHERE market_id = $2 AND competitor_id = $3
	`

	result, err := r.q.Exec(ctx, query, scaledPrice, marketID, competitorID)
	if err != nil {
		return fmt.Errorf("failed to update price for market %d competitor %d: %w",
			marketID, competitorID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("no price row for market %d competitor %d", marketID, competitorID)
	}

	return nil
}
