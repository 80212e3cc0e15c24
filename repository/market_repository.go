package repository

import (
	"context"
	"fmt"

	"bookie/database"
	"bookie/models"

	"github.com/jackc/pgx/v5"
)

// MarketRepository implements the MarketRepository interface
type MarketRepository struct {
	q queryable
}

// NewMarketRepository creates a new market repository
func NewMarketRepository(db *database.DB) *MarketRepository {
	return &MarketRepository{q: db.Pool}
}

// newMarketRepositoryWithTx creates a new market repository with a transaction
func newMarketRepositoryWithTx(tx queryable) *MarketRepository {
	return &MarketRepository{q: tx}
}

// CreateWithCompetitors creates a market and its competitor slate atomically
func (r *MarketRepository) CreateWithCompetitors(ctx context.Context, market *models.Market, competitors []*models.MarketCompetitor) error {
	query := `
		INSERT INTO markets (game_night, kind, state)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		market.GameNight,
		market.Kind,
		market.State,
	).Scan(&market.ID, &market.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create market: %w", err)
	}

	if len(competitors) > 0 {
		competitorQuery := `
			INSERT INTO market_competitors (market_id, member_id, team)
			VALUES
		`

		var args []interface{}
		for i, competitor := range competitors {
			if i > 0 {
				competitorQuery += ","
			}
			paramIndex := i * 3
			competitorQuery += fmt.Sprintf(" ($%d, $%d, $%d)",
				paramIndex+1, paramIndex+2, paramIndex+3)

			args = append(args,
				market.ID,
				competitor.MemberID,
				competitor.Team,
			)
		}

		competitorQuery += " RETURNING created_at"

		rows, err := r.q.Query(ctx, competitorQuery, args...)
		if err != nil {
			return fmt.Errorf("failed to create market competitors: %w", err)
		}
		defer rows.Close()

		i := 0
		for rows.Next() {
			if i >= len(competitors) {
				return fmt.Errorf("unexpected number of rows returned")
			}
			if err := rows.Scan(&competitors[i].CreatedAt); err != nil {
				return fmt.Errorf("failed to scan competitor: %w", err)
			}
			competitors[i].MarketID = market.ID
			i++
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("failed to iterate competitors: %w", err)
		}
	}

	return nil
}

const marketColumns = `id, game_night, kind, state, winner_member_id, winner_team, ratings_applied, created_at, settled_at`

func scanMarket(row pgx.Row) (*models.Market, error) {
	var market models.Market
	err := row.Scan(
		&market.ID,
		&market.GameNight,
		&market.Kind,
		&market.State,
		&market.WinnerMemberID,
		&market.WinnerTeam,
		&market.RatingsApplied,
		&market.CreatedAt,
		&market.SettledAt,
	)
	if err != nil {
		return nil, err
	}
	return &market, nil
}

// GetByID retrieves a market by ID
func (r *MarketRepository) GetByID(ctx context.Context, id int64) (*models.Market, error) {
	query := `SELECT ` + marketColumns + ` FROM markets WHERE id = $1`

	market, err := scanMarket(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get market %d: %w", id, err)
	}

	return market, nil
}

// GetDetailByID retrieves a market with its competitor slate
func (r *MarketRepository) GetDetailByID(ctx context.Context, id int64) (*models.MarketDetail, error) {
	return r.getDetail(ctx, id, false)
}

// GetDetailByIDForUpdate retrieves a market detail with the market row
// locked until the transaction ends
func (r *MarketRepository) GetDetailByIDForUpdate(ctx context.Context, id int64) (*models.MarketDetail, error) {
	return r.getDetail(ctx, id, true)
}

func (r *MarketRepository) getDetail(ctx context.Context, id int64, forUpdate bool) (*models.MarketDetail, error) {
	query := `SELECT ` + marketColumns + ` FROM markets WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	market, err := scanMarket(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get market %d: %w", id, err)
	}

	competitorQuery := `
		SELECT market_id, member_id, team, created_at
		FROM market_competitors
		WHERE market_id = $1
		ORDER BY member_id
	`

	rows, err := r.q.Query(ctx, competitorQuery, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get competitors for market %d: %w", id, err)
	}
	defer rows.Close()

	var competitors []*models.MarketCompetitor
	for rows.Next() {
		var competitor models.MarketCompetitor
		err := rows.Scan(
			&competitor.MarketID,
			&competitor.MemberID,
			&competitor.Team,
			&competitor.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan competitor: %w", err)
		}
		competitors = append(competitors, &competitor)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate competitors: %w", err)
	}

	return &models.MarketDetail{Market: market, Competitors: competitors}, nil
}

// Update updates a market's state and related fields
func (r *MarketRepository) Update(ctx context.Context, market *models.Market) error {
	query := `
		UPDATE markets
		SET state = $1, winner_member_id = $2, winner_team = $3, ratings_applied = $4, settled_at = $5
		WHERE id = $6
	`

	result, err := r.q.Exec(ctx, query,
		market.State,
		market.WinnerMemberID,
		market.WinnerTeam,
		market.RatingsApplied,
		market.SettledAt,
		market.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update market %d: %w", market.ID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("market %d not found", market.ID)
	}

	return nil
}

// GetDecidedUnsettled returns markets with a declared winner that have not
// yet been settled
func (r *MarketRepository) GetDecidedUnsettled(ctx context.Context) ([]*models.Market, error) {
	query := `SELECT ` + marketColumns + ` FROM markets WHERE state = 'decided' ORDER BY created_at`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get decided markets: %w", err)
	}
	defer rows.Close()

	var markets []*models.Market
	for rows.Next() {
		market, err := scanMarket(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan market: %w", err)
		}
		markets = append(markets, market)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate markets: %w", err)
	}

	return markets, nil
}
