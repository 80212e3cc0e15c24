package repository

import (
	"context"
	"errors"
	"fmt"

	"bookie/database"
	"bookie/models"
	"bookie/service"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// BetRepository implements the BetRepository interface
type BetRepository struct {
	q queryable
}

// NewBetRepository creates a new bet repository
func NewBetRepository(db *database.DB) *BetRepository {
	return &BetRepository{q: db.Pool}
}

// newBetRepositoryWithTx creates a new bet repository with a transaction
func newBetRepositoryWithTx(tx queryable) *BetRepository {
	return &BetRepository{q: tx}
}

// uniqueViolation is the Postgres error code for a unique constraint breach
const uniqueViolation = "23505"

// Create creates a new unresolved bet. Losing the placement race to another
// transaction surfaces as ErrDuplicateBet, not a silent overwrite.
func (r *BetRepository) Create(ctx context.Context, bet *models.Bet) error {
	query := `
		INSERT INTO bets (market_id, bettor_id, pick_member_id, stake, locked_price)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		bet.MarketID,
		bet.BettorID,
		bet.PickMemberID,
		bet.Stake,
		bet.LockedPrice,
	).Scan(&bet.ID, &bet.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return service.ErrDuplicateBet
		}
		return fmt.Errorf("failed to create bet: %w", err)
	}

	return nil
}

const betColumns = `id, market_id, bettor_id, pick_member_id, stake, locked_price, resolved, payout, created_at, resolved_at`

func scanBet(row pgx.Row) (*models.Bet, error) {
	var bet models.Bet
	err := row.Scan(
		&bet.ID,
		&bet.MarketID,
		&bet.BettorID,
		&bet.PickMemberID,
		&bet.Stake,
		&bet.LockedPrice,
		&bet.Resolved,
		&bet.Payout,
		&bet.CreatedAt,
		&bet.ResolvedAt,
	)
	if err != nil {
		return nil, err
	}
	return &bet, nil
}

// GetByMarket returns all bets on a market
func (r *BetRepository) GetByMarket(ctx context.Context, marketID int64) ([]*models.Bet, error) {
	query := `SELECT ` + betColumns + ` FROM bets WHERE market_id = $1 ORDER BY created_at`

	rows, err := r.q.Query(ctx, query, marketID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bets for market %d: %w", marketID, err)
	}
	defer rows.Close()

	var bets []*models.Bet
	for rows.Next() {
		bet, err := scanBet(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bet: %w", err)
		}
		bets = append(bets, bet)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bets: %w", err)
	}

	return bets, nil
}

// GetByBettor returns a bettor's bet on a market, nil when none exists
func (r *BetRepository) GetByBettor(ctx context.Context, marketID, bettorID int64) (*models.Bet, error) {
	query := `SELECT ` + betColumns + ` FROM bets WHERE market_id = $1 AND bettor_id = $2`

	bet, err := scanBet(r.q.QueryRow(ctx, query, marketID, bettorID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bet for market %d bettor %d: %w", marketID, bettorID, err)
	}

	return bet, nil
}

// StakeTotalsByPick returns the total unresolved stake backing each
// competitor in a market
func (r *BetRepository) StakeTotalsByPick(ctx context.Context, marketID int64) (map[int64]int64, error) {
	query := `
		SELECT pick_member_id, SUM(stake)
		FROM bets
		WHERE market_id = $1 AND resolved = FALSE
		GROUP BY pick_member_id
	`

	rows, err := r.q.Query(ctx, query, marketID)
	if err != nil {
		return nil, fmt.Errorf("failed to get stake totals for market %d: %w", marketID, err)
	}
	defer rows.Close()

	totals := make(map[int64]int64)
	for rows.Next() {
		var pickMemberID, total int64
		if err := rows.Scan(&pickMemberID, &total); err != nil {
			return nil, fmt.Errorf("failed to scan stake total: %w", err)
		}
		totals[pickMemberID] = total
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stake totals: %w", err)
	}

	return totals, nil
}

// MarkResolved persists a bet's terminal state. A bet already resolved in
// storage is left untouched.
func (r *BetRepository) MarkResolved(ctx context.Context, bet *models.Bet) error {
	query := `
		UPDATE bets
		SET resolved = TRUE, payout = $1, resolved_at = $2
		WHERE id = $3 AND resolved = FALSE
	`

	result, err := r.q.Exec(ctx, query, bet.Payout, bet.ResolvedAt, bet.ID)
	if err != nil {
		return fmt.Errorf("failed to mark bet %d resolved: %w", bet.ID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("bet %d not found or already resolved", bet.ID)
	}

	return nil
}
