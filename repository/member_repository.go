package repository

import (
	"context"
	"fmt"

	"bookie/database"
	"bookie/models"

	"github.com/jackc/pgx/v5"
)

// MemberRepository implements the MemberRepository interface
type MemberRepository struct {
	q queryable
}

// NewMemberRepository creates a new member repository
func NewMemberRepository(db *database.DB) *MemberRepository {
	return &MemberRepository{q: db.Pool}
}

// newMemberRepositoryWithTx creates a new member repository with a transaction
func newMemberRepositoryWithTx(tx queryable) *MemberRepository {
	return &MemberRepository{q: tx}
}

// GetByID retrieves a member by ID
func (r *MemberRepository) GetByID(ctx context.Context, id int64) (*models.Member, error) {
	query := `
		SELECT id, display_name, rating, rating_updated_at, created_at
		FROM members
		WHERE id = $1
	`

	var member models.Member
	err := r.q.QueryRow(ctx, query, id).Scan(
		&member.ID,
		&member.DisplayName,
		&member.Rating,
		&member.RatingUpdatedAt,
		&member.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member %d: %w", id, err)
	}

	return &member, nil
}

// Create creates a new member with the default rating
func (r *MemberRepository) Create(ctx context.Context, displayName string) (*models.Member, error) {
	query := `
		INSERT INTO members (display_name)
		VALUES ($1)
		RETURNING id, display_name, rating, rating_updated_at, created_at
	`

	var member models.Member
	err := r.q.QueryRow(ctx, query, displayName).Scan(
		&member.ID,
		&member.DisplayName,
		&member.Rating,
		&member.RatingUpdatedAt,
		&member.CreatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to create member %q: %w", displayName, err)
	}

	return &member, nil
}

// GetRating returns the member's current rating, defaulting for unknown members
func (r *MemberRepository) GetRating(ctx context.Context, memberID int64) (int, error) {
	query := `
		SELECT rating
		FROM members
		WHERE id = $1
	`

	var rating int
	err := r.q.QueryRow(ctx, query, memberID).Scan(&rating)

	if err == pgx.ErrNoRows {
		return models.DefaultRating, nil
	}
	if err != nil {
		return models.DefaultRating, fmt.Errorf("failed to get rating for member %d: %w", memberID, err)
	}

	return rating, nil
}

// UpdateRating stores a member's new rating and stamps the update time
func (r *MemberRepository) UpdateRating(ctx context.Context, memberID int64, rating int) error {
	query := `
		UPDATE members
		SET rating = $1, rating_updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.q.Exec(ctx, query, rating, memberID)
	if err != nil {
		return fmt.Errorf("failed to update rating for member %d: %w", memberID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("member %d not found", memberID)
	}

	return nil
}
