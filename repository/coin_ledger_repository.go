package repository

import (
	"context"
	"fmt"

	"bookie/database"

	"github.com/jackc/pgx/v5"
)

// CoinLedgerRepository implements the CoinLedger collaborator contract over
// the coin_accounts table. Debits are conditional single-statement updates,
// so they either apply in full or refuse without partial effect.
type CoinLedgerRepository struct {
	q queryable
}

// NewCoinLedgerRepository creates a new coin ledger repository
func NewCoinLedgerRepository(db *database.DB) *CoinLedgerRepository {
	return &CoinLedgerRepository{q: db.Pool}
}

// newCoinLedgerRepositoryWithTx creates a new coin ledger repository with a transaction
func newCoinLedgerRepositoryWithTx(tx queryable) *CoinLedgerRepository {
	return &CoinLedgerRepository{q: tx}
}

// TryDebit atomically deducts amount if the balance covers it
func (r *CoinLedgerRepository) TryDebit(ctx context.Context, memberID, amount int64) (bool, error) {
	if amount <= 0 {
		return false, fmt.Errorf("amount must be positive")
	}

	query := `
		UPDATE coin_accounts
		SET balance = balance - $1, updated_at = NOW()
		WHERE member_id = $2 AND balance >= $1
	`

	result, err := r.q.Exec(ctx, query, amount, memberID)
	if err != nil {
		return false, fmt.Errorf("failed to debit member %d: %w", memberID, err)
	}

	return result.RowsAffected() > 0, nil
}

// Credit adds amount to the member's balance, creating the account row if
// it does not exist yet. A zero credit is a no-op.
func (r *CoinLedgerRepository) Credit(ctx context.Context, memberID, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("amount must not be negative")
	}
	if amount == 0 {
		return nil
	}

	query := `
		INSERT INTO coin_accounts (member_id, balance)
		VALUES ($1, $2)
		ON CONFLICT (member_id)
		DO UPDATE SET balance = coin_accounts.balance + EXCLUDED.balance, updated_at = NOW()
	`

	if _, err := r.q.Exec(ctx, query, memberID, amount); err != nil {
		return fmt.Errorf("failed to credit member %d: %w", memberID, err)
	}

	return nil
}

// GetBalance returns the member's current spendable balance; a member with
// no account row has a zero balance
func (r *CoinLedgerRepository) GetBalance(ctx context.Context, memberID int64) (int64, error) {
	query := `
		SELECT balance
		FROM coin_accounts
		WHERE member_id = $1
	`

	var balance int64
	err := r.q.QueryRow(ctx, query, memberID).Scan(&balance)

	if err == pgx.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get balance for member %d: %w", memberID, err)
	}

	return balance, nil
}
