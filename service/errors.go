package service

import (
	"errors"
	"fmt"
)

// Typed failure kinds callers are expected to branch on with errors.Is.
// Validation and precondition failures leave all state untouched; anything
// else propagating out of a service call is a storage fault and the whole
// operation may be retried.
var (
	// ErrValidation covers bad input: non-positive stake, unknown
	// competitor, a pick outside the market's slate
	ErrValidation = errors.New("validation failed")

	// ErrInsufficientFunds means the coin ledger refused the debit
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrMarketNotReady means the market is in the wrong state for the
	// requested operation (no competitors to price, no winner to apply,
	// closed to new bets)
	ErrMarketNotReady = errors.New("market not ready")

	// ErrNotFound means an unknown market, member, or bettor reference
	ErrNotFound = errors.New("not found")
)

// ErrDuplicateBet rejects a second simultaneous position by the same bettor
// on the same market. It is a kind of validation failure.
var ErrDuplicateBet = fmt.Errorf("%w: bettor already holds a bet on this market", ErrValidation)
