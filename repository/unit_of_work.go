package repository

import (
	"context"
	"fmt"

	"bookie/database"
	"bookie/events"
	"bookie/service"

	"github.com/jackc/pgx/v5"
)

// unitOfWork implements the UnitOfWork interface
type unitOfWork struct {
	db               *database.DB
	tx               pgx.Tx
	ctx              context.Context
	transactionalBus *events.TransactionalBus
	memberRepo       service.MemberRepository
	marketRepo       service.MarketRepository
	priceRepo        service.PriceRepository
	betRepo          service.BetRepository
	coinLedger       service.CoinLedger
}

type unitOfWorkFactory struct {
	db       *database.DB
	eventBus *events.Bus
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB, eventBus *events.Bus) service.UnitOfWorkFactory {
	return &unitOfWorkFactory{
		db:       db,
		eventBus: eventBus,
	}
}

func (f *unitOfWorkFactory) Create() service.UnitOfWork {
	return &unitOfWork{
		db:               f.db,
		transactionalBus: events.NewTransactionalBus(f.eventBus),
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	// Create repositories with the transaction
	u.memberRepo = newMemberRepositoryWithTx(tx)
	u.marketRepo = newMarketRepositoryWithTx(tx)
	u.priceRepo = newPriceRepositoryWithTx(tx)
	u.betRepo = newBetRepositoryWithTx(tx)
	u.coinLedger = newCoinLedgerRepositoryWithTx(tx)

	return nil
}

// Commit commits the transaction
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	if err := u.tx.Commit(u.ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil

	// Flush pending events after successful commit
	if u.transactionalBus != nil {
		u.transactionalBus.Flush(u.ctx)
	}

	return nil
}

// Rollback rolls back the transaction
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil // Nothing to rollback
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && err != pgx.ErrTxClosed {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil

	// Discard pending events on rollback
	if u.transactionalBus != nil {
		u.transactionalBus.Discard()
	}

	return nil
}

// MemberRepository returns the member repository for this unit of work
func (u *unitOfWork) MemberRepository() service.MemberRepository {
	if u.memberRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.memberRepo
}

// MarketRepository returns the market repository for this unit of work
func (u *unitOfWork) MarketRepository() service.MarketRepository {
	if u.marketRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.marketRepo
}

// PriceRepository returns the price repository for this unit of work
func (u *unitOfWork) PriceRepository() service.PriceRepository {
	if u.priceRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.priceRepo
}

// BetRepository returns the bet repository for this unit of work
func (u *unitOfWork) BetRepository() service.BetRepository {
	if u.betRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.betRepo
}

// CoinLedger returns the coin ledger for this unit of work
func (u *unitOfWork) CoinLedger() service.CoinLedger {
	if u.coinLedger == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.coinLedger
}

// EventBus returns the transactional event bus for this unit of work
func (u *unitOfWork) EventBus() service.EventPublisher {
	if u.transactionalBus == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.transactionalBus
}
