package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"bookie/events"
	"bookie/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitOfWork_CommitPersistsAndFlushesEvents(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	bus := events.NewBus()

	received := make(chan events.Event, 1)
	var wg sync.WaitGroup
	wg.Add(1)
	bus.Subscribe(events.EventTypeBetPlaced, func(ctx context.Context, e events.Event) {
		received <- e
		wg.Done()
	})

	factory := NewUnitOfWorkFactory(testDB.DB, bus)
	uow := factory.Create()
	require.NoError(t, uow.Begin(ctx))
	defer uow.Rollback()

	member, err := uow.MemberRepository().Create(ctx, "alice")
	require.NoError(t, err)

	uow.EventBus().Publish(events.BetPlacedEvent{
		BetID:    1,
		MarketID: 1,
		BettorID: member.ID,
	})

	// Nothing delivered before commit
	select {
	case <-received:
		t.Fatal("event delivered before commit")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, uow.Commit())
	wg.Wait()

	// Member visible outside the transaction after commit
	saved, err := NewMemberRepository(testDB.DB).GetByID(ctx, member.ID)
	require.NoError(t, err)
	assert.NotNil(t, saved)
}

func TestUnitOfWork_RollbackDiscardsWritesAndEvents(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	bus := events.NewBus()

	delivered := make(chan events.Event, 1)
	bus.Subscribe(events.EventTypeBetPlaced, func(ctx context.Context, e events.Event) {
		delivered <- e
	})

	factory := NewUnitOfWorkFactory(testDB.DB, bus)
	uow := factory.Create()
	require.NoError(t, uow.Begin(ctx))

	member, err := uow.MemberRepository().Create(ctx, "alice")
	require.NoError(t, err)

	uow.EventBus().Publish(events.BetPlacedEvent{BetID: 1, MarketID: 1, BettorID: member.ID})

	require.NoError(t, uow.Rollback())

	saved, err := NewMemberRepository(testDB.DB).GetByID(ctx, member.ID)
	require.NoError(t, err)
	assert.Nil(t, saved)

	select {
	case <-delivered:
		t.Fatal("discarded event was delivered")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestUnitOfWork_GetterPanicsBeforeBegin(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	factory := NewUnitOfWorkFactory(testDB.DB, events.NewBus())
	uow := factory.Create()

	assert.Panics(t, func() {
		uow.MemberRepository()
	})
}
