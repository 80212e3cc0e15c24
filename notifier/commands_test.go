package notifier

import (
	"context"
	"testing"
	"time"

	"bookie/models"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureBettingService records the context each call arrives with
type captureBettingService struct {
	ctx context.Context
}

func (s *captureBettingService) PlaceBet(ctx context.Context, marketID, bettorID, pickMemberID, stake int64) (*models.BetPlacement, error) {
	s.ctx = ctx
	return &models.BetPlacement{Bet: &models.Bet{}}, nil
}

func (s *captureBettingService) ResolveMarket(ctx context.Context, marketID int64) (models.ResolveResult, *models.MarketSettlement, error) {
	s.ctx = ctx
	return models.ResolveOK, nil, nil
}

func (s *captureBettingService) GetPrices(ctx context.Context, marketID int64) (map[int64]int64, error) {
	s.ctx = ctx
	return map[int64]int64{}, nil
}

func (s *captureBettingService) GetBetsByMarket(ctx context.Context, marketID int64) ([]*models.Bet, error) {
	s.ctx = ctx
	return nil, nil
}

func (s *captureBettingService) GetBet(ctx context.Context, marketID, bettorID int64) (*models.Bet, error) {
	s.ctx = ctx
	return nil, nil
}

func TestCommandConsumerRequestContext(t *testing.T) {
	t.Run("each message gets its own bounded context", func(t *testing.T) {
		betting := &captureBettingService{}
		consumer := NewCommandConsumer(nil, nil, nil, betting)

		base, cancelBase := context.WithCancel(context.Background())
		defer cancelBase()
		consumer.baseCtx = base

		consumer.handleGetPrices(&nats.Msg{Data: []byte(`{"market_id":1}`)})

		require.NotNil(t, betting.ctx)
		deadline, ok := betting.ctx.Deadline()
		assert.True(t, ok, "request context carries a deadline")
		assert.True(t, deadline.After(time.Now().Add(-time.Second)))

		// The handler released its request context on return; the
		// consumer's lifetime context is untouched
		assert.Error(t, betting.ctx.Err())
		assert.NoError(t, base.Err())
	})

	t.Run("request context follows the consumer lifetime", func(t *testing.T) {
		betting := &captureBettingService{}
		consumer := NewCommandConsumer(nil, nil, nil, betting)

		base, cancelBase := context.WithCancel(context.Background())
		cancelBase()
		consumer.baseCtx = base

		consumer.handleGetPrices(&nats.Msg{Data: []byte(`{"market_id":1}`)})

		require.NotNil(t, betting.ctx)
		assert.ErrorIs(t, betting.ctx.Err(), context.Canceled)
	})
}
