package events

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeRatingsApplied EventType = "ratings_applied"
	EventTypePricesPosted   EventType = "prices_posted"
	EventTypeBetPlaced      EventType = "bet_placed"
	EventTypeMarketSettled  EventType = "market_settled"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// RatingsAppliedEvent is emitted after a market's result has been folded
// into the competitors' skill ratings
type RatingsAppliedEvent struct {
	MarketID   int64
	NewRatings map[int64]int // member ID -> rating after update
}

func (e RatingsAppliedEvent) Type() EventType {
	return EventTypeRatingsApplied
}

// PricesPostedEvent is emitted when a market's initial prices go up
type PricesPostedEvent struct {
	MarketID int64
	Prices   map[int64]int64 // competitor ID -> scaled price
}

func (e PricesPostedEvent) Type() EventType {
	return EventTypePricesPosted
}

// BetPlacedEvent is emitted when a bet has been accepted and the market re-priced
type BetPlacedEvent struct {
	BetID        int64
	MarketID     int64
	BettorID     int64
	PickMemberID int64
	Stake        int64
	LockedPrice  int64
}

func (e BetPlacedEvent) Type() EventType {
	return EventTypeBetPlaced
}

// MarketSettledEvent is emitted after a market has been resolved and all
// payouts applied. Subscribers use it to refresh bettor-facing views;
// delivery is best-effort and independent of the settlement itself.
type MarketSettledEvent struct {
	MarketID     int64
	TotalPaidOut int64
	Payouts      map[int64]int64 // bettor ID -> payout
}

func (e MarketSettledEvent) Type() EventType {
	return EventTypeMarketSettled
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	// Call handlers asynchronously to avoid blocking
	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// TransactionalBus holds pending events coupled to a unit of work and
// flushes them to the underlying bus only after a successful commit.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Flush emits all pending events. Called after successful DB commit.
func (b *TransactionalBus) Flush(ctx context.Context) error {
	log.WithFields(log.Fields{
		"pendingEventCount": len(b.pending),
	}).Debug("Flushing pending events to main event bus")

	// Events outlive the transaction context that produced them
	eventCtx := context.Background()

	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
	return nil
}

// Discard drops pending events. Called after rollback.
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
