package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bookie/events"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

const subjectPrefix = "bookie.events."

// eventEnvelope wraps every outgoing event so consumers can route and
// deduplicate without knowing the payload shape.
type eventEnvelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	Timestamp     time.Time       `json:"timestamp"`
	SourceService string          `json:"source_service"`
	Payload       json.RawMessage `json:"payload"`
}

// NATSNotifier forwards committed domain events to NATS subjects so other
// services can react to prices, bets, and settlements. Delivery is
// best-effort; a publish failure never affects the originating operation.
type NATSNotifier struct {
	nc *nats.Conn
}

// NewNATSNotifier connects to the NATS server
func NewNATSNotifier(url string) (*NATSNotifier, error) {
	opts := []nats.Option{
		nats.Name("bookie"),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				log.WithError(err).Error("NATS disconnected with error")
			} else {
				log.Warn("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected")
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	log.WithField("url", url).Info("Connected to NATS")
	return &NATSNotifier{nc: nc}, nil
}

// Attach subscribes the notifier to every event type on the bus
func (n *NATSNotifier) Attach(bus *events.Bus) {
	forward := func(ctx context.Context, e events.Event) {
		n.publish(e)
	}
	bus.Subscribe(events.EventTypeRatingsApplied, forward)
	bus.Subscribe(events.EventTypePricesPosted, forward)
	bus.Subscribe(events.EventTypeBetPlaced, forward)
	bus.Subscribe(events.EventTypeMarketSettled, forward)
}

func (n *NATSNotifier) publish(e events.Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		log.WithFields(log.Fields{
			"eventType": e.Type(),
			"error":     err,
		}).Error("Failed to marshal event payload")
		return
	}

	envelope := eventEnvelope{
		EventID:       uuid.New().String(),
		EventType:     string(e.Type()),
		Timestamp:     time.Now().UTC(),
		SourceService: "bookie",
		Payload:       payload,
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		log.WithError(err).Error("Failed to marshal event envelope")
		return
	}

	subject := subjectPrefix + string(e.Type())
	if err := n.nc.Publish(subject, data); err != nil {
		log.WithFields(log.Fields{
			"subject": subject,
			"eventId": envelope.EventID,
			"error":   err,
		}).Error("Failed to publish event to NATS")
		return
	}

	log.WithFields(log.Fields{
		"subject": subject,
		"eventId": envelope.EventID,
	}).Debug("Published event to NATS")
}

// Conn exposes the underlying connection for command subscribers that share it
func (n *NATSNotifier) Conn() *nats.Conn {
	return n.nc
}

// Close drains the connection
func (n *NATSNotifier) Close() {
	if n.nc != nil {
		n.nc.Close()
	}
}
