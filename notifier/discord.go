package notifier

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"bookie/events"
	"bookie/models"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// DiscordNotifier announces market activity to a configured channel. It is
// display-only: it reads committed events and never feeds anything back into
// the engine.
type DiscordNotifier struct {
	session   *discordgo.Session
	channelID string
}

// NewDiscordNotifier opens a Discord session for announcements
func NewDiscordNotifier(token, channelID string) (*DiscordNotifier, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	if err := session.Open(); err != nil {
		return nil, fmt.Errorf("failed to open Discord connection: %w", err)
	}

	log.Info("Discord announcement session opened")
	return &DiscordNotifier{
		session:   session,
		channelID: channelID,
	}, nil
}

// Attach subscribes the notifier to price and settlement events
func (d *DiscordNotifier) Attach(bus *events.Bus) {
	bus.Subscribe(events.EventTypePricesPosted, func(ctx context.Context, e events.Event) {
		posted, ok := e.(events.PricesPostedEvent)
		if !ok {
			return
		}
		d.send(formatPricesPosted(posted))
	})

	bus.Subscribe(events.EventTypeMarketSettled, func(ctx context.Context, e events.Event) {
		settled, ok := e.(events.MarketSettledEvent)
		if !ok {
			return
		}
		d.send(formatMarketSettled(settled))
	})
}

func (d *DiscordNotifier) send(message string) {
	if _, err := d.session.ChannelMessageSend(d.channelID, message); err != nil {
		log.WithFields(log.Fields{
			"channelID": d.channelID,
			"error":     err,
		}).Error("Failed to send Discord announcement")
	}
}

func formatPricesPosted(e events.PricesPostedEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Odds are up for market %d**\n", e.MarketID)

	ids := make([]int64, 0, len(e.Prices))
	for id := range e.Prices {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		fmt.Fprintf(&b, "<@%d> pays %s\n", id, models.FormatScaledPrice(e.Prices[id]))
	}
	return b.String()
}

func formatMarketSettled(e events.MarketSettledEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Market %d settled**, %d coins paid out\n", e.MarketID, e.TotalPaidOut)

	ids := make([]int64, 0, len(e.Payouts))
	for id := range e.Payouts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		payout := e.Payouts[id]
		if payout > 0 {
			fmt.Fprintf(&b, "<@%d> collects %d coins\n", id, payout)
		}
	}
	return b.String()
}

// Close shuts down the Discord session
func (d *DiscordNotifier) Close() error {
	return d.session.Close()
}
