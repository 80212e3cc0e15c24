package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bookie/models"
	"bookie/service"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

const (
	commandPrefix  = "bookie.commands."
	commandTimeout = 30 * time.Second
)

// Command payloads. Every command is a JSON message on its own subject;
// replies carry either the requested data or an error string.

type createMarketCommand struct {
	GameNight   string `json:"game_night"`
	Kind        string `json:"kind"`
	Competitors []struct {
		MemberID int64  `json:"member_id"`
		Team     string `json:"team,omitempty"`
	} `json:"competitors"`
}

type declareWinnerCommand struct {
	MarketID       int64  `json:"market_id"`
	WinnerMemberID int64  `json:"winner_member_id,omitempty"`
	WinnerTeam     string `json:"winner_team,omitempty"`
}

type placeBetCommand struct {
	MarketID     int64 `json:"market_id"`
	BettorID     int64 `json:"bettor_id"`
	PickMemberID int64 `json:"pick_member_id"`
	Stake        int64 `json:"stake"`
}

type resolveMarketCommand struct {
	MarketID int64 `json:"market_id"`
}

type registerMemberCommand struct {
	DisplayName string `json:"display_name"`
}

type commandReply struct {
	OK    bool        `json:"ok"`
	Error string      `json:"error,omitempty"`
	Data  interface{} `json:"data,omitempty"`
}

// CommandConsumer exposes market administration and betting over NATS
// request subjects. It is the process's ingress: clients publish a command
// and receive a JSON reply on their reply inbox.
type CommandConsumer struct {
	nc      *nats.Conn
	members service.MemberService
	markets service.MarketService
	betting service.BettingService
	baseCtx context.Context
	subs    []*nats.Subscription
}

// NewCommandConsumer wraps an existing NATS connection
func NewCommandConsumer(nc *nats.Conn, members service.MemberService, markets service.MarketService, betting service.BettingService) *CommandConsumer {
	return &CommandConsumer{
		nc:      nc,
		members: members,
		markets: markets,
		betting: betting,
	}
}

// Start subscribes to every command subject. ctx bounds the consumer's
// lifetime; each incoming message gets its own request context derived
// from it.
func (c *CommandConsumer) Start(ctx context.Context) error {
	c.baseCtx = ctx

	handlers := map[string]nats.MsgHandler{
		"register_member": c.handleRegisterMember,
		"create_market":   c.handleCreateMarket,
		"declare_winner":  c.handleDeclareWinner,
		"place_bet":       c.handlePlaceBet,
		"resolve_market":  c.handleResolveMarket,
		"get_prices":      c.handleGetPrices,
	}

	for name, handler := range handlers {
		sub, err := c.nc.Subscribe(commandPrefix+name, handler)
		if err != nil {
			return fmt.Errorf("failed to subscribe to command %s: %w", name, err)
		}
		c.subs = append(c.subs, sub)
	}

	log.WithField("commands", len(handlers)).Info("Command consumer started")
	return nil
}

// Stop unsubscribes from all command subjects
func (c *CommandConsumer) Stop() {
	for _, sub := range c.subs {
		if err := sub.Unsubscribe(); err != nil {
			log.WithError(err).Warn("Failed to unsubscribe command handler")
		}
	}
	c.subs = nil
}

// requestContext derives a bounded per-message context. Cancelling the
// Start context aborts in-flight requests during shutdown.
func (c *CommandConsumer) requestContext() (context.Context, context.CancelFunc) {
	base := c.baseCtx
	if base == nil {
		base = context.Background()
	}
	return context.WithTimeout(base, commandTimeout)
}

func (c *CommandConsumer) handleRegisterMember(msg *nats.Msg) {
	ctx, cancel := c.requestContext()
	defer cancel()

	var cmd registerMemberCommand
	if err := json.Unmarshal(msg.Data, &cmd); err != nil {
		c.reply(msg, commandReply{Error: fmt.Sprintf("bad payload: %v", err)})
		return
	}

	member, err := c.members.RegisterMember(ctx, cmd.DisplayName)
	if err != nil {
		c.reply(msg, commandReply{Error: err.Error()})
		return
	}
	c.reply(msg, commandReply{OK: true, Data: map[string]interface{}{
		"member_id": member.ID,
		"rating":    member.Rating,
	}})
}

func (c *CommandConsumer) handleCreateMarket(msg *nats.Msg) {
	ctx, cancel := c.requestContext()
	defer cancel()

	var cmd createMarketCommand
	if err := json.Unmarshal(msg.Data, &cmd); err != nil {
		c.reply(msg, commandReply{Error: fmt.Sprintf("bad payload: %v", err)})
		return
	}

	entries := make([]service.CompetitorEntry, 0, len(cmd.Competitors))
	for _, comp := range cmd.Competitors {
		entries = append(entries, service.CompetitorEntry{MemberID: comp.MemberID, Team: comp.Team})
	}

	detail, err := c.markets.CreateMarket(ctx, cmd.GameNight, models.MarketKind(cmd.Kind), entries)
	if err != nil {
		c.reply(msg, commandReply{Error: err.Error()})
		return
	}
	c.reply(msg, commandReply{OK: true, Data: map[string]int64{"market_id": detail.Market.ID}})
}

func (c *CommandConsumer) handleDeclareWinner(msg *nats.Msg) {
	ctx, cancel := c.requestContext()
	defer cancel()

	var cmd declareWinnerCommand
	if err := json.Unmarshal(msg.Data, &cmd); err != nil {
		c.reply(msg, commandReply{Error: fmt.Sprintf("bad payload: %v", err)})
		return
	}

	var err error
	if cmd.WinnerTeam != "" {
		err = c.markets.DeclareWinningTeam(ctx, cmd.MarketID, cmd.WinnerTeam)
	} else {
		err = c.markets.DeclareWinner(ctx, cmd.MarketID, cmd.WinnerMemberID)
	}
	if err != nil {
		c.reply(msg, commandReply{Error: err.Error()})
		return
	}
	c.reply(msg, commandReply{OK: true})
}

func (c *CommandConsumer) handlePlaceBet(msg *nats.Msg) {
	ctx, cancel := c.requestContext()
	defer cancel()

	var cmd placeBetCommand
	if err := json.Unmarshal(msg.Data, &cmd); err != nil {
		c.reply(msg, commandReply{Error: fmt.Sprintf("bad payload: %v", err)})
		return
	}

	placement, err := c.betting.PlaceBet(ctx, cmd.MarketID, cmd.BettorID, cmd.PickMemberID, cmd.Stake)
	if err != nil {
		c.reply(msg, commandReply{Error: err.Error()})
		return
	}
	c.reply(msg, commandReply{OK: true, Data: map[string]int64{
		"bet_id":       placement.Bet.ID,
		"locked_price": placement.Bet.LockedPrice,
		"new_balance":  placement.NewBalance,
	}})
}

func (c *CommandConsumer) handleResolveMarket(msg *nats.Msg) {
	ctx, cancel := c.requestContext()
	defer cancel()

	var cmd resolveMarketCommand
	if err := json.Unmarshal(msg.Data, &cmd); err != nil {
		c.reply(msg, commandReply{Error: fmt.Sprintf("bad payload: %v", err)})
		return
	}

	result, settlement, err := c.betting.ResolveMarket(ctx, cmd.MarketID)
	if err != nil {
		c.reply(msg, commandReply{Error: err.Error()})
		return
	}

	data := map[string]interface{}{"result": result.String()}
	if settlement != nil {
		data["total_paid_out"] = settlement.TotalPaidOut
		data["payouts"] = settlement.Payouts
	}
	c.reply(msg, commandReply{OK: result == models.ResolveOK || result == models.ResolveAlreadySettled, Data: data})
}

func (c *CommandConsumer) handleGetPrices(msg *nats.Msg) {
	ctx, cancel := c.requestContext()
	defer cancel()

	var cmd resolveMarketCommand
	if err := json.Unmarshal(msg.Data, &cmd); err != nil {
		c.reply(msg, commandReply{Error: fmt.Sprintf("bad payload: %v", err)})
		return
	}

	prices, err := c.betting.GetPrices(ctx, cmd.MarketID)
	if err != nil {
		c.reply(msg, commandReply{Error: err.Error()})
		return
	}
	c.reply(msg, commandReply{OK: true, Data: prices})
}

func (c *CommandConsumer) reply(msg *nats.Msg, r commandReply) {
	if msg.Reply == "" {
		return
	}
	data, err := json.Marshal(r)
	if err != nil {
		log.WithError(err).Error("Failed to marshal command reply")
		return
	}
	if err := msg.Respond(data); err != nil {
		log.WithError(err).Error("Failed to send command reply")
	}
}
