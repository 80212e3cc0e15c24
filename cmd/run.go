package cmd

import (
	"context"
	"fmt"
	"time"

	"bookie/config"
	"bookie/database"
	"bookie/events"
	"bookie/metrics"
	"bookie/models"
	"bookie/notifier"
	"bookie/repository"
	"bookie/service"

	log "github.com/sirupsen/logrus"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Info("Starting bookie...")

	// Load configuration
	cfg := config.Get()

	// Initialize database connection
	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("Database connection established")

	// Initialize event bus
	eventBus := events.NewBus()

	// Initialize unit of work factory
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	// Initialize services
	memberService := service.NewMemberService(uowFactory, cfg.StartingBalance)
	ratingService := service.NewRatingService(uowFactory)
	oddsService := service.NewOddsService(uowFactory)
	bettingService := service.NewBettingService(uowFactory, oddsService)
	marketService := service.NewMarketService(uowFactory, ratingService)
	log.Info("Services initialized")

	// Metrics: counters feed off the event bus, server exposes them
	metrics.Attach(eventBus)
	metricsServer := metrics.StartServer(cfg.MetricsPort, func(ctx context.Context) error {
		return db.Ping(ctx)
	})
	log.WithField("port", cfg.MetricsPort).Info("Metrics server started")

	// Optional NATS ingress and fan-out: committed events go out on event
	// subjects, admin and betting commands come in on command subjects.
	var natsNotifier *notifier.NATSNotifier
	var commandConsumer *notifier.CommandConsumer
	if cfg.NATSURL != "" {
		natsNotifier, err = notifier.NewNATSNotifier(cfg.NATSURL)
		if err != nil {
			return fmt.Errorf("failed to initialize NATS notifier: %w", err)
		}
		natsNotifier.Attach(eventBus)

		commandConsumer = notifier.NewCommandConsumer(natsNotifier.Conn(), memberService, marketService, bettingService)
		if err := commandConsumer.Start(ctx); err != nil {
			return fmt.Errorf("failed to start command consumer: %w", err)
		}
	}

	// Optional Discord announcements
	var discordNotifier *notifier.DiscordNotifier
	if cfg.DiscordToken != "" && cfg.DiscordChannelID != "" {
		discordNotifier, err = notifier.NewDiscordNotifier(cfg.DiscordToken, cfg.DiscordChannelID)
		if err != nil {
			return fmt.Errorf("failed to initialize Discord notifier: %w", err)
		}
		discordNotifier.Attach(eventBus)
	}

	// Settlement sweep picks up decided markets whose resolution was missed
	// or interrupted; resolution is idempotent so overlap with direct calls
	// is harmless.
	go runSettlementSweep(ctx, db, bettingService, time.Duration(cfg.SettleSweepSeconds)*time.Second)

	// Wait for context cancellation
	log.WithField("environment", cfg.Environment).Info("Bookie is running")
	<-ctx.Done()

	log.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if discordNotifier != nil {
		if err := discordNotifier.Close(); err != nil {
			log.WithError(err).Error("Error closing Discord notifier")
		}
	}
	if commandConsumer != nil {
		commandConsumer.Stop()
	}
	if natsNotifier != nil {
		natsNotifier.Close()
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Error shutting down metrics server")
	}

	db.Close()
	log.Info("Shutdown completed")

	return nil
}

// runSettlementSweep periodically resolves any market with a declared winner
// that has not yet been settled.
func runSettlementSweep(ctx context.Context, db *database.DB, betting service.BettingService, interval time.Duration) {
	marketRepo := repository.NewMarketRepository(db)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		pending, err := marketRepo.GetDecidedUnsettled(ctx)
		if err != nil {
			log.WithError(err).Error("Settlement sweep failed to list decided markets")
			continue
		}

		for _, market := range pending {
			result, _, err := betting.ResolveMarket(ctx, market.ID)
			if err != nil {
				log.WithFields(log.Fields{
					"marketID": market.ID,
					"error":    err,
				}).Error("Settlement sweep failed to resolve market")
				continue
			}
			if result == models.ResolveOK {
				log.WithField("marketID", market.ID).Info("Settlement sweep resolved market")
			}
		}
	}
}
