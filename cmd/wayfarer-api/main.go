// README: Entry point; loads config, wires stores, provider, assistant and push hub, then serves HTTP until signalled.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"wayfarer/internal/ai"
	"wayfarer/internal/config"
	httptransport "wayfarer/internal/http"
	"wayfarer/internal/http/handlers"
	"wayfarer/internal/infra"
	"wayfarer/internal/maps"
	"wayfarer/internal/modules/aiusage"
	"wayfarer/internal/modules/booking"
	"wayfarer/internal/modules/conversation"
	"wayfarer/internal/modules/format"
	"wayfarer/internal/modules/intent"
	"wayfarer/internal/modules/location"
	"wayfarer/internal/modules/provider"
	"wayfarer/internal/realtime"
	"wayfarer/internal/service/assistant"
	"wayfarer/internal/service/turns"
	"wayfarer/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.ParamPrefix != "" {
		params, err := infra.NewParamStore(ctx)
		if err != nil {
			log.Fatal(err)
		}
		if err := config.ResolveSecrets(ctx, &cfg, params); err != nil {
			log.Fatal(err)
		}
	}

	logger, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("wayfarer-api stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	checks := map[string]handlers.Check{}

	var (
		convRepo    conversation.Repository = conversation.NewMemoryStore()
		bookingRepo booking.Repository      = booking.NewMemoryStore()
		quota       assistant.Quota
	)
	if db, err := infra.NewDB(ctx, cfg.DB.DSN); err != nil {
		logger.Warn("postgres unavailable, using in-memory stores", zap.Error(err))
	} else {
		defer db.Close()
		if cfg.DB.Migrate {
			applied, err := infra.Migrate(ctx, db, migrations.FS)
			if err != nil {
				return err
			}
			logger.Info("schema up to date", zap.Int("applied", applied))
		}
		convRepo = conversation.NewStore(db)
		bookingRepo = booking.NewStore(db)
		quota = aiusage.NewService(aiusage.NewStore(db, cfg.Assistant.MonthlyQuota))
		checks["postgres"] = db.Ping
	}

	var (
		codeCache location.Cache
		offers    booking.OfferCache = booking.NewMemoryOfferCache()
	)
	rdb := infra.NewRedis(cfg.Redis.Addr)
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unavailable, using in-memory offer cache", zap.Error(err))
	} else {
		codeCache = location.NewStore(rdb)
		offers = booking.NewRedisOfferCache(rdb)
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	client := provider.New(provider.Config{
		BaseURL:        cfg.Provider.BaseURL,
		ClientID:       cfg.Provider.ClientID,
		ClientSecret:   cfg.Provider.ClientSecret,
		TicketingDelay: cfg.Provider.TicketingDelay,
		Timeout:        cfg.Provider.Timeout,
	}, logger)
	if !client.State().Initialized {
		logger.Warn("provider credentials missing, travel searches fall back to canned replies")
	}

	generator, closeGenerator, err := ai.New(ctx, cfg.AI, logger)
	if err != nil {
		return err
	}
	defer closeGenerator()

	opts := assistant.Options{
		Classifier: intent.NewClassifier(intent.DefaultRules),
		Resolver:   location.NewResolver(client, codeCache, nil, logger),
		Provider:   client,
		Bookings:   booking.NewService(bookingRepo, offers, client, logger),
		Generator:  generator,
		Quota:      quota,
		Formatter:  format.New(logger),
		Log:        logger,
		Threshold:  cfg.Assistant.IntentThreshold,
		Location:   cfg.Assistant.Location(),
	}
	if cfg.Maps.APIKey != "" {
		places, err := maps.NewPlacesService(cfg.Maps.APIKey, logger)
		if err != nil {
			return err
		}
		opts.Places = places
	}
	orchestrator := assistant.New(opts)

	conversations := conversation.NewService(convRepo)
	hub := realtime.NewHub(logger)
	dispatcher := turns.NewDispatcher(ctx)
	turnSvc := turns.NewService(conversations, orchestrator, hub, dispatcher, cfg.Assistant.TurnTimeout, logger)

	verifier, err := infra.NewFirebaseVerifier(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
	if err != nil {
		return err
	}
	if verifier == nil {
		logger.Warn("firebase not configured, requests are served as the anonymous owner")
	}

	router := httptransport.NewRouter(httptransport.RouterDeps{
		Conversations: conversations,
		Turns:         turnSvc,
		Hub:           hub,
		Verifier:      verifier,
		Checks:        checks,
		Provider:      client,
		Log:           logger,
	})
	serveErr := httptransport.NewServer(cfg.HTTP.Addr, router, logger).Run(ctx)

	drainCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := dispatcher.Close(drainCtx); err != nil {
		logger.Warn("pending turns abandoned", zap.Error(err))
	}
	return serveErr
}
