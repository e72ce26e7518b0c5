package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/hirespeedy/outreach-engine/internal/api"
	"github.com/hirespeedy/outreach-engine/internal/config"
	"github.com/hirespeedy/outreach-engine/internal/pkg/distlock"
	"github.com/hirespeedy/outreach-engine/internal/pkg/logger"
	"github.com/hirespeedy/outreach-engine/internal/repository/postgres"
	"github.com/hirespeedy/outreach-engine/internal/service/classify"
	"github.com/hirespeedy/outreach-engine/internal/service/events"
	"github.com/hirespeedy/outreach-engine/internal/service/importer"
	"github.com/hirespeedy/outreach-engine/internal/service/message"
	"github.com/hirespeedy/outreach-engine/internal/service/sequence"
	"github.com/hirespeedy/outreach-engine/internal/service/sla"
	"github.com/hirespeedy/outreach-engine/internal/service/suppression"
	"github.com/hirespeedy/outreach-engine/internal/transport"
	"github.com/hirespeedy/outreach-engine/internal/worker"
)

func main() {
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		logger.Error("[Server] Failed to load config", "error", err.Error())
		os.Exit(1)
	}
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))

	db, err := postgres.Open(cfg.Database.URL)
	if err != nil {
		logger.Error("[Server] Database connection failed", "error", err.Error())
		os.Exit(1)
	}
	defer db.Close()

	// Redis is optional: without it the rate limiter is unbounded and the
	// sweep lock falls back to a Postgres advisory lock.
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			logger.Warn("[Server] Redis unreachable, continuing without it", "addr", cfg.Redis.Addr, "error", err.Error())
			rdb = nil
		}
		cancel()
	}

	// Repositories
	leadRepo := postgres.NewLeadRepo(db)
	suppressionRepo := postgres.NewSuppressionRepo(db)
	campaignRepo := postgres.NewCampaignRepo(db)
	sequenceRepo := postgres.NewSequenceRepo(db)
	messageRepo := postgres.NewMessageRepo(db)
	queueRepo := postgres.NewQueueRepo(db)
	eventLogRepo := postgres.NewEventLogRepo(db)
	conversationRepo := postgres.NewConversationRepo(db)
	importJobRepo := postgres.NewImportJobRepo(db)
	deadlineRepo := postgres.NewDeadlineRepo(db)

	// Services
	suppressionSvc := suppression.NewService(suppressionRepo)
	messageSvc := message.NewService(messageRepo)
	sequenceSvc := sequence.NewService(sequenceRepo, campaignRepo, suppressionSvc, leadRepo)
	importSvc := importer.NewService(importJobRepo, leadRepo, suppressionSvc, importer.Options{
		BatchSize:    cfg.Import.BatchSize,
		MaxRowErrors: cfg.Import.MaxRowErrors,
	})
	slaSvc := sla.NewService(deadlineRepo, slaRules(cfg.SLA))

	processor := events.NewProcessor(events.Deps{
		Messages:      messageSvc,
		Leads:         leadRepo,
		Sequences:     sequenceSvc,
		Queue:         queueRepo,
		Suppressions:  suppressionSvc,
		Log:           eventLogRepo,
		Stats:         campaignRepo,
		Conversations: conversationRepo,
		Classifier:    classify.NewKeywordClassifier(),
		Deadlines:     slaSvc,
	}, events.Options{
		AutoPauseComplaintThreshold: cfg.Events.AutoPauseComplaintThreshold,
		AutoPauseWindow:             cfg.Events.AutoPauseWindow,
		ClassifierTimeout:           cfg.Events.ClassifierTimeout,
	})

	// The server carries a send pool for the manual queue trigger only; the
	// worker binary runs the continuous drain.
	sender, err := transport.NewSESTransport(context.Background(), cfg.SES)
	if err != nil {
		logger.Error("[Server] SES transport init failed", "error", err.Error())
		os.Exit(1)
	}
	// With rdb nil the limiter admits everything.
	limiter := worker.NewRateLimiter(rdb, worker.RateLimits{
		PerSecond: cfg.Queue.RatePerSecond,
		PerMinute: cfg.Queue.RatePerMinute,
		PerDay:    cfg.Queue.DailyLimit,
	})
	pool := worker.NewSendWorkerPool(queueRepo, suppressionSvc, messageSvc, campaignRepo, sender, limiter, worker.PoolOptions{
		Workers:      cfg.Queue.Workers,
		BatchSize:    cfg.Queue.BatchSize,
		PollInterval: cfg.Queue.PollInterval,
		SendTimeout:  cfg.Queue.SendTimeout,
		MaxRetries:   cfg.Queue.MaxRetries,
	})

	sweepLock := distlock.New(rdb, db, "queue-sweep", time.Duration(cfg.Queue.SweepLockTTLSecond)*time.Second)

	handlers := api.NewHandlers(api.Deps{
		Imports:       importSvc,
		Suppressions:  suppressionSvc,
		Processor:     processor,
		Campaigns:     campaignRepo,
		Sequences:     sequenceSvc,
		Messages:      messageSvc,
		Queue:         queueRepo,
		Enqueue:       queueRepo,
		Sender:        pool,
		Conversations: conversationRepo,
		Deadlines:     slaSvc,
		SweepLock:     sweepLock,
	})
	server := api.NewServer(cfg.Server, handlers)

	go func() {
		logger.Info("[Server] Listening", "host", cfg.Server.Host, "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("[Server] HTTP server failed", "error", err.Error())
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("[Server] Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("[Server] Shutdown error", "error", err.Error())
	}
	if rdb != nil {
		rdb.Close()
	}
}

func slaRules(cfg config.SLAConfig) []sla.Rule {
	rules := make([]sla.Rule, 0, len(cfg.Rules))
	for _, r := range cfg.Rules {
		rules = append(rules, sla.Rule{
			ID:            r.ID,
			EntityType:    r.EntityType,
			Phase:         r.Phase,
			StartEvents:   r.StartEvents,
			EndEvents:     r.EndEvents,
			DeadlineHours: r.DeadlineHours,
			WarningHours:  r.WarningHours,
		})
	}
	return rules
}
