// The worker binary runs the continuous send pipeline: the send worker pool,
// the stale-claim recovery loop, and the periodic SLA deadline sweep. It
// shares nothing with the API server except the database.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/hirespeedy/outreach-engine/internal/config"
	"github.com/hirespeedy/outreach-engine/internal/pkg/logger"
	"github.com/hirespeedy/outreach-engine/internal/repository/postgres"
	"github.com/hirespeedy/outreach-engine/internal/service/message"
	"github.com/hirespeedy/outreach-engine/internal/service/sla"
	"github.com/hirespeedy/outreach-engine/internal/service/suppression"
	"github.com/hirespeedy/outreach-engine/internal/transport"
	"github.com/hirespeedy/outreach-engine/internal/worker"
)

const slaSweepInterval = 5 * time.Minute

func main() {
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		logger.Error("[Worker] Failed to load config", "error", err.Error())
		os.Exit(1)
	}
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))

	db, err := postgres.Open(cfg.Database.URL)
	if err != nil {
		logger.Error("[Worker] Database connection failed", "error", err.Error())
		os.Exit(1)
	}
	defer db.Close()

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			logger.Warn("[Worker] Redis unreachable, rate limiting disabled", "addr", cfg.Redis.Addr, "error", err.Error())
			rdb = nil
		}
		cancel()
	}

	queueRepo := postgres.NewQueueRepo(db)
	suppressionSvc := suppression.NewService(postgres.NewSuppressionRepo(db))
	messageSvc := message.NewService(postgres.NewMessageRepo(db))
	campaignRepo := postgres.NewCampaignRepo(db)
	slaSvc := sla.NewService(postgres.NewDeadlineRepo(db), nil)

	sender, err := transport.NewSESTransport(context.Background(), cfg.SES)
	if err != nil {
		logger.Error("[Worker] SES transport init failed", "error", err.Error())
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

	recovery := worker.NewQueueRecoveryWorker(queueRepo, cfg.Queue.RecoveryInterval, cfg.Queue.StaleAge, cfg.Queue.MaxRetries)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool.Start(ctx)
	go recovery.Start(ctx)
	go sweepDeadlines(ctx, slaSvc)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("[Worker] Shutting down")
	cancel()
	pool.Stop()
	if rdb != nil {
		rdb.Close()
	}
}

// sweepDeadlines periodically escalates overdue SLA deadlines. Breaches are
// logged as audit records; operator tooling reads them from the deadline
// table.
func sweepDeadlines(ctx context.Context, svc *sla.Service) {
	ticker := time.NewTicker(slaSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			breached, err := svc.Sweep(sweepCtx, time.Now().UTC())
			cancel()
			if err != nil {
				logger.Error("[Worker] Deadline sweep failed", "error", err.Error())
				continue
			}
			for _, d := range breached {
				logger.Audit("sla_deadline_breached", "deadline_id", d.ID,
					"entity_type", d.EntityType, "entity_id", d.EntityID, "rule_id", d.RuleID)
			}
		}
	}
}
