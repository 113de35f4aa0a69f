package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	goredis "github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"github.com/dmitrymomot/formgate/internal/db"
	"github.com/dmitrymomot/formgate/internal/server"
	"github.com/dmitrymomot/formgate/pkg/account"
	"github.com/dmitrymomot/formgate/pkg/billing"
	"github.com/dmitrymomot/formgate/pkg/config"
	"github.com/dmitrymomot/formgate/pkg/environment"
	"github.com/dmitrymomot/formgate/pkg/httpserver"
	"github.com/dmitrymomot/formgate/pkg/identity"
	"github.com/dmitrymomot/formgate/pkg/logger"
	"github.com/dmitrymomot/formgate/pkg/metrics"
	"github.com/dmitrymomot/formgate/pkg/pg"
	"github.com/dmitrymomot/formgate/pkg/quota"
	"github.com/dmitrymomot/formgate/pkg/ratelimit"
	"github.com/dmitrymomot/formgate/pkg/redis"
	"github.com/dmitrymomot/formgate/pkg/requestid"
	"github.com/dmitrymomot/formgate/pkg/tier"
	"github.com/dmitrymomot/formgate/svc/intake"
)

func main() {
	if err := run(context.Background()); err != nil {
		slog.Error("formgate exited", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return err
	}

	logOpts := []logger.Option{
		logger.WithEnvironment(cfg.AppEnv, cfg.ServiceName),
		logger.WithContextExtractors(requestid.LoggerExtractor(), identity.LoggerExtractor()),
	}
	if cfg.LogLevel != "" {
		logOpts = append(logOpts, logger.WithLevel(logger.ParseLevel(cfg.LogLevel)))
	}
	log := logger.New(logOpts...)
	logger.SetAsDefault(log)

	rec := metrics.New()

	table, err := tier.LoadTableFile(cfg.TierTablePath)
	if err != nil {
		return err
	}

	pool, err := pg.Connect(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	defer pool.Close()
	if err := pg.Migrate(ctx, pool, db.Migrations, db.MigrationsDir, cfg.Postgres, log); err != nil {
		return err
	}
	checks := []httpserver.Check{{Name: "postgres", Probe: pg.Healthcheck(pool)}}

	// Redis is optional: without it counters fall back to process memory.
	var rdb goredis.UniversalClient
	client, redisErr := redis.Connect(ctx, cfg.Redis)
	if redisErr == nil {
		rdb = client
		checks = append(checks, httpserver.Check{Name: "redis", Probe: redis.Healthcheck(client)})
	} else if !errors.Is(redisErr, redis.ErrNotConfigured) {
		log.WarnContext(ctx, "redis unavailable", logger.Error(redisErr))
	}
	store := ratelimit.SelectStore(rdb, redisErr, log, rec)

	led, err := openLedger(ctx, cfg, pool, rdb, log)
	if err != nil {
		return err
	}
	if led.check != nil {
		checks = append(checks, *led.check)
	}

	accounts := db.NewAccountStore(pool)
	repo := db.NewRepository(pool)
	tiers := tier.NewResolver(account.TierSource(accounts), tier.WithLogger(log))
	limiter := ratelimit.NewLimiter(store, table, ratelimit.WithLogger(log), ratelimit.WithMetrics(rec))
	guard := quota.NewGuard(repo, tiers, table, quota.WithLogger(log), quota.WithMetrics(rec))
	svc := intake.NewService(repo, limiter, guard, tiers, intake.WithLogger(log))

	ids, err := identity.New(cfg.Identity)
	if err != nil {
		return err
	}

	var verifier billing.Verifier
	if pv, err := billing.NewPaddleVerifier(cfg.Paddle.WebhookSecret); err == nil {
		verifier = pv
	} else {
		log.WarnContext(ctx, "PADDLE_WEBHOOK_SECRET not set, billing webhooks will be refused")
	}
	dispatcher := billing.NewDispatcher(
		led.ledger,
		billing.NewSubscriptionSync(accounts, cfg.Paddle.PriceMap(), log),
		billing.WithLogger(log),
		billing.WithMetrics(rec),
	)

	scheduler := cron.New()
	if led.purge != nil && cfg.LedgerPurgeSchedule != "" {
		if _, err := scheduler.AddFunc(cfg.LedgerPurgeSchedule, func() {
			n, err := led.purge(ctx)
			if err != nil {
				log.ErrorContext(ctx, "ledger purge failed", logger.Error(err))
				return
			}
			log.DebugContext(ctx, "ledger purged", slog.Int64("removed", n))
		}); err != nil {
			return err
		}
	}
	scheduler.Start()

	handler := server.New(server.Deps{
		Intake:    svc,
		Limiter:   limiter,
		Tiers:     tiers,
		Identity:  ids,
		Webhook:   billing.WebhookHandler(verifier, dispatcher, log),
		Metrics:   rec,
		Checks:    checks,
		IPHeaders: cfg.IPHeaders,
		Env:       environment.Parse(cfg.AppEnv),
		Log:       log,
	})

	srv := httpserver.NewFromConfig(cfg.HTTP,
		httpserver.WithLogger(log),
		httpserver.WithStopHook(func(ctx context.Context) {
			<-scheduler.Stop().Done()
			if err := ratelimit.CloseStore(ctx, store); err != nil {
				log.ErrorContext(ctx, "failed to close counter store", logger.Error(err))
			}
			if led.close != nil {
				led.close(ctx)
			}
			if client != nil {
				_ = client.Close()
			}
		}),
	)
	return srv.Run(ctx, handler)
}
