package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/formgate/internal/db"
	"github.com/dmitrymomot/formgate/pkg/httpserver"
	"github.com/dmitrymomot/formgate/pkg/ledger"
	"github.com/dmitrymomot/formgate/pkg/logger"
	"github.com/dmitrymomot/formgate/pkg/mongo"
)

// ledgerSetup is the chosen ledger plus its optional purge job, readiness probe and
// cleanup.
type ledgerSetup struct {
	ledger ledger.Ledger
	purge  func(context.Context) (int64, error)
	check  *httpserver.Check
	close  func(context.Context)
}

func openLedger(ctx context.Context, cfg Config, pool *pgxpool.Pool, rdb goredis.UniversalClient, log *slog.Logger) (ledgerSetup, error) {
	backend := cfg.LedgerBackend
	if backend == ledgerAuto {
		backend = ledgerPostgres
		if rdb != nil {
			backend = ledgerRedis
		}
	}

	var s ledgerSetup
	switch backend {
	case ledgerRedis:
		if rdb == nil {
			return s, errors.New("redis ledger requested but redis is unavailable")
		}
		s.ledger = ledger.NewRedisLedger(rdb, cfg.Ledger)
	case ledgerPostgres:
		pl := db.NewLedger(pool, cfg.Ledger)
		s.ledger, s.purge = pl, pl.PurgeExpired
	case ledgerMongo:
		database, err := mongo.NewWithDatabase(ctx, cfg.Mongo)
		if err != nil {
			return s, err
		}
		ml := ledger.NewMongoLedger(database, cfg.Ledger)
		if err := ml.EnsureIndexes(ctx); err != nil {
			_ = database.Client().Disconnect(ctx)
			return s, err
		}
		s.ledger = ml
		s.check = &httpserver.Check{Name: "mongo", Probe: mongo.Healthcheck(database.Client())}
		s.close = func(ctx context.Context) {
			if err := database.Client().Disconnect(ctx); err != nil {
				log.ErrorContext(ctx, "failed to disconnect mongo", logger.Error(err))
			}
		}
	case ledgerMemory:
		ml := ledger.NewMemoryLedger(cfg.Ledger)
		s.ledger, s.purge = ml, ml.Purge
		log.WarnContext(ctx, "webhook ledger kept in memory, deduplication does not survive restarts")
	}
	log.InfoContext(ctx, "webhook ledger ready", slog.String("backend", backend), logger.Component("billing"))
	return s, nil
}
