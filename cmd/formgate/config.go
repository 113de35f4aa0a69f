package main

import (
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/dmitrymomot/formgate/pkg/billing"
	"github.com/dmitrymomot/formgate/pkg/httpserver"
	"github.com/dmitrymomot/formgate/pkg/identity"
	"github.com/dmitrymomot/formgate/pkg/ledger"
	"github.com/dmitrymomot/formgate/pkg/mongo"
	"github.com/dmitrymomot/formgate/pkg/pg"
	"github.com/dmitrymomot/formgate/pkg/redis"
)

// Ledger backends selectable with LEDGER_BACKEND. auto prefers Redis and falls back
// to Postgres.
const (
	ledgerAuto     = "auto"
	ledgerRedis    = "redis"
	ledgerPostgres = "postgres"
	ledgerMongo    = "mongo"
	ledgerMemory   = "memory"
)

type Config struct {
	AppEnv        string   `env:"APP_ENV" envDefault:"development"`
	ServiceName   string   `env:"SERVICE_NAME" envDefault:"formgate"`
	LogLevel      string   `env:"LOG_LEVEL"`
	TierTablePath string   `env:"TIER_TABLE_PATH"`
	IPHeaders     []string `env:"CLIENT_IP_HEADERS" envSeparator:","`

	LedgerBackend       string `env:"LEDGER_BACKEND" envDefault:"auto"`
	LedgerPurgeSchedule string `env:"LEDGER_PURGE_SCHEDULE" envDefault:"@every 1h"`

	HTTP     httpserver.Config
	Postgres pg.Config
	Redis    redis.Config
	Mongo    mongo.Config
	Ledger   ledger.Config
	Identity identity.Config
	Paddle   billing.PaddleConfig
}

func (c *Config) Validate() error {
	var errs []error
	switch c.LedgerBackend {
	case ledgerAuto, ledgerRedis, ledgerPostgres, ledgerMemory:
	case ledgerMongo:
		if !c.Mongo.Configured() {
			errs = append(errs, errors.New("LEDGER_BACKEND=mongo requires MONGODB_URL"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown LEDGER_BACKEND %q", c.LedgerBackend))
	}
	if c.LedgerBackend == ledgerRedis && !c.Redis.Configured() {
		errs = append(errs, errors.New("LEDGER_BACKEND=redis requires REDIS_URL"))
	}
	if c.Identity.Secret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.LedgerPurgeSchedule != "" {
		if _, err := cron.ParseStandard(c.LedgerPurgeSchedule); err != nil {
			errs = append(errs, fmt.Errorf("invalid LEDGER_PURGE_SCHEDULE: %w", err))
		}
	}
	return errors.Join(errs...)
}
