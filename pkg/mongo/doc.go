// Package mongo connects to MongoDB for the optional document-store webhook ledger.
//
// New connects and pings with retries; NewWithDatabase returns the configured
// database handle directly. Config fields come from MONGODB_* environment variables
// and only MONGODB_URL is needed to enable it.
//
//	db, err := mongo.NewWithDatabase(ctx, cfg.Mongo)
//	if err != nil {
//		return err
//	}
//	led := ledger.NewMongoLedger(db, cfg.Ledger)
//	if err := led.EnsureIndexes(ctx); err != nil {
//		return err
//	}
//
// Healthcheck returns a readiness probe for the client. ErrNotConfigured is returned
// when no URL is set, ErrFailedToConnectToMongo when every attempt fails.
package mongo
