// Package pg wraps pgx connection pooling, goose migrations and PostgreSQL error
// classification.
//
// Connect builds a pgxpool.Pool from Config and retries the initial ping with a
// linearly growing interval. Migrate applies goose migrations from any fs.FS, usually
// an embedded directory, and routes goose output through the application logger.
//
// # Usage
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, db.Migrations, db.MigrationsDir, cfg, log); err != nil {
//		return err
//	}
//
// The migrations table name comes from PG_MIGRATIONS_TABLE.
//
// # Error classification
//
// Repositories translate driver errors into domain errors with the helpers:
//
//	if pg.IsNotFoundError(err) {
//		return account.ErrNotFound
//	}
//	if pg.IsDuplicateKeyError(err) {
//		return account.ErrCustomerConflict
//	}
//
// IsForeignKeyViolationError detects SQLSTATE 23503.
//
// # Errors
//
// Connection and migration failures are joined with sentinels such as
// ErrFailedToOpenDBConnection, ErrEmptyConnectionString, ErrFailedToParseDBConfig and
// ErrFailedToApplyMigrations, so callers can match them with errors.Is.
//
// # See Also
//
//   - https://github.com/jackc/pgx
//   - https://github.com/pressly/goose
package pg
