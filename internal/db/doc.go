// Package db is the Postgres persistence of formgate: forms and submissions
// (Repository), billing profiles (AccountStore) and the webhook ledger (Ledger). The
// schema lives in Migrations and is applied with pg.Migrate at startup.
package db
