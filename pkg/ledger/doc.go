// Package ledger deduplicates externally delivered events.
//
// A webhook handler claims the event id before applying side effects, commits after
// success and releases after failure so the sender's retry can claim it again:
//
//	ok, err := l.Claim(ctx, evt.ID)
//	if err != nil || !ok {
//		return // err: retry later; !ok: duplicate, acknowledge
//	}
//	if err := apply(ctx, evt); err != nil {
//		_ = l.Release(ctx, evt.ID)
//		return err
//	}
//	_ = l.Commit(ctx, evt.ID)
//
// Backends: RedisLedger (SET NX with PX expiry), MongoLedger (unique _id with a TTL
// index) and MemoryLedger. A PostgreSQL implementation lives next to the rest of the
// SQL in internal/db.
package ledger
