package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "webhook:ledger:"

// commitScript moves processing -> processed and resets the expiry to the full TTL.
var commitScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
	return 1
end
return 0
`)

// releaseScript deletes the key only while it is still processing.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLedger stores entries as plain string keys with a PX expiry. Claim is
// SET NX, commit and release are compare-and-set scripts.
type RedisLedger struct {
	client redis.UniversalClient
	cfg    Config
}

func NewRedisLedger(client redis.UniversalClient, cfg Config) *RedisLedger {
	return &RedisLedger{client: client, cfg: cfg.WithDefaults()}
}

func (l *RedisLedger) key(eventID string) string {
	return redisKeyPrefix + eventID
}

func (l *RedisLedger) Claim(ctx context.Context, eventID string) (bool, error) {
	if err := validateID(eventID); err != nil {
		return false, err
	}
	ok, err := l.client.SetNX(ctx, l.key(eventID), string(StatusProcessing), l.cfg.Lease).Result()
	if err != nil {
		return false, fmt.Errorf("claim %s: %w", eventID, err)
	}
	return ok, nil
}

func (l *RedisLedger) Commit(ctx context.Context, eventID string) error {
	n, err := commitScript.Run(ctx, l.client,
		[]string{l.key(eventID)},
		string(StatusProcessing), string(StatusProcessed), l.cfg.TTL.Milliseconds(),
	).Int()
	if err != nil {
		return fmt.Errorf("commit %s: %w", eventID, err)
	}
	if n == 0 {
		return ErrNotClaimed
	}
	return nil
}

func (l *RedisLedger) Release(ctx context.Context, eventID string) error {
	n, err := releaseScript.Run(ctx, l.client, []string{l.key(eventID)}, string(StatusProcessing)).Int()
	if err != nil {
		return fmt.Errorf("release %s: %w", eventID, err)
	}
	if n == 0 {
		return ErrNotClaimed
	}
	return nil
}

func (l *RedisLedger) Status(ctx context.Context, eventID string) (Status, error) {
	v, err := l.client.Get(ctx, l.key(eventID)).Result()
	if errors.Is(err, redis.Nil) {
		return StatusAbsent, nil
	}
	if err != nil {
		return "", fmt.Errorf("status %s: %w", eventID, err)
	}
	return Status(v), nil
}
