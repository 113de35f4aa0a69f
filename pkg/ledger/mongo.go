package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// DefaultMongoCollection holds one document per event id.
const DefaultMongoCollection = "webhook_ledger"

type mongoEntry struct {
	ID         string    `bson:"_id"`
	Status     Status    `bson:"status"`
	RecordedAt time.Time `bson:"recorded_at"`
	ExpiresAt  time.Time `bson:"expires_at"`
}

// MongoLedger relies on the unique _id index for atomic claims and a TTL index on
// expires_at for garbage collection. The TTL monitor runs about once a minute, so
// every read also treats expired documents as absent.
type MongoLedger struct {
	coll *mongo.Collection
	cfg  Config
	now  func() time.Time
}

func NewMongoLedger(db *mongo.Database, cfg Config) *MongoLedger {
	return &MongoLedger{
		coll: db.Collection(DefaultMongoCollection),
		cfg:  cfg.WithDefaults(),
		now:  time.Now,
	}
}

// EnsureIndexes creates the TTL index. Idempotent.
func (l *MongoLedger) EnsureIndexes(ctx context.Context) error {
	_, err := l.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetName("expires_at_ttl").SetExpireAfterSeconds(0),
	})
	if err != nil {
		return fmt.Errorf("create ledger ttl index: %w", err)
	}
	return nil
}

func (l *MongoLedger) Claim(ctx context.Context, eventID string) (bool, error) {
	if err := validateID(eventID); err != nil {
		return false, err
	}
	now := l.now().UTC()
	entry := mongoEntry{
		ID:         eventID,
		Status:     StatusProcessing,
		RecordedAt: now,
		ExpiresAt:  now.Add(l.cfg.Lease),
	}

	_, err := l.coll.InsertOne(ctx, entry)
	if err == nil {
		return true, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return false, fmt.Errorf("claim %s: %w", eventID, err)
	}

	// The document exists; take it over only if it has expired but not yet been reaped.
	res, err := l.coll.ReplaceOne(ctx,
		bson.D{{Key: "_id", Value: eventID}, {Key: "expires_at", Value: bson.D{{Key: "$lte", Value: now}}}},
		entry,
	)
	if err != nil {
		return false, fmt.Errorf("reclaim %s: %w", eventID, err)
	}
	return res.MatchedCount == 1, nil
}

func (l *MongoLedger) Commit(ctx context.Context, eventID string) error {
	now := l.now().UTC()
	res, err := l.coll.UpdateOne(ctx,
		l.liveProcessing(eventID, now),
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "status", Value: StatusProcessed},
			{Key: "expires_at", Value: now.Add(l.cfg.TTL)},
		}}},
	)
	if err != nil {
		return fmt.Errorf("commit %s: %w", eventID, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotClaimed
	}
	return nil
}

func (l *MongoLedger) Release(ctx context.Context, eventID string) error {
	res, err := l.coll.DeleteOne(ctx, l.liveProcessing(eventID, l.now().UTC()))
	if err != nil {
		return fmt.Errorf("release %s: %w", eventID, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotClaimed
	}
	return nil
}

func (l *MongoLedger) Status(ctx context.Context, eventID string) (Status, error) {
	var e mongoEntry
	err := l.coll.FindOne(ctx, bson.D{{Key: "_id", Value: eventID}}).Decode(&e)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return StatusAbsent, nil
	}
	if err != nil {
		return "", fmt.Errorf("status %s: %w", eventID, err)
	}
	if !l.now().Before(e.ExpiresAt) {
		return StatusAbsent, nil
	}
	return e.Status, nil
}

func (l *MongoLedger) liveProcessing(eventID string, now time.Time) bson.D {
	return bson.D{
		{Key: "_id", Value: eventID},
		{Key: "status", Value: StatusProcessing},
		{Key: "expires_at", Value: bson.D{{Key: "$gt", Value: now}}},
	}
}
