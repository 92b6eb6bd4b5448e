package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/honeytracks/pkg/tracking"
)

// Collection is the subset of *mongo.Collection used by SnapshotStore.
type Collection interface {
	FindOne(ctx context.Context, filter any, opts ...options.Lister[options.FindOneOptions]) *mongo.SingleResult
	UpdateOne(ctx context.Context, filter any, update any, opts ...options.Lister[options.UpdateOneOptions]) (*mongo.UpdateResult, error)
}

type snapshotDocument struct {
	Key       string    `bson:"_id"`
	Snapshot  string    `bson:"snapshot"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// SnapshotStore keeps the backlog snapshot in one document whose _id is the key.
type SnapshotStore struct {
	coll Collection
	key  string
	now  func() time.Time
}

var _ tracking.Store = (*SnapshotStore)(nil)

// NewSnapshotStore returns a store for the document identified by key.
func NewSnapshotStore(coll Collection, key string) (*SnapshotStore, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	return &SnapshotStore{coll: coll, key: key, now: time.Now}, nil
}

// Load returns "" when the document does not exist.
func (s *SnapshotStore) Load(ctx context.Context) (string, error) {
	var doc snapshotDocument
	err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: s.key}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", nil
	}
	if err != nil {
		return "", errors.Join(ErrLoadSnapshot, err)
	}
	return doc.Snapshot, nil
}

// Save upserts the document.
func (s *SnapshotStore) Save(ctx context.Context, snapshot string) error {
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "snapshot", Value: snapshot},
		{Key: "updated_at", Value: s.now().UTC()},
	}}}
	_, err := s.coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: s.key}}, update, options.UpdateOne().SetUpsert(true))
	if err != nil {
		return errors.Join(ErrSaveSnapshot, err)
	}
	return nil
}
