package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	counterCollectionName = "counters"
	listingIDCounterKey   = "listingId"
)

// counterAllocator hands out sequential listing identifiers from a
// store-native atomic counter. Reading the current maximum and adding one is
// a read-then-write race under concurrent creates; $inc on a single counter
// document is not.
type counterAllocator struct {
	collection *mongo.Collection
}

type counterDocument struct {
	ID  string `bson:"_id"`
	Seq int64  `bson:"seq"`
}

// newCounterAllocator seeds the counter from the current maximum listingId so
// the service can adopt a pre-existing data set without reissuing ids. The
// seed uses $max, so a concurrent allocation can only move the counter
// forward, never back.
func newCounterAllocator(ctx context.Context, db *mongo.Database, listings *mongo.Collection) (*counterAllocator, error) {
	counters := db.Collection(counterCollectionName)

	var last listingDocument
	findOpts := options.FindOne().SetSort(bson.D{{Key: "listingId", Value: -1}})
	err := listings.FindOne(ctx, bson.M{}, findOpts).Decode(&last)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("read max listingId: %w", err)
	}

	seedOpts := options.Update().SetUpsert(true)
	_, err = counters.UpdateOne(ctx,
		bson.M{"_id": listingIDCounterKey},
		bson.M{"$max": bson.M{"seq": last.ListingID}},
		seedOpts,
	)
	if err != nil {
		return nil, fmt.Errorf("seed listingId counter: %w", err)
	}

	return &counterAllocator{collection: counters}, nil
}

// next atomically increments and returns the counter. Concurrent callers each
// observe a distinct value.
func (a *counterAllocator) next(ctx context.Context) (int64, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc counterDocument
	err := a.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": listingIDCounterKey},
		bson.M{"$inc": bson.M{"seq": 1}},
		opts,
	).Decode(&doc)
	if err != nil {
		return 0, err
	}
	return doc.Seq, nil
}
