package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mongoCollection = "page_cache"

type mongoEntry struct {
	Key         string    `bson:"_id"`
	Status      int       `bson:"status"`
	ContentType string    `bson:"content_type"`
	Body        []byte    `bson:"body"`
	ExpiresAt   time.Time `bson:"expires_at"`
}

// MongoCache shares cached pages between server instances. A TTL index on
// expires_at lets MongoDB purge stale documents; reads also filter on it.
type MongoCache struct {
	collection *mongo.Collection
}

// NewMongoCache creates the cache collection's TTL index.
func NewMongoCache(ctx context.Context, db *mongo.Database) (*MongoCache, error) {
	collection := db.Collection(mongoCollection)
	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	if err != nil {
		return nil, fmt.Errorf("create page cache TTL index: %w", err)
	}
	return &MongoCache{collection: collection}, nil
}

func (m *MongoCache) Get(ctx context.Context, key string) (*Entry, bool, error) {
	var doc mongoEntry
	err := m.collection.FindOne(ctx, bson.M{
		"_id":        key,
		"expires_at": bson.M{"$gt": time.Now()},
	}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &Entry{Status: doc.Status, ContentType: doc.ContentType, Body: doc.Body}, true, nil
}

func (m *MongoCache) Set(ctx context.Context, key string, entry *Entry, ttl time.Duration) error {
	doc := mongoEntry{
		Key:         key,
		Status:      entry.Status,
		ContentType: entry.ContentType,
		Body:        entry.Body,
		ExpiresAt:   time.Now().Add(ttl),
	}
	_, err := m.collection.ReplaceOne(ctx, bson.M{"_id": key}, doc, options.Replace().SetUpsert(true))
	return err
}

func (m *MongoCache) Clear(ctx context.Context) error {
	_, err := m.collection.DeleteMany(ctx, bson.M{})
	return err
}
