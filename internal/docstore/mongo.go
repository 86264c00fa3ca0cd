package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/courseloom/courseloom-backend/internal/platform/logger"
)

// MongoStore maps collections straight onto Mongo collections with the
// document id as _id. Merge upserts ride $set, so unlike the SQL backend
// they are atomic without row locking.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
	log    *logger.Logger
}

func NewMongoStore(ctx context.Context, uri, dbName string, log *logger.Logger) (*MongoStore, error) {
	storeLog := log.With("service", "MongoDocStore")

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	storeLog.Info("Connecting to MongoDB...")
	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		storeLog.Error("Failed to connect to MongoDB", "error", err)
		return nil, fmt.Errorf("docstore: connect mongo: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		storeLog.Error("Failed to ping MongoDB", "error", err)
		return nil, fmt.Errorf("docstore: ping mongo: %w", err)
	}
	return &MongoStore{client: client, db: client.Database(dbName), log: storeLog}, nil
}

func (s *MongoStore) Get(ctx context.Context, collection, id string) (Document, error) {
	var raw bson.M
	err := s.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&raw)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Document{}, ErrNoDocument
		}
		return Document{}, fmt.Errorf("docstore: mongo get: %w", err)
	}
	delete(raw, "_id")
	return Document{ID: id, Fields: raw}, nil
}

func (s *MongoStore) Upsert(ctx context.Context, collection, id string, fields map[string]any, merge bool) error {
	col := s.db.Collection(collection)
	if merge {
		_, err := col.UpdateOne(ctx,
			bson.M{"_id": id},
			bson.M{"$set": bson.M(fields)},
			options.Update().SetUpsert(true))
		if err != nil {
			return fmt.Errorf("docstore: mongo merge: %w", err)
		}
		return nil
	}

	doc := bson.M{"_id": id}
	for k, v := range fields {
		doc[k] = v
	}
	_, err := col.ReplaceOne(ctx, bson.M{"_id": id}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("docstore: mongo replace: %w", err)
	}
	return nil
}

func (s *MongoStore) Query(ctx context.Context, collection, field, value string) ([]Document, error) {
	return s.find(ctx, collection, bson.M{field: value})
}

func (s *MongoStore) All(ctx context.Context, collection string) ([]Document, error) {
	return s.find(ctx, collection, bson.M{})
}

func (s *MongoStore) find(ctx context.Context, collection string, filter bson.M) ([]Document, error) {
	cur, err := s.db.Collection(collection).Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("docstore: mongo find: %w", err)
	}
	defer cur.Close(ctx)

	var out []Document
	for cur.Next(ctx) {
		var raw bson.M
		if err := cur.Decode(&raw); err != nil {
			return nil, fmt.Errorf("docstore: mongo decode: %w", err)
		}
		id, _ := raw["_id"].(string)
		delete(raw, "_id")
		out = append(out, Document{ID: id, Fields: raw})
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("docstore: mongo cursor: %w", err)
	}
	return out, nil
}

func (s *MongoStore) Delete(ctx context.Context, collection, id string) error {
	_, err := s.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("docstore: mongo delete: %w", err)
	}
	return nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
