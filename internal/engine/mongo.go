package engine

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoConfig holds configuration for the MongoDB connection.
type MongoConfig struct {
	URI     string
	Timeout time.Duration
}

// MongoSource implements DocumentSource over a MongoDB deployment.
type MongoSource struct {
	client *mongo.Client
}

// NewMongoSource connects to MongoDB. The driver connects lazily, so reachability
// is checked by Ping.
func NewMongoSource(ctx context.Context, cfg *MongoConfig) (*MongoSource, error) {
	opts := options.Client().ApplyURI(cfg.URI)
	if cfg.Timeout > 0 {
		opts.SetServerSelectionTimeout(cfg.Timeout)
		opts.SetConnectTimeout(cfg.Timeout)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	return &MongoSource{client: client}, nil
}

// Close disconnects the client.
func (m *MongoSource) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// Ping checks the primary is reachable.
func (m *MongoSource) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

// Count returns the number of documents matching filter.
func (m *MongoSource) Count(ctx context.Context, database, collection string, filter interface{}) (int64, error) {
	return m.client.Database(database).Collection(collection).CountDocuments(ctx, normalizeFilter(filter))
}

// Fetch returns one page of documents ordered by _id.
func (m *MongoSource) Fetch(ctx context.Context, database, collection string, filter interface{}, skip, limit int64) ([]Document, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetSkip(skip).
		SetLimit(limit)

	cur, err := m.client.Database(database).Collection(collection).Find(ctx, normalizeFilter(filter), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var raw []bson.M
	if err := cur.All(ctx, &raw); err != nil {
		return nil, err
	}

	docs := make([]Document, 0, len(raw))
	for _, rec := range raw {
		docs = append(docs, toDocument(rec))
	}
	return docs, nil
}

// ParseFindQuery parses a relaxed extended-JSON filter such as {"status": "active"}.
// An empty string matches every document.
func ParseFindQuery(query string) (bson.M, error) {
	filter := bson.M{}
	if query == "" {
		return filter, nil
	}
	if err := bson.UnmarshalExtJSON([]byte(query), false, &filter); err != nil {
		return nil, fmt.Errorf("invalid find query: %w", err)
	}
	return filter, nil
}

func normalizeFilter(filter interface{}) interface{} {
	if filter == nil {
		return bson.M{}
	}
	return filter
}

// toDocument moves _id out of the record and keeps its string form.
func toDocument(m bson.M) Document {
	id := idString(m["_id"])
	delete(m, "_id")
	return Document{ID: id, Source: map[string]interface{}(m)}
}

func idString(v interface{}) string {
	switch id := v.(type) {
	case nil:
		return ""
	case primitive.ObjectID:
		return id.Hex()
	case string:
		return id
	case fmt.Stringer:
		return id.String()
	default:
		return fmt.Sprint(id)
	}
}
