// Package mongostore implements the user and ride repositories on MongoDB.
//
// Documents are the domain structs themselves, mapped through their bson tags.
// Collection names and indexes are managed in one place by ensureIndexes.
package mongostore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Collection names.
const (
	ColUsers = "users"
	ColRides = "rides"
)

// Store holds the MongoDB client and database shared by the repositories.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewStore connects to MongoDB, verifies the connection and creates indexes.
//
// uri: connection URI such as "mongodb://localhost:27017"
// dbName: database name such as "rideshare"
func NewStore(ctx context.Context, uri, dbName string) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongostore: connect failed: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongostore: ping failed: %w", err)
	}

	s := &Store{client: client, db: client.Database(dbName)}

	// A unique username index is required for correct registration, so an
	// index failure is fatal here rather than a warning.
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return s, nil
}

// Close disconnects from MongoDB.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Users returns the user repository backed by this store.
func (s *Store) Users() *UserRepository {
	return &UserRepository{col: s.col(ColUsers)}
}

// Rides returns the ride repository backed by this store.
func (s *Store) Rides() *RideRepository {
	return &RideRepository{col: s.col(ColRides)}
}

func (s *Store) col(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// ensureIndexes creates every index the repositories rely on.
func (s *Store) ensureIndexes(ctx context.Context) error {
	type idx struct {
		col    string
		keys   bson.D
		unique bool
	}

	indexes := []idx{
		// users
		{ColUsers, bson.D{{Key: "username", Value: 1}}, true},

		// rides
		{ColRides, bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: 1}}, false},
		{ColRides, bson.D{{Key: "driver_id", Value: 1}, {Key: "created_at", Value: 1}}, false},
		{ColRides, bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: 1}}, false},
	}

	for _, i := range indexes {
		model := mongo.IndexModel{Keys: i.keys}
		if i.unique {
			model.Options = options.Index().SetUnique(true)
		}
		if _, err := s.col(i.col).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("mongostore: create index on %s: %w", i.col, err)
		}
	}

	return nil
}
