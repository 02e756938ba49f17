package mongostore

import (
	"context"
	"errors"

	"github.com/newrelic/go-agent/v3/newrelic"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"rideshare/internal/repository"
)

// wrapError converts driver errors into repository errors.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return repository.ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return repository.ErrDuplicate
	}
	return err
}

// startSegment opens a New Relic datastore segment when the context carries a
// transaction. The returned func must always be called.
func startSegment(ctx context.Context, col *mongo.Collection, op string) func() {
	txn := newrelic.FromContext(ctx)
	if txn == nil {
		return func() {}
	}
	segment := newrelic.DatastoreSegment{
		StartTime:    txn.StartSegmentNow(),
		Product:      newrelic.DatastoreMongoDB,
		Collection:   col.Name(),
		Operation:    op,
		DatabaseName: col.Database().Name(),
	}
	return segment.End
}

// findOne decodes the single document matching filter.
// A missing document is reported as repository.ErrNotFound.
func findOne[T any](ctx context.Context, col *mongo.Collection, filter bson.D) (*T, error) {
	defer startSegment(ctx, col, "findOne")()

	var result T
	if err := col.FindOne(ctx, filter).Decode(&result); err != nil {
		return nil, wrapError(err)
	}
	return &result, nil
}

// findMany decodes every document matching filter. It never returns a nil slice.
func findMany[T any](ctx context.Context, col *mongo.Collection, filter bson.D, opts ...options.Lister[options.FindOptions]) ([]*T, error) {
	defer startSegment(ctx, col, "find")()

	cursor, err := col.Find(ctx, filter, opts...)
	if err != nil {
		return nil, wrapError(err)
	}
	defer cursor.Close(ctx)

	results := make([]*T, 0)
	for cursor.Next(ctx) {
		var item T
		if err := cursor.Decode(&item); err != nil {
			return nil, err
		}
		results = append(results, &item)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// insertOne inserts a single document.
func insertOne(ctx context.Context, col *mongo.Collection, doc any) error {
	defer startSegment(ctx, col, "insertOne")()

	_, err := col.InsertOne(ctx, doc)
	return wrapError(err)
}

// compareAndSet applies update to the document matching filter and decodes
// the post-image. It returns repository.ErrNotFound when nothing matched.
func compareAndSet[T any](ctx context.Context, col *mongo.Collection, filter, update bson.D) (*T, error) {
	defer startSegment(ctx, col, "findOneAndUpdate")()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var result T
	if err := col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&result); err != nil {
		return nil, wrapError(err)
	}
	return &result, nil
}
