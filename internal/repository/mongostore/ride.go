package mongostore

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"rideshare/internal/domain"
	"rideshare/internal/repository"
)

// RideRepository implements repository.RideRepository on the rides collection.
type RideRepository struct {
	col *mongo.Collection
}

func (r *RideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	return insertOne(ctx, r.col, ride)
}

func (r *RideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	return findOne[domain.Ride](ctx, r.col, bson.D{{Key: "_id", Value: id}})
}

func (r *RideRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Ride, error) {
	return findMany[domain.Ride](ctx, r.col, bson.D{{Key: "user_id", Value: userID}}, oldestFirst())
}

func (r *RideRepository) ListByDriverID(ctx context.Context, driverID string) ([]*domain.Ride, error) {
	return findMany[domain.Ride](ctx, r.col, bson.D{{Key: "driver_id", Value: driverID}}, oldestFirst())
}

func (r *RideRepository) ListByStatus(ctx context.Context, status domain.RideStatus) ([]*domain.Ride, error) {
	return findMany[domain.Ride](ctx, r.col, bson.D{{Key: "status", Value: status}}, oldestFirst())
}

// UpdateStatus performs a single findOneAndUpdate filtered on both _id and
// the expected status, so the check and the write cannot interleave with
// another writer.
func (r *RideRepository) UpdateStatus(ctx context.Context, id string, from domain.RideStatus, update domain.RideUpdate) (*domain.Ride, error) {
	filter := bson.D{
		{Key: "_id", Value: id},
		{Key: "status", Value: from},
	}

	ride, err := compareAndSet[domain.Ride](ctx, r.col, filter, bson.D{{Key: "$set", Value: setFields(update)}})
	if err == nil {
		return ride, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	// Nothing matched: either the ride is gone or its status moved on.
	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, repository.ErrConflict
}

func setFields(update domain.RideUpdate) bson.D {
	set := bson.D{{Key: "status", Value: update.Status}}
	if update.DriverID != "" {
		set = append(set, bson.E{Key: "driver_id", Value: update.DriverID})
	}
	if !update.AcceptedAt.IsZero() {
		set = append(set, bson.E{Key: "accepted_at", Value: update.AcceptedAt})
	}
	if !update.CompletedAt.IsZero() {
		set = append(set, bson.E{Key: "completed_at", Value: update.CompletedAt})
	}
	return set
}

func oldestFirst() *options.FindOptionsBuilder {
	return options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
}
