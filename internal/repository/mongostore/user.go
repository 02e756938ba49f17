package mongostore

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"rideshare/internal/domain"
)

// UserRepository implements repository.UserRepository on the users collection.
type UserRepository struct {
	col *mongo.Collection
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	return insertOne(ctx, r.col, user)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return findOne[domain.User](ctx, r.col, bson.D{{Key: "_id", Value: id}})
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return findOne[domain.User](ctx, r.col, bson.D{{Key: "username", Value: username}})
}
