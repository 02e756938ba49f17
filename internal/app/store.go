package app

import (
	"context"
	"fmt"

	"github.com/newrelic/go-agent/v3/newrelic"

	"rideshare/internal/config"
	"rideshare/internal/repository"
	"rideshare/internal/repository/memory"
	"rideshare/internal/repository/mongostore"
	"rideshare/internal/repository/postgres"
)

// Stores bundles the repositories of the selected backend.
type Stores struct {
	Users repository.UserRepository
	Rides repository.RideRepository

	close func() error
}

// Close releases the backend connection.
func (s *Stores) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// OpenStores connects the backend named by cfg.Store.Driver.
func OpenStores(ctx context.Context, cfg *config.Config, nrApp *newrelic.Application) (*Stores, error) {
	switch cfg.Store.Driver {
	case config.StoreMongo:
		store, err := mongostore.NewStore(ctx, cfg.Mongo.URI, cfg.Mongo.DBName)
		if err != nil {
			return nil, err
		}
		return &Stores{Users: store.Users(), Rides: store.Rides(), close: store.Close}, nil

	case config.StorePostgres:
		db, err := NewDatabase(ctx, cfg.Database, nrApp)
		if err != nil {
			return nil, err
		}
		return &Stores{
			Users: postgres.NewUserRepository(db),
			Rides: postgres.NewRideRepository(db),
			close: db.Close,
		}, nil

	case config.StoreMemory:
		return &Stores{Users: memory.NewUserRepository(), Rides: memory.NewRideRepository()}, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
