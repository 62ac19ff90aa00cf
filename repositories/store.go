package repositories

import (
	"context"
	"fmt"

	"order-desk/config"
	"order-desk/database"
)

// Store bundles the repositories of the configured driver.
type Store struct {
	Users  UserRepository
	Orders OrderRepository
	close  func()
}

func (s *Store) Close() {
	if s.close != nil {
		s.close()
	}
}

func NewMemoryBackedStore() *Store {
	mem := NewMemoryStore()
	return &Store{Users: mem.Users(), Orders: mem.Orders()}
}

// Open connects to the database selected by cfg.DBDriver and makes sure its
// schema (SQL migrations or mongo indexes) is in place.
func Open(ctx context.Context, cfg *config.Config) (*Store, error) {
	switch cfg.DBDriver {
	case config.DriverMemory:
		return NewMemoryBackedStore(), nil

	case config.DriverPostgres:
		if err := database.RunMigrations(cfg.PostgresDSN()); err != nil {
			return nil, err
		}
		pool, err := config.ConnectPostgres(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &Store{
			Users:  NewPostgresUserRepository(pool),
			Orders: NewPostgresOrderRepository(pool),
			close:  pool.Close,
		}, nil

	default:
		client, err := config.ConnectMongo(ctx, cfg)
		if err != nil {
			return nil, err
		}
		db := client.Database(cfg.MongoDatabase)
		if err := EnsureMongoIndexes(ctx, db); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, fmt.Errorf("mongo indexes: %w", err)
		}
		return &Store{
			Users:  NewMongoUserRepository(db),
			Orders: NewMongoOrderRepository(db),
			close:  func() { _ = client.Disconnect(context.Background()) },
		}, nil
	}
}
