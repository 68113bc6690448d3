package database

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"learnhub/api/internal/config"
	"learnhub/api/internal/repository"
	"learnhub/api/internal/repository/memory"
	"learnhub/api/internal/repository/mongostore"
)

// Backend is an opened document store with its health probe and closer.
type Backend struct {
	Driver string
	Stores repository.Stores
	Ping   func(ctx context.Context) error
	Close  func()
}

// Open connects the driver selected in cfg.Database. Postgres schemas are
// migrated and Mongo indexes ensured before the stores are returned.
func Open(ctx context.Context, cfg *config.AppConfig, log zerolog.Logger) (*Backend, error) {
	switch cfg.Database.Driver {
	case "postgres":
		pool, err := NewPostgresPool(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		if err := Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		return &Backend{
			Driver: "postgres",
			Stores: repository.NewPostgresStores(pool),
			Ping:   pool.Ping,
			Close:  pool.Close,
		}, nil

	case "mongo":
		db, err := NewMongoDatabase(ctx, cfg.Mongo)
		if err != nil {
			return nil, err
		}
		stores, err := mongostore.NewStores(ctx, db)
		if err != nil {
			_ = db.Client().Disconnect(context.Background())
			return nil, err
		}
		return &Backend{
			Driver: "mongo",
			Stores: stores,
			Ping: func(ctx context.Context) error {
				return db.Client().Ping(ctx, readpref.Primary())
			},
			Close: func() {
				if err := db.Client().Disconnect(context.Background()); err != nil {
					log.Error().Err(err).Msg("mongo disconnect error")
				}
			},
		}, nil

	case "memory":
		log.Warn().Msg("using in-memory document store, data is lost on restart")
		return &Backend{
			Driver: "memory",
			Stores: memory.NewStores(),
			Ping:   func(context.Context) error { return nil },
			Close:  func() {},
		}, nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}
