package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/slotbook-api/internal/config"
	"github.com/jwalitptl/slotbook-api/internal/repository"
	"github.com/jwalitptl/slotbook-api/internal/repository/memory"
	"github.com/jwalitptl/slotbook-api/internal/repository/mongodb"
	"github.com/jwalitptl/slotbook-api/internal/repository/postgres"
)

// openStore connects the configured backend. With migrate set it also
// creates the schema (postgres) or indexes (mongo).
func openStore(ctx context.Context, cfg config.DatabaseConfig, migrate bool) (repository.Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		db, err := postgres.NewDB(cfg.Postgres)
		if err != nil {
			return nil, err
		}
		if migrate {
			if err := postgres.Migrate(ctx, db); err != nil {
				db.Close()
				return nil, err
			}
		}
		return postgres.NewStore(db), nil

	case config.DriverMongo:
		timeout := cfg.Mongo.ConnectTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		client, err := mongodb.NewClient(ctx, cfg.Mongo)
		if err != nil {
			return nil, err
		}
		if migrate {
			if err := mongodb.EnsureIndexes(ctx, client, cfg.Mongo.Database); err != nil {
				client.Disconnect(context.Background())
				return nil, err
			}
		}
		return mongodb.NewStore(client, cfg.Mongo.Database), nil

	case config.DriverMemory:
		log.Warn().Msg("using in-memory store, data will not survive a restart")
		return memory.NewStore(), nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
