package app

import (
	"context"
	"fmt"

	"mams/internal/config"
	"mams/internal/infrastructure/http/v1/handlers"
	"mams/internal/infrastructure/storage/memory"
	"mams/internal/infrastructure/storage/postgres"
)

// Runtime is an opened backend. Pool is nil for the memory store.
type Runtime struct {
	Backend Backend
	Pool    *postgres.Pool
}

// Open connects the store named by cfg.
func Open(ctx context.Context, cfg config.Config) (*Runtime, error) {
	switch cfg.Store {
	case config.StoreMemory:
		return &Runtime{Backend: MemoryBackend(memory.New())}, nil
	case config.StorePostgres:
		poolCfg := postgres.DefaultPoolConfig(cfg.DatabaseURL)
		poolCfg.MaxConns = cfg.DBMaxConns
		pool, err := postgres.NewPool(ctx, poolCfg)
		if err != nil {
			return nil, err
		}
		opts := postgres.DefaultTxOptions()
		opts.StatementTimeout = cfg.StatementTimeout
		store, err := postgres.NewStore(pool, opts)
		if err != nil {
			pool.Close()
			return nil, err
		}
		return &Runtime{Backend: PostgresBackend(store), Pool: pool}, nil
	}
	return nil, fmt.Errorf("unknown store %q", cfg.Store)
}

// Pinger returns the readiness check for the store, nil when there is none.
func (r *Runtime) Pinger() handlers.Pinger {
	if r.Pool == nil {
		return nil
	}
	return r.Pool
}

// Close releases the pool, if any.
func (r *Runtime) Close() {
	if r.Pool != nil {
		r.Pool.Close()
	}
}
