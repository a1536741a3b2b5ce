package main

import (
	"context"

	"github.com/jrsteele09/go-tenant-console/auth"
	"github.com/jrsteele09/go-tenant-console/identity"
	"github.com/jrsteele09/go-tenant-console/identity/gotrue"
	"github.com/jrsteele09/go-tenant-console/internal/config"
	"github.com/jrsteele09/go-tenant-console/internal/metrics"
	"github.com/jrsteele09/go-tenant-console/storage"
	"github.com/jrsteele09/go-tenant-console/storage/memstore"
	"github.com/jrsteele09/go-tenant-console/storage/redisstore"
	"github.com/jrsteele09/go-tenant-console/storage/sqlitestore"
	"github.com/jrsteele09/go-tenant-console/tenants"
	"github.com/jrsteele09/go-tenant-console/tenants/postgres"
	"github.com/jrsteele09/go-tenant-console/users"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
)

// app wires the process-wide state every command works on.
type app struct {
	cfg      config.Config
	local    storage.Store
	provider *identity.Provider
	profile  *users.ProfileStore
	tenants  *tenants.Store
	orch     *auth.Orchestrator
	registry *prometheus.Registry
	closers  []func() error
}

func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	a := &app{cfg: cfg, registry: prometheus.NewRegistry()}
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	local, closer, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.local = local
	if closer != nil {
		a.closers = append(a.closers, closer)
	}

	factory := gotrue.Factory(gotrue.WithDurableStore(local))
	if url := cfg.GetDatabaseURL(); url != "" {
		pool, err := postgres.Connect(ctx, url)
		if err != nil {
			a.Close()
			return nil, errors.Wrap(err, "[newApp] postgres")
		}
		a.closers = append(a.closers, func() error {
			pool.Close()
			return nil
		})
		remote := factory
		factory = func(bc config.BackendConfig) (identity.Client, error) {
			c, err := remote(bc)
			if err != nil {
				return nil, err
			}
			return postgres.WithDirectData(c, pool), nil
		}
	}

	a.provider = identity.NewProvider(cfg, factory)
	a.profile = users.NewProfileStore()
	a.tenants = tenants.NewStore(ctx, local)
	a.orch, err = auth.New(auth.Deps{
		Identity: a.provider,
		Profile:  a.profile,
		Tenants:  a.tenants,
		Local:    local,
	}, auth.WithLogger(log.Logger), auth.WithMetrics(metrics.New(a.registry)))
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// openStore opens the persisted local store selected by STORE_DRIVER.
func openStore(ctx context.Context, cfg config.StoreConfig) (storage.Store, func() error, error) {
	switch cfg.GetStoreDriver() {
	case config.StoreDriverMemory:
		return memstore.New(), nil, nil
	case config.StoreDriverRedis:
		s, err := redisstore.Open(ctx, cfg.GetRedisURL())
		if err != nil {
			return nil, nil, errors.Wrap(err, "[openStore] redis")
		}
		return s, s.Close, nil
	default:
		s, err := sqlitestore.Open(cfg.GetStorePath())
		if err != nil {
			return nil, nil, errors.Wrap(err, "[openStore] sqlite")
		}
		return s, s.Close, nil
	}
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Err(err).Msg("Error closing resource")
		}
	}
	a.closers = nil
}
