package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront/internal/cron"
	"github.com/angelmondragon/storefront/pkg/auth/session"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/db"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/angelmondragon/storefront/pkg/migrate"
	"github.com/angelmondragon/storefront/pkg/redis"
)

type closer struct {
	name string
	fn   func() error
}

// resources closes what run opened, last opened first.
type resources struct {
	closers []closer
}

func (r *resources) add(name string, fn func() error) {
	r.closers = append(r.closers, closer{name: name, fn: fn})
}

func (r *resources) Close() error {
	var err error
	for i := len(r.closers) - 1; i >= 0; i-- {
		c := r.closers[i]
		if closeErr := c.fn(); closeErr != nil {
			err = multierr.Append(err, fmt.Errorf("close %s: %w", c.name, closeErr))
		}
	}
	r.closers = nil
	return err
}

func openSessionStore(ctx context.Context, cfg *config.Config, logg *logger.Logger, redisClient *redis.Client, res *resources) (session.Store, error) {
	switch cfg.Session.Store {
	case config.SessionStoreRedis:
		if redisClient == nil {
			return nil, fmt.Errorf("redis session store selected but redis is not configured")
		}
		return session.NewRedisStore(redisClient, cfg.Session.TTL)

	case config.SessionStoreSQL:
		dbClient, err := db.New(ctx, cfg.DB, logg)
		if err != nil {
			return nil, fmt.Errorf("bootstrap database: %w", err)
		}
		res.add("database", dbClient.Close)
		if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
			return nil, fmt.Errorf("run dev migrations: %w", err)
		}
		return session.NewSQLStore(dbClient.DB(), cfg.Session.TTL)

	default:
		return session.NewMemoryStore(cfg.Session.TTL), nil
	}
}

// sessionGuard spans replicas through Redis when it is configured. Without
// Redis, mutations are serialized per process only.
func sessionGuard(cfg *config.Config, redisClient *redis.Client) (session.Guard, error) {
	if redisClient == nil {
		return session.NewLocker(), nil
	}
	return session.NewRedisLocker(redisClient, cfg.Session.LockTTL, cfg.Session.LockWait)
}

// startLocalSweep runs the session sweep inside the api process for the
// memory store, whose entries no other process can reach.
func startLocalSweep(ctx context.Context, cfg *config.Config, logg *logger.Logger, store session.Store, m *metrics.CronJobMetrics) error {
	memStore, ok := store.(*session.MemoryStore)
	if !ok {
		return nil
	}
	job, err := cron.NewSessionSweepJob(cron.SessionSweepJobParams{Logger: logg, Store: memStore})
	if err != nil {
		return err
	}
	registry, err := cron.NewRegistry(job)
	if err != nil {
		return err
	}
	interval := cfg.Cron.SweepInterval
	if interval <= 0 {
		interval = time.Minute
	}
	svc, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     &cron.LocalLock{},
		Metrics:  m,
		Interval: interval,
	})
	if err != nil {
		return err
	}
	go func() {
		_ = svc.Run(ctx)
	}()
	return nil
}
