package commands

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/opst/tabserve/pkg/artifact"
	"github.com/opst/tabserve/pkg/configs/server"
	"github.com/opst/tabserve/pkg/configs/task"
	"github.com/opst/tabserve/pkg/utils/retry"
)

func nop() {}

func backoff() retry.Backoff {
	return retry.ExponentialBackoff(500*time.Millisecond, 2, 5*time.Second)
}

// artifactStore opens the artifact store cfg says.
//
// The returned func closes the store.
func artifactStore(ctx context.Context, cfg *server.Config) (artifact.Store, func(), error) {
	if cfg.Models.PostgresURI == "" {
		return artifact.FileStore{Dir: cfg.Models.Dir}, nop, nil
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	pg, err := retry.Do(
		ctx, "postgres", backoff(),
		func(ctx context.Context) (*artifact.PostgresStore, error) {
			return artifact.ConnectPostgres(ctx, cfg.Models.PostgresURI)
		},
	)
	if err != nil {
		return nil, nil, err
	}
	return pg, pg.Close, nil
}

// taskResolver opens the task configuration source cfg says.
//
// The returned func closes the resolver.
func taskResolver(ctx context.Context, cfg *server.Config) (task.Resolver, func(), error) {
	r := cfg.Tasks.Redis
	if r.Addr == "" {
		return task.FileResolver{Dir: cfg.Tasks.Dir, Prefix: cfg.Tasks.Prefix}, nop, nil
	}

	rr := task.NewRedisResolver(
		&redis.Options{Addr: r.Addr, Password: r.Password, DB: r.DB},
		r.Prefix,
	)
	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if _, err := retry.Do(
		ctx, "redis", backoff(),
		func(ctx context.Context) (struct{}, error) { return struct{}{}, rr.Ping(ctx) },
	); err != nil {
		rr.Close()
		return nil, nil, err
	}
	return rr, func() { rr.Close() }, nil
}
