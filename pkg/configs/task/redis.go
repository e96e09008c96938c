package task

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	xe "github.com/opst/tabserve/pkg/errors"
)

// RedisResolver reads Properties from Redis hashes.
//
// Properties of task id "iris" is the hash at "<prefix>:task:iris".
type RedisResolver struct {
	rdb    *redis.Client
	prefix string
}

var _ Resolver = &RedisResolver{}

// NewRedisResolver creates a RedisResolver. prefix is "tabserve" if empty.
func NewRedisResolver(opts *redis.Options, prefix string) *RedisResolver {
	if prefix == "" {
		prefix = "tabserve"
	}
	return &RedisResolver{rdb: redis.NewClient(opts), prefix: prefix}
}

// Key of the hash for the task id.
func (r *RedisResolver) Key(taskId string) string {
	return fmt.Sprintf("%s:task:%s", r.prefix, taskId)
}

func (r *RedisResolver) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

func (r *RedisResolver) Close() error {
	return r.rdb.Close()
}

func (r *RedisResolver) Resolve(ctx context.Context, taskId string) (Properties, error) {
	if taskId == "" {
		return nil, xe.Wrapf(xe.ErrUnknownTask, "task id is empty")
	}
	m, err := r.rdb.HGetAll(ctx, r.Key(taskId)).Result()
	if err != nil {
		return nil, xe.Wrap(xe.ErrConfiguration, "cannot read "+r.Key(taskId)+" from redis", err)
	}
	if len(m) == 0 {
		return nil, xe.Wrapf(xe.ErrUnknownTask, `no configuration for task "%s" in redis`, taskId)
	}
	return Properties(m), nil
}
