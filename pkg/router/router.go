// Package router resolves task ids into configured task pools.
package router

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/opst/tabserve/pkg/configs/task"
	xe "github.com/opst/tabserve/pkg/errors"
	"github.com/opst/tabserve/pkg/taskpool"
)

// Router holds task pools by task id.
//
// A pool is created and configured at the first resolution of its task id,
// and kept until the process ends.
type Router struct {
	resolver task.Resolver
	deps     taskpool.Deps

	mu    sync.RWMutex
	pools map[string]taskpool.Pool

	creating singleflight.Group
}

func New(resolver task.Resolver, deps taskpool.Deps) *Router {
	return &Router{
		resolver: resolver,
		deps:     deps,
		pools:    map[string]taskpool.Pool{},
	}
}

// Resolve returns the pool for the task id.
//
// Errors:
//
// - ErrMissingTaskID: taskId is empty.
//
// - ErrUnknownTask: no configuration is found for taskId.
//
// - ErrConfiguration: the configuration has no or unknown task type, or is broken.
//
// - ErrArtifactLoad: the pool cannot load its model.
//
// Failed creations are not remembered, and the next Resolve tries again.
func (r *Router) Resolve(ctx context.Context, taskId string) (taskpool.Pool, error) {
	if taskId == "" {
		return nil, xe.ErrMissingTaskID
	}

	if p, ok := r.lookup(taskId); ok {
		return p, nil
	}

	v, err, _ := r.creating.Do(taskId, func() (any, error) {
		if p, ok := r.lookup(taskId); ok {
			return p, nil
		}

		// creation is shared with other callers, so it outlives cancellation of ctx.
		p, err := r.create(context.WithoutCancel(ctx), taskId)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		defer r.mu.Unlock()
		r.pools[taskId] = p
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(taskpool.Pool), nil
}

func (r *Router) lookup(taskId string) (taskpool.Pool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.pools[taskId]
	return p, ok
}

func (r *Router) create(ctx context.Context, taskId string) (taskpool.Pool, error) {
	log := r.log().WithField("taskid", taskId)

	props, err := r.resolver.Resolve(ctx, taskId)
	if err != nil {
		return nil, err
	}

	typ := props.Type()
	if typ == "" {
		return nil, xe.Wrapf(xe.ErrConfiguration, `task "%s": %s is not set`, taskId, task.KeyType)
	}

	p, err := taskpool.New(typ, r.deps)
	if err != nil {
		return nil, err
	}
	if err := p.Configure(ctx, props); err != nil {
		log.WithError(err).Error("cannot configure task pool")
		return nil, err
	}

	log.WithField("type", typ).Info("task pool is ready")
	return p, nil
}

func (r *Router) log() logrus.FieldLogger {
	if r.deps.Log == nil {
		return logrus.StandardLogger()
	}
	return r.deps.Log
}

// Pools returns stats of the pools by task id.
func (r *Router) Pools() map[string]taskpool.Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := make(map[string]taskpool.Stats, len(r.pools))
	for id, p := range r.pools {
		stats[id] = p.Stats()
	}
	return stats
}
