// Package taskpool provides pools of tasks which serve requests for a task id.
package taskpool

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/opst/tabserve/pkg/artifact"
	"github.com/opst/tabserve/pkg/configs/task"
	xe "github.com/opst/tabserve/pkg/errors"
)

// Pool serves requests with its tasks.
type Pool interface {
	// Configure prepares tasks as props say.
	//
	// Configure is idempotent: once succeeded, later calls do nothing.
	// When it fails, the pool is left unconfigured.
	Configure(ctx context.Context, props task.Properties) error

	// Process inputs with a task of this pool.
	Process(ctx context.Context, inputs ...[]byte) ([]byte, error)

	Stats() Stats
}

// Stats is a snapshot of a Pool.
type Stats struct {
	// task pool type.
	Type string `json:"type"`

	// configured size of the pool.
	Target int `json:"target"`

	// tasks waiting in the pool.
	Idle int `json:"idle"`

	// tasks created so far, including ones created on demand.
	Created int64 `json:"created"`

	// tasks dropped on release because the pool was full.
	//
	// When it keeps growing, Target is too small for the load.
	Discarded int64 `json:"discarded"`

	// tasks borrowed now.
	InFlight int64 `json:"inFlight"`
}

// Deps are things pools use to build their tasks.
type Deps struct {
	// Store of model artifacts.
	Store artifact.Store

	// Log is logrus.StandardLogger() if nil.
	Log logrus.FieldLogger
}

func (d Deps) logger() logrus.FieldLogger {
	if d.Log == nil {
		return logrus.StandardLogger()
	}
	return d.Log
}

// Factory creates an unconfigured Pool.
type Factory func(deps Deps) Pool

var (
	regmu     sync.RWMutex
	factories = map[string]Factory{}
)

// Register a Pool type as name.
//
// It panics when name is empty or registered already, or when factory is nil.
func Register(name string, factory Factory) {
	regmu.Lock()
	defer regmu.Unlock()

	if name == "" || factory == nil {
		panic("taskpool: name and factory are required")
	}
	if _, ok := factories[name]; ok {
		panic(fmt.Sprintf("taskpool: type %s is registered twice", name))
	}
	factories[name] = factory
}

// Types returns registered pool type names, sorted.
func Types() []string {
	regmu.RLock()
	defer regmu.RUnlock()
	return types()
}

func types() []string {
	names := make([]string, 0, len(factories))
	for n := range factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// New creates an unconfigured Pool of the type.
//
// Unknown type is an error wrapping ErrConfiguration.
func New(typ string, deps Deps) (Pool, error) {
	regmu.RLock()
	defer regmu.RUnlock()

	f, ok := factories[typ]
	if !ok {
		return nil, xe.Wrapf(xe.ErrConfiguration, `unknown task type "%s" (known: %v)`, typ, types())
	}
	return f(deps), nil
}
