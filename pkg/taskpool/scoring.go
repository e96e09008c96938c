package taskpool

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"

	"github.com/opst/tabserve/pkg/artifact"
	"github.com/opst/tabserve/pkg/configs/task"
	"github.com/opst/tabserve/pkg/dataprep"
	xe "github.com/opst/tabserve/pkg/errors"
	"github.com/opst/tabserve/pkg/scoring"
)

const (
	ScoringType      = "scoring"
	ScoringTypeAlias = "ScoringTask"
)

func init() {
	f := func(deps Deps) Pool { return NewScoringPool(deps) }
	Register(ScoringType, f)
	Register(ScoringTypeAlias, f)
}

// ScoringPool is a Pool of scoring.Task.
//
// Acquire never blocks. When no task is idle, a new one is built on demand,
// so the pool can hold more than the target size while busy. Release keeps the
// task only while the idle tasks are fewer than the target, and drops it otherwise.
type ScoringPool struct {
	deps Deps

	configMu sync.Mutex

	// nil until configured.
	state atomic.Pointer[scoringState]

	created   atomic.Int64
	discarded atomic.Int64
	inflight  atomic.Int64
}

type scoringState struct {
	props   task.Properties
	model   string
	variant scoring.Variant
	debug   bool
	log     logrus.FieldLogger
	idle    chan *scoring.Task
}

var _ Pool = &ScoringPool{}

func NewScoringPool(deps Deps) *ScoringPool {
	return &ScoringPool{deps: deps}
}

// Configure loads the model and fills the pool with scoring tasks.
//
// # Args
//
// - ctx: context for loading artifacts.
//
// - props: task configuration. scorer.model.filename is required.
// task.poolSize is the number of idle tasks kept (default 1).
//
// # Returns
//
// - error: nil when configured, or when it is configured already.
// Otherwise the pool stays unconfigured.
func (p *ScoringPool) Configure(ctx context.Context, props task.Properties) error {
	p.configMu.Lock()
	defer p.configMu.Unlock()

	if p.state.Load() != nil {
		return nil
	}

	target, err := props.PoolSize()
	if err != nil {
		return err
	}
	model := props.Get(task.KeyModelFile)
	if model == "" {
		return xe.Wrapf(xe.ErrConfiguration, "%s is not set", task.KeyModelFile)
	}
	variant, err := scoring.ParseVariant(props.Get(task.KeyScorerImpl))
	if err != nil {
		return err
	}
	if p.deps.Store == nil {
		return xe.Wrapf(xe.ErrConfiguration, "no artifact store")
	}

	st := &scoringState{
		props:   props,
		model:   model,
		variant: variant,
		debug:   props.Debug(),
		log:     p.deps.logger().WithField("model", model),
		idle:    make(chan *scoring.Task, target),
	}

	builders := pool.NewWithResults[*scoring.Task]().
		WithContext(ctx).
		WithCancelOnError()
	for range target {
		builders.Go(func(ctx context.Context) (*scoring.Task, error) {
			return p.build(ctx, st)
		})
	}
	tasks, err := builders.Wait()
	if err != nil {
		return fmt.Errorf("cannot create scoring tasks for %s: %w", model, err)
	}
	for _, t := range tasks {
		st.idle <- t
	}
	p.created.Add(int64(len(tasks)))

	p.state.Store(st)
	st.log.WithField("size", target).Info("scoring pool is configured")
	return nil
}

func (p *ScoringPool) build(ctx context.Context, st *scoringState) (*scoring.Task, error) {
	preparer, err := dataprep.New(st.props)
	if err != nil {
		return nil, err
	}

	r, err := p.deps.Store.Open(ctx, st.model)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	model, header, err := artifact.Load(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", st.model, err)
	}

	t, err := scoring.New(model, header, preparer, st.variant)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", st.model, err)
	}

	if st.debug {
		st.log.Infof("scoring task is created:\n%s\nheader:\n%s", t.Describe(), header)
	} else {
		st.log.WithField("variant", t.Variant()).Debug("scoring task is created")
	}
	return t, nil
}

// Acquire borrows a task from the pool.
//
// When the pool is empty, it builds a new task.
// The task should be returned with Release.
func (p *ScoringPool) Acquire(ctx context.Context) (*scoring.Task, error) {
	st := p.state.Load()
	if st == nil {
		return nil, xe.Wrapf(xe.ErrConfiguration, "scoring pool is not configured")
	}

	select {
	case t := <-st.idle:
		p.inflight.Add(1)
		return t, nil
	default:
	}

	st.log.Debug("scoring pool is empty. new task is created")
	t, err := p.build(ctx, st)
	if err != nil {
		return nil, err
	}
	p.created.Add(1)
	p.inflight.Add(1)
	return t, nil
}

// Release returns a task borrowed with Acquire.
//
// When the pool has Target idle tasks already, t is discarded.
func (p *ScoringPool) Release(t *scoring.Task) {
	p.inflight.Add(-1)
	st := p.state.Load()
	select {
	case st.idle <- t:
	default:
		n := p.discarded.Add(1)
		st.log.WithField("discarded", n).Debug("scoring pool is full. task is discarded")
	}
}

func (p *ScoringPool) Process(ctx context.Context, inputs ...[]byte) ([]byte, error) {
	t, err := p.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer p.Release(t)
	return t.Score(inputs...)
}

func (p *ScoringPool) Stats() Stats {
	s := Stats{
		Type:      ScoringType,
		Created:   p.created.Load(),
		Discarded: p.discarded.Load(),
		InFlight:  p.inflight.Load(),
	}
	if st := p.state.Load(); st != nil {
		s.Target = cap(st.idle)
		s.Idle = len(st.idle)
	}
	return s
}
