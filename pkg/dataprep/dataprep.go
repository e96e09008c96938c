// Package dataprep converts raw request inputs into a tabular.Frame.
package dataprep

import (
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/opst/tabserve/pkg/configs/task"
	xe "github.com/opst/tabserve/pkg/errors"
	"github.com/opst/tabserve/pkg/tabular"
)

// Preparer converts inputs of a request into a Frame.
type Preparer interface {
	// Prepare decodes inputs.
	//
	// Preparers accepting a single input return an error wrapping ErrUnsupportedInput
	// for more inputs.
	Prepare(inputs ...[]byte) (*tabular.Frame, error)
}

// Factory builds a Preparer for a task.
type Factory func(props task.Properties) (Preparer, error)

// Default preparer name, used when the task does not specify one.
const Default = "json"

var (
	regmu     sync.RWMutex
	factories = map[string]Factory{}
)

// Register a preparer factory.
//
// It panics when name is empty or registered already, or when factory is nil.
func Register(name string, factory Factory) {
	regmu.Lock()
	defer regmu.Unlock()

	if name == "" || factory == nil {
		panic("dataprep: name and factory are required")
	}
	if _, ok := factories[name]; ok {
		panic(fmt.Sprintf("dataprep: preparer %s is registered twice", name))
	}
	factories[name] = factory
}

// Names returns registered preparer names, sorted.
func Names() []string {
	regmu.RLock()
	defer regmu.RUnlock()
	return names()
}

func names() []string {
	ns := make([]string, 0, len(factories))
	for n := range factories {
		ns = append(ns, n)
	}
	sort.Strings(ns)
	return ns
}

// Lookup returns the factory registered as name.
//
// Unknown name is an error wrapping ErrArtifactLoad.
func Lookup(name string) (Factory, error) {
	regmu.RLock()
	defer regmu.RUnlock()

	f, ok := factories[name]
	if !ok {
		return nil, xe.Wrapf(
			xe.ErrArtifactLoad, `data preparer "%s" is not available (known: %v)`, name, names(),
		)
	}
	return f, nil
}

// New builds the Preparer which props specify with KeyPreparer.
func New(props task.Properties) (Preparer, error) {
	name := props.Get(task.KeyPreparer)
	if name == "" {
		name = Default
	}
	factory, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	return factory(props)
}

// JSONPreparer decodes a single input in the tabular wire format.
type JSONPreparer struct {
	Options tabular.Options
	Debug   bool
}

var _ Preparer = JSONPreparer{}

func (p JSONPreparer) Prepare(inputs ...[]byte) (*tabular.Frame, error) {
	switch len(inputs) {
	case 0:
		return nil, xe.Wrapf(xe.ErrMalformedPayload, "no input is given")
	case 1:
	default:
		return nil, xe.Wrapf(xe.ErrUnsupportedInput, "Was expecting only a single input dataset, but %d", len(inputs))
	}

	frame, err := tabular.Decode(inputs[0], p.Options)
	if err != nil {
		return nil, err
	}
	if p.Debug {
		logrus.WithFields(logrus.Fields{
			"rows":    frame.NumRows(),
			"columns": frame.Columns(),
		}).Debug("prepared input")
	}
	return frame, nil
}

func (p JSONPreparer) String() string {
	return fmt.Sprintf("json (nominal: %v, string: %v)", p.Options.Nominal, p.Options.String)
}

func init() {
	Register(Default, func(props task.Properties) (Preparer, error) {
		opts, err := tabular.ParseOptions(props.Get(task.KeyPreparerOptions))
		if err != nil {
			return nil, err
		}
		return JSONPreparer{Options: opts, Debug: props.Debug()}, nil
	})
}
