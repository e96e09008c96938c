// Package artifact loads trained models and their training schemas.
//
// An artifact is a JSON document:
//
//	{
//	    "model": {"kind": "logistic", "params": {...}},
//	    "header": {"relation": "iris", "attributes": [...], "class": "class"}
//	}
//
// "header" is mandatory: without it, incoming columns cannot be mapped onto the model.
//
// Models are opaque to the serving layer. They are used only through the capability
// interfaces Classifier and Clusterer.
package artifact

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"

	xe "github.com/opst/tabserve/pkg/errors"
	"github.com/opst/tabserve/pkg/schema"
)

// Model is a trained predictive object.
type Model interface {
	// name of the model kind, as registered.
	Kind() string

	// human readable description of the model and its parameters.
	Describe() string
}

// Classifier predicts the class attribute of a row.
type Classifier interface {
	Model

	// DistributionForRow returns, for nominal class, a probability for each class
	// label (in the order of the labels), or, for numeric class, a single prediction.
	//
	// row is aligned to header. Missing values are NaN.
	DistributionForRow(header *schema.Schema, row []float64) ([]float64, error)
}

// Clusterer assigns a row to clusters.
type Clusterer interface {
	Model

	NumClusters() int

	// ClusterDistribution returns a membership probability for each cluster.
	//
	// row is aligned to header. Missing values are NaN.
	ClusterDistribution(header *schema.Schema, row []float64) ([]float64, error)
}

// Checker is implemented by models which can verify themselves against the
// training schema at load time.
type Checker interface {
	Check(header *schema.Schema) error
}

// Decoder builds a Model from its "params".
type Decoder func(params json.RawMessage) (Model, error)

var (
	regmu    sync.RWMutex
	registry = map[string]Decoder{}
)

// Register a model kind.
//
// It panics when kind is empty or registered already, or when decoder is nil.
func Register(kind string, decoder Decoder) {
	regmu.Lock()
	defer regmu.Unlock()

	if kind == "" || decoder == nil {
		panic("artifact: kind and decoder are required")
	}
	if _, ok := registry[kind]; ok {
		panic(fmt.Sprintf("artifact: kind %s is registered twice", kind))
	}
	registry[kind] = decoder
}

// Kinds returns registered kinds, sorted.
func Kinds() []string {
	regmu.RLock()
	defer regmu.RUnlock()

	kinds := make([]string, 0, len(registry))
	for k := range registry {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

func lookup(kind string) (Decoder, bool) {
	regmu.RLock()
	defer regmu.RUnlock()
	d, ok := registry[kind]
	return d, ok
}

type envelope struct {
	Model  *modelJSON     `json:"model"`
	Header *schema.Schema `json:"header"`
}

type modelJSON struct {
	Kind   string          `json:"kind"`
	Params json.RawMessage `json:"params"`
}

// Load reads an artifact.
//
// # Args
//
// - r: serialized artifact, as written by Write.
//
// # Returns
//
// - Model: the decoded model, verified against its header when it is a Checker.
//
// - *schema.Schema: header of the training data.
//
// - error: any problem, wrapping ErrArtifactLoad.
func Load(r io.Reader) (Model, *schema.Schema, error) {
	env := envelope{}
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return nil, nil, xe.Wrap(xe.ErrArtifactLoad, "artifact is not readable", err)
	}
	if env.Header == nil {
		return nil, nil, xe.Wrapf(
			xe.ErrArtifactLoad,
			"model file does not seem to contain header of training data used to build the model. "+
				"We can't map incoming fields without this information",
		)
	}
	if env.Model == nil || env.Model.Kind == "" {
		return nil, nil, xe.Wrapf(xe.ErrArtifactLoad, "model file does not contain a model")
	}

	decode, ok := lookup(env.Model.Kind)
	if !ok {
		return nil, nil, xe.Wrapf(
			xe.ErrArtifactLoad, "unknown model kind: %s (known: %v)", env.Model.Kind, Kinds(),
		)
	}

	model, err := decode(env.Model.Params)
	if err != nil {
		return nil, nil, xe.Wrap(xe.ErrArtifactLoad, "model "+env.Model.Kind+" is broken", err)
	}

	if c, ok := model.(Checker); ok {
		if err := c.Check(env.Header); err != nil {
			return nil, nil, xe.Wrap(
				xe.ErrArtifactLoad, "model "+env.Model.Kind+" does not fit its header", err,
			)
		}
	}

	return model, env.Header, nil
}

// Write an artifact.
//
// # Args
//
// - w: destination
//
// - kind: model kind, one of Kinds().
//
// - params: marshalled as "params" of the model, as is.
//
// - header: header of the training data.
func Write(w io.Writer, kind string, params any, header *schema.Schema) error {
	p, err := json.Marshal(params)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(envelope{
		Model:  &modelJSON{Kind: kind, Params: p},
		Header: header,
	})
}

func decodeParams[T any](params json.RawMessage) (*T, error) {
	p := new(T)
	if len(params) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(params, p); err != nil {
		return nil, err
	}
	return p, nil
}
