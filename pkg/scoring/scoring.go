// Package scoring scores tabular inputs with a model artifact.
package scoring

import (
	"fmt"
	"strings"

	"github.com/opst/tabserve/pkg/artifact"
	"github.com/opst/tabserve/pkg/dataprep"
	xe "github.com/opst/tabserve/pkg/errors"
	"github.com/opst/tabserve/pkg/schema"
	"github.com/opst/tabserve/pkg/tabular"
)

// Variant is the way a Task uses its model.
type Variant int

const (
	// Auto is not a variant of a Task. Passed to New, it chooses one by the model.
	Auto Variant = iota
	Classification
	Clustering
)

func (v Variant) String() string {
	switch v {
	case Auto:
		return "auto"
	case Classification:
		return "classification"
	case Clustering:
		return "clustering"
	default:
		return fmt.Sprintf("Variant(%d)", int(v))
	}
}

// ParseVariant reads a Variant from its name. Empty text is Auto.
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return Auto, nil
	case "classification", "classifier":
		return Classification, nil
	case "clustering", "clusterer":
		return Clustering, nil
	default:
		return Auto, xe.Wrapf(xe.ErrConfiguration, `unknown scorer implementation "%s"`, s)
	}
}

// Task scores inputs with a model.
//
// A Task is not safe for concurrent use. Borrow one from a pool.
type Task struct {
	variant  Variant
	header   *schema.Schema
	preparer dataprep.Preparer

	// one of them is set, by variant.
	classifier artifact.Classifier
	clusterer  artifact.Clusterer

	columns []string
}

// New creates a Task.
//
// # Args
//
// - model: trained model.
//
// - header: schema which model is trained with.
//
// - preparer: converts request payloads into a Frame.
//
// - variant: Classification or Clustering. When it is Auto, Classification is chosen
// if model is a classifier, and Clustering if it is a clusterer.
//
// # Returns
//
// - *Task
//
// - error: wrapping ErrUnsupportedModelType when model cannot serve the variant,
// or when Classification is chosen for a header without class attribute.
func New(model artifact.Model, header *schema.Schema, preparer dataprep.Preparer, variant Variant) (*Task, error) {
	t := &Task{header: header, preparer: preparer}

	classifier, isClassifier := model.(artifact.Classifier)
	clusterer, isClusterer := model.(artifact.Clusterer)

	if variant == Auto {
		switch {
		case isClassifier:
			variant = Classification
		case isClusterer:
			variant = Clustering
		default:
			return nil, xe.Wrapf(
				xe.ErrUnsupportedModelType,
				"model %s is neither a classifier nor a clusterer", model.Kind(),
			)
		}
	}

	switch variant {
	case Classification:
		if !isClassifier {
			return nil, xe.Wrapf(xe.ErrUnsupportedModelType, "model %s is not a classifier", model.Kind())
		}
		if _, ok := header.Class(); !ok {
			return nil, xe.Wrapf(
				xe.ErrUnsupportedModelType,
				"classification needs class attribute, but relation %s has none", header.Relation(),
			)
		}
		t.classifier = classifier
	case Clustering:
		if !isClusterer {
			return nil, xe.Wrapf(xe.ErrUnsupportedModelType, "model %s is not a clusterer", model.Kind())
		}
		t.clusterer = clusterer
	default:
		return nil, xe.Wrapf(xe.ErrConfiguration, "unknown variant: %s", variant)
	}
	t.variant = variant
	t.columns = t.columnNames()
	return t, nil
}

func (t *Task) Variant() Variant {
	return t.variant
}

func (t *Task) Header() *schema.Schema {
	return t.header
}

// ColumnNames returns names of output columns.
//
//   - classification with numeric class: "pred_<class>"
//   - classification with nominal class: "prob_<label>" for each label
//   - clustering: "prob_cluster_<i>" for each cluster
func (t *Task) ColumnNames() []string {
	return append([]string{}, t.columns...)
}

// Describe returns a human readable description of the task.
func (t *Task) Describe() string {
	var model artifact.Model
	switch t.variant {
	case Classification:
		model = t.classifier
	case Clustering:
		model = t.clusterer
	}
	return fmt.Sprintf(
		"%s with %s\npreparer: %v\n%s", t.variant, model.Kind(), t.preparer, model.Describe(),
	)
}

// Score inputs and returns predictions in the tabular wire format.
func (t *Task) Score(inputs ...[]byte) ([]byte, error) {
	frame, err := t.preparer.Prepare(inputs...)
	if err != nil {
		return nil, err
	}

	aligned, err := schema.Align(frame, t.header)
	if err != nil {
		return nil, err
	}

	preds := make([][]float64, 0, aligned.Len())
	if err := aligned.Each(func(nth int, row []float64) error {
		dist, err := t.distribution(row)
		if err != nil {
			return fmt.Errorf("row %d: %w", nth, err)
		}
		if len(dist) != len(t.columns) {
			return fmt.Errorf(
				"row %d: model gives %d values, but %d are expected", nth, len(dist), len(t.columns),
			)
		}
		preds = append(preds, dist)
		return nil
	}); err != nil {
		return nil, err
	}

	return tabular.EncodePredictions(t.columns, preds)
}

func (t *Task) distribution(row []float64) ([]float64, error) {
	switch t.variant {
	case Classification:
		return t.classifier.DistributionForRow(t.header, row)
	case Clustering:
		return t.clusterer.ClusterDistribution(t.header, row)
	default:
		return nil, fmt.Errorf("unknown variant: %s", t.variant)
	}
}

func (t *Task) columnNames() []string {
	switch t.variant {
	case Classification:
		class, _ := t.header.Class()
		if class.Type == schema.Numeric {
			return []string{"pred_" + class.Name}
		}
		names := make([]string, len(class.Values))
		for i, label := range class.Values {
			names[i] = "prob_" + label
		}
		return names
	case Clustering:
		names := make([]string, t.clusterer.NumClusters())
		for i := range names {
			names[i] = fmt.Sprintf("prob_cluster_%d", i)
		}
		return names
	default:
		return nil
	}
}
