package artifact

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/opst/tabserve/pkg/schema"
)

// KMeans assigns a row to the nearest centroid.
//
// Each centroid maps attribute names to a number (numeric attribute) or a label
// (nominal attribute). Distance is the squared euclidean distance over numeric
// attributes plus 1 for each differing label. Missing values are skipped.
//
// The distribution is hard: 1 for the nearest cluster, 0 for others.
type KMeans struct {
	Centroids []map[string]any `json:"centroids"`
}

var _ Clusterer = &KMeans{}
var _ Checker = &KMeans{}

func (*KMeans) Kind() string {
	return "kmeans"
}

func (m *KMeans) Describe() string {
	sb := new(strings.Builder)
	fmt.Fprintf(sb, "k-means: %d clusters", len(m.Centroids))
	for i, c := range m.Centroids {
		fmt.Fprintf(sb, "\n  cluster %d: %v", i, c)
	}
	return sb.String()
}

func (m *KMeans) NumClusters() int {
	return len(m.Centroids)
}

func (m *KMeans) Check(header *schema.Schema) error {
	for nth, c := range m.Centroids {
		for name, v := range c {
			i, ok := header.Index(name)
			if !ok {
				return fmt.Errorf(`centroid %d: unknown attribute "%s"`, nth, name)
			}
			attr := header.Attribute(i)
			switch x := v.(type) {
			case float64:
				if attr.Type != schema.Numeric {
					return fmt.Errorf(`centroid %d: attribute "%s" is not numeric`, nth, name)
				}
			case string:
				if attr.Type != schema.Nominal || attr.IndexOf(x) < 0 {
					return fmt.Errorf(`centroid %d: "%s" is not a label of attribute "%s"`, nth, x, name)
				}
			default:
				return fmt.Errorf(`centroid %d: value of "%s" should be number or label`, nth, name)
			}
		}
	}
	return nil
}

func (m *KMeans) ClusterDistribution(header *schema.Schema, row []float64) ([]float64, error) {
	if len(row) != header.NumAttributes() {
		return nil, fmt.Errorf("row has %d values, but header has %d attributes", len(row), header.NumAttributes())
	}

	dists := make([]float64, len(m.Centroids))
	for nth, c := range m.Centroids {
		dists[nth] = distance(header, c, row)
	}

	out := make([]float64, len(m.Centroids))
	if len(out) != 0 {
		out[floats.MinIdx(dists)] = 1
	}
	return out, nil
}

func distance(header *schema.Schema, centroid map[string]any, row []float64) float64 {
	d := 0.0
	for i := 0; i < header.NumAttributes(); i++ {
		attr := header.Attribute(i)
		v, ok := centroid[attr.Name]
		if !ok || i == header.ClassIndex() || math.IsNaN(row[i]) {
			continue
		}
		switch x := v.(type) {
		case float64:
			d += (row[i] - x) * (row[i] - x)
		case string:
			if attr.Values[int(row[i])] != x {
				d += 1
			}
		}
	}
	return d
}

func init() {
	Register("kmeans", func(params json.RawMessage) (Model, error) {
		p, err := decodeParams[KMeans](params)
		if err != nil {
			return nil, err
		}
		if len(p.Centroids) == 0 {
			return nil, fmt.Errorf("k-means has no centroids")
		}
		return p, nil
	})
}
