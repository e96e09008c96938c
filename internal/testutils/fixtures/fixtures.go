// Package fixtures provides training schemas and model artifacts for tests.
package fixtures

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/opst/tabserve/pkg/artifact"
	"github.com/opst/tabserve/pkg/schema"
)

func mustSchema(t *testing.T, relation string, attrs []schema.Attribute, class string) *schema.Schema {
	t.Helper()
	s, err := schema.New(relation, attrs, class)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

// RegressionHeader: a (numeric), b (numeric), label (numeric, class).
func RegressionHeader(t *testing.T) *schema.Schema {
	return mustSchema(t, "regression", []schema.Attribute{
		{Name: "a", Type: schema.Numeric},
		{Name: "b", Type: schema.Numeric},
		{Name: "label", Type: schema.Numeric},
	}, "label")
}

// LinearParams: label = 1 + 2a + 3b, and missing b is 10.
func LinearParams() map[string]any {
	return map[string]any{
		"intercept":    1.0,
		"coefficients": map[string]float64{"a": 2, "b": 3},
		"means":        map[string]float64{"b": 10},
	}
}

// IrisHeader: petallength, petalwidth (numeric) and class {setosa, versicolor}.
func IrisHeader(t *testing.T) *schema.Schema {
	return mustSchema(t, "iris", []schema.Attribute{
		{Name: "petallength", Type: schema.Numeric},
		{Name: "petalwidth", Type: schema.Numeric},
		{Name: "class", Type: schema.Nominal, Values: []string{"setosa", "versicolor"}},
	}, "class")
}

// LogisticParams: versicolor gets more likely as petals grow.
func LogisticParams() map[string]any {
	return map[string]any{
		"classes": map[string]any{
			"setosa":     map[string]any{"intercept": 0.0},
			"versicolor": map[string]any{"intercept": -5.0, "coefficients": map[string]float64{"petallength": 1, "petalwidth": 1}},
		},
	}
}

// BlobsHeader: x, y (numeric) without class.
func BlobsHeader(t *testing.T) *schema.Schema {
	return mustSchema(t, "blobs", []schema.Attribute{
		{Name: "x", Type: schema.Numeric},
		{Name: "y", Type: schema.Numeric},
	}, "")
}

// KMeansParams: 3 clusters around (0,0), (10,0) and (0,10).
func KMeansParams() map[string]any {
	return map[string]any{
		"centroids": []map[string]float64{
			{"x": 0, "y": 0},
			{"x": 10, "y": 0},
			{"x": 0, "y": 10},
		},
	}
}

// Artifact returns an artifact in bytes.
func Artifact(t *testing.T, kind string, params any, header *schema.Schema) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	if err := artifact.Write(buf, kind, params, header); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// WriteArtifact writes an artifact as dir/name.
func WriteArtifact(t *testing.T, dir string, name string, kind string, params any, header *schema.Schema) {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, Artifact(t, kind, params, header), 0o644); err != nil {
		t.Fatal(err)
	}
}

// ModelDir creates a temporary model directory with
// "linear.json", "logistic.json" and "kmeans.json".
func ModelDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	WriteArtifact(t, dir, "linear.json", "linear", LinearParams(), RegressionHeader(t))
	WriteArtifact(t, dir, "logistic.json", "logistic", LogisticParams(), IrisHeader(t))
	WriteArtifact(t, dir, "kmeans.json", "kmeans", KMeansParams(), BlobsHeader(t))
	return dir
}
