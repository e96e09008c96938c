package artifact

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/opst/tabserve/pkg/schema"
)

// terms of a linear function over attributes.
//
// Missing numeric values are replaced with Means (or 0). Missing or unknown nominal
// values contribute nothing.
type linearTerms struct {
	Intercept    float64                       `json:"intercept"`
	Coefficients map[string]float64            `json:"coefficients,omitempty"`
	Nominal      map[string]map[string]float64 `json:"nominal,omitempty"`
	Means        map[string]float64            `json:"means,omitempty"`
}

func (l linearTerms) check(header *schema.Schema) error {
	for name := range l.Coefficients {
		i, ok := header.Index(name)
		if !ok {
			return fmt.Errorf(`coefficient for unknown attribute "%s"`, name)
		}
		if header.Attribute(i).Type != schema.Numeric {
			return fmt.Errorf(`attribute "%s" has a coefficient, but it is not numeric`, name)
		}
		if i == header.ClassIndex() {
			return fmt.Errorf(`class attribute "%s" has a coefficient`, name)
		}
	}
	for name, weights := range l.Nominal {
		i, ok := header.Index(name)
		if !ok {
			return fmt.Errorf(`coefficients for unknown attribute "%s"`, name)
		}
		attr := header.Attribute(i)
		if attr.Type != schema.Nominal {
			return fmt.Errorf(`attribute "%s" has label coefficients, but it is not nominal`, name)
		}
		for label := range weights {
			if attr.IndexOf(label) < 0 {
				return fmt.Errorf(`attribute "%s" has no label "%s"`, name, label)
			}
		}
	}
	return nil
}

// eval sums terms in attribute order of header, so that equal rows give equal values.
func (l linearTerms) eval(header *schema.Schema, row []float64) float64 {
	ws := make([]float64, 0, len(l.Coefficients))
	xs := make([]float64, 0, len(l.Coefficients))
	y := l.Intercept
	nominal := 0.0
	for i := 0; i < header.NumAttributes(); i++ {
		attr := header.Attribute(i)
		if w, ok := l.Coefficients[attr.Name]; ok {
			x := row[i]
			if math.IsNaN(x) {
				x = l.Means[attr.Name]
			}
			ws = append(ws, w)
			xs = append(xs, x)
			continue
		}
		if weights, ok := l.Nominal[attr.Name]; ok && !math.IsNaN(row[i]) {
			nominal += weights[attr.Values[int(row[i])]]
		}
	}
	return y + floats.Dot(ws, xs) + nominal
}

func (l linearTerms) String() string {
	names := make([]string, 0, len(l.Coefficients))
	for n := range l.Coefficients {
		names = append(names, n)
	}
	sort.Strings(names)

	sb := new(strings.Builder)
	fmt.Fprintf(sb, "%g", l.Intercept)
	for _, n := range names {
		fmt.Fprintf(sb, " + %g * %s", l.Coefficients[n], n)
	}
	if len(l.Nominal) != 0 {
		fmt.Fprintf(sb, " (+ %d nominal terms)", len(l.Nominal))
	}
	return sb.String()
}

// Linear is a linear regression over a numeric class.
type Linear struct {
	linearTerms
}

var _ Classifier = &Linear{}
var _ Checker = &Linear{}

func (*Linear) Kind() string {
	return "linear"
}

func (m *Linear) Describe() string {
	return "linear regression: y = " + m.linearTerms.String()
}

func (m *Linear) Check(header *schema.Schema) error {
	c, ok := header.Class()
	if !ok || c.Type != schema.Numeric {
		return fmt.Errorf("linear regression requires numeric class")
	}
	return m.linearTerms.check(header)
}

func (m *Linear) DistributionForRow(header *schema.Schema, row []float64) ([]float64, error) {
	if len(row) != header.NumAttributes() {
		return nil, fmt.Errorf("row has %d values, but header has %d attributes", len(row), header.NumAttributes())
	}
	return []float64{m.eval(header, row)}, nil
}

// Logistic is a multinomial logistic regression over a nominal class.
//
// Each class label has its own linear terms; distribution is their softmax.
type Logistic struct {
	Classes map[string]linearTerms `json:"classes"`
}

var _ Classifier = &Logistic{}
var _ Checker = &Logistic{}

func (*Logistic) Kind() string {
	return "logistic"
}

func (m *Logistic) Describe() string {
	labels := make([]string, 0, len(m.Classes))
	for l := range m.Classes {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	sb := new(strings.Builder)
	sb.WriteString("multinomial logistic regression:")
	for _, l := range labels {
		fmt.Fprintf(sb, "\n  %s: %s", l, m.Classes[l])
	}
	return sb.String()
}

func (m *Logistic) Check(header *schema.Schema) error {
	c, ok := header.Class()
	if !ok || c.Type != schema.Nominal {
		return fmt.Errorf("logistic regression requires nominal class")
	}
	for label, terms := range m.Classes {
		if c.IndexOf(label) < 0 {
			return fmt.Errorf(`class "%s" has no label "%s"`, c.Name, label)
		}
		if err := terms.check(header); err != nil {
			return fmt.Errorf("terms for %s: %w", label, err)
		}
	}
	return nil
}

func (m *Logistic) DistributionForRow(header *schema.Schema, row []float64) ([]float64, error) {
	c, ok := header.Class()
	if !ok {
		return nil, fmt.Errorf("header has no class")
	}
	if len(row) != header.NumAttributes() {
		return nil, fmt.Errorf("row has %d values, but header has %d attributes", len(row), header.NumAttributes())
	}

	scores := make([]float64, len(c.Values))
	for i, label := range c.Values {
		terms, ok := m.Classes[label]
		if !ok {
			scores[i] = math.Inf(-1)
			continue
		}
		scores[i] = terms.eval(header, row)
	}
	return softmax(scores), nil
}

func softmax(scores []float64) []float64 {
	out := make([]float64, len(scores))
	if len(scores) == 0 {
		return out
	}
	max := floats.Max(scores)
	if math.IsInf(max, -1) {
		floats.AddConst(1/float64(len(out)), out)
		return out
	}
	for i, s := range scores {
		out[i] = math.Exp(s - max)
	}
	floats.Scale(1/floats.Sum(out), out)
	return out
}

func init() {
	Register("linear", func(params json.RawMessage) (Model, error) {
		p, err := decodeParams[linearTerms](params)
		if err != nil {
			return nil, err
		}
		return &Linear{linearTerms: *p}, nil
	})
	Register("logistic", func(params json.RawMessage) (Model, error) {
		p, err := decodeParams[Logistic](params)
		if err != nil {
			return nil, err
		}
		if len(p.Classes) == 0 {
			return nil, fmt.Errorf("logistic regression has no classes")
		}
		return p, nil
	})
}
