package artifact

import (
	"encoding/json"
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/opst/tabserve/pkg/schema"
)

// ZeroR predicts the same thing for every row: the class prior distribution,
// or the mean of a numeric class.
type ZeroR struct {
	Distribution []float64 `json:"distribution,omitempty"`
	Mean         *float64  `json:"mean,omitempty"`
}

var _ Classifier = &ZeroR{}
var _ Checker = &ZeroR{}

func (*ZeroR) Kind() string {
	return "zeror"
}

func (m *ZeroR) Describe() string {
	if m.Mean != nil {
		return fmt.Sprintf("ZeroR: predicts %g", *m.Mean)
	}
	return fmt.Sprintf("ZeroR: predicts distribution %v", m.Distribution)
}

func (m *ZeroR) Check(header *schema.Schema) error {
	c, ok := header.Class()
	if !ok {
		return fmt.Errorf("ZeroR requires class")
	}
	switch c.Type {
	case schema.Numeric:
		if m.Mean == nil {
			return fmt.Errorf("ZeroR for numeric class requires mean")
		}
	default:
		if len(m.Distribution) != len(c.Values) {
			return fmt.Errorf(
				"ZeroR has %d probabilities, but class has %d labels",
				len(m.Distribution), len(c.Values),
			)
		}
	}
	return nil
}

func (m *ZeroR) DistributionForRow(header *schema.Schema, _ []float64) ([]float64, error) {
	c, ok := header.Class()
	if !ok {
		return nil, fmt.Errorf("header has no class")
	}
	if c.Type == schema.Numeric {
		return []float64{*m.Mean}, nil
	}
	dist := make([]float64, len(m.Distribution))
	copy(dist, m.Distribution)
	if sum := floats.Sum(dist); 0 < sum {
		floats.Scale(1/sum, dist)
	}
	return dist, nil
}

func init() {
	Register("zeror", func(params json.RawMessage) (Model, error) {
		p, err := decodeParams[ZeroR](params)
		if err != nil {
			return nil, err
		}
		if p.Mean == nil && len(p.Distribution) == 0 {
			return nil, fmt.Errorf("ZeroR requires distribution or mean")
		}
		return p, nil
	})
}
