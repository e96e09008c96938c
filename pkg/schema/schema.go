package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	xe "github.com/opst/tabserve/pkg/errors"
)

type AttributeType int

const (
	Numeric AttributeType = iota
	Nominal
	String
)

func (t AttributeType) String() string {
	switch t {
	case Numeric:
		return "numeric"
	case Nominal:
		return "nominal"
	case String:
		return "string"
	default:
		return fmt.Sprintf("AttributeType(%d)", int(t))
	}
}

func (t AttributeType) MarshalText() ([]byte, error) {
	switch t {
	case Numeric, Nominal, String:
		return []byte(t.String()), nil
	default:
		return nil, fmt.Errorf("unknown attribute type: %d", int(t))
	}
}

func (t *AttributeType) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "numeric":
		*t = Numeric
	case "nominal":
		*t = Nominal
	case "string":
		*t = String
	default:
		return fmt.Errorf("unknown attribute type: %s", string(b))
	}
	return nil
}

type Attribute struct {
	Name string        `json:"name"`
	Type AttributeType `json:"type"`

	// labels of nominal attribute, in order.
	Values []string `json:"values,omitempty"`
}

// Index of label in Values, or -1.
func (a Attribute) IndexOf(label string) int {
	for i, v := range a.Values {
		if v == label {
			return i
		}
	}
	return -1
}

func (a Attribute) String() string {
	switch a.Type {
	case Nominal:
		return fmt.Sprintf("%s {%s}", a.Name, strings.Join(a.Values, ","))
	default:
		return fmt.Sprintf("%s %s", a.Name, a.Type)
	}
}

// Schema is the manifest of columns which a model is trained with.
//
// It is immutable.
type Schema struct {
	relation   string
	attributes []Attribute
	classIndex int
	index      map[string]int
}

// New creates a Schema.
//
// class is the name of the target attribute, or empty when the schema has no target
// (as for clusterers).
func New(relation string, attributes []Attribute, class string) (*Schema, error) {
	if len(attributes) == 0 {
		return nil, xe.Wrapf(xe.ErrArtifactLoad, "training schema has no attributes")
	}

	index := make(map[string]int, len(attributes))
	attrs := make([]Attribute, len(attributes))
	for i, a := range attributes {
		if a.Name == "" {
			return nil, xe.Wrapf(xe.ErrArtifactLoad, "attribute #%d has no name", i)
		}
		if _, ok := index[a.Name]; ok {
			return nil, xe.Wrapf(xe.ErrArtifactLoad, `attribute "%s" is declared twice`, a.Name)
		}
		if a.Type == Nominal && len(a.Values) == 0 {
			return nil, xe.Wrapf(xe.ErrArtifactLoad, `nominal attribute "%s" has no values`, a.Name)
		}
		index[a.Name] = i

		values := make([]string, len(a.Values))
		copy(values, a.Values)
		attrs[i] = Attribute{Name: a.Name, Type: a.Type, Values: values}
	}

	classIndex := -1
	if class != "" {
		ci, ok := index[class]
		if !ok {
			return nil, xe.Wrapf(xe.ErrArtifactLoad, `class attribute "%s" is not declared`, class)
		}
		if attrs[ci].Type == String {
			return nil, xe.Wrapf(xe.ErrArtifactLoad, `class attribute "%s" should be numeric or nominal`, class)
		}
		classIndex = ci
	}

	return &Schema{
		relation:   relation,
		attributes: attrs,
		classIndex: classIndex,
		index:      index,
	}, nil
}

func (s *Schema) Relation() string {
	return s.relation
}

func (s *Schema) NumAttributes() int {
	return len(s.attributes)
}

func (s *Schema) Attribute(i int) Attribute {
	return s.attributes[i]
}

func (s *Schema) Attributes() []Attribute {
	attrs := make([]Attribute, len(s.attributes))
	copy(attrs, s.attributes)
	return attrs
}

// Index returns the position of the named attribute.
func (s *Schema) Index(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// ClassIndex is position of the target attribute, or -1 if no target.
func (s *Schema) ClassIndex() int {
	return s.classIndex
}

// Class returns the target attribute. ok is false if the schema has no target.
func (s *Schema) Class() (attr Attribute, ok bool) {
	if s.classIndex < 0 {
		return Attribute{}, false
	}
	return s.attributes[s.classIndex], true
}

// String returns the schema in ARFF header like text.
func (s *Schema) String() string {
	sb := new(strings.Builder)
	fmt.Fprintf(sb, "@relation %s\n\n", s.relation)
	for i, a := range s.attributes {
		fmt.Fprintf(sb, "@attribute %s", a)
		if i == s.classIndex {
			sb.WriteString(" % class")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

type schemaJSON struct {
	Relation   string      `json:"relation"`
	Attributes []Attribute `json:"attributes"`
	Class      string      `json:"class,omitempty"`
}

func (s *Schema) MarshalJSON() ([]byte, error) {
	sj := schemaJSON{Relation: s.relation, Attributes: s.attributes}
	if c, ok := s.Class(); ok {
		sj.Class = c.Name
	}
	return json.Marshal(sj)
}

func (s *Schema) UnmarshalJSON(b []byte) error {
	sj := schemaJSON{}
	if err := json.Unmarshal(b, &sj); err != nil {
		return err
	}
	ns, err := New(sj.Relation, sj.Attributes, sj.Class)
	if err != nil {
		return err
	}
	*s = *ns
	return nil
}
