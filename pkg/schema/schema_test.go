package schema_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	xe "github.com/opst/tabserve/pkg/errors"
	"github.com/opst/tabserve/pkg/schema"
)

func TestNew(t *testing.T) {
	t.Run("it knows its class attribute", func(t *testing.T) {
		s, err := schema.New("iris", []schema.Attribute{
			{Name: "petallength", Type: schema.Numeric},
			{Name: "class", Type: schema.Nominal, Values: []string{"setosa", "virginica"}},
		}, "class")
		require.NoError(t, err)

		c, ok := s.Class()
		require.True(t, ok)
		assert.Equal(t, "class", c.Name)
		assert.Equal(t, 1, s.ClassIndex())
		assert.Equal(t, 1, c.IndexOf("virginica"))
	})

	t.Run("schema without class has class index -1", func(t *testing.T) {
		s, err := schema.New("blobs", []schema.Attribute{{Name: "x", Type: schema.Numeric}}, "")
		require.NoError(t, err)
		_, ok := s.Class()
		assert.False(t, ok)
		assert.Equal(t, -1, s.ClassIndex())
	})

	for name, testcase := range map[string]struct {
		attrs []schema.Attribute
		class string
	}{
		"no attributes":         {attrs: nil},
		"duplicated attributes": {attrs: []schema.Attribute{{Name: "a"}, {Name: "a"}}},
		"unnamed attribute":     {attrs: []schema.Attribute{{Name: ""}}},
		"nominal without value": {attrs: []schema.Attribute{{Name: "a", Type: schema.Nominal}}},
		"undeclared class":      {attrs: []schema.Attribute{{Name: "a"}}, class: "b"},
		"string class":          {attrs: []schema.Attribute{{Name: "a", Type: schema.String}}, class: "a"},
	} {
		t.Run("it rejects "+name, func(t *testing.T) {
			_, err := schema.New("r", testcase.attrs, testcase.class)
			assert.ErrorIs(t, err, xe.ErrArtifactLoad)
		})
	}
}

func TestJSON(t *testing.T) {
	t.Run("it is read from and written to JSON with class name", func(t *testing.T) {
		in := `{
			"relation": "houses",
			"attributes": [
				{"name": "rooms", "type": "numeric"},
				{"name": "town", "type": "nominal", "values": ["a", "b"]},
				{"name": "price", "type": "numeric"}
			],
			"class": "price"
		}`

		s := new(schema.Schema)
		require.NoError(t, json.Unmarshal([]byte(in), s))
		assert.Equal(t, "houses", s.Relation())
		assert.Equal(t, 2, s.ClassIndex())
		assert.Equal(t, schema.Nominal, s.Attribute(1).Type)

		out, err := json.Marshal(s)
		require.NoError(t, err)
		assert.JSONEq(t, in, string(out))
	})

	t.Run("unknown attribute type is an error", func(t *testing.T) {
		s := new(schema.Schema)
		err := json.Unmarshal([]byte(`{"relation":"r","attributes":[{"name":"a","type":"date"}]}`), s)
		assert.Error(t, err)
	})
}
