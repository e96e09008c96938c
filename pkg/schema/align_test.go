package schema_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	xe "github.com/opst/tabserve/pkg/errors"
	"github.com/opst/tabserve/pkg/schema"
	"github.com/opst/tabserve/pkg/tabular"
)

func decode(t *testing.T, body string) *tabular.Frame {
	t.Helper()
	f, err := tabular.Decode([]byte(body), tabular.Options{})
	require.NoError(t, err)
	return f
}

func mustSchema(t *testing.T, attrs []schema.Attribute, class string) *schema.Schema {
	t.Helper()
	s, err := schema.New("test", attrs, class)
	require.NoError(t, err)
	return s
}

func TestAlign(t *testing.T) {
	t.Run("it reorders input columns into the schema order", func(t *testing.T) {
		target := mustSchema(t, []schema.Attribute{
			{Name: "a", Type: schema.Numeric},
			{Name: "color", Type: schema.Nominal, Values: []string{"red", "blue"}},
			{Name: "b", Type: schema.Numeric},
			{Name: "label", Type: schema.Numeric},
		}, "label")

		aligned, err := schema.Align(
			decode(t, `{"columns":["b","color","a","extra"],"data":[[2,"blue",1,"x"],[4,"red",3,"y"]]}`),
			target,
		)
		require.NoError(t, err)
		require.Equal(t, 2, aligned.Len())

		row := aligned.Row(0)
		assert.Equal(t, []float64{1, 1, 2}, row[:3])
		assert.True(t, math.IsNaN(row[3]), "class should be missing")

		row = aligned.Row(1)
		assert.Equal(t, []float64{3, 0, 4}, row[:3])
	})

	t.Run("class attribute never leaks from the input", func(t *testing.T) {
		target := mustSchema(t, []schema.Attribute{
			{Name: "a", Type: schema.Numeric},
			{Name: "label", Type: schema.Numeric},
		}, "label")

		aligned, err := schema.Align(decode(t, `{"columns":["a","label"],"data":[[1,100]]}`), target)
		require.NoError(t, err)
		assert.True(t, math.IsNaN(aligned.Row(0)[1]))
	})

	t.Run("missing values and unknown labels are NaN", func(t *testing.T) {
		target := mustSchema(t, []schema.Attribute{
			{Name: "a", Type: schema.Numeric},
			{Name: "color", Type: schema.Nominal, Values: []string{"red"}},
		}, "")

		aligned, err := schema.Align(
			decode(t, `{"columns":["a","color"],"data":[["null","green"]]}`), target,
		)
		require.NoError(t, err)
		row := aligned.Row(0)
		assert.True(t, math.IsNaN(row[0]))
		assert.True(t, math.IsNaN(row[1]))
	})

	t.Run("column without values is compatible with any type", func(t *testing.T) {
		target := mustSchema(t, []schema.Attribute{
			{Name: "color", Type: schema.Nominal, Values: []string{"red"}},
		}, "")

		_, err := schema.Align(decode(t, `{"columns":["color"],"data":[[null]]}`), target)
		assert.NoError(t, err)
	})

	t.Run("it reports every problem, not only the first", func(t *testing.T) {
		target := mustSchema(t, []schema.Attribute{
			{Name: "a", Type: schema.Numeric},
			{Name: "b", Type: schema.Numeric},
			{Name: "c", Type: schema.Numeric},
			{Name: "label", Type: schema.Numeric},
		}, "label")

		_, err := schema.Align(
			decode(t, `{"columns":["a","b"],"data":[[1,"text"]]}`), target,
		)
		require.ErrorIs(t, err, xe.ErrSchemaMismatch)

		var merr *schema.MismatchError
		require.True(t, errors.As(err, &merr))
		require.Len(t, merr.Problems, 2)

		assert.Equal(t, "b", merr.Problems[0].Attribute)
		assert.Equal(t, schema.TypeMismatch, merr.Problems[0].Kind)
		assert.Equal(t, "c", merr.Problems[1].Attribute)
		assert.Equal(t, schema.NoMatch, merr.Problems[1].Kind)

		assert.Contains(t, err.Error(), "'c'")
		assert.Contains(t, err.Error(), "'b numeric'")
	})

	t.Run("Each visits rows in order", func(t *testing.T) {
		target := mustSchema(t, []schema.Attribute{{Name: "a", Type: schema.Numeric}}, "")
		aligned, err := schema.Align(decode(t, `{"columns":["a"],"data":[[1],[2],[3]]}`), target)
		require.NoError(t, err)

		seen := []float64{}
		require.NoError(t, aligned.Each(func(nth int, row []float64) error {
			seen = append(seen, row[0])
			return nil
		}))
		assert.Equal(t, []float64{1, 2, 3}, seen)
	})

	t.Run("string attributes carry the input text", func(t *testing.T) {
		target := mustSchema(t, []schema.Attribute{
			{Name: "note", Type: schema.String},
			{Name: "x", Type: schema.Numeric},
		}, "")

		frame, err := tabular.Decode(
			[]byte(`{"columns":["note","x"],"data":[["hello",1],["world",2],["hello",3],[null,4]]}`),
			tabular.Options{String: []string{"note"}},
		)
		require.NoError(t, err)

		aligned, err := schema.Align(frame, target)
		require.NoError(t, err)

		first := aligned.Row(0)
		assert.False(t, math.IsNaN(first[0]), "text should not be missing")
		assert.Equal(t, 1.0, first[1])

		text, ok := aligned.Text(0, first[0])
		require.True(t, ok)
		assert.Equal(t, "hello", text)

		second := aligned.Row(1)
		assert.NotEqual(t, first[0], second[0])
		text, ok = aligned.Text(0, second[0])
		require.True(t, ok)
		assert.Equal(t, "world", text)

		assert.Equal(t, first[0], aligned.Row(2)[0], "same text, same code")
		assert.True(t, math.IsNaN(aligned.Row(3)[0]))

		v, ok := aligned.Value(0, 0).Str()
		require.True(t, ok)
		assert.Equal(t, "hello", v)
		assert.True(t, aligned.Value(3, 0).IsMissing())

		_, ok = aligned.Text(1, 0)
		assert.False(t, ok, "numeric attribute has no dictionary")
	})

	t.Run("string attribute dictionary starts with declared values", func(t *testing.T) {
		target := mustSchema(t, []schema.Attribute{
			{Name: "note", Type: schema.String, Values: []string{"seen", "known"}},
		}, "")

		frame, err := tabular.Decode(
			[]byte(`{"columns":["note"],"data":[["known"],["fresh"]]}`),
			tabular.Options{String: []string{"note"}},
		)
		require.NoError(t, err)

		aligned, err := schema.Align(frame, target)
		require.NoError(t, err)
		assert.Equal(t, []float64{1}, aligned.Row(0))
		assert.Equal(t, []float64{2}, aligned.Row(1))
	})
}
