package tabular_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	xe "github.com/opst/tabserve/pkg/errors"
	"github.com/opst/tabserve/pkg/tabular"
)

func TestDecode(t *testing.T) {
	t.Run("it normalizes null sentinels into missing before typing columns", func(t *testing.T) {
		f, err := tabular.Decode(
			[]byte(`{"columns":["a","b","c"],"data":[[1,2,"x"],[3,"null",null],[4," NuLL ","y"]]}`),
			tabular.Options{},
		)
		require.NoError(t, err)

		assert.Equal(t, []tabular.Column{
			{Name: "a", Type: tabular.Numeric},
			{Name: "b", Type: tabular.Numeric},
			{Name: "c", Type: tabular.Nominal},
		}, f.Columns())
		assert.Equal(t, 3, f.NumRows())

		assert.Equal(t, tabular.NumberValue(2), f.Value(0, 1))
		assert.True(t, f.Value(1, 1).IsMissing())
		assert.True(t, f.Value(2, 1).IsMissing())
		assert.True(t, f.Value(1, 2).IsMissing())
		assert.Equal(t, tabular.TextValue("y"), f.Value(2, 2))
	})

	t.Run("numbers in text are numbers", func(t *testing.T) {
		f, err := tabular.Decode(
			[]byte(`{"columns":["a"],"data":[["1.5"],[2]]}`), tabular.Options{},
		)
		require.NoError(t, err)
		assert.Equal(t, tabular.Numeric, f.Column(0).Type)
		assert.Equal(t, tabular.NumberValue(1.5), f.Value(0, 0))
	})

	t.Run("column with only missing values is Unknown", func(t *testing.T) {
		f, err := tabular.Decode(
			[]byte(`{"columns":["a","b"],"data":[[1,null],[2,"null"]]}`), tabular.Options{},
		)
		require.NoError(t, err)
		assert.Equal(t, tabular.Unknown, f.Column(1).Type)
	})

	t.Run("options override inferred types", func(t *testing.T) {
		f, err := tabular.Decode(
			[]byte(`{"columns":["zip","memo"],"data":[[12345,"hello"],[67890,"world"]]}`),
			tabular.Options{Nominal: []string{"zip"}, String: []string{"memo"}},
		)
		require.NoError(t, err)
		assert.Equal(t, tabular.Nominal, f.Column(0).Type)
		assert.Equal(t, tabular.String, f.Column(1).Type)
		assert.Equal(t, tabular.TextValue("12345"), f.Value(0, 0))
	})

	for name, body := range map[string]string{
		"not a JSON":          `{"columns":`,
		"columns are absent":  `{"data":[[1]]}`,
		"columns are empty":   `{"columns":[],"data":[[1]]}`,
		"data is absent":      `{"columns":["a"]}`,
		"data is empty":       `{"columns":["a"],"data":[]}`,
		"row is too short":    `{"columns":["a","b"],"data":[[1]]}`,
		"row is too long":     `{"columns":["a"],"data":[[1,2]]}`,
		"duplicated column":   `{"columns":["a","a"],"data":[[1,2]]}`,
		"nested value":        `{"columns":["a"],"data":[[[1]]]}`,
		"null as column name": `{"columns":[null],"data":[[1]]}`,
	} {
		t.Run("it rejects payload when "+name, func(t *testing.T) {
			_, err := tabular.Decode([]byte(body), tabular.Options{})
			assert.ErrorIs(t, err, xe.ErrMalformedPayload)
		})
	}
}

func TestRoundTrip(t *testing.T) {
	for name, testcase := range map[string]struct {
		in   string
		want string
	}{
		"numbers and texts": {
			in:   `{"columns":["a","b"],"data":[[1,"x"],[2.5,"y"]]}`,
			want: `{"columns":["a","b"],"data":[[1,"x"],[2.5,"y"]]}`,
		},
		"null sentinel normalizes to null": {
			in:   `{"columns":["a","b"],"data":[[1,"NULL"],[null,"y"]]}`,
			want: `{"columns":["a","b"],"data":[[1,null],[null,"y"]]}`,
		},
	} {
		t.Run(name, func(t *testing.T) {
			f, err := tabular.Decode([]byte(testcase.in), tabular.Options{})
			require.NoError(t, err)

			out, err := tabular.Encode(f)
			require.NoError(t, err)
			assert.JSONEq(t, testcase.want, string(out))
		})
	}
}

func TestEncodePredictions(t *testing.T) {
	t.Run("it keeps the column order and writes NaN as null", func(t *testing.T) {
		out, err := tabular.EncodePredictions(
			[]string{"prob_b", "prob_a"},
			[][]float64{{0.25, 0.75}, {math.NaN(), 1}},
		)
		require.NoError(t, err)

		got := map[string]any{}
		require.NoError(t, json.Unmarshal(out, &got))
		assert.Equal(t, []any{"prob_b", "prob_a"}, got["columns"])
		assert.Equal(t, []any{[]any{0.25, 0.75}, []any{nil, 1.0}}, got["data"])
	})

	t.Run("it rejects vectors with wrong width", func(t *testing.T) {
		_, err := tabular.EncodePredictions([]string{"a"}, [][]float64{{1, 2}})
		assert.Error(t, err)
	})
}

func TestParseOptions(t *testing.T) {
	t.Run("it reads nominal and string columns", func(t *testing.T) {
		opts, err := tabular.ParseOptions("nominal = a, b ; string=c;")
		require.NoError(t, err)
		assert.Equal(t, tabular.Options{Nominal: []string{"a", "b"}, String: []string{"c"}}, opts)
	})

	t.Run("empty text is zero options", func(t *testing.T) {
		opts, err := tabular.ParseOptions("")
		require.NoError(t, err)
		assert.Equal(t, tabular.Options{}, opts)
	})

	t.Run("unknown option is configuration error", func(t *testing.T) {
		_, err := tabular.ParseOptions("date=a")
		assert.ErrorIs(t, err, xe.ErrConfiguration)
	})
}

func TestFromRecords(t *testing.T) {
	t.Run("empty cells and null sentinels are missing", func(t *testing.T) {
		f, err := tabular.FromRecords(
			[]string{"a", "b"},
			[][]string{{"1", "x"}, {"", "NULL"}, {"2.5", "y"}},
			tabular.Options{},
		)
		require.NoError(t, err)
		assert.Equal(t, []tabular.Column{
			{Name: "a", Type: tabular.Numeric},
			{Name: "b", Type: tabular.Nominal},
		}, f.Columns())
		assert.True(t, f.Value(1, 0).IsMissing())
		assert.True(t, f.Value(1, 1).IsMissing())

		out, err := tabular.Encode(f)
		require.NoError(t, err)
		assert.JSONEq(t, `{"columns":["a","b"],"data":[[1,"x"],[null,null],[2.5,"y"]]}`, string(out))
	})

	t.Run("ragged record is ErrMalformedPayload", func(t *testing.T) {
		_, err := tabular.FromRecords([]string{"a", "b"}, [][]string{{"1"}}, tabular.Options{})
		assert.ErrorIs(t, err, xe.ErrMalformedPayload)
	})
}
