package tabular

import (
	"slices"
	"strings"

	xe "github.com/opst/tabserve/pkg/errors"
)

// Options controls how Decode types columns.
//
// Columns listed in Nominal or String are typed so, instead of being inferred.
type Options struct {
	Nominal []string
	String  []string
}

// ParseOptions reads options from its text form, like
//
//	nominal=a,b;string=c
//
// Empty text gives zero Options.
func ParseOptions(s string) (Options, error) {
	opts := Options{}
	for _, clause := range strings.Split(s, ";") {
		clause = strings.TrimSpace(clause)
		if clause == "" {
			continue
		}
		key, value, ok := strings.Cut(clause, "=")
		if !ok {
			return Options{}, xe.Wrapf(xe.ErrConfiguration, `conversion option "%s" is not KEY=VALUE`, clause)
		}

		names := []string{}
		for _, n := range strings.Split(value, ",") {
			if n = strings.TrimSpace(n); n != "" {
				names = append(names, n)
			}
		}

		switch strings.ToLower(strings.TrimSpace(key)) {
		case "nominal":
			opts.Nominal = append(opts.Nominal, names...)
		case "string":
			opts.String = append(opts.String, names...)
		default:
			return Options{}, xe.Wrapf(xe.ErrConfiguration, `unknown conversion option "%s"`, key)
		}
	}
	return opts, nil
}

func (o Options) forced(column string) (ColumnType, bool) {
	if slices.Contains(o.String, column) {
		return String, true
	}
	if slices.Contains(o.Nominal, column) {
		return Nominal, true
	}
	return Unknown, false
}
